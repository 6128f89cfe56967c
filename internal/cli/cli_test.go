package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
	"github.com/opencontainers/go-digest"

	"github.com/cruciblehq/kiln/internal/pipeline"
	"github.com/cruciblehq/kiln/internal/protocol"
	"github.com/cruciblehq/kiln/internal/server"
)

const validRecipe = `
recipe "clawsec" {
  description = "Modern netcat with AES-256-GCM encryption"
  homepage    = "https://github.com/LF3551/ClawSec"
  url         = "https://github.com/LF3551/ClawSec/archive/refs/tags/v2.0.0.tar.gz"
  sha256      = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
  license     = "BSD-3-Clause"
  depends_on  = ["openssl@3"]

  build {
    dir     = "unix"
    command = ["make", "macos", "CC=$CC", "CXX=$CXX"]
  }

  install {
    path = "clawsec"
  }

  test {
    command = ["clawsec", "-h"]
  }
}
`

// Writes a recipe file and returns its path.
func writeRecipe(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipe.hcl")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Redirects command output for the duration of the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func TestTOMLConfig(t *testing.T) {
	var cli struct {
		RunnerFlags `embed:""`
	}

	src := `
prefix        = "/opt/kiln"
fetch_timeout = "10m"
jobs          = 8
cc            = "clang"

[dep-prefix]
"openssl@3" = "/opt/openssl"
zlib        = "/opt/zlib"
`
	resolver, err := tomlLoader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("tomlLoader() error: %v", err)
	}

	parser, err := kong.New(&cli, kong.Resolvers(resolver), kong.Vars(flagVars), kong.Exit(func(int) {}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse([]string{"--jobs=2"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cli.Prefix != "/opt/kiln" {
		t.Errorf("Prefix = %q, want /opt/kiln", cli.Prefix)
	}
	if cli.FetchTimeout != 10*time.Minute {
		t.Errorf("FetchTimeout = %s, want 10m", cli.FetchTimeout)
	}
	if cli.SmokeTimeout != 30*time.Second {
		t.Errorf("SmokeTimeout = %s, want the 30s default", cli.SmokeTimeout)
	}
	if cli.Jobs != 2 {
		t.Errorf("Jobs = %d, want 2 from the command line", cli.Jobs)
	}
	if cli.CC != "clang" {
		t.Errorf("CC = %q, want clang", cli.CC)
	}
	want := map[string]string{"openssl@3": "/opt/openssl", "zlib": "/opt/zlib"}
	if diff := cmp.Diff(want, cli.DepPrefix); diff != "" {
		t.Errorf("DepPrefix mismatch (-want +got):\n%s", diff)
	}
}

func TestTOMLConfigInvalid(t *testing.T) {
	_, err := tomlLoader(strings.NewReader("prefix = [unterminated"))
	if !errors.Is(err, ErrConfigFile) {
		t.Fatalf("tomlLoader() error = %v, want ErrConfigFile", err)
	}
}

func TestCheck(t *testing.T) {
	out := captureStdout(t)

	cmd := &CheckCmd{Recipes: []string{writeRecipe(t, validRecipe)}}
	if err := cmd.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	for _, want := range []string{
		"clawsec 2.0.0",
		"license:     BSD-3-Clause",
		"depends on:  openssl@3",
		"build:       (cd unix) make macos CC=$CC CXX=$CXX",
		"install:     clawsec -> bin",
		"ok",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCheckPlaceholder(t *testing.T) {
	captureStdout(t)

	src := strings.Replace(validRecipe, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", "REPLACE_WITH_ACTUAL_SHA256", 1)
	cmd := &CheckCmd{Recipes: []string{writeRecipe(t, src)}}

	err := cmd.Run(context.Background())
	if !errors.Is(err, pipeline.ErrConfig) {
		t.Fatalf("Run() error = %v, want ErrConfig", err)
	}
	if code := pipeline.ExitCode(err); code != pipeline.ExitConfig {
		t.Errorf("ExitCode() = %d, want %d", code, pipeline.ExitConfig)
	}
}

func TestBuildPlaceholderExitCode(t *testing.T) {
	captureStdout(t)

	src := strings.Replace(validRecipe, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", "REPLACE_WITH_ACTUAL_SHA256", 1)
	cmd := &BuildCmd{
		Recipes: []string{writeRecipe(t, src)},
		RunnerFlags: RunnerFlags{
			Prefix:   t.TempDir(),
			Cache:    t.TempDir(),
			Parallel: 1,
		},
	}

	err := cmd.Run(context.Background())
	if code := pipeline.ExitCode(err); code != pipeline.ExitConfig {
		t.Fatalf("ExitCode(%v) = %d, want %d", err, code, pipeline.ExitConfig)
	}
}

func TestBuildParseError(t *testing.T) {
	cmd := &BuildCmd{Recipes: []string{writeRecipe(t, `recipe "x" {`)}}

	err := cmd.Run(context.Background())
	if code := pipeline.ExitCode(err); code != pipeline.ExitConfig {
		t.Fatalf("ExitCode(%v) = %d, want %d", err, code, pipeline.ExitConfig)
	}
}

func TestReport(t *testing.T) {
	var out, errOut bytes.Buffer
	runs := []protocol.RunResult{
		{Recipe: "tool 1.0.0", State: "Tested(Pass)", Status: "Success", Duration: "2s", Installed: []string{"/p/bin/tool"}},
		{
			Recipe:   "clawsec 2.0.0",
			State:    "Aborted(BuildFailed)",
			Status:   "BuildFailed",
			Duration: "1s",
			Error:    "clawsec 2.0.0: BuildFailed: build failed: make exited with status 2",
			Stdout:   "cc -c main.c\n",
			Stderr:   "main.c:1:10: fatal error: openssl/evp.h: No such file or directory\n",
		},
	}

	err := report(&out, &errOut, runs, false)
	if !errors.Is(err, pipeline.ErrBuild) {
		t.Fatalf("report() error = %v, want ErrBuild", err)
	}
	if got := err.Error(); got != runs[1].Error {
		t.Errorf("error = %q", got)
	}

	wantOut := "tool 1.0.0: Tested(Pass) (2s)\n  /p/bin/tool\nclawsec 2.0.0: Aborted(BuildFailed) (1s)\n"
	if out.String() != wantOut {
		t.Errorf("stdout = %q, want %q", out.String(), wantOut)
	}
	if errOut.String() != runs[1].Stdout+runs[1].Stderr {
		t.Errorf("stderr = %q, want the captured output verbatim", errOut.String())
	}

	errOut.Reset()
	out.Reset()
	report(&out, &errOut, runs, true)
	if errOut.Len() != 0 {
		t.Errorf("streamed output was printed again: %q", errOut.String())
	}
}

func TestDigest(t *testing.T) {
	out := captureStdout(t)
	content := []byte("source archive")

	path := filepath.Join(t.TempDir(), "src.tar.gz")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &DigestCmd{Source: path, Algorithm: "sha256"}
	if err := cmd.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if want := digest.FromBytes(content).String() + "\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestDigestURL(t *testing.T) {
	out := captureStdout(t)
	content := []byte("remote archive")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer srv.Close()

	cmd := &DigestCmd{Source: srv.URL + "/v1.0.0.tar.gz", Algorithm: "sha512"}
	if err := cmd.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if want := digest.SHA512.FromBytes(content).String() + "\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestDaemonCommands(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets")
	}
	out := captureStdout(t)

	dir, err := os.MkdirTemp("", "kiln")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "kiln.sock")

	prefix := filepath.Join(dir, "prefix")
	srv := server.New(server.Config{
		SocketPath: socket,
		PIDFile:    filepath.Join(dir, "kiln.pid"),
		Prefix:     prefix,
		Runner:     pipeline.New(pipeline.Config{Prefix: prefix, CacheDir: filepath.Join(dir, "cache")}),
	})
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { srv.Stop() })

	prev := RootCmd.Socket
	RootCmd.Socket = socket
	t.Cleanup(func() { RootCmd.Socket = prev })

	if err := (&StatusCmd{}).Run(context.Background()); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "prefix:  "+prefix) {
		t.Errorf("status output = %q", out.String())
	}

	src := strings.Replace(validRecipe, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", "TODO", 1)
	build := &BuildCmd{Recipes: []string{writeRecipe(t, src)}, Daemon: true}
	err = build.Run(context.Background())
	if code := pipeline.ExitCode(err); code != pipeline.ExitConfig {
		t.Errorf("daemon build: ExitCode(%v) = %d, want %d", err, code, pipeline.ExitConfig)
	}

	if err := (&StopCmd{}).Run(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case <-srv.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}

	err = (&StatusCmd{}).Run(context.Background())
	if !errors.Is(err, ErrDaemon) {
		t.Errorf("status after stop: error = %v, want ErrDaemon", err)
	}
}
