package install

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/cruciblehq/kiln/internal/recipe"
)

// Writes files into a fresh work directory. Names ending in "*" are made
// executable.
func workdir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		mode := os.FileMode(0o644)
		if n := len(name); name[n-1] == '*' {
			name, mode = name[:n-1], 0o755
		}
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), mode); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(path, mode); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// Returns the relative paths of all regular files under root.
func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(files)
	return files
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestInstall(t *testing.T) {
	work := workdir(t, map[string]string{
		"unix/clawsec*":    "binary",
		"doc/clawsec.1":    "manual",
		"unix/LICENSE.txt": "license",
	})
	prefix := t.TempDir()

	installed, err := Install(work, []recipe.Artifact{
		{Path: "unix/clawsec", Dest: "bin"},
		{Path: "doc/clawsec.1", Dest: "share/man/man1"},
		{Path: "unix/LICENSE.txt"},
	}, prefix)
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}

	want := []string{
		filepath.Join(prefix, "bin", "clawsec"),
		filepath.Join(prefix, "share", "man", "man1", "clawsec.1"),
		filepath.Join(prefix, "bin", "LICENSE.txt"),
	}
	if !slices.Equal(installed, want) {
		t.Errorf("installed = %q, want %q", installed, want)
	}
	if got := readFile(t, want[0]); got != "binary" {
		t.Errorf("content = %q, want %q", got, "binary")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(want[0])
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o755 {
			t.Errorf("binary mode = %v, want 0755", info.Mode().Perm())
		}
		info, err = os.Stat(want[1])
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o644 {
			t.Errorf("manual mode = %v, want 0644", info.Mode().Perm())
		}
	}

	wantFiles := []string{"bin/LICENSE.txt", "bin/clawsec", "share/man/man1/clawsec.1"}
	if got := listFiles(t, prefix); !slices.Equal(got, wantFiles) {
		t.Errorf("prefix files = %q, want %q (no temporary files left)", got, wantFiles)
	}
}

func TestInstallIdempotent(t *testing.T) {
	work := workdir(t, map[string]string{"tool*": "v1"})
	prefix := t.TempDir()
	artifacts := []recipe.Artifact{{Path: "tool"}}

	first, err := Install(work, artifacts, prefix)
	if err != nil {
		t.Fatalf("first Install() error: %v", err)
	}
	second, err := Install(work, artifacts, prefix)
	if err != nil {
		t.Fatalf("second Install() error: %v", err)
	}

	if !slices.Equal(first, second) {
		t.Errorf("installed paths differ: %q vs %q", first, second)
	}
	if got := listFiles(t, prefix); !slices.Equal(got, []string{"bin/tool"}) {
		t.Errorf("prefix files = %q, want [bin/tool]", got)
	}
}

func TestInstallRollback(t *testing.T) {
	tests := []struct {
		name    string
		fail    recipe.Artifact
		prepare func(t *testing.T, prefix string)
		wantErr error
	}{
		{
			name:    "missing artifact",
			fail:    recipe.Artifact{Path: "missing"},
			wantErr: ErrMissingArtifact,
		},
		{
			name:    "directory artifact",
			fail:    recipe.Artifact{Path: "subdir"},
			wantErr: ErrNotRegular,
		},
		{
			name: "unwritable destination",
			fail: recipe.Artifact{Path: "three", Dest: "lib"},
			prepare: func(t *testing.T, prefix string) {
				// A file where the destination directory should be.
				if err := os.WriteFile(filepath.Join(prefix, "lib"), nil, 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work := workdir(t, map[string]string{
				"one*":         "new one",
				"two*":         "new two",
				"three":        "three",
				"subdir/inner": "inner",
			})
			prefix := t.TempDir()
			if err := os.MkdirAll(filepath.Join(prefix, "bin"), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(prefix, "bin", "two"), []byte("old two"), 0o755); err != nil {
				t.Fatal(err)
			}
			if tt.prepare != nil {
				tt.prepare(t, prefix)
			}
			before := listFiles(t, prefix)

			_, err := Install(work, []recipe.Artifact{{Path: "one"}, {Path: "two"}, tt.fail}, prefix)
			if !errors.Is(err, ErrInstall) {
				t.Fatalf("Install() error = %v, want ErrInstall", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Install() error = %v, want %v", err, tt.wantErr)
			}

			if _, err := os.Stat(filepath.Join(prefix, "bin", "one")); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("bin/one should have been removed, stat error = %v", err)
			}
			if got := readFile(t, filepath.Join(prefix, "bin", "two")); got != "old two" {
				t.Errorf("bin/two = %q, want the previous content restored", got)
			}
			if after := listFiles(t, prefix); !slices.Equal(after, before) {
				t.Errorf("prefix files = %q, want %q", after, before)
			}
		})
	}
}

func TestInstallSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks")
	}
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret"), []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	work := t.TempDir()
	if err := os.Symlink(filepath.Join(outside, "secret"), filepath.Join(work, "tool")); err != nil {
		t.Fatal(err)
	}

	_, err := Install(work, []recipe.Artifact{{Path: "tool"}}, t.TempDir())
	if !errors.Is(err, ErrMissingArtifact) {
		t.Fatalf("Install() error = %v, want ErrMissingArtifact", err)
	}
}

func TestInstallEmpty(t *testing.T) {
	installed, err := Install(t.TempDir(), nil, t.TempDir())
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if len(installed) != 0 {
		t.Errorf("installed = %q, want none", installed)
	}
}
