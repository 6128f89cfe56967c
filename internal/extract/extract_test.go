package extract

import (
	"archive/tar"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Describes one tar entry in a test archive.
type entry struct {
	name     string
	body     string
	mode     int64
	typeflag byte
	linkname string
}

func file(name, body string) entry {
	return entry{name: name, body: body, mode: 0o644, typeflag: tar.TypeReg}
}

func dir(name string) entry {
	return entry{name: name, mode: 0o755, typeflag: tar.TypeDir}
}

func symlink(name, target string) entry {
	return entry{name: name, mode: 0o777, typeflag: tar.TypeSymlink, linkname: target}
}

func tarBytes(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.name,
			Mode:     e.mode,
			Size:     int64(len(e.body)),
			Typeflag: e.typeflag,
			Linkname: e.linkname,
			Format:   tar.FormatPAX,
		}
		if e.typeflag != tar.TypeReg {
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing header %q: %v", e.name, err)
		}
		if hdr.Size > 0 {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("writing body %q: %v", e.name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}
	return buf.Bytes()
}

func writeArchive(t *testing.T, format Format, entries []entry) string {
	t.Helper()
	raw := tarBytes(t, entries)

	var out bytes.Buffer
	switch format {
	case FormatTarGzip:
		gw := gzip.NewWriter(&out)
		gw.Write(raw)
		if err := gw.Close(); err != nil {
			t.Fatalf("closing gzip writer: %v", err)
		}
	case FormatTarZstd:
		zw, err := zstd.NewWriter(&out)
		if err != nil {
			t.Fatalf("creating zstd writer: %v", err)
		}
		zw.Write(raw)
		if err := zw.Close(); err != nil {
			t.Fatalf("closing zstd writer: %v", err)
		}
	default:
		out.Write(raw)
	}

	path := filepath.Join(t.TempDir(), "source.archive")
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("writing archive: %v", err)
	}
	return path
}

// A GitHub-style source tarball: everything under one directory.
func sourceTree() []entry {
	return []entry{
		dir("ClawSec-2.0.0/"),
		dir("ClawSec-2.0.0/unix/"),
		file("ClawSec-2.0.0/unix/Makefile", "all:\n"),
		file("ClawSec-2.0.0/unix/clawsec.c", "int main(void) { return 0; }\n"),
		file("ClawSec-2.0.0/README.md", "# ClawSec\n"),
	}
}

func TestExtractFormats(t *testing.T) {
	for _, format := range []Format{FormatTarGzip, FormatTarZstd, FormatTar} {
		t.Run(string(format), func(t *testing.T) {
			archive := writeArchive(t, format, sourceTree())
			dest := filepath.Join(t.TempDir(), "work")

			m, err := Extract(archive, dest)
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if m.Format != format {
				t.Errorf("Format = %q, want %q", m.Format, format)
			}
			if m.Files != 3 {
				t.Errorf("Files = %d, want 3", m.Files)
			}

			root, ok := m.Root()
			if !ok || root != "ClawSec-2.0.0" {
				t.Fatalf("Root() = %q, %v; want ClawSec-2.0.0, true", root, ok)
			}

			data, err := os.ReadFile(filepath.Join(dest, root, "unix", "Makefile"))
			if err != nil {
				t.Fatalf("reading extracted file: %v", err)
			}
			if string(data) != "all:\n" {
				t.Fatalf("Makefile = %q, want %q", data, "all:\n")
			}
		})
	}
}

func TestManifestRoundTrip(t *testing.T) {
	entries := []entry{
		file("README", "readme"),
		dir("src/"),
		file("src/main.c", "int main;"),
		file("lib/util.c", "util"), // parent directory has no entry of its own
		symlink("latest", "src"),
	}
	archive := writeArchive(t, FormatTarGzip, entries)
	dest := t.TempDir()

	m, err := Extract(archive, dest)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	want := []string{"README", "src/", "lib/", "latest"}
	if diff := cmp.Diff(want, m.Entries); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}

	listed, err := os.ReadDir(dest)
	if err != nil {
		t.Fatalf("listing dest: %v", err)
	}
	var names []string
	for _, e := range listed {
		names = append(names, e.Name())
	}
	var manifest []string
	for _, e := range m.Entries {
		manifest = append(manifest, strings.TrimSuffix(e, "/"))
	}
	slices.Sort(names)
	slices.Sort(manifest)
	if diff := cmp.Diff(manifest, names); diff != "" {
		t.Fatalf("re-listed entries differ from manifest (-manifest +listed):\n%s", diff)
	}

	if _, ok := m.Root(); ok {
		t.Fatal("Root() reported a single root for a multi-entry archive")
	}
}

func TestExtractPreservesMode(t *testing.T) {
	archive := writeArchive(t, FormatTarGzip, []entry{
		{name: "configure", body: "#!/bin/sh\n", mode: 0o755, typeflag: tar.TypeReg},
	})
	dest := t.TempDir()
	if _, err := Extract(archive, dest); err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	info, err := os.Stat(filepath.Join(dest, "configure"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Fatalf("mode = %v, want owner-executable", info.Mode())
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	tests := []struct {
		name    string
		entries []entry
	}{
		{"dot dot", []entry{file("../evil", "x")}},
		{"nested dot dot", []entry{file("pkg/../../evil", "x")}},
		{"absolute", []entry{file("/tmp/evil", "x")}},
		{"absolute symlink", []entry{symlink("link", "/etc")}},
		{"escaping symlink", []entry{symlink("pkg/link", "../../etc")}},
		{"write through symlink", []entry{symlink("link", "pkg"), dir("pkg/"), file("link/evil", "x")}},
		{"dot dot through symlink", []entry{dir("a/"), symlink("a/l", ".."), symlink("c", "a/l/../evil"), file("c", "pwned")}},
		{"climb out and back", []entry{symlink("pkg/link", "../../work/x")}},
		{"overwrite symlink", []entry{dir("pkg/"), symlink("c", "pkg/x"), file("c", "x")}},
		{"escaping hardlink", []entry{{name: "hard", typeflag: tar.TypeLink, linkname: "../outside", mode: 0o644}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			dest := filepath.Join(parent, "work")
			archive := writeArchive(t, FormatTarGzip, tt.entries)

			_, err := Extract(archive, dest)
			if !errors.Is(err, ErrPathTraversal) {
				t.Fatalf("Extract() = %v, want ErrPathTraversal", err)
			}
			if !errors.Is(err, ErrExtract) {
				t.Fatalf("Extract() = %v, want ErrExtract", err)
			}
			if _, err := os.Lstat(filepath.Join(parent, "evil")); err == nil {
				t.Fatal("traversal entry was written outside the destination")
			}
		})
	}
}

func TestExtractKeepsInternalSymlinks(t *testing.T) {
	archive := writeArchive(t, FormatTarGzip, []entry{
		dir("pkg/"),
		dir("pkg/lib/"),
		file("pkg/lib/libfoo.so.1.2", "elf"),
		symlink("pkg/lib/libfoo.so.1", "libfoo.so.1.2"),
		symlink("pkg/lib/libfoo.so", "libfoo.so.1"),
		dir("pkg/include/"),
		symlink("pkg/include/lib", "../lib/./libfoo.so"),
	})
	dest := t.TempDir()

	if _, err := Extract(archive, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "pkg", "include", "lib"))
	if err != nil {
		t.Fatalf("reading through symlink chain: %v", err)
	}
	if string(got) != "elf" {
		t.Errorf("content = %q, want %q", got, "elf")
	}
}

func TestExtractRejectsDevices(t *testing.T) {
	archive := writeArchive(t, FormatTar, []entry{{name: "fifo", typeflag: tar.TypeFifo, mode: 0o644}})
	_, err := Extract(archive, t.TempDir())
	if !errors.Is(err, ErrUnsupportedEntry) {
		t.Fatalf("Extract() = %v, want ErrUnsupportedEntry", err)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.zip")
	if err := os.WriteFile(path, []byte("PK\x03\x04 not a tarball"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	_, err := Extract(path, t.TempDir())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Extract() = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtractCorrupt(t *testing.T) {
	archive := writeArchive(t, FormatTarGzip, sourceTree())
	data, err := os.ReadFile(archive)
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if err := os.WriteFile(archive, data[:len(data)/2], 0o644); err != nil {
		t.Fatalf("truncating archive: %v", err)
	}

	_, err = Extract(archive, t.TempDir())
	if !errors.Is(err, ErrExtract) {
		t.Fatalf("Extract() = %v, want ErrExtract", err)
	}
}

func TestExtractSizeLimit(t *testing.T) {
	archive := writeArchive(t, FormatTarGzip, []entry{file("big", strings.Repeat("x", 64))})
	_, err := ExtractWithLimits(archive, t.TempDir(), Limits{MaxEntryBytes: 16})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("ExtractWithLimits() = %v, want ErrTooLarge", err)
	}
}
