package extract

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (

	// Default cap on a single regular file (1 GiB).
	DefaultMaxEntryBytes int64 = 1 << 30

	// Default cap on the sum of all regular files (8 GiB).
	DefaultMaxTotalBytes int64 = 8 << 30

	// Directory permissions used for implicit parent directories.
	dirMode os.FileMode = 0755
)

// Top-level entries of an extracted archive.
type Manifest struct {
	Format  Format   // Detected archive format.
	Entries []string // Top-level names, in order of first appearance.
	Files   int      // Number of regular files written.
}

// Returns the single top-level directory of the archive.
//
// Returns false when the archive has more than one top-level entry or its
// only entry is not a directory.
func (m *Manifest) Root() (string, bool) {
	if len(m.Entries) != 1 || !strings.HasSuffix(m.Entries[0], "/") {
		return "", false
	}
	return strings.TrimSuffix(m.Entries[0], "/"), true
}

// Limits applied during extraction.
type Limits struct {
	MaxEntryBytes int64 // Largest single regular file; zero means [DefaultMaxEntryBytes].
	MaxTotalBytes int64 // Largest total of regular files; zero means [DefaultMaxTotalBytes].
}

// Extracts the archive at archivePath into dest with default limits.
//
// The destination is created if it does not exist. On error the partially
// extracted tree is left in place for the caller to remove with the rest of
// its working directory.
func Extract(archivePath, dest string) (*Manifest, error) {
	return ExtractWithLimits(archivePath, dest, Limits{})
}

// Extracts the archive at archivePath into dest, enforcing lim.
//
// Every error wraps [ErrExtract].
func ExtractWithLimits(archivePath, dest string, lim Limits) (*Manifest, error) {
	m, err := extract(archivePath, dest, lim)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtract, err)
	}
	return m, nil
}

func extract(archivePath, dest string, lim Limits) (*Manifest, error) {
	if lim.MaxEntryBytes <= 0 {
		lim.MaxEntryBytes = DefaultMaxEntryBytes
	}
	if lim.MaxTotalBytes <= 0 {
		lim.MaxTotalBytes = DefaultMaxTotalBytes
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	format, err := Detect(br)
	if err != nil {
		return nil, err
	}

	stream, release, err := decompress(br)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := os.MkdirAll(dest, dirMode); err != nil {
		return nil, err
	}

	x := &extractor{
		dest:     dest,
		lim:      lim,
		manifest: &Manifest{Format: format},
		seen:     make(map[string]bool),
	}

	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar entry: %w", err)
		}

		if err := x.entry(hdr, tr); err != nil {
			return nil, err
		}
	}

	slog.Debug("extracted archive",
		"archive", archivePath,
		"format", format,
		"entries", x.manifest.Entries,
		"files", x.manifest.Files,
	)

	return x.manifest, nil
}

// Extraction state for one archive.
type extractor struct {
	dest     string
	lim      Limits
	total    int64
	manifest *Manifest
	seen     map[string]bool // Top-level names already recorded.
}

// Writes a single archive entry.
func (x *extractor) entry(hdr *tar.Header, r io.Reader) error {
	switch hdr.Typeflag {
	case tar.TypeXGlobalHeader, tar.TypeXHeader:
		return nil // Metadata, not a file.
	}

	rel, err := localName(hdr.Name)
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}

	if err := x.checkParents(rel); err != nil {
		return err
	}

	target := filepath.Join(x.dest, filepath.FromSlash(rel))
	if isSymlink(target) {
		return fmt.Errorf("%w: %q overwrites an extracted symlink", ErrPathTraversal, rel)
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		x.record(rel, true)
		return os.MkdirAll(target, dirMode|hdr.FileInfo().Mode().Perm())

	case tar.TypeReg:
		x.record(rel, false)
		return x.writeFile(target, hdr, r)

	case tar.TypeSymlink:
		if err := x.checkLink(rel, hdr.Linkname); err != nil {
			return err
		}
		x.record(rel, false)
		if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
			return err
		}
		return os.Symlink(hdr.Linkname, target)

	case tar.TypeLink:
		src, err := localName(hdr.Linkname)
		if err != nil {
			return err
		}
		if err := x.checkParents(src); err != nil {
			return err
		}
		x.record(rel, false)
		if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
			return err
		}
		return os.Link(filepath.Join(x.dest, filepath.FromSlash(src)), target)
	}

	return fmt.Errorf("%w: %q (type %q)", ErrUnsupportedEntry, hdr.Name, string(hdr.Typeflag))
}

// Writes a regular file, enforcing the size limits.
func (x *extractor) writeFile(target string, hdr *tar.Header, r io.Reader) (err error) {
	if hdr.Size > x.lim.MaxEntryBytes {
		return fmt.Errorf("%w: %q is %d bytes", ErrTooLarge, hdr.Name, hdr.Size)
	}
	if x.total+hdr.Size > x.lim.MaxTotalBytes {
		return fmt.Errorf("%w: total exceeds %d bytes", ErrTooLarge, x.lim.MaxTotalBytes)
	}

	if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(out, io.LimitReader(r, x.lim.MaxEntryBytes+1))
	if err != nil {
		return fmt.Errorf("writing %q: %w", hdr.Name, err)
	}
	if n > x.lim.MaxEntryBytes {
		return fmt.Errorf("%w: %q", ErrTooLarge, hdr.Name)
	}

	x.total += n
	x.manifest.Files++
	return nil
}

// Rejects entries whose parent directories include an extracted symlink.
//
// Without this check an archive could plant "a -> /etc" and then write
// "a/passwd".
func (x *extractor) checkParents(rel string) error {
	dir := path.Dir(rel)
	for dir != "." && dir != "/" {
		if isSymlink(filepath.Join(x.dest, filepath.FromSlash(dir))) {
			return fmt.Errorf("%w: %q passes through symlink %q", ErrPathTraversal, rel, dir)
		}
		dir = path.Dir(dir)
	}
	return nil
}

// Records the top-level component of rel in the manifest.
//
// Directories are recorded with a trailing slash. A name seen first as a
// parent of a file counts as a directory.
func (x *extractor) record(rel string, isDir bool) {
	top, rest, nested := strings.Cut(rel, "/")
	if nested && rest != "" {
		isDir = true
	}
	if isDir {
		top += "/"
	}
	if x.seen[strings.TrimSuffix(top, "/")] {
		return
	}
	x.seen[strings.TrimSuffix(top, "/")] = true
	x.manifest.Entries = append(x.manifest.Entries, top)
}

// Cleans an archive entry name and checks that it stays inside the
// destination.
//
// Returns the cleaned slash-separated name. Absolute names and names that
// climb out of the destination are rejected, not rewritten.
func localName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty entry name", ErrPathTraversal)
	}
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) || strings.Contains(name, "\\") {
		return "", fmt.Errorf("%w: %q is absolute or not slash-separated", ErrPathTraversal, name)
	}

	clean := path.Clean(name)
	if clean == "." {
		return clean, nil
	}
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, name)
	}
	return clean, nil
}

// Rejects symlinks whose target resolves outside the destination.
//
// The target is walked one component at a time against the tree extracted so
// far. A ".." that climbs above the destination or steps back out of an
// extracted symlink is rejected.
func (x *extractor) checkLink(rel, target string) error {
	if target == "" || strings.HasPrefix(target, "/") || filepath.IsAbs(target) {
		return fmt.Errorf("%w: symlink %q -> %q", ErrPathTraversal, rel, target)
	}

	cur := path.Dir(rel)
	for _, part := range strings.Split(target, "/") {
		switch part {
		case "", ".":
		case "..":
			if cur == "." || isSymlink(filepath.Join(x.dest, filepath.FromSlash(cur))) {
				return fmt.Errorf("%w: symlink %q -> %q", ErrPathTraversal, rel, target)
			}
			cur = path.Dir(cur)
		default:
			cur = path.Join(cur, part)
		}
	}
	return nil
}

// Reports whether p exists and is a symlink.
func isSymlink(p string) bool {
	info, err := os.Lstat(p)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}
