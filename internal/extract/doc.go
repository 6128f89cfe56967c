// Package extract unpacks verified source archives into a working directory.
//
// Supported formats are tar compressed with gzip or zstd, and plain tar. The
// format is detected from the leading bytes of the file rather than from its
// name. Extraction is strict: an entry that is absolute, that escapes the
// destination through "..", that passes through a previously extracted
// symlink, or that is a symlink pointing outside the destination aborts the
// whole extraction with [ErrPathTraversal]. Such entries are never rewritten
// into a different path, since silently sanitizing them would hide a
// malicious archive.
//
// The returned [Manifest] lists the archive's top-level entries in archive
// order. Source tarballs usually wrap everything in a single directory, which
// [Manifest.Root] reports so the caller can use it as the build root.
package extract
