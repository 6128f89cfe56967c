package install

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/cruciblehq/kiln/internal/paths"
	"github.com/cruciblehq/kiln/internal/recipe"
)

// Prefix of the temporary and backup files created next to destinations.
const tempPrefix = ".kiln-"

// A destination written during the current install.
type entry struct {
	dest   string // Installed file.
	backup string // Previous file moved aside, empty if there was none.
}

// Tracks the files an install has written so they can be undone.
type transaction struct {
	entries []entry
}

// Copies artifacts from workdir into prefix and returns the installed paths
// in declaration order.
//
// A missing or non-regular artifact fails with [ErrMissingArtifact] or
// [ErrNotRegular]; any failure is wrapped in [ErrInstall] and leaves the
// prefix as it was before the call.
func Install(workdir string, artifacts []recipe.Artifact, prefix string) (installed []string, err error) {
	tx := &transaction{}
	defer func() {
		if err != nil {
			tx.rollback()
			err = fmt.Errorf("%w: %w", ErrInstall, err)
			return
		}
		tx.commit()
	}()

	for _, a := range artifacts {
		dest, err := tx.install(workdir, a, prefix)
		if err != nil {
			return nil, err
		}
		slog.Debug("installed artifact", "src", a.Path, "dest", dest)
		installed = append(installed, dest)
	}

	return installed, nil
}

// Installs a single artifact and records it in the transaction.
func (tx *transaction) install(workdir string, a recipe.Artifact, prefix string) (string, error) {
	src, info, err := source(workdir, a.Path)
	if err != nil {
		return "", err
	}

	destDir, err := securejoin.SecureJoin(prefix, a.DestDir())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, paths.DefaultDirMode); err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, filepath.Base(a.Path))

	tmp, err := copyTemp(src, destDir, info.Mode().Perm())
	if err != nil {
		return "", err
	}

	backup, err := moveAside(dest)
	if err != nil {
		os.Remove(tmp)
		return "", err
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		if backup != "" {
			os.Rename(backup, dest)
		}
		return "", err
	}

	tx.entries = append(tx.entries, entry{dest: dest, backup: backup})
	return dest, nil
}

// Undoes every recorded entry, newest first.
func (tx *transaction) rollback() {
	for i := len(tx.entries) - 1; i >= 0; i-- {
		e := tx.entries[i]
		if err := os.Remove(e.dest); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("rollback: removing installed file", "path", e.dest, "error", err)
		}
		if e.backup == "" {
			continue
		}
		if err := os.Rename(e.backup, e.dest); err != nil {
			slog.Warn("rollback: restoring previous file", "path", e.dest, "backup", e.backup, "error", err)
		}
	}
	tx.entries = nil
}

// Drops the backups of a successful install.
func (tx *transaction) commit() {
	for _, e := range tx.entries {
		if e.backup == "" {
			continue
		}
		if err := os.Remove(e.backup); err != nil {
			slog.Warn("removing backup", "path", e.backup, "error", err)
		}
	}
	tx.entries = nil
}

// Resolves an artifact inside workdir and checks it is a regular file.
func source(workdir, rel string) (string, os.FileInfo, error) {
	src, err := securejoin.SecureJoin(workdir, rel)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("%w: %s", ErrMissingArtifact, rel)
		}
		return "", nil, err
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("%w: %s", ErrNotRegular, rel)
	}

	return src, info, nil
}

// Copies src into a new temporary file in dir with the given permissions
// and returns its path. The copy is synced before it is closed.
func copyTemp(src, dir string, perm os.FileMode) (path string, err error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(out.Name())
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}
	if err := out.Chmod(perm); err != nil {
		return "", err
	}
	if err := out.Sync(); err != nil {
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	return out.Name(), nil
}

// Moves an existing destination to a backup name in the same directory.
// Returns an empty path when there is nothing to move.
func moveAside(dest string) (string, error) {
	info, err := os.Lstat(dest)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s exists and is a directory", dest)
	}

	f, err := os.CreateTemp(filepath.Dir(dest), tempPrefix+"backup-*")
	if err != nil {
		return "", err
	}
	backup := f.Name()
	f.Close()

	if err := os.Rename(dest, backup); err != nil {
		os.Remove(backup)
		return "", err
	}
	return backup, nil
}
