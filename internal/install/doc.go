// Package install copies built artifacts into an install prefix.
//
// Each artifact is resolved inside the build's working directory, so a
// symlink in the source tree cannot pull in files from elsewhere, and is
// written to prefix/<dest>/<base name> through a temporary file and a rename.
// Permission bits are carried over, so executables stay executable.
//
// An install is all-or-nothing. Files that are about to be replaced are
// moved aside first; if any artifact fails, every file written by the
// current call is removed and the moved-aside files are put back. Callers
// serialize installs of the same package themselves.
//
// Example usage:
//
//	installed, err := install.Install(workdir, recipe.Artifacts, prefix)
//	if err != nil {
//	    return err
//	}
package install
