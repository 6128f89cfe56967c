// Package smoke runs a recipe's post-install check.
//
// The check is a single command that must exit 0 within a timeout. When the
// program name matches the base name of an installed artifact, the
// installed copy is run instead of whatever PATH would find, so the test
// exercises what was just installed. $BIN and $PREFIX expand to the install
// prefix's bin directory and the prefix itself, and prefix/bin is put in
// front of PATH.
//
// A failing check does not undo the install; it is reported with the
// captured output.
package smoke
