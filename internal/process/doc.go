// Package process runs external commands on the host for the build and
// smoke test stages.
//
// [Exec] starts a program with an explicit argument vector, environment and
// working directory, streams its output to optional writers while capturing
// the tail verbatim, and reports the exit code. A non-zero exit code is not an
// error at this level; callers decide what it means. Cancelling the context
// kills the process. Captures keep the last [DefaultMaxCapture] bytes of
// each stream unless [Spec] sets another limit.
//
// Program names are resolved against the PATH of the environment passed in,
// not the PATH of the kiln process, so a build sees exactly the tools its
// environment describes.
//
// [Expand] substitutes $NAME and ${NAME} references in an argument vector
// from an environment slice without invoking a shell. Unset names are
// errors, so a misspelled placeholder never turns into an empty argument.
package process
