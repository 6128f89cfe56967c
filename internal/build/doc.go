// Package build runs a recipe's external build command on the host.
//
// The command is an argument vector, not a shell script. Toolchain
// placeholders such as $CC, ${CXX}, $JOBS and $PREFIX_OPENSSL_3 are expanded
// in each argument before the program starts, and an unknown placeholder is
// reported as [ErrExpand] rather than silently becoming empty. The command
// runs in the recipe's build directory, which is resolved inside the
// extracted source tree and cannot escape it.
//
// The environment is layered: the caller's base environment, then the
// toolchain entries (CC, CXX, PKG_CONFIG_PATH, CPPFLAGS, LDFLAGS,
// MAKEFLAGS), then the recipe's own build environment. Output is streamed to
// the caller's writers and captured verbatim. A non-zero exit is returned as
// an [*ExitError] carrying that output. Builds are never retried.
//
// Example usage:
//
//	result, err := build.Run(ctx, build.Options{
//	    Root:      workdir,
//	    Dir:       "unix",
//	    Command:   []string{"make", "macos", "CC=$CC", "CXX=$CXX"},
//	    Toolchain: tc,
//	    Environ:   os.Environ(),
//	    Stdout:    os.Stdout,
//	    Stderr:    os.Stderr,
//	})
//	if err != nil {
//	    return err
//	}
package build
