// Package toolchain resolves the compilers and dependency locations a build
// runs with.
//
// The result is an explicit [Toolchain] value handed to the build stage
// rather than something the build reads from process state, so pipelines
// can be exercised with fake compilers. [Resolve] takes the environment as
// a slice: CC and CXX are honored when set and otherwise "cc" and "c++" are
// looked up on that environment's PATH. Dependency prefixes are only passed
// through to the external build (as PKG_CONFIG_PATH, CPPFLAGS and LDFLAGS);
// kiln never searches for libraries such as OpenSSL itself.
package toolchain
