// Package recipe defines the declarative package recipe consumed by the
// build pipeline.
//
// A recipe names an upstream source archive, pins it by digest, lists build
// dependencies, and describes how to build, install and smoke-test a single
// command-line tool. Recipes are written in HCL, one "recipe" block per
// package:
//
//	recipe "clawsec" {
//	  description = "Modern netcat with AES-256-GCM encryption"
//	  homepage    = "https://github.com/LF3551/ClawSec"
//	  url         = "https://github.com/LF3551/ClawSec/archive/refs/tags/v2.0.0.tar.gz"
//	  sha256      = "<hex>"
//	  license     = "BSD-3-Clause"
//	  depends_on  = ["openssl@3"]
//
//	  build {
//	    dir     = "unix"
//	    command = ["make", "macos", "CC=$CC", "CXX=$CXX"]
//	  }
//
//	  install {
//	    path = "clawsec"
//	  }
//
//	  test {
//	    command = ["clawsec", "-h"]
//	  }
//	}
//
// Expressions may reference the variables "name" and "version". When no
// version attribute is given it is derived from the source URL. Decoded
// recipes are read-only values; [Recipe.Validate] must pass before any
// network or filesystem work is attempted.
package recipe
