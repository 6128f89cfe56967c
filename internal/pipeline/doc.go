// Package pipeline drives a recipe through fetch, verify, extract, build,
// install and smoke test.
//
// A run is a strictly sequential state machine:
//
//	Pending -> Fetched -> Verified -> Extracted -> Built -> Installed -> Tested
//
// Each stage gates the next and the first failure aborts the run with a
// [Status] naming its class. Nothing is retried. The recipe is validated
// before any I/O, so a placeholder digest aborts at the Verified boundary
// with [StatusConfigError] without touching the network.
//
// Every run owns a scratch directory under the cache root holding the
// downloaded archive and, once the archive has been verified, the extracted
// source tree. The directory is removed on every exit path, including
// cancellation. The install prefix is the only state shared between runs;
// installs of the same package name are serialized by a named lock held by
// the [Runner], so one Runner should serve all concurrent runs against a
// prefix.
//
// Example usage:
//
//	runner := pipeline.New(pipeline.Config{
//	    Prefix:   paths.Prefix(),
//	    CacheDir: paths.Cache(),
//	    Environ:  os.Environ(),
//	})
//	res := runner.Run(ctx, rcp)
//	if res.Err != nil {
//	    os.Stderr.WriteString(res.Stderr)
//	    return res.Err
//	}
package pipeline
