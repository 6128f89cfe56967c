// Package server implements the kiln daemon.
//
// The daemon listens on a Unix domain socket for JSON-encoded commands from
// the kiln CLI. Each connection carries a single request-response exchange:
// the client sends a newline-delimited JSON envelope, the server dispatches
// the command, and writes the result back before closing the connection.
//
// All builds go through one [pipeline.Runner], so installs of the same
// package requested by different clients are serialized. A client that
// disconnects while its build is running cancels it.
//
// Example usage:
//
//	srv := server.New(server.Config{
//	    Runner: pipeline.New(cfg),
//	    Prefix: cfg.Prefix,
//	})
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	srv.Wait()
package server
