package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/cruciblehq/kiln/internal"
	"github.com/cruciblehq/kiln/internal/protocol"
	"github.com/cruciblehq/kiln/internal/recipe"
)

// Handles a build command.
//
// Every recipe in the request is parsed before any of them runs; a parse
// error rejects the whole request. Run failures are reported per recipe in
// the result, not as an error response.
func (s *Server) handleBuild(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.BuildRequest](payload)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	var recipes []*recipe.Recipe
	for _, f := range req.Recipes {
		parsed, err := recipe.Parse([]byte(f.Source), f.Filename)
		if err != nil {
			s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
			return
		}
		recipes = append(recipes, parsed...)
	}

	parallel := req.Parallel
	if parallel <= 0 {
		parallel = s.parallel
	}

	results := s.runner.RunAll(ctx, recipes, parallel)

	s.mu.Lock()
	s.builds += len(results)
	s.mu.Unlock()

	out := &protocol.BuildResult{Runs: make([]protocol.RunResult, len(results))}
	for i, res := range results {
		out.Runs[i] = protocol.NewRunResult(res)
	}
	s.respond(conn, protocol.CmdOK, out)
}

// Handles a status command.
func (s *Server) handleStatus(conn net.Conn) {
	s.mu.Lock()
	builds := s.builds
	s.mu.Unlock()

	uptime := time.Since(s.startedAt).Truncate(time.Second)

	s.respond(conn, protocol.CmdOK, &protocol.StatusResult{
		Running: true,
		Version: internal.VersionString(),
		Pid:     os.Getpid(),
		Uptime:  uptime.String(),
		Builds:  builds,
		Prefix:  s.prefix,
	})
}

// Handles a shutdown command.
func (s *Server) handleShutdown(conn net.Conn) {
	s.respond(conn, protocol.CmdOK, nil)
	slog.Info("shutdown requested")

	go s.Stop()
}
