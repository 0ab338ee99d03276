package api

import (
	"context"
	"log"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// HTTPServer wraps the chi router with h2c (HTTP/2 cleartext), matching
// the teacher's internal/server/server.go. Kept even though this domain
// serves plain JSON, not a Connect RPC protocol, because h2c costs nothing
// extra and gives the introspection API cheap multiplexed keep-alive
// behavior for long-poll dashboard clients.
type HTTPServer struct {
	addr   string
	deps   *Dependencies
	logger *log.Logger
	srv    *http.Server
}

// NewHTTPServer builds a server listening on addr.
func NewHTTPServer(addr string, deps *Dependencies, jwtSecret string, logger *log.Logger) *HTTPServer {
	handler := h2c.NewHandler(NewRouter(deps, jwtSecret, logger), &http2.Server{})
	return &HTTPServer{
		addr:   addr,
		deps:   deps,
		logger: logger,
		srv:    &http.Server{Addr: addr, Handler: handler},
	}
}

// Start blocks serving until the server is shut down; ErrServerClosed is
// swallowed, matching net/http's documented graceful-shutdown contract.
func (s *HTTPServer) Start() error {
	s.logger.Printf("api: listening on %s", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, bounded by ctx.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
