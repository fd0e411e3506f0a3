package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Server wraps an HTTP server with address and lifecycle methods.
type Server struct {
	http *http.Server
	addr string
}

// NewServer creates a Server serving the given engine on addr.
func NewServer(engine *gin.Engine, addr string) *Server {
	return &Server{
		http: &http.Server{Addr: addr, Handler: engine},
		addr: addr,
	}
}

// Start starts serving on the configured address. It returns nil on
// graceful shutdown.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.addr
}
