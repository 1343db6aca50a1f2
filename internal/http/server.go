package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server wraps the gin engine in a net/http server so callers can drain
// in-flight requests on shutdown instead of dropping them.
type Server struct {
	Engine *gin.Engine
	srv    *nethttp.Server
}

func NewServer(cfg RouterConfig) *Server {
	engine := NewRouter(cfg)
	return &Server{
		Engine: engine,
		srv: &nethttp.Server{
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run blocks serving on address until Shutdown is called or the listener
// fails. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Run(address string) error {
	s.srv.Addr = address
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting new connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
