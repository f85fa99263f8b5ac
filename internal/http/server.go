package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaekwang-park/todo-store/internal/middleware"
)

type ServerOptions struct {
	// Auth guards /api routes; nil disables authentication.
	Auth *middleware.Auth

	// Metrics observes every request; nil disables request metrics.
	Metrics middleware.RequestObserver

	// CORSOrigins lists allowed browser origins; empty disables CORS headers.
	CORSOrigins []string
}

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

func NewServer(port string, logger zerolog.Logger, router http.Handler, opts ServerOptions) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      Chain(logger, router, opts),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Chain wraps router with the middleware stack, outermost first:
// request id -> recovery -> logging -> metrics -> CORS -> auth -> router.
func Chain(logger zerolog.Logger, router http.Handler, opts ServerOptions) http.Handler {
	h := router
	if opts.Auth != nil {
		h = opts.Auth.Middleware(h)
	}
	if len(opts.CORSOrigins) > 0 {
		h = middleware.CORS(opts.CORSOrigins)(h)
	}
	if opts.Metrics != nil {
		h = middleware.Metrics(opts.Metrics)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)
	return middleware.RequestID(logger)(h)
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
