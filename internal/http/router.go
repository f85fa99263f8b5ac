package http

import (
	"net/http"

	"github.com/jaekwang-park/todo-store/internal/http/handler"
	"github.com/jaekwang-park/todo-store/internal/service"
)

type RouterOptions struct {
	Todos *service.TodoService

	// DB is pinged by /health when set.
	DB handler.Pinger

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func NewRouter(opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Health check stays outside /api so that auth never applies to it
	mux.Handle("/health", handler.NewHealthHandler(opts.DB))

	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}

	todoHandler := handler.NewTodoHandler(opts.Todos)
	mux.Handle("/api/todos", todoHandler)
	mux.Handle("/api/todos/", todoHandler)

	mux.HandleFunc("/", handler.NotFound)

	return mux
}
