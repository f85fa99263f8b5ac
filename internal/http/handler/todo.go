package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jaekwang-park/todo-store/internal/model"
	"github.com/jaekwang-park/todo-store/internal/service"
)

const (
	msgInvalidJSON      = "Invalid JSON body"
	msgNoData           = "No data provided"
	msgTodoNotFound     = "Todo not found"
	msgTodoDeleted      = "Todo deleted successfully"
	msgInternalError    = "internal server error"
	msgMethodNotAllowed = "method not allowed"
)

type TodoHandler struct {
	svc *service.TodoService
}

func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

type todoResponse struct {
	Success bool       `json:"success"`
	Todo    model.Todo `json:"todo"`
}

type listResponse struct {
	Success bool         `json:"success"`
	Todos   []model.Todo `json:"todos"`
	Count   int          `json:"count"`
}

type statsResponse struct {
	Success bool            `json:"success"`
	Stats   model.TodoStats `json:"stats"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ServeHTTP routes /api/todos, /api/todos/stats and /api/todos/{id}
func (h *TodoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/todos"), "/")

	switch rest {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		}
		return
	case "stats":
		if r.Method != http.MethodGet {
			WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
			return
		}
		h.handleStats(w, r)
		return
	}

	// Anything that is not a todo id cannot name an existing todo.
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		WriteError(w, http.StatusNotFound, msgTodoNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, id)
	case http.MethodPut:
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	}
}

func (h *TodoHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter model.TodoFilter
	if query.Has("completed") {
		completed := strings.EqualFold(query.Get("completed"), "true")
		filter.Completed = &completed
	}
	if p := query.Get("priority"); p != "" {
		priority := model.Priority(p)
		filter.Priority = &priority
	}

	result, err := h.svc.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, listResponse{Success: true, Todos: result.Todos, Count: result.Count})
}

// createTodoRequest is loosely typed: a non-string priority falls back to
// the default, a non-string title or description is rejected.
type createTodoRequest struct {
	Title       any `json:"title"`
	Description any `json:"description"`
	Priority    any `json:"priority"`
}

func (h *TodoHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	title, ok := optionalString(req.Title)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Title must be a string")
		return
	}
	description, ok := optionalString(req.Description)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Description must be a string")
		return
	}
	priority, _ := req.Priority.(string)

	todo, err := h.svc.Create(r.Context(), service.CreateTodoInput{
		Title:       title,
		Description: description,
		Priority:    model.Priority(priority),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, todoResponse{Success: true, Todo: todo})
}

func (h *TodoHandler) handleGet(w http.ResponseWriter, r *http.Request, id int64) {
	todo, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, todoResponse{Success: true, Todo: todo})
}

func (h *TodoHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id int64) {
	var fields map[string]json.RawMessage
	if err := decodeBody(r, &fields); err != nil {
		if errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, msgNoData)
		} else {
			WriteError(w, http.StatusBadRequest, msgInvalidJSON)
		}
		return
	}
	if len(fields) == 0 {
		WriteError(w, http.StatusBadRequest, msgNoData)
		return
	}

	var input service.UpdateTodoInput
	if raw, ok := fields["title"]; ok {
		var title string
		if err := json.Unmarshal(raw, &title); err != nil {
			WriteError(w, http.StatusBadRequest, "Title must be a string")
			return
		}
		input.Title = &title
	}
	if raw, ok := fields["description"]; ok {
		var description string
		if err := json.Unmarshal(raw, &description); err != nil {
			WriteError(w, http.StatusBadRequest, "Description must be a string")
			return
		}
		input.Description = &description
	}
	if raw, ok := fields["completed"]; ok {
		completed := truthy(raw)
		input.Completed = &completed
	}
	if raw, ok := fields["priority"]; ok {
		// Non-string priorities are dropped like unknown values.
		var p string
		if err := json.Unmarshal(raw, &p); err == nil {
			priority := model.Priority(p)
			input.Priority = &priority
		}
	}

	todo, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, todoResponse{Success: true, Todo: todo})
}

func (h *TodoHandler) handleDelete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.svc.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, messageResponse{Success: true, Message: msgTodoDeleted})
}

func (h *TodoHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, statsResponse{Success: true, Stats: stats})
}

// decodeBody decodes one JSON value from the request body. An empty body
// yields io.EOF.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return io.EOF
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

// optionalString accepts a JSON string or an absent/null value.
func optionalString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	default:
		return "", false
	}
}

// truthy reports the boolean value of a JSON value: false, 0, "", null,
// [] and {} are false, everything else is true.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		WriteError(w, http.StatusBadRequest, service.Message(err))
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, service.Message(err))
	default:
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("kind", service.KindOf(err)).
			Msg("todo store request failed")
		WriteError(w, http.StatusInternalServerError, msgInternalError)
	}
}
