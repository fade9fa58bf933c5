package todos

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/todo-cloud/backend/internal/platform/auth"
	"github.com/todo-cloud/backend/internal/platform/metrics"
)

var requestsTotal = metrics.NewCounterVec(metrics.Opts{
	Name: "todo_api_requests_total",
	Help: "HTTP requests handled, by route and status.",
}, []string{"route", "status"})

func init() {
	metrics.Default.MustRegister(requestsTotal)
}

type Handler struct {
	Service       *Service
	Tokens        auth.Manager
	AllowedOrigin string
}

func NewHandler(service *Service, tokens auth.Manager, allowedOrigin string) *Handler {
	return &Handler{
		Service:       service,
		Tokens:        tokens,
		AllowedOrigin: allowedOrigin,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.corsMiddleware)
	r.Use(h.metricsMiddleware)
	r.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Group(func(authR chi.Router) {
		authR.Use(h.authMiddleware)
		authR.Get("/api/v1/todos", h.handleListTodos)
		authR.Post("/api/v1/todos", h.handleCreateTodo)
		authR.Patch("/api/v1/todos/{todoID}", h.handleUpdateTodo)
		authR.Delete("/api/v1/todos/{todoID}", h.handleDeleteTodo)
		authR.Post("/api/v1/todos/{todoID}/attachment", h.handleGenerateUploadURL)
	})

	return r
}

func (h *Handler) handleListTodos(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	items, err := h.Service.ListTodos(r.Context(), userID)
	if err != nil {
		log.Printf("list todos for user %s: %v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch todos")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	userID := userIDFromContext(r.Context())
	item, err := h.Service.CreateTodo(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("create todo for user %s: %v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "failed to create todo")
		return
	}
	h.writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	todoID := chi.URLParam(r, "todoID")
	var req UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	userID := userIDFromContext(r.Context())
	err := h.Service.UpdateTodo(r.Context(), userID, todoID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTodoIDRequired):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrTodoNotFound):
			h.writeError(w, http.StatusNotFound, "todo not found")
		default:
			h.writeError(w, http.StatusInternalServerError, "error occurred while updating todo")
		}
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"msg": "todo has been updated", "updated": req})
}

func (h *Handler) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	todoID := chi.URLParam(r, "todoID")
	userID := userIDFromContext(r.Context())

	err := h.Service.DeleteTodo(r.Context(), userID, todoID)
	if err != nil {
		if errors.Is(err, ErrTodoIDRequired) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "error occurred while deleting todo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGenerateUploadURL(w http.ResponseWriter, r *http.Request) {
	todoID := chi.URLParam(r, "todoID")
	userID := userIDFromContext(r.Context())

	uploadURL, err := h.Service.GenerateUploadURL(r.Context(), userID, todoID)
	if err != nil {
		switch {
		case errors.Is(err, ErrTodoIDRequired):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrTodoNotFound):
			h.writeError(w, http.StatusNotFound, "todo not found")
		default:
			log.Printf("generate upload url for todo %s: %v", todoID, err)
			h.writeError(w, http.StatusInternalServerError, "failed to generate upload url")
		}
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"uploadUrl": uploadURL})
}

func (h *Handler) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", h.allowedOrigin(r.Header.Get("Origin")))
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) allowedOrigin(requestOrigin string) string {
	if h.AllowedOrigin == "" || h.AllowedOrigin == "*" {
		if requestOrigin != "" {
			return requestOrigin
		}
		return "*"
	}
	return h.AllowedOrigin
}

func (h *Handler) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Method
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = r.Method + " " + rctx.RoutePattern()
		}
		requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type ownerContextKey struct{}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			h.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := h.Tokens.Parse(token)
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ownerContextKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(ownerContextKey{}).(string)
	return userID
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
