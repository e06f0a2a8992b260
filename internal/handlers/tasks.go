package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/benvon/cupid-code/internal/middleware"
	"github.com/benvon/cupid-code/internal/models"
	"github.com/benvon/cupid-code/internal/presenter"
	"github.com/benvon/cupid-code/internal/session"
	"github.com/benvon/cupid-code/internal/tasklist"
	"github.com/benvon/cupid-code/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Error codes returned in the "code" field of to-do errors
const (
	CodeEmptyTaskText    = "empty_task_text"
	CodeIndexOutOfRange  = "index_out_of_range"
	CodeTaskNotFound     = "task_not_found"
	CodeSessionNotFound  = "session_not_found"
	CodeSessionForbidden = "session_forbidden"
	CodeInvalidID        = "invalid_id"
	CodeTaskTextTooLong  = "task_text_too_long"
)

// MaxTaskTextLength is the maximum length for task text
const MaxTaskTextLength = 1000

// SessionRegistry is the part of session.Registry the handlers use
type SessionRegistry interface {
	Open(ctx context.Context, userID uuid.UUID) (*session.Session, error)
	Get(userID, sessionID uuid.UUID) (*session.Session, error)
	Close(ctx context.Context, userID, sessionID uuid.UUID) error
}

// TaskSessionHandler serves the to-do screen
type TaskSessionHandler struct {
	sessions SessionRegistry
	logger   *zap.Logger
}

// NewTaskSessionHandler creates a new to-do session handler
func NewTaskSessionHandler(sessions SessionRegistry, logger *zap.Logger) *TaskSessionHandler {
	return &TaskSessionHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers to-do routes on the given router
// The router should already have the /todo-sessions prefix
func (h *TaskSessionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.OpenSession).Methods("POST")
	r.HandleFunc("/{session_id}", h.GetSession).Methods("GET")
	r.HandleFunc("/{session_id}", h.CloseSession).Methods("DELETE")
	r.HandleFunc("/{session_id}/tasks", h.AddTask).Methods("POST")
	r.HandleFunc("/{session_id}/tasks/at/{index}/complete", h.CompleteTaskAt).Methods("POST")
	r.HandleFunc("/{session_id}/tasks/at/{index}", h.DeleteTaskAt).Methods("DELETE")
	r.HandleFunc("/{session_id}/tasks/{task_id}/complete", h.CompleteTask).Methods("POST")
	r.HandleFunc("/{session_id}/tasks/{task_id}", h.DeleteTask).Methods("DELETE")
}

// AddTaskRequest is the body of POST .../tasks
type AddTaskRequest struct {
	Text string `json:"text"`
}

// SessionResponse is a session together with its current view
type SessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	presenter.View
}

func newSessionResponse(sess *session.Session) SessionResponse {
	return SessionResponse{SessionID: sess.ID, View: presenter.NewView(sess.Store.Snapshot())}
}

// OpenSession starts a fresh, empty to-do list
func (h *TaskSessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, errUnauthorized, "User not found in context")
		return
	}

	sess, err := h.sessions.Open(r.Context(), user.ID)
	if err != nil {
		h.respondTaskError(w, user, err)
		return
	}
	respondJSON(w, http.StatusCreated, newSessionResponse(sess))
}

// GetSession returns the current view of a session
func (h *TaskSessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newSessionResponse(sess))
}

// CloseSession discards a session and its tasks
func (h *TaskSessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, errUnauthorized, "User not found in context")
		return
	}
	sessionID, ok := parseUUIDVar(w, r, "session_id")
	if !ok {
		return
	}

	if err := h.sessions.Close(r.Context(), user.ID, sessionID); err != nil {
		h.respondTaskError(w, user, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTask appends a task to the session's list
func (h *TaskSessionHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	user, sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	var req AddTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			h.respondTaskError(w, user, tasklist.ErrEmptyTaskText)
			return
		}
		respondJSONError(w, http.StatusBadRequest, errBadRequest, err.Error())
		return
	}

	// measured after trimming so surrounding whitespace never counts
	text := validation.SanitizeText(req.Text)
	if utf8.RuneCountInString(text) > MaxTaskTextLength {
		respondJSONErrorCode(w, http.StatusBadRequest, errBadRequest, CodeTaskTextTooLong, "Task text cannot exceed 1000 characters")
		return
	}

	task, err := sess.Store.AddTask(text)
	if err != nil {
		h.respondTaskError(w, user, err)
		return
	}
	index, err := sess.Store.IndexOf(task.ID)
	if err != nil {
		// deleted by a concurrent request before we could read it back
		index = -1
	}
	respondJSON(w, http.StatusCreated, presenter.NewTaskView(index, task))
}

// CompleteTask marks the task with the given ID as done
func (h *TaskSessionHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	user, sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	taskID, ok := parseUUIDVar(w, r, "task_id")
	if !ok {
		return
	}

	task, err := sess.Store.Complete(taskID)
	if err != nil {
		h.respondTaskError(w, user, err)
		return
	}
	index, err := sess.Store.IndexOf(task.ID)
	if err != nil {
		index = -1
	}
	respondJSON(w, http.StatusOK, presenter.NewTaskView(index, task))
}

// DeleteTask removes the task with the given ID
func (h *TaskSessionHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	taskID, ok := parseUUIDVar(w, r, "task_id")
	if !ok {
		return
	}

	if err := sess.Store.Delete(taskID); err != nil {
		h.respondTaskError(w, user, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteTaskAt marks the task at a position as done and returns the new view
func (h *TaskSessionHandler) CompleteTaskAt(w http.ResponseWriter, r *http.Request) {
	user, sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	index, ok := parseIndexVar(w, r)
	if !ok {
		return
	}

	if err := sess.Store.CompleteTask(index); err != nil {
		h.respondTaskError(w, user, err)
		return
	}
	respondJSON(w, http.StatusOK, newSessionResponse(sess))
}

// DeleteTaskAt removes the task at a position and returns the new view
func (h *TaskSessionHandler) DeleteTaskAt(w http.ResponseWriter, r *http.Request) {
	user, sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	index, ok := parseIndexVar(w, r)
	if !ok {
		return
	}

	if err := sess.Store.DeleteTask(index); err != nil {
		h.respondTaskError(w, user, err)
		return
	}
	respondJSON(w, http.StatusOK, newSessionResponse(sess))
}

// loadSession resolves the user and the session named in the path, writing
// the error response itself when either is missing
func (h *TaskSessionHandler) loadSession(w http.ResponseWriter, r *http.Request) (*models.User, *session.Session, bool) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, errUnauthorized, "User not found in context")
		return nil, nil, false
	}
	sessionID, ok := parseUUIDVar(w, r, "session_id")
	if !ok {
		return nil, nil, false
	}
	sess, err := h.sessions.Get(user.ID, sessionID)
	if err != nil {
		h.respondTaskError(w, user, err)
		return nil, nil, false
	}
	return user, sess, true
}

func parseUUIDVar(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondJSONErrorCode(w, http.StatusBadRequest, errBadRequest, CodeInvalidID, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func parseIndexVar(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		respondJSONErrorCode(w, http.StatusBadRequest, errBadRequest, CodeIndexOutOfRange, "Index must be an integer")
		return 0, false
	}
	return index, true
}

// respondTaskError maps store and registry errors onto HTTP responses
func (h *TaskSessionHandler) respondTaskError(w http.ResponseWriter, user *models.User, err error) {
	var indexErr *tasklist.IndexError
	switch {
	case errors.Is(err, tasklist.ErrEmptyTaskText):
		respondJSONErrorCode(w, http.StatusBadRequest, errBadRequest, CodeEmptyTaskText, "Task text cannot be empty")
	case errors.As(err, &indexErr):
		respondJSONErrorCode(w, http.StatusBadRequest, errBadRequest, CodeIndexOutOfRange, indexErr.Error())
	case errors.Is(err, tasklist.ErrTaskNotFound):
		respondJSONErrorCode(w, http.StatusNotFound, errNotFound, CodeTaskNotFound, "Task not found")
	case errors.Is(err, session.ErrSessionNotFound):
		respondJSONErrorCode(w, http.StatusNotFound, errNotFound, CodeSessionNotFound, "Session not found")
	case errors.Is(err, session.ErrSessionForbidden):
		respondJSONErrorCode(w, http.StatusForbidden, errForbidden, CodeSessionForbidden, "Session belongs to another user")
	default:
		h.logger.Error("todo_session_request_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, errInternal, "Failed to process request")
	}
}
