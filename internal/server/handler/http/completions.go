package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/Perseverance/internal/middleware"
	"github.com/atinyakov/Perseverance/internal/models"
	"github.com/atinyakov/Perseverance/internal/service"
)

// CompletionService defines the completion operations required by CompletionHandler.
type CompletionService interface {
	List(ctx context.Context, userID, date, habitID string) ([]models.Completion, error)
	Mark(ctx context.Context, userID string, in service.MarkInput) (models.Completion, bool, error)
	Update(ctx context.Context, userID, id string, p models.CompletionPatch) (models.Completion, error)
	Delete(ctx context.Context, userID, id string) error
	HabitStats(ctx context.Context, userID, habitID string) (models.HabitCompletions, error)
}

type CompletionHandler struct {
	CompletionService CompletionService
	Log               *zap.Logger
}

// List handles GET /api/completions?date=&habitId=.
func (h *CompletionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.CompletionService.List(r.Context(), middleware.GetUserIDFromContext(r.Context()), q.Get("date"), q.Get("habitId"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Mark handles POST /api/completions. A new record answers 201, a toggled
// one 200.
func (h *CompletionHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req service.MarkInput
	if !decode(w, r, &req) {
		return
	}
	c, created, err := h.CompletionService.Mark(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, c)
}

func (h *CompletionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.CompletionPatch
	if !decode(w, r, &patch) {
		return
	}
	c, err := h.CompletionService.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CompletionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.CompletionService.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Completion deleted successfully")
}

// Stats handles GET /api/completions/stats/{habitId}.
func (h *CompletionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	out, err := h.CompletionService.HabitStats(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "habitId"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
