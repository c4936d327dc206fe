package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/Perseverance/internal/middleware"
	"github.com/atinyakov/Perseverance/internal/models"
)

// HabitService defines the habit operations required by HabitHandler.
type HabitService interface {
	List(ctx context.Context, userID string) ([]models.Habit, error)
	Get(ctx context.Context, userID, id string) (models.Habit, error)
	Create(ctx context.Context, userID string, h models.Habit) (models.Habit, error)
	Update(ctx context.Context, userID, id string, p models.HabitPatch) (models.Habit, error)
	Delete(ctx context.Context, userID, id string) error
}

type HabitHandler struct {
	HabitService HabitService
	Log          *zap.Logger
}

func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	habits, err := h.HabitService.List(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Habit
	if !decode(w, r, &req) {
		return
	}
	habit, err := h.HabitService.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	habit, err := h.HabitService.Get(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// Update handles PUT /api/habits/{id} with a partial habit.
func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.HabitPatch
	if !decode(w, r, &patch) {
		return
	}
	habit, err := h.HabitService.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// Delete handles DELETE /api/habits/{id}; completions go with it.
func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.HabitService.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Habit deleted successfully")
}
