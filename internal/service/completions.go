package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/models"
	"github.com/atinyakov/Perseverance/internal/repository"
)

// CompletionRepository defines the completion persistence used by CompletionService.
type CompletionRepository interface {
	ListCompletions(ctx context.Context, userID string, f repository.CompletionFilter) ([]models.Completion, error)
	GetCompletion(ctx context.Context, userID, id string) (*models.Completion, error)
	ToggleCompletion(ctx context.Context, c models.Completion, note *string) (*models.Completion, bool, error)
	UpdateCompletion(ctx context.Context, c *models.Completion) error
	DeleteCompletion(ctx context.Context, userID, id string) error
}

// MarkInput is the body of POST /completions.
type MarkInput struct {
	HabitID string  `json:"habitId"`
	Date    string  `json:"date"`
	Note    *string `json:"note"`
}

// CompletionService implements find-or-toggle and per-habit stats.
type CompletionService struct {
	repo   CompletionRepository
	habits HabitRepository
	stats  *StatsCache
}

// NewCompletionService builds a CompletionService. stats may be nil.
func NewCompletionService(repo CompletionRepository, habits HabitRepository, stats *StatsCache) *CompletionService {
	return &CompletionService{repo: repo, habits: habits, stats: stats}
}

func (s *CompletionService) List(ctx context.Context, userID, date, habitID string) ([]models.Completion, error) {
	if date != "" && !models.ValidDate(date) {
		return nil, apperr.Validation("date", "must be YYYY-MM-DD, got %q", date)
	}
	return s.repo.ListCompletions(ctx, userID, repository.CompletionFilter{Date: date, HabitID: habitID})
}

// Mark creates the completion for (habit, date) or toggles the existing
// one. created is true when a new record was made.
func (s *CompletionService) Mark(ctx context.Context, userID string, in MarkInput) (models.Completion, bool, error) {
	in.HabitID = strings.TrimSpace(in.HabitID)
	if in.HabitID == "" {
		return models.Completion{}, false, apperr.Validation("habitId", "is required")
	}
	if !models.ValidDate(in.Date) {
		return models.Completion{}, false, apperr.Validation("date", "must be YYYY-MM-DD, got %q", in.Date)
	}
	if _, err := s.habits.GetHabit(ctx, userID, in.HabitID); err != nil {
		return models.Completion{}, false, err
	}

	c, created, err := s.repo.ToggleCompletion(ctx, models.Completion{
		ID:      uuid.NewString(),
		OwnerID: userID,
		HabitID: in.HabitID,
		Date:    in.Date,
	}, in.Note)
	if err != nil {
		return models.Completion{}, false, err
	}
	s.stats.Invalidate(ctx, userID, in.HabitID)
	return *c, created, nil
}

func (s *CompletionService) Update(ctx context.Context, userID, id string, p models.CompletionPatch) (models.Completion, error) {
	if err := p.Validate(); err != nil {
		return models.Completion{}, err
	}
	current, err := s.repo.GetCompletion(ctx, userID, id)
	if err != nil {
		return models.Completion{}, err
	}
	c := p.Apply(*current)
	if err := s.repo.UpdateCompletion(ctx, &c); err != nil {
		return models.Completion{}, err
	}
	s.stats.Invalidate(ctx, userID, c.HabitID)
	return c, nil
}

func (s *CompletionService) Delete(ctx context.Context, userID, id string) error {
	current, err := s.repo.GetCompletion(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCompletion(ctx, userID, id); err != nil {
		return err
	}
	s.stats.Invalidate(ctx, userID, current.HabitID)
	return nil
}

// HabitStats lists the completed records of one habit, newest first.
func (s *CompletionService) HabitStats(ctx context.Context, userID, habitID string) (models.HabitCompletions, error) {
	if _, err := s.habits.GetHabit(ctx, userID, habitID); err != nil {
		return models.HabitCompletions{}, err
	}
	if cached, ok := s.stats.get(ctx, userID, habitID); ok {
		return cached, nil
	}
	completions, err := s.repo.ListCompletions(ctx, userID, repository.CompletionFilter{HabitID: habitID, CompletedOnly: true})
	if err != nil {
		return models.HabitCompletions{}, err
	}
	out := models.HabitCompletions{
		HabitID:          habitID,
		TotalCompletions: len(completions),
		Completions:      completions,
	}
	s.stats.put(ctx, userID, out)
	return out, nil
}
