package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/models"
	"github.com/atinyakov/Perseverance/internal/repository"
)

type mockCompletionRepo struct {
	ListFunc   func(ctx context.Context, userID string, f repository.CompletionFilter) ([]models.Completion, error)
	GetFunc    func(ctx context.Context, userID, id string) (*models.Completion, error)
	ToggleFunc func(ctx context.Context, c models.Completion, note *string) (*models.Completion, bool, error)
	UpdateFunc func(ctx context.Context, c *models.Completion) error
	DeleteFunc func(ctx context.Context, userID, id string) error
}

func (m *mockCompletionRepo) ListCompletions(ctx context.Context, userID string, f repository.CompletionFilter) ([]models.Completion, error) {
	return m.ListFunc(ctx, userID, f)
}
func (m *mockCompletionRepo) GetCompletion(ctx context.Context, userID, id string) (*models.Completion, error) {
	return m.GetFunc(ctx, userID, id)
}
func (m *mockCompletionRepo) ToggleCompletion(ctx context.Context, c models.Completion, note *string) (*models.Completion, bool, error) {
	return m.ToggleFunc(ctx, c, note)
}
func (m *mockCompletionRepo) UpdateCompletion(ctx context.Context, c *models.Completion) error {
	return m.UpdateFunc(ctx, c)
}
func (m *mockCompletionRepo) DeleteCompletion(ctx context.Context, userID, id string) error {
	return m.DeleteFunc(ctx, userID, id)
}

func ownedHabits(ids ...string) *mockHabitRepo {
	return &mockHabitRepo{
		GetHabitFunc: func(ctx context.Context, userID, id string) (*models.Habit, error) {
			for _, want := range ids {
				if id == want {
					return &models.Habit{ID: id, OwnerID: userID}, nil
				}
			}
			return nil, apperr.NotFound("habit", id)
		},
	}
}

func TestMark_Toggle(t *testing.T) {
	state := map[string]*models.Completion{}
	repo := &mockCompletionRepo{
		ToggleFunc: func(ctx context.Context, c models.Completion, note *string) (*models.Completion, bool, error) {
			key := c.HabitID + "|" + c.Date
			if existing, ok := state[key]; ok {
				existing.Completed = !existing.Completed
				if note != nil {
					existing.Note = *note
				}
				out := *existing
				return &out, false, nil
			}
			c.Completed = true
			state[key] = &c
			out := c
			return &out, true, nil
		},
	}
	svc := NewCompletionService(repo, ownedHabits("h1"), nil)
	in := MarkInput{HabitID: "h1", Date: "2024-03-15"}

	first, created, err := svc.Mark(context.Background(), "u1", in)
	if err != nil || !created || !first.Completed {
		t.Fatalf("first mark = %+v, %v, %v", first, created, err)
	}
	second, created, err := svc.Mark(context.Background(), "u1", in)
	if err != nil || created || second.Completed || second.ID != first.ID {
		t.Fatalf("second mark = %+v, %v, %v", second, created, err)
	}
}

func TestMark_Errors(t *testing.T) {
	svc := NewCompletionService(&mockCompletionRepo{}, ownedHabits("h1"), nil)

	cases := []struct {
		name string
		in   MarkInput
		want error
	}{
		{"missing habit id", MarkInput{Date: "2024-03-15"}, apperr.ErrValidation},
		{"bad date", MarkInput{HabitID: "h1", Date: "yesterday"}, apperr.ErrValidation},
		{"foreign habit", MarkInput{HabitID: "h2", Date: "2024-03-15"}, apperr.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Mark(context.Background(), "u1", tc.in)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v; want %v", err, tc.want)
			}
		})
	}
}

func TestUpdateCompletion_Mood(t *testing.T) {
	repo := &mockCompletionRepo{
		GetFunc: func(ctx context.Context, userID, id string) (*models.Completion, error) {
			return &models.Completion{ID: id, HabitID: "h1", OwnerID: userID, Completed: true}, nil
		},
		UpdateFunc: func(ctx context.Context, c *models.Completion) error { return nil },
	}
	svc := NewCompletionService(repo, ownedHabits("h1"), nil)

	mood := 4
	c, err := svc.Update(context.Background(), "u1", "c1", models.CompletionPatch{Mood: &mood})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if c.Mood == nil || *c.Mood != 4 {
		t.Errorf("mood not applied: %+v", c)
	}

	bad := 9
	if _, err := svc.Update(context.Background(), "u1", "c1", models.CompletionPatch{Mood: &bad}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestHabitStats_CachesAndInvalidates(t *testing.T) {
	calls := 0
	repo := &mockCompletionRepo{
		ListFunc: func(ctx context.Context, userID string, f repository.CompletionFilter) ([]models.Completion, error) {
			calls++
			if !f.CompletedOnly || f.HabitID != "h1" {
				t.Errorf("unexpected filter: %+v", f)
			}
			return []models.Completion{{ID: "c1", HabitID: "h1", Completed: true}}, nil
		},
		ToggleFunc: func(ctx context.Context, c models.Completion, note *string) (*models.Completion, bool, error) {
			return &c, true, nil
		},
	}
	backend := newMemBackend()
	svc := NewCompletionService(repo, ownedHabits("h1"), NewStatsCache(backend, time.Minute, nil))

	for i := 0; i < 2; i++ {
		out, err := svc.HabitStats(context.Background(), "u1", "h1")
		if err != nil {
			t.Fatalf("HabitStats returned error: %v", err)
		}
		if out.TotalCompletions != 1 || out.HabitID != "h1" {
			t.Errorf("unexpected stats: %+v", out)
		}
	}
	if calls != 1 {
		t.Errorf("repository called %d times; want 1", calls)
	}

	if _, _, err := svc.Mark(context.Background(), "u1", MarkInput{HabitID: "h1", Date: "2024-03-15"}); err != nil {
		t.Fatalf("Mark returned error: %v", err)
	}
	if _, err := svc.HabitStats(context.Background(), "u1", "h1"); err != nil {
		t.Fatalf("HabitStats returned error: %v", err)
	}
	if calls != 2 {
		t.Errorf("cache not invalidated by Mark, calls = %d", calls)
	}

	if _, err := svc.HabitStats(context.Background(), "u1", "h2"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
