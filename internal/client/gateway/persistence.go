package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/client/remote"
	"github.com/atinyakov/Perseverance/internal/models"
)

// Persistence is where mutations are committed before they reach the
// entity store. Implementations return the authoritative entity; the
// gateway only touches the store after a nil error.
type Persistence interface {
	CreateHabit(ctx context.Context, h models.Habit) (models.Habit, error)
	UpdateHabit(ctx context.Context, current models.Habit, p models.HabitPatch) (models.Habit, error)
	DeleteHabit(ctx context.Context, id string) error
	// MarkCompletion creates the (habitID, date) record or toggles existing.
	MarkCompletion(ctx context.Context, habitID, date string, note *string, existing *models.Completion) (models.Completion, error)
	UpdateCompletion(ctx context.Context, current models.Completion, p models.CompletionPatch) (models.Completion, error)
	DeleteCompletion(ctx context.Context, id string) error
	UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error)
}

// API is the part of the remote client the gateway depends on.
type API interface {
	SetToken(token string)
	Register(ctx context.Context, name, email, password string) (models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (models.AuthResponse, error)
	Me(ctx context.Context) (models.User, error)
	UpdateSettings(ctx context.Context, s models.Settings) (models.User, error)
	ListHabits(ctx context.Context) ([]models.Habit, error)
	CreateHabit(ctx context.Context, h models.Habit) (models.Habit, error)
	UpdateHabit(ctx context.Context, id string, p models.HabitPatch) (models.Habit, error)
	DeleteHabit(ctx context.Context, id string) error
	ListCompletions(ctx context.Context, f remote.CompletionFilter) ([]models.Completion, error)
	MarkCompletion(ctx context.Context, habitID, date string, note *string) (models.Completion, error)
	UpdateCompletion(ctx context.Context, id string, p models.CompletionPatch) (models.Completion, error)
	DeleteCompletion(ctx context.Context, id string) error
}

var _ API = (*remote.Client)(nil)

// LocalPersistence computes every mutation in process. Used in guest mode.
type LocalPersistence struct {
	NewID func() string
	Now   func() time.Time
}

func NewLocalPersistence() *LocalPersistence {
	return &LocalPersistence{NewID: uuid.NewString, Now: time.Now}
}

func (p *LocalPersistence) CreateHabit(_ context.Context, h models.Habit) (models.Habit, error) {
	h.ID = p.NewID()
	h.OwnerID = ""
	return h, nil
}

func (p *LocalPersistence) UpdateHabit(_ context.Context, current models.Habit, patch models.HabitPatch) (models.Habit, error) {
	return patch.Apply(current), nil
}

func (p *LocalPersistence) DeleteHabit(context.Context, string) error { return nil }

func (p *LocalPersistence) MarkCompletion(_ context.Context, habitID, date string, note *string, existing *models.Completion) (models.Completion, error) {
	if existing != nil {
		c := *existing
		c.Completed = !c.Completed
		if note != nil {
			c.Note = *note
		}
		return c, nil
	}
	c := models.Completion{
		ID:        p.NewID(),
		HabitID:   habitID,
		Date:      date,
		Completed: true,
		Timestamp: p.Now(),
	}
	if note != nil {
		c.Note = *note
	}
	return c, nil
}

func (p *LocalPersistence) UpdateCompletion(_ context.Context, current models.Completion, patch models.CompletionPatch) (models.Completion, error) {
	return patch.Apply(current), nil
}

func (p *LocalPersistence) DeleteCompletion(context.Context, string) error { return nil }

func (p *LocalPersistence) UpdateSettings(_ context.Context, s models.Settings) (models.Settings, error) {
	return s, nil
}

// RemotePersistence commits through the API and adopts its responses.
type RemotePersistence struct {
	API API
}

func (p *RemotePersistence) CreateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	out, err := p.API.CreateHabit(ctx, h)
	if err != nil {
		return models.Habit{}, err
	}
	if out.ID == "" {
		return models.Habit{}, &apperr.RemoteError{Status: http.StatusOK, Message: "created habit has no id"}
	}
	return out, nil
}

func (p *RemotePersistence) UpdateHabit(ctx context.Context, current models.Habit, patch models.HabitPatch) (models.Habit, error) {
	out, err := p.API.UpdateHabit(ctx, current.ID, patch)
	if err != nil {
		return models.Habit{}, err
	}
	if out.ID == "" {
		out.ID = current.ID
	}
	return out, nil
}

// DeleteHabit treats a 404 as already deleted.
func (p *RemotePersistence) DeleteHabit(ctx context.Context, id string) error {
	return ignoreNotFound(p.API.DeleteHabit(ctx, id))
}

func (p *RemotePersistence) MarkCompletion(ctx context.Context, habitID, date string, note *string, _ *models.Completion) (models.Completion, error) {
	out, err := p.API.MarkCompletion(ctx, habitID, date, note)
	if err != nil {
		return models.Completion{}, err
	}
	if out.HabitID == "" {
		out.HabitID = habitID
	}
	if out.Date == "" {
		out.Date = date
	}
	return out, nil
}

func (p *RemotePersistence) UpdateCompletion(ctx context.Context, current models.Completion, patch models.CompletionPatch) (models.Completion, error) {
	out, err := p.API.UpdateCompletion(ctx, current.ID, patch)
	if err != nil {
		return models.Completion{}, err
	}
	if out.ID == "" {
		out.ID = current.ID
	}
	if out.HabitID == "" {
		out.HabitID = current.HabitID
	}
	return out, nil
}

func (p *RemotePersistence) DeleteCompletion(ctx context.Context, id string) error {
	return ignoreNotFound(p.API.DeleteCompletion(ctx, id))
}

func (p *RemotePersistence) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	u, err := p.API.UpdateSettings(ctx, s)
	if err != nil {
		return models.Settings{}, err
	}
	return u.Settings, nil
}

func ignoreNotFound(err error) error {
	var re *apperr.RemoteError
	if errors.As(err, &re) && re.Status == http.StatusNotFound {
		return nil
	}
	return err
}
