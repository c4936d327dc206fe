package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/Perseverance/internal/cache"
	"github.com/atinyakov/Perseverance/internal/models"
)

// HabitRepository defines the habit persistence used by the services.
type HabitRepository interface {
	ListHabits(ctx context.Context, userID string) ([]models.Habit, error)
	GetHabit(ctx context.Context, userID, id string) (*models.Habit, error)
	CreateHabit(ctx context.Context, h *models.Habit) error
	UpdateHabit(ctx context.Context, h *models.Habit) error
	DeleteHabit(ctx context.Context, userID, id string) error
}

// HabitService implements habit CRUD for one owner at a time.
type HabitService struct {
	repo  HabitRepository
	stats *StatsCache
	now   func() time.Time
}

// NewHabitService builds a HabitService. stats may be nil.
func NewHabitService(repo HabitRepository, stats *StatsCache) *HabitService {
	return &HabitService{repo: repo, stats: stats, now: time.Now}
}

func (s *HabitService) List(ctx context.Context, userID string) ([]models.Habit, error) {
	return s.repo.ListHabits(ctx, userID)
}

func (s *HabitService) Get(ctx context.Context, userID, id string) (models.Habit, error) {
	h, err := s.repo.GetHabit(ctx, userID, id)
	if err != nil {
		return models.Habit{}, err
	}
	return *h, nil
}

// Create fills the same defaults a client would and stores the habit
// under a new id. Client-sent id and owner are ignored.
func (s *HabitService) Create(ctx context.Context, userID string, h models.Habit) (models.Habit, error) {
	h.ID = uuid.NewString()
	h.OwnerID = userID
	h.Name = strings.TrimSpace(h.Name)
	if h.Category == "" {
		h.Category = models.DefaultCategory
	}
	if h.Color == "" {
		h.Color = models.DefaultColor
	}
	if h.Icon == "" {
		h.Icon = models.DefaultIcon
	}
	if h.Frequency == "" {
		h.Frequency = models.DefaultFrequency
	}
	if h.Target == 0 {
		h.Target = models.DefaultTarget
	}
	if h.CreatedDate == "" {
		h.CreatedDate = models.FormatDate(s.now())
	}
	h.CreatedAt, h.UpdatedAt = nil, nil
	if err := models.ValidateHabit(h); err != nil {
		return models.Habit{}, err
	}
	if err := s.repo.CreateHabit(ctx, &h); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

// Update applies a partial update. The merged habit must still be valid.
func (s *HabitService) Update(ctx context.Context, userID, id string, p models.HabitPatch) (models.Habit, error) {
	if err := p.Validate(); err != nil {
		return models.Habit{}, err
	}
	current, err := s.repo.GetHabit(ctx, userID, id)
	if err != nil {
		return models.Habit{}, err
	}
	h := p.Apply(*current)
	if err := models.ValidateHabit(h); err != nil {
		return models.Habit{}, err
	}
	if err := s.repo.UpdateHabit(ctx, &h); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

// Delete removes the habit and its completions.
func (s *HabitService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteHabit(ctx, userID, id); err != nil {
		return err
	}
	s.stats.Invalidate(ctx, userID, id)
	return nil
}

// StatsCache stores per-habit stats responses. A nil *StatsCache or a
// nil backend disables caching.
type StatsCache struct {
	backend StatsBackend
	ttl     time.Duration
	log     *zap.Logger
}

// StatsBackend is implemented by cache.Redis.
type StatsBackend interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

func NewStatsCache(backend StatsBackend, ttl time.Duration, log *zap.Logger) *StatsCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsCache{backend: backend, ttl: ttl, log: log}
}

func (c *StatsCache) get(ctx context.Context, userID, habitID string) (models.HabitCompletions, bool) {
	if c == nil || c.backend == nil {
		return models.HabitCompletions{}, false
	}
	var out models.HabitCompletions
	if err := c.backend.Get(ctx, cache.StatsKey(userID, habitID), &out); err != nil {
		return models.HabitCompletions{}, false
	}
	return out, true
}

func (c *StatsCache) put(ctx context.Context, userID string, v models.HabitCompletions) {
	if c == nil || c.backend == nil {
		return
	}
	if err := c.backend.Set(ctx, cache.StatsKey(userID, v.HabitID), v, c.ttl); err != nil {
		c.log.Warn("stats cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached stats of one habit.
func (c *StatsCache) Invalidate(ctx context.Context, userID, habitID string) {
	if c == nil || c.backend == nil {
		return
	}
	if err := c.backend.DeletePattern(ctx, cache.StatsKey(userID, habitID)); err != nil {
		c.log.Warn("stats cache invalidation failed", zap.Error(err))
	}
}
