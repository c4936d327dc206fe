// Package storage holds the client's in-memory habits, completions and
// settings and mirrors them to a durable Cache after every mutation.
package storage

import (
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/models"
)

// Snapshot is a point-in-time copy of the store contents.
type Snapshot struct {
	Habits      []models.Habit
	Completions []models.Completion
	Settings    models.Settings
}

// Store is the in-memory source of truth for the session. Cache write
// failures are logged and never returned; memory stays authoritative.
type Store struct {
	mu          sync.RWMutex
	cache       Cache
	log         *zap.Logger
	habits      []models.Habit
	completions []models.Completion
	settings    models.Settings
}

func NewStore(cache Cache, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Store{
		cache:       cache,
		log:         log,
		habits:      []models.Habit{},
		completions: []models.Completion{},
		settings:    models.DefaultSettings(),
	}
}

// Cache exposes the backing cache for components that keep their own keys.
func (s *Store) Cache() Cache { return s.cache }

// Load reads the collections from the cache. Missing or unreadable keys
// fall back to defaults; starter supplies the habits used when the
// habits key has never been written.
func (s *Store) Load(starter func() []models.Habit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.habits = []models.Habit{}
	if ok := readKey(s, KeyHabits, &s.habits); !ok && starter != nil {
		s.habits = starter()
		s.persistHabits()
	}
	if s.habits == nil {
		s.habits = []models.Habit{}
	}

	s.completions = []models.Completion{}
	readKey(s, KeyCompletions, &s.completions)
	if s.completions == nil {
		s.completions = []models.Completion{}
	}

	s.settings = models.DefaultSettings()
	readKey(s, KeySettings, &s.settings)
}

// readKey decodes key into dst and reports whether the key was present.
// A present but malformed value counts as present and leaves dst as is.
func readKey[T any](s *Store, key string, dst *T) bool {
	raw, ok, err := s.cache.Get(key)
	if err != nil {
		s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.log.Warn("cache value malformed, using defaults", zap.String("key", key), zap.Error(err))
		return true
	}
	*dst = v
	return true
}

// ReplaceAll swaps every collection at once, used after load and import.
func (s *Store) ReplaceAll(habits []models.Habit, completions []models.Completion, settings models.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits = append([]models.Habit{}, habits...)
	s.completions = append([]models.Completion{}, completions...)
	s.settings = settings
	s.persistHabits()
	s.persistCompletions()
	s.persistSettings()
}

// UpsertHabit replaces the habit with the same id or appends it.
func (s *Store) UpsertHabit(h models.Habit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.habits {
		if s.habits[i].ID == h.ID {
			s.habits[i] = h
			s.persistHabits()
			return
		}
	}
	s.habits = append(s.habits, h)
	s.persistHabits()
}

// RemoveHabit deletes the habit and every completion that references it.
// It reports whether anything was removed.
func (s *Store) RemoveHabit(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	habits := s.habits[:0:0]
	for _, h := range s.habits {
		if h.ID == id {
			removed = true
			continue
		}
		habits = append(habits, h)
	}

	completions := s.completions[:0:0]
	for _, c := range s.completions {
		if c.HabitID == id {
			removed = true
			continue
		}
		completions = append(completions, c)
	}

	if !removed {
		return false
	}
	s.habits = habits
	s.completions = completions
	s.persistHabits()
	s.persistCompletions()
	return true
}

// UpsertCompletion stores c, replacing the record with the same id, or
// failing that the record for the same (habitId, date). At most one
// record per (habitId, date) survives.
func (s *Store) UpsertCompletion(c models.Completion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.completions {
		if c.ID != "" && s.completions[i].ID == c.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i := range s.completions {
			if s.completions[i].HabitID == c.HabitID && s.completions[i].Date == c.Date {
				idx = i
				break
			}
		}
	}

	if idx < 0 {
		s.completions = append(s.completions, c)
	} else {
		s.completions[idx] = c
		out := s.completions[:0]
		for i, other := range s.completions {
			if i != idx && other.HabitID == c.HabitID && other.Date == c.Date {
				continue
			}
			out = append(out, other)
		}
		s.completions = out
	}
	s.persistCompletions()
}

// RemoveCompletion deletes the completion with id and reports whether it existed.
func (s *Store) RemoveCompletion(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.completions {
		if s.completions[i].ID == id {
			s.completions = append(s.completions[:i:i], s.completions[i+1:]...)
			s.persistCompletions()
			return true
		}
	}
	return false
}

func (s *Store) SetSettings(settings models.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.persistSettings()
}

func (s *Store) Habits() []models.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Habit{}, s.habits...)
}

func (s *Store) Completions() []models.Completion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Completion{}, s.completions...)
}

func (s *Store) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Habits:      append([]models.Habit{}, s.habits...),
		Completions: append([]models.Completion{}, s.completions...),
		Settings:    s.settings,
	}
}

func (s *Store) Habit(id string) (models.Habit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.habits {
		if h.ID == id {
			return h, true
		}
	}
	return models.Habit{}, false
}

func (s *Store) Completion(id string) (models.Completion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.completions {
		if c.ID == id {
			return c, true
		}
	}
	return models.Completion{}, false
}

// FindCompletion returns the record for (habitID, date), if any.
func (s *Store) FindCompletion(habitID, date string) (models.Completion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.completions {
		if c.HabitID == habitID && c.Date == date {
			return c, true
		}
	}
	return models.Completion{}, false
}

// CompletionsForDate lists the records on date whose habit still exists.
func (s *Store) CompletionsForDate(date string) []models.Completion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	known := s.habitIDs()
	out := []models.Completion{}
	for _, c := range s.completions {
		if c.Date == date && known[c.HabitID] {
			out = append(out, c)
		}
	}
	return out
}

// CompletionsForHabit lists the habit's records, newest date first.
func (s *Store) CompletionsForHabit(habitID string) []models.Completion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Completion{}
	for _, c := range s.completions {
		if c.HabitID == habitID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// Orphans reports completions whose habit no longer exists as a
// *apperr.DataIntegrityError, or nil when there are none.
func (s *Store) Orphans() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	known := s.habitIDs()
	var ids []string
	for _, c := range s.completions {
		if !known[c.HabitID] {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return &apperr.DataIntegrityError{OrphanIDs: ids}
}

func (s *Store) habitIDs() map[string]bool {
	ids := make(map[string]bool, len(s.habits))
	for _, h := range s.habits {
		ids[h.ID] = true
	}
	return ids
}

func (s *Store) persistHabits()      { s.persist(KeyHabits, s.habits) }
func (s *Store) persistCompletions() { s.persist(KeyCompletions, s.completions) }
func (s *Store) persistSettings()    { s.persist(KeySettings, s.settings) }

func (s *Store) persist(key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(key, string(b)); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
