// Package gateway is the single entry point the client uses to read and
// mutate habits, completions and settings. It decides whether a mutation
// is committed locally (guest mode) or through the remote API (signed in)
// and only updates the entity store once the commit succeeded.
package gateway

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/Perseverance/internal/achievements"
	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/backup"
	"github.com/atinyakov/Perseverance/internal/client/remote"
	"github.com/atinyakov/Perseverance/internal/client/session"
	"github.com/atinyakov/Perseverance/internal/client/storage"
	"github.com/atinyakov/Perseverance/internal/models"
	"github.com/atinyakov/Perseverance/internal/stats"
)

type Gateway struct {
	store    *storage.Store
	api      API
	tokens   session.TokenStore
	reminder *backup.Reminder
	local    *LocalPersistence
	log      *zap.Logger
	now      func() time.Time
	loc      *time.Location
	newID    func() string

	mu          sync.RWMutex
	persistence Persistence
	user        *models.User
}

type Option func(*Gateway)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(g *Gateway) { g.loc = loc }
}

func WithLogger(log *zap.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

// WithIDGenerator overrides the id source for guest-mode entities.
func WithIDGenerator(newID func() string) Option {
	return func(g *Gateway) { g.newID = newID }
}

// New builds a gateway in guest mode. api may be nil, in which case
// authentication is unavailable.
func New(store *storage.Store, api API, tokens session.TokenStore, opts ...Option) *Gateway {
	g := &Gateway{
		store:  store,
		api:    api,
		tokens: tokens,
		log:    zap.NewNop(),
		now:    time.Now,
		loc:    time.Local,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.tokens == nil {
		g.tokens = session.CacheStore{Cache: store.Cache()}
	}
	g.reminder = backup.NewReminder(store.Cache())
	g.local = &LocalPersistence{NewID: g.newID, Now: g.now}
	g.persistence = g.local
	return g
}

// Today is the current calendar date in the gateway's location.
func (g *Gateway) Today() string {
	return models.FormatDate(g.now().In(g.loc))
}

func (g *Gateway) starter() []models.Habit {
	return models.StarterHabits(g.Today(), g.newID)
}

// Init restores a stored session if there is one, otherwise loads the
// local cache. It never fails: any problem falls back to guest mode.
func (g *Gateway) Init(ctx context.Context) {
	token, err := g.tokens.Load()
	if err != nil {
		g.log.Warn("token load failed", zap.Error(err))
	}
	if token == "" || g.api == nil {
		g.store.Load(g.starter)
		return
	}

	g.api.SetToken(token)
	user, err := g.api.Me(ctx)
	if err != nil {
		g.log.Info("stored session rejected, continuing as guest", zap.Error(err))
		g.clearToken()
		g.store.Load(g.starter)
		return
	}

	g.store.Load(nil)
	g.signIn(user)
	if err := g.pull(ctx, user); err != nil {
		g.log.Warn("initial load failed, showing cached data", zap.Error(err))
	}
}

// Register creates an account and signs in with it.
func (g *Gateway) Register(ctx context.Context, name, email, password string) (models.User, error) {
	switch {
	case strings.TrimSpace(name) == "":
		return models.User{}, apperr.Validation("name", "must not be empty")
	case strings.TrimSpace(email) == "":
		return models.User{}, apperr.Validation("email", "must not be empty")
	case len(password) < 6:
		return models.User{}, apperr.Validation("password", "must be at least 6 characters")
	}
	if g.api == nil {
		return models.User{}, &apperr.RemoteError{Message: "no server configured"}
	}
	resp, err := g.api.Register(ctx, strings.TrimSpace(name), strings.TrimSpace(email), password)
	if err != nil {
		return models.User{}, err
	}
	return g.authenticated(ctx, resp)
}

// Login signs in with existing credentials.
func (g *Gateway) Login(ctx context.Context, email, password string) (models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.User{}, apperr.Validation("", "email and password are required")
	}
	if g.api == nil {
		return models.User{}, &apperr.RemoteError{Message: "no server configured"}
	}
	resp, err := g.api.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return models.User{}, err
	}
	return g.authenticated(ctx, resp)
}

func (g *Gateway) authenticated(ctx context.Context, resp models.AuthResponse) (models.User, error) {
	if resp.Token == "" {
		return models.User{}, &apperr.RemoteError{Message: "server returned no token"}
	}
	if err := g.tokens.Save(resp.Token); err != nil {
		g.log.Warn("token not persisted, session lasts until exit", zap.Error(err))
	}
	g.api.SetToken(resp.Token)
	g.signIn(resp.User)
	if err := g.pull(ctx, resp.User); err != nil {
		return resp.User, err
	}
	return resp.User, nil
}

// pull replaces the store contents with the server's view of the account.
func (g *Gateway) pull(ctx context.Context, user models.User) error {
	habits, err := g.api.ListHabits(ctx)
	if err != nil {
		return g.remoteFailed(err)
	}
	completions, err := g.api.ListCompletions(ctx, remote.CompletionFilter{})
	if err != nil {
		return g.remoteFailed(err)
	}
	settings := user.Settings.WithLocal(g.store.Settings())
	g.store.ReplaceAll(habits, completions, settings)
	return nil
}

// Reload fetches the account again. In guest mode it is a no-op.
func (g *Gateway) Reload(ctx context.Context) error {
	user, ok := g.User()
	if !ok {
		return nil
	}
	return g.pull(ctx, user)
}

func (g *Gateway) signIn(user models.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	u := user
	g.user = &u
	g.persistence = &RemotePersistence{API: g.api}
}

// Logout drops the session and returns to guest mode. Cached data stays.
func (g *Gateway) Logout() error {
	err := g.tokens.Clear()
	g.signOut()
	return err
}

func (g *Gateway) signOut() {
	if g.api != nil {
		g.api.SetToken("")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.user = nil
	g.persistence = g.local
}

func (g *Gateway) clearToken() {
	if err := g.tokens.Clear(); err != nil {
		g.log.Warn("token clear failed", zap.Error(err))
	}
	if g.api != nil {
		g.api.SetToken("")
	}
}

// remoteFailed tears the session down when the server rejected the token.
func (g *Gateway) remoteFailed(err error) error {
	if apperr.IsUnauthorized(err) {
		g.log.Info("session expired, switching to guest mode")
		g.clearToken()
		g.signOut()
	}
	return err
}

// IsAuthenticated reports whether mutations go to the remote store.
func (g *Gateway) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.user != nil
}

func (g *Gateway) User() (models.User, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.user == nil {
		return models.User{}, false
	}
	return *g.user, true
}

func (g *Gateway) current() Persistence {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.persistence
}

// Habits

// AddHabit fills defaults, validates and commits a new habit.
func (g *Gateway) AddHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	h.Name = strings.TrimSpace(h.Name)
	h.Description = strings.TrimSpace(h.Description)
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
	h.CreatedDate = g.Today()
	h.IsActive = true
	if err := models.ValidateHabit(h); err != nil {
		return models.Habit{}, err
	}

	out, err := g.current().CreateHabit(ctx, h)
	if err != nil {
		return models.Habit{}, g.remoteFailed(err)
	}
	g.store.UpsertHabit(out)
	g.log.Debug("habit created", zap.String("id", out.ID))
	return out, nil
}

// AddTemplate creates a habit from a predefined template.
func (g *Gateway) AddTemplate(ctx context.Context, templateID string) (models.Habit, error) {
	t, ok := models.FindTemplate(templateID)
	if !ok {
		return models.Habit{}, apperr.NotFound("template", templateID)
	}
	return g.AddHabit(ctx, t.Habit())
}

func (g *Gateway) UpdateHabit(ctx context.Context, id string, p models.HabitPatch) (models.Habit, error) {
	current, ok := g.store.Habit(id)
	if !ok {
		return models.Habit{}, apperr.NotFound("habit", id)
	}
	if err := p.Validate(); err != nil {
		return models.Habit{}, err
	}
	out, err := g.current().UpdateHabit(ctx, current, p)
	if err != nil {
		return models.Habit{}, g.remoteFailed(err)
	}
	g.store.UpsertHabit(out)
	return out, nil
}

// ToggleActive flips IsActive. Completions are kept either way.
func (g *Gateway) ToggleActive(ctx context.Context, id string) (models.Habit, error) {
	current, ok := g.store.Habit(id)
	if !ok {
		return models.Habit{}, apperr.NotFound("habit", id)
	}
	active := !current.IsActive
	return g.UpdateHabit(ctx, id, models.HabitPatch{IsActive: &active})
}

// DeleteHabit removes a habit and its completions. Deleting an unknown
// habit is a no-op.
func (g *Gateway) DeleteHabit(ctx context.Context, id string) error {
	if _, ok := g.store.Habit(id); !ok {
		return nil
	}
	if err := g.current().DeleteHabit(ctx, id); err != nil {
		return g.remoteFailed(err)
	}
	g.store.RemoveHabit(id)
	return nil
}

// Completions

// MarkCompletion toggles the (habitID, date) record, creating it as
// completed the first time. An empty date means today. A non-nil note
// replaces the stored one.
func (g *Gateway) MarkCompletion(ctx context.Context, habitID, date string, note *string) (models.Completion, error) {
	if date == "" {
		date = g.Today()
	}
	if !models.ValidDate(date) {
		return models.Completion{}, apperr.Validation("date", "must be YYYY-MM-DD, got %q", date)
	}
	if _, ok := g.store.Habit(habitID); !ok {
		return models.Completion{}, apperr.NotFound("habit", habitID)
	}
	var existing *models.Completion
	if c, ok := g.store.FindCompletion(habitID, date); ok {
		existing = &c
	}
	out, err := g.current().MarkCompletion(ctx, habitID, date, note, existing)
	if err != nil {
		return models.Completion{}, g.remoteFailed(err)
	}
	g.store.UpsertCompletion(out)
	return out, nil
}

func (g *Gateway) UpdateCompletion(ctx context.Context, id string, p models.CompletionPatch) (models.Completion, error) {
	current, ok := g.store.Completion(id)
	if !ok {
		return models.Completion{}, apperr.NotFound("completion", id)
	}
	if err := p.Validate(); err != nil {
		return models.Completion{}, err
	}
	out, err := g.current().UpdateCompletion(ctx, current, p)
	if err != nil {
		return models.Completion{}, g.remoteFailed(err)
	}
	g.store.UpsertCompletion(out)
	return out, nil
}

func (g *Gateway) DeleteCompletion(ctx context.Context, id string) error {
	if _, ok := g.store.Completion(id); !ok {
		return nil
	}
	if err := g.current().DeleteCompletion(ctx, id); err != nil {
		return g.remoteFailed(err)
	}
	g.store.RemoveCompletion(id)
	return nil
}

// Settings

// UpdateSettings commits the shared fields and keeps the local-only ones.
func (g *Gateway) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	if err := models.ValidateSettings(s); err != nil {
		return models.Settings{}, err
	}
	out, err := g.current().UpdateSettings(ctx, s.Shared())
	if err != nil {
		return models.Settings{}, g.remoteFailed(err)
	}
	merged := out.WithLocal(s)
	g.store.SetSettings(merged)
	return merged, nil
}

// ClearAllData resets the local store to a first-run state. It refuses
// while signed in, since the server copy would be untouched.
func (g *Gateway) ClearAllData() error {
	if g.IsAuthenticated() {
		return apperr.Validation("", "sign out before clearing local data")
	}
	g.store.ReplaceAll(g.starter(), nil, models.DefaultSettings())
	return nil
}

// Backup

// Export builds a backup document and records it in the backup history.
func (g *Gateway) Export() ([]byte, string, error) {
	now := g.now()
	doc := backup.Export(g.store.Snapshot(), now)
	data, err := backup.Marshal(doc)
	if err != nil {
		return nil, "", err
	}
	if err := g.reminder.MarkBackedUp(now, len(data)); err != nil {
		g.log.Warn("backup history not updated", zap.Error(err))
	}
	return data, backup.Filename(now), nil
}

// Import replaces every entity with the backup contents. On error the
// store is left untouched.
func (g *Gateway) Import(data []byte) (backup.Document, error) {
	if g.IsAuthenticated() {
		return backup.Document{}, apperr.Validation("", "sign out before importing a backup")
	}
	doc, err := backup.Decode(data)
	if err != nil {
		return backup.Document{}, err
	}
	g.store.ReplaceAll(doc.Habits, doc.Completions, doc.Settings)
	if err := g.reminder.Restored(doc); err != nil {
		g.log.Warn("restore not recorded", zap.Error(err))
	}
	return doc, nil
}

func (g *Gateway) Reminder() *backup.Reminder { return g.reminder }

// Reads

func (g *Gateway) Habits() []models.Habit           { return g.store.Habits() }
func (g *Gateway) Completions() []models.Completion { return g.store.Completions() }
func (g *Gateway) Settings() models.Settings        { return g.store.Settings() }

func (g *Gateway) ActiveHabits() []models.Habit {
	var out []models.Habit
	for _, h := range g.store.Habits() {
		if h.IsActive {
			out = append(out, h)
		}
	}
	return out
}

func (g *Gateway) CompletionsForDate(date string) []models.Completion {
	return g.store.CompletionsForDate(date)
}

func (g *Gateway) CompletionsForHabit(habitID string) []models.Completion {
	return g.store.CompletionsForHabit(habitID)
}

// IsHabitCompleteForDate is true only for a record with Completed set.
func (g *Gateway) IsHabitCompleteForDate(habitID, date string) bool {
	c, ok := g.store.FindCompletion(habitID, date)
	return ok && c.Completed
}

// Stats returns an engine over the current snapshot.
func (g *Gateway) Stats() *stats.Engine {
	snap := g.store.Snapshot()
	return stats.New(snap.Habits, snap.Completions, g.loc)
}

func (g *Gateway) Achievements() achievements.Result {
	return achievements.Evaluate(achievements.Build(g.Stats(), g.Today()))
}

// CheckIntegrity reports completions whose habit no longer exists.
func (g *Gateway) CheckIntegrity() error {
	return g.store.Orphans()
}
