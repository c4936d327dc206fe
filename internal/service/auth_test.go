package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/models"
)

type mockUserRepo struct {
	CreateUserFunc     func(ctx context.Context, u *models.User) error
	UserByEmailFunc    func(ctx context.Context, email string) (*models.User, error)
	UserByIDFunc       func(ctx context.Context, id string) (*models.User, error)
	UpdateSettingsFunc func(ctx context.Context, id string, s models.Settings) (*models.User, error)
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.CreateUserFunc(ctx, u)
}
func (m *mockUserRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.UserByEmailFunc(ctx, email)
}
func (m *mockUserRepo) UserByID(ctx context.Context, id string) (*models.User, error) {
	return m.UserByIDFunc(ctx, id)
}
func (m *mockUserRepo) UpdateSettings(ctx context.Context, id string, s models.Settings) (*models.User, error) {
	return m.UpdateSettingsFunc(ctx, id, s)
}

func newTestAuth(repo UserRepository) *AuthService {
	svc := NewAuthService(repo, []byte("test-secret"), time.Hour)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegister_Success(t *testing.T) {
	var stored *models.User
	repo := &mockUserRepo{
		CreateUserFunc: func(ctx context.Context, u *models.User) error {
			stored = u
			return nil
		},
	}
	svc := newTestAuth(repo)

	resp, err := svc.Register(context.Background(), RegisterInput{Name: " Ann ", Email: " Ann@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if stored == nil || stored.Email != "ann@example.com" || stored.Name != "Ann" {
		t.Fatalf("unexpected stored user: %+v", stored)
	}
	if bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("secret1")) != nil {
		t.Error("stored hash does not match password")
	}
	if resp.PasswordHash != nil {
		t.Error("response leaks password hash")
	}
	if resp.Settings.UserName != "Ann" {
		t.Errorf("settings.userName = %q; want Ann", resp.Settings.UserName)
	}
	id, err := svc.ParseToken(resp.Token)
	if err != nil || id != stored.ID {
		t.Errorf("ParseToken = %q, %v; want %q", id, err, stored.ID)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestAuth(&mockUserRepo{})
	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "secret1"}, "name"},
		{"bad email", RegisterInput{Name: "A", Email: "nope", Password: "secret1"}, "email"},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "123"}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("field = %q; want %q", ve.Field, tc.field)
			}
		})
	}
}

func TestRegister_Conflict(t *testing.T) {
	repo := &mockUserRepo{
		CreateUserFunc: func(ctx context.Context, u *models.User) error {
			return &apperr.ConflictError{Kind: "user", Message: "User already exists"}
		},
	}
	_, err := newTestAuth(repo).Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.co", Password: "secret1"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	repo := &mockUserRepo{
		UserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email != "ann@example.com" {
				return nil, apperr.NotFound("user", email)
			}
			return &models.User{ID: "u1", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := newTestAuth(repo)

	resp, err := svc.Login(context.Background(), LoginInput{Email: "ANN@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resp.ID != "u1" || resp.Token == "" {
		t.Errorf("unexpected response: %+v", resp)
	}

	if _, err := svc.Login(context.Background(), LoginInput{Email: "ann@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginInput{Email: "bob@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", err)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	svc := newTestAuth(&mockUserRepo{})
	other := NewAuthService(&mockUserRepo{}, []byte("other-secret"), time.Hour)

	foreign, _ := other.IssueToken("u1")
	if _, err := svc.ParseToken(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign signature: got %v", err)
	}

	expired := newTestAuth(&mockUserRepo{})
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.IssueToken("u1")
	if _, err := svc.ParseToken(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v", err)
	}

	if _, err := svc.ParseToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: got %v", err)
	}
}

func TestUpdateSettings_MergesPartial(t *testing.T) {
	var saved models.Settings
	repo := &mockUserRepo{
		UserByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Settings: models.DefaultSettings()}, nil
		},
		UpdateSettingsFunc: func(ctx context.Context, id string, s models.Settings) (*models.User, error) {
			saved = s
			return &models.User{ID: id, Settings: s, PasswordHash: []byte("x")}, nil
		},
	}
	svc := newTestAuth(repo)

	u, err := svc.UpdateSettings(context.Background(), "u1", json.RawMessage(`{"theme":"light","fontSize":"large"}`))
	if err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}
	if saved.Theme != "light" || saved.StartOfWeek != "monday" {
		t.Errorf("unexpected merge: %+v", saved)
	}
	if saved.FontSize != "" {
		t.Errorf("local-only field reached the store: %q", saved.FontSize)
	}
	if u.PasswordHash != nil {
		t.Error("response leaks password hash")
	}

	_, err = svc.UpdateSettings(context.Background(), "u1", json.RawMessage(`{"theme":"neon"}`))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
