// Package service holds the server's business logic. Handlers call it;
// it delegates persistence to repository interfaces.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/models"
)

// ErrInvalidCredentials is returned for a wrong email or password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidToken is returned when a bearer token cannot be verified.
var ErrInvalidToken = errors.New("invalid token")

// DefaultTokenTTL matches the lifetime clients expect from a login.
const DefaultTokenTTL = 30 * 24 * time.Hour

// UserRepository defines the persistence operations required by AuthService.
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
	UpdateSettings(ctx context.Context, id string, s models.Settings) (*models.User, error)
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Claims are carried in issued tokens.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// AuthService registers users, checks credentials and issues tokens.
type AuthService struct {
	repo     UserRepository
	secret   []byte
	ttl      time.Duration
	validate *validator.Validate
	now      func() time.Time
	cost     int
}

// NewAuthService signs tokens with secret. ttl <= 0 means DefaultTokenTTL.
func NewAuthService(repo UserRepository, secret []byte, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthService{
		repo:     repo,
		secret:   secret,
		ttl:      ttl,
		validate: validator.New(),
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.AuthResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return models.AuthResponse{}, validationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	settings := models.DefaultSettings()
	settings.UserName = in.Name
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Settings:     settings,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return models.AuthResponse{}, err
	}
	return s.respond(u)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (models.AuthResponse, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return models.AuthResponse{}, validationError(err)
	}
	u, err := s.repo.UserByEmail(ctx, in.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.AuthResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.Password)); err != nil {
		return models.AuthResponse{}, ErrInvalidCredentials
	}
	return s.respond(u)
}

// Me returns the account without its password hash.
func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	u, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = nil
	return *u, nil
}

// UpdateSettings merges the fields present in patch into the stored
// settings. Client-local fields are dropped.
func (s *AuthService) UpdateSettings(ctx context.Context, userID string, patch json.RawMessage) (models.User, error) {
	u, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	merged := u.Settings
	if err := json.Unmarshal(patch, &merged); err != nil {
		return models.User{}, apperr.Validation("settings", "invalid body: %v", err)
	}
	merged = merged.Shared()
	if err := models.ValidateSettings(merged); err != nil {
		return models.User{}, err
	}
	updated, err := s.repo.UpdateSettings(ctx, userID, merged)
	if err != nil {
		return models.User{}, err
	}
	updated.PasswordHash = nil
	return *updated, nil
}

// IssueToken signs a token for userID.
func (s *AuthService) IssueToken(userID string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken verifies token and returns the user id it was issued for.
func (s *AuthService) ParseToken(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

func (s *AuthService) respond(u *models.User) (models.AuthResponse, error) {
	token, err := s.IssueToken(u.ID)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("issue token: %w", err)
	}
	user := *u
	user.PasswordHash = nil
	return models.AuthResponse{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validationError turns the first validator failure into a ValidationError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("", "%v", err)
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return apperr.Validation(field, "is required")
	case "email":
		return apperr.Validation(field, "must be a valid email address")
	case "min":
		return apperr.Validation(field, "must be at least %s characters", fe.Param())
	}
	return apperr.Validation(field, "failed %s check", fe.Tag())
}
