package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/models"
)

func setupUserMock(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresUserRepository(db), mock, func() { db.Close() }
}

var userRowColumns = []string{"id", "name", "email", "password_hash", "settings", "created_at"}

func TestUserExists(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`)).
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.UserExists(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Errorf("expected user to exist, got false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateUser_Success(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	u := &models.User{ID: "u1", Name: "Ann", Email: "ann@example.com", PasswordHash: []byte("hash"), Settings: models.DefaultSettings()}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (id, name, email, password_hash, settings)`)).
		WithArgs("u1", "Ann", "ann@example.com", []byte("hash"), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v; want %v", u.CreatedAt, created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.CreateUser(context.Background(), &models.User{ID: "u1", Email: "ann@example.com"})
	var ce *apperr.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.Message != "User already exists" {
		t.Errorf("message = %q", ce.Message)
	}
}

func TestUserByEmail(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password_hash, settings, created_at FROM users WHERE email = $1`)).
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "Ann", "ann@example.com", []byte("hash"), []byte(`{"theme":"light"}`), time.Now()))

	u, err := repo.UserByEmail(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u1" || string(u.PasswordHash) != "hash" {
		t.Errorf("unexpected user: %+v", u)
	}
	// поля, которых нет в JSON, берутся из настроек по умолчанию
	if u.Settings.Theme != "light" || u.Settings.StartOfWeek != "monday" {
		t.Errorf("unexpected settings: %+v", u.Settings)
	}
}

func TestUserByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UserByID(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSettings_DropsLocalFields(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	s := models.DefaultSettings()
	s.Theme = "light"
	s.FontSize = "large"

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET settings = $2 WHERE id = $1`)).
		WithArgs("u1", []byte(`{"theme":"light","userName":"Champion","motivationalQuotes":true,"startOfWeek":"monday","notifications":true}`)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "Ann", "ann@example.com", []byte("hash"), []byte(`{"theme":"light"}`), time.Now()))

	u, err := repo.UpdateSettings(context.Background(), "u1", s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Settings.Theme != "light" {
		t.Errorf("theme = %q", u.Settings.Theme)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
