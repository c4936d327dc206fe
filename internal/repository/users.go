package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/models"
)

// PostgresUserRepository stores accounts in the users table.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a repository over db, which must be
// connected to a PostgreSQL instance with the schema applied.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

const userColumns = `id, name, email, password_hash, settings, created_at`

func scanUser(row scanner) (*models.User, error) {
	var (
		u        models.User
		settings []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &settings, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Settings = models.DefaultSettings()
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &u.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	return &u, nil
}

// UserExists reports whether an account with the given email exists.
func (r *PostgresUserRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	return exists, err
}

// CreateUser inserts u and fills in CreatedAt. A duplicate email yields
// an *apperr.ConflictError.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, u *models.User) error {
	settings, err := json.Marshal(u.Settings.Shared())
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	err = r.DB.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, settings)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, settings).Scan(&u.CreatedAt)
	if isUniqueViolation(err) {
		return &apperr.ConflictError{Kind: "user", Message: "User already exists"}
	}
	if err != nil {
		return fmt.Errorf("CreateUser: %w", err)
	}
	return nil
}

// UserByEmail looks up an account for login.
func (r *PostgresUserRepository) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("UserByEmail: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) UserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("UserByID: %w", err)
	}
	return u, nil
}

// UpdateSettings replaces the stored settings and returns the updated user.
func (r *PostgresUserRepository) UpdateSettings(ctx context.Context, id string, s models.Settings) (*models.User, error) {
	settings, err := json.Marshal(s.Shared())
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`UPDATE users SET settings = $2 WHERE id = $1 RETURNING `+userColumns, id, settings))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateSettings: %w", err)
	}
	return u, nil
}
