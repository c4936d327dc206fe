package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/models"
)

// PostgresHabitRepository stores habits, scoped by owner.
type PostgresHabitRepository struct {
	DB *sql.DB
}

func NewPostgresHabitRepository(db *sql.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{DB: db}
}

const habitColumns = `id, user_id, name, description, category, color, icon, frequency, target, is_active, created_date, extra, created_at, updated_at`

func scanHabit(row scanner) (*models.Habit, error) {
	var (
		h                    models.Habit
		extra                []byte
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&h.ID, &h.OwnerID, &h.Name, &h.Description, &h.Category, &h.Color, &h.Icon,
		&h.Frequency, &h.Target, &h.IsActive, &h.CreatedDate, &extra, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if h.Extra, err = unmarshalExtra(extra); err != nil {
		return nil, fmt.Errorf("decode extra: %w", err)
	}
	h.CreatedAt = &createdAt
	h.UpdatedAt = &updatedAt
	return &h, nil
}

// ListHabits returns the user's habits, newest first.
func (r *PostgresHabitRepository) ListHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListHabits: %w", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListHabits: %w", err)
	}
	return habits, nil
}

func (r *PostgresHabitRepository) GetHabit(ctx context.Context, userID, id string) (*models.Habit, error) {
	h, err := scanHabit(r.DB.QueryRowContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("habit", id)
	}
	if err != nil {
		return nil, fmt.Errorf("GetHabit: %w", err)
	}
	return h, nil
}

// CreateHabit inserts h and fills in its timestamps.
func (r *PostgresHabitRepository) CreateHabit(ctx context.Context, h *models.Habit) error {
	extra, err := marshalExtra(h.Extra)
	if err != nil {
		return fmt.Errorf("encode extra: %w", err)
	}
	var createdAt, updatedAt time.Time
	err = r.DB.QueryRowContext(ctx, `
		INSERT INTO habits (id, user_id, name, description, category, color, icon, frequency, target, is_active, created_date, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, h.ID, h.OwnerID, h.Name, h.Description, h.Category, h.Color, h.Icon,
		h.Frequency, h.Target, h.IsActive, h.CreatedDate, extra).Scan(&createdAt, &updatedAt)
	if err != nil {
		return fmt.Errorf("CreateHabit: %w", err)
	}
	h.CreatedAt = &createdAt
	h.UpdatedAt = &updatedAt
	return nil
}

// UpdateHabit saves every mutable field of h. id, owner and createdDate
// are never changed.
func (r *PostgresHabitRepository) UpdateHabit(ctx context.Context, h *models.Habit) error {
	extra, err := marshalExtra(h.Extra)
	if err != nil {
		return fmt.Errorf("encode extra: %w", err)
	}
	var updatedAt time.Time
	err = r.DB.QueryRowContext(ctx, `
		UPDATE habits SET name = $3, description = $4, category = $5, color = $6, icon = $7,
		       frequency = $8, target = $9, is_active = $10, extra = $11, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`, h.ID, h.OwnerID, h.Name, h.Description, h.Category, h.Color, h.Icon,
		h.Frequency, h.Target, h.IsActive, extra).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("habit", h.ID)
	}
	if err != nil {
		return fmt.Errorf("UpdateHabit: %w", err)
	}
	h.UpdatedAt = &updatedAt
	return nil
}

// DeleteHabit removes the habit and all of its completions in one
// transaction.
func (r *PostgresHabitRepository) DeleteHabit(ctx context.Context, userID, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete habit: %w", err)
	} else if n == 0 {
		return apperr.NotFound("habit", id)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM completions WHERE user_id = $1 AND habit_id = $2`, userID, id); err != nil {
		return fmt.Errorf("delete completions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
