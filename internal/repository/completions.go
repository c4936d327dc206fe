package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/models"
)

// PostgresCompletionRepository stores completion records, scoped by owner.
type PostgresCompletionRepository struct {
	DB *sql.DB
}

func NewPostgresCompletionRepository(db *sql.DB) *PostgresCompletionRepository {
	return &PostgresCompletionRepository{DB: db}
}

// CompletionFilter narrows ListCompletions. Zero values match everything.
type CompletionFilter struct {
	Date          string
	HabitID       string
	CompletedOnly bool
}

const completionColumns = `id, habit_id, user_id, date, completed, note, mood, created_at, updated_at`

func scanCompletion(row scanner, extra ...any) (*models.Completion, error) {
	var (
		c                    models.Completion
		mood                 sql.NullInt64
		createdAt, updatedAt time.Time
	)
	dest := []any{&c.ID, &c.HabitID, &c.OwnerID, &c.Date, &c.Completed, &c.Note, &mood, &createdAt, &updatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if mood.Valid {
		m := int(mood.Int64)
		c.Mood = &m
	}
	c.Timestamp = createdAt
	c.CreatedAt = &createdAt
	c.UpdatedAt = &updatedAt
	return &c, nil
}

// ListCompletions returns the user's completions matching f, newest date first.
func (r *PostgresCompletionRepository) ListCompletions(ctx context.Context, userID string, f CompletionFilter) ([]models.Completion, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if f.Date != "" {
		args = append(args, f.Date)
		where = append(where, fmt.Sprintf("date = $%d", len(args)))
	}
	if f.HabitID != "" {
		args = append(args, f.HabitID)
		where = append(where, fmt.Sprintf("habit_id = $%d", len(args)))
	}
	if f.CompletedOnly {
		where = append(where, "completed = TRUE")
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+completionColumns+` FROM completions WHERE `+strings.Join(where, " AND ")+` ORDER BY date DESC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("ListCompletions: %w", err)
	}
	defer rows.Close()

	out := []models.Completion{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCompletions: %w", err)
	}
	return out, nil
}

func (r *PostgresCompletionRepository) GetCompletion(ctx context.Context, userID, id string) (*models.Completion, error) {
	c, err := scanCompletion(r.DB.QueryRowContext(ctx,
		`SELECT `+completionColumns+` FROM completions WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("completion", id)
	}
	if err != nil {
		return nil, fmt.Errorf("GetCompletion: %w", err)
	}
	return c, nil
}

// ToggleCompletion creates the (user, habit, date) record as completed, or
// flips an existing one, in a single statement. A non-nil note replaces the
// stored note. created reports which branch was taken.
func (r *PostgresCompletionRepository) ToggleCompletion(ctx context.Context, c models.Completion, note *string) (*models.Completion, bool, error) {
	var created bool
	out, err := scanCompletion(r.DB.QueryRowContext(ctx, `
		INSERT INTO completions (id, user_id, habit_id, date, completed, note)
		VALUES ($1, $2, $3, $4, TRUE, COALESCE($5::text, ''))
		ON CONFLICT (user_id, habit_id, date) DO UPDATE
		   SET completed = NOT completions.completed,
		       note = COALESCE($5::text, completions.note),
		       updated_at = now()
		RETURNING `+completionColumns+`, (xmax = 0)
	`, c.ID, c.OwnerID, c.HabitID, c.Date, nullableNote(note)), &created)
	if err != nil {
		return nil, false, fmt.Errorf("ToggleCompletion: %w", err)
	}
	return out, created, nil
}

// UpdateCompletion saves completed, note and mood.
func (r *PostgresCompletionRepository) UpdateCompletion(ctx context.Context, c *models.Completion) error {
	var updatedAt time.Time
	err := r.DB.QueryRowContext(ctx, `
		UPDATE completions SET completed = $3, note = $4, mood = $5, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`, c.ID, c.OwnerID, c.Completed, c.Note, nullableMood(c.Mood)).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("completion", c.ID)
	}
	if err != nil {
		return fmt.Errorf("UpdateCompletion: %w", err)
	}
	c.UpdatedAt = &updatedAt
	return nil
}

func (r *PostgresCompletionRepository) DeleteCompletion(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM completions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteCompletion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteCompletion: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("completion", id)
	}
	return nil
}
