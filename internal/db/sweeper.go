package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const sweepBatch = 500

// SweepOrphans deletes up to one batch of completions whose habit no
// longer exists and returns how many were removed.
func SweepOrphans(ctx context.Context, db *sql.DB) (int64, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id FROM completions c
		 WHERE NOT EXISTS (SELECT 1 FROM habits h WHERE h.id = c.habit_id AND h.user_id = c.user_id)
		 LIMIT $1
	`, sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("find orphans: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan orphan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("find orphans: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := db.ExecContext(ctx, `DELETE FROM completions WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete orphans: %w", err)
	}
	return res.RowsAffected()
}

// StartOrphanSweeper runs SweepOrphans every interval until ctx is done.
func StartOrphanSweeper(ctx context.Context, db *sql.DB, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := SweepOrphans(ctx, db)
				if err != nil {
					log.Error("failed to sweep orphaned completions", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("swept orphaned completions", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
