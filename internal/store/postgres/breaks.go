package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
	"github.com/MisterBo-ops/Gestionfil/internal/store"

	"github.com/jackc/pgx/v5"
)

func (s *Store) StartBreak(ctx context.Context, userID int64, reason string) (time.Time, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return time.Time{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var serving bool
	row := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM clients WHERE served_by = $1 AND status = $2)
	`, userID, models.StatusInService)
	if err = row.Scan(&serving); err != nil {
		return time.Time{}, err
	}
	if serving {
		err = store.ErrClientInService
		return time.Time{}, err
	}

	var breakStart time.Time
	row = tx.QueryRow(ctx, `
		UPDATE users
		SET on_break = TRUE, break_start_time = NOW(), is_available = FALSE, updated_at = NOW()
		WHERE id = $1 AND on_break = FALSE
		RETURNING break_start_time
	`, userID)
	if err = row.Scan(&breakStart); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrBreakOpen
		}
		return time.Time{}, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO breaks (user_id, break_start, reason)
		VALUES ($1, $2, $3)
	`, userID, breakStart, nullIfEmpty(reason)); err != nil {
		return time.Time{}, err
	}

	if err = insertActivity(ctx, tx, userID, "start_break", nil, "Début de pause"); err != nil {
		return time.Time{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return time.Time{}, err
	}
	return breakStart, nil
}

func (s *Store) EndBreak(ctx context.Context, userID int64) (int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var duration int
	row := tx.QueryRow(ctx, `
		UPDATE breaks
		SET break_end = NOW(),
		    duration_minutes = FLOOR(EXTRACT(EPOCH FROM (NOW() - break_start)) / 60)::int
		WHERE user_id = $1 AND break_end IS NULL
		RETURNING duration_minutes
	`, userID)
	if err = row.Scan(&duration); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrNoOpenBreak
		}
		return 0, err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE users
		SET on_break = FALSE, break_start_time = NULL, is_available = TRUE,
		    total_break_time_minutes = total_break_time_minutes + $2,
		    updated_at = NOW()
		WHERE id = $1
	`, userID, duration); err != nil {
		return 0, err
	}

	if err = insertActivity(ctx, tx, userID, "end_break", nil, "Fin de pause"); err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return duration, nil
}

func (s *Store) ListBreaks(ctx context.Context, userID int64) ([]models.Break, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, break_start, break_end, duration_minutes, COALESCE(reason, '')
		FROM breaks
		WHERE user_id = $1
		ORDER BY break_start DESC
		LIMIT 50
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var breaks []models.Break
	for rows.Next() {
		var b models.Break
		if err := rows.Scan(&b.ID, &b.UserID, &b.BreakStart, &b.BreakEnd, &b.DurationMinutes, &b.Reason); err != nil {
			return nil, err
		}
		breaks = append(breaks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return breaks, nil
}
