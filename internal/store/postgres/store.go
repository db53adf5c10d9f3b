package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	pool       *pgxpool.Pool
	bcryptCost int
}

type Options struct {
	BcryptCost int
}

func NewStore(pool *pgxpool.Pool, options Options) *Store {
	cost := options.BcryptCost
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{pool: pool, bcryptCost: cost}
}

func insertActivity(ctx context.Context, tx pgx.Tx, userID int64, action string, clientID *int64, details string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO activity_logs (user_id, action, client_id, details)
		VALUES ($1, $2, $3, $4)
	`, userID, action, clientID, nullIfEmpty(details))
	return err
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time
	return &t
}

func nullInt64Ptr(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}

func nullIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func nullStringOr(value sql.NullString) string {
	if !value.Valid {
		return ""
	}
	return value.String
}
