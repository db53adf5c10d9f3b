package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
	"github.com/MisterBo-ops/Gestionfil/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const sessionInsertAttempts = 3

func (s *Store) Login(ctx context.Context, username, password string) (store.LoginResult, error) {
	var user models.User
	var passwordHash string
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, full_name, role, is_active, is_available, on_break, total_break_time_minutes, created_at
		FROM users
		WHERE username = $1 AND is_active = TRUE
	`, username)
	if err := row.Scan(&user.ID, &user.Username, &passwordHash, &user.FullName, &user.Role, &user.IsActive, &user.IsAvailable, &user.OnBreak, &user.TotalBreakTimeMinutes, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.LoginResult{}, store.ErrInvalidCredentials
		}
		return store.LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return store.LoginResult{}, store.ErrInvalidCredentials
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return store.LoginResult{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var token string
	for attempt := 0; attempt < sessionInsertAttempts; attempt++ {
		token = uuid.NewString()
		var inserted int64
		row := tx.QueryRow(ctx, `
			INSERT INTO sessions (user_id, session_token, is_active, login_time)
			VALUES ($1, $2, TRUE, NOW())
			ON CONFLICT (session_token) DO NOTHING
			RETURNING id
		`, user.ID, token)
		if err = row.Scan(&inserted); err == nil {
			break
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return store.LoginResult{}, err
		}
		token = ""
	}
	if token == "" {
		err = errors.New("session token collision")
		return store.LoginResult{}, err
	}

	if err = insertActivity(ctx, tx, user.ID, "login", nil, "Connexion réussie"); err != nil {
		return store.LoginResult{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return store.LoginResult{}, err
	}

	return store.LoginResult{Token: token, User: user}, nil
}

func (s *Store) GetSession(ctx context.Context, token string) (models.User, error) {
	var user models.User
	row := s.pool.QueryRow(ctx, `
		SELECT u.id, u.username, u.full_name, u.role, u.is_active, u.is_available, u.on_break, u.total_break_time_minutes, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.session_token = $1 AND s.is_active = TRUE AND u.is_active = TRUE
	`, token)
	if err := row.Scan(&user.ID, &user.Username, &user.FullName, &user.Role, &user.IsActive, &user.IsAvailable, &user.OnBreak, &user.TotalBreakTimeMinutes, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, store.ErrSessionNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) Logout(ctx context.Context, token string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var userID int64
	row := tx.QueryRow(ctx, `
		UPDATE sessions
		SET is_active = FALSE, logout_time = NOW()
		WHERE session_token = $1 AND is_active = TRUE
		RETURNING user_id
	`, token)
	if err = row.Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrSessionNotFound
		}
		return err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE users SET is_available = FALSE, updated_at = NOW()
		WHERE id = $1 AND role = $2
	`, userID, models.RoleConseiller); err != nil {
		return err
	}

	if err = insertActivity(ctx, tx, userID, "logout", nil, "Déconnexion"); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ExpireSessions closes sessions older than maxAge. Called from a
// background sweeper, not from request paths.
func (s *Store) ExpireSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET is_active = FALSE, logout_time = NOW()
		WHERE is_active = TRUE AND login_time < NOW() - make_interval(secs => $1)
	`, maxAge.Seconds())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
