package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
	"github.com/MisterBo-ops/Gestionfil/internal/store"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

func (s *Store) CreateConseiller(ctx context.Context, input store.CreateConseillerInput) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return 0, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var exists bool
	row := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, input.Username)
	if err = row.Scan(&exists); err != nil {
		return 0, err
	}
	if exists {
		err = store.ErrDuplicateUsername
		return 0, err
	}

	var conseillerID int64
	row = tx.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, full_name, role, is_active, is_available, created_by)
		VALUES ($1, $2, $3, $4, TRUE, TRUE, $5)
		RETURNING id
	`, input.Username, string(hash), input.FullName, models.RoleConseiller, input.CreatedBy)
	if err = row.Scan(&conseillerID); err != nil {
		return 0, err
	}

	if err = insertActivity(ctx, tx, input.CreatedBy, "create_conseiller", nil, "Création du conseiller "+input.FullName); err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return conseillerID, nil
}

func (s *Store) ListConseillers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, full_name, role, is_active, is_available, on_break, break_start_time, total_break_time_minutes, created_at
		FROM users
		WHERE role = $1
		ORDER BY full_name ASC
	`, models.RoleConseiller)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conseillers []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.FullName, &user.Role, &user.IsActive, &user.IsAvailable, &user.OnBreak, &user.BreakStartTime, &user.TotalBreakTimeMinutes, &user.CreatedAt); err != nil {
			return nil, err
		}
		conseillers = append(conseillers, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conseillers, nil
}

func (s *Store) ToggleConseiller(ctx context.Context, actorID, conseillerID int64) (bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var isActive bool
	var fullName string
	row := tx.QueryRow(ctx, `
		UPDATE users
		SET is_active = NOT is_active, updated_at = NOW()
		WHERE id = $1 AND role = $2
		RETURNING is_active, full_name
	`, conseillerID, models.RoleConseiller)
	if err = row.Scan(&isActive, &fullName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrUserNotFound
		}
		return false, err
	}

	if !isActive {
		if _, err = tx.Exec(ctx, `
			UPDATE sessions SET is_active = FALSE, logout_time = NOW()
			WHERE user_id = $1 AND is_active = TRUE
		`, conseillerID); err != nil {
			return false, err
		}
	}

	action := "deactivate_conseiller"
	details := "Désactivation du conseiller " + fullName
	if isActive {
		action = "activate_conseiller"
		details = "Activation du conseiller " + fullName
	}
	if err = insertActivity(ctx, tx, actorID, action, nil, details); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return isActive, nil
}

func (s *Store) UpdateConseiller(ctx context.Context, actorID int64, input store.UpdateConseillerInput) error {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{input.ConseillerID}

	if input.Username != "" {
		args = append(args, input.Username)
		setClauses = append(setClauses, fmt.Sprintf("username = $%d", len(args)))
	}
	if input.FullName != "" {
		args = append(args, input.FullName)
		setClauses = append(setClauses, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
		if err != nil {
			return err
		}
		args = append(args, string(hash))
		setClauses = append(setClauses, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	if len(setClauses) == 1 {
		return store.ErrNothingToUpdate
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if input.Username != "" {
		var taken bool
		row := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)
		`, input.Username, input.ConseillerID)
		if err = row.Scan(&taken); err != nil {
			return err
		}
		if taken {
			err = store.ErrDuplicateUsername
			return err
		}
	}

	var fullName string
	query := fmt.Sprintf(`
		UPDATE users SET %s
		WHERE id = $1 AND role = '%s'
		RETURNING full_name
	`, strings.Join(setClauses, ", "), models.RoleConseiller)
	row := tx.QueryRow(ctx, query, args...)
	if err = row.Scan(&fullName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrUserNotFound
		}
		return err
	}

	if err = insertActivity(ctx, tx, actorID, "update_conseiller", nil, "Modification du conseiller "+fullName); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) DeleteConseiller(ctx context.Context, actorID, conseillerID int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var fullName string
	row := tx.QueryRow(ctx, `
		SELECT full_name FROM users WHERE id = $1 AND role = $2
	`, conseillerID, models.RoleConseiller)
	if err = row.Scan(&fullName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrUserNotFound
		}
		return err
	}

	var serving bool
	row = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM clients WHERE served_by = $1 AND status = $2)
	`, conseillerID, models.StatusInService)
	if err = row.Scan(&serving); err != nil {
		return err
	}
	if serving {
		err = store.ErrAdvisorServing
		return err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE sessions SET is_active = FALSE, logout_time = NOW()
		WHERE user_id = $1 AND is_active = TRUE
	`, conseillerID); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, conseillerID); err != nil {
		return err
	}

	if err = insertActivity(ctx, tx, actorID, "delete_conseiller", nil, "Suppression du conseiller "+fullName); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
