package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
	"github.com/MisterBo-ops/Gestionfil/internal/store"

	"github.com/jackc/pgx/v5"
)

const clientColumns = `
	c.id, c.nom, c.prenom, c.numero_mtn, c.second_contact, c.raison_visite,
	c.type_client, c.priority, c.status, c.arrival_time, c.served_by,
	c.service_start_time, c.service_end_time, c.waiting_time_minutes,
	c.service_time_minutes, c.total_time_minutes, c.ticket_number, c.qr_code,
	c.registered_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (models.Client, error) {
	var client models.Client
	var secondContact sql.NullString
	var servedBy, registeredBy sql.NullInt64
	var serviceStart, serviceEnd sql.NullTime
	var waitingMins, serviceMins, totalMins sql.NullInt64
	err := row.Scan(
		&client.ID, &client.Nom, &client.Prenom, &client.NumeroMTN, &secondContact,
		&client.RaisonVisite, &client.TypeClient, &client.Priority, &client.Status,
		&client.ArrivalTime, &servedBy, &serviceStart, &serviceEnd,
		&waitingMins, &serviceMins, &totalMins,
		&client.TicketNumber, &client.QRCode, &registeredBy,
	)
	if err != nil {
		return models.Client{}, err
	}
	client.SecondContact = nullStringOr(secondContact)
	client.ServedBy = nullInt64Ptr(servedBy)
	client.RegisteredBy = nullInt64Ptr(registeredBy)
	client.ServiceStartTime = nullTimePtr(serviceStart)
	client.ServiceEndTime = nullTimePtr(serviceEnd)
	client.WaitingTimeMinutes = nullIntPtr(waitingMins)
	client.ServiceTimeMinutes = nullIntPtr(serviceMins)
	client.TotalTimeMinutes = nullIntPtr(totalMins)
	return client, nil
}

// checkTransition rejects an action whose current client status does
// not admit it. The conditional UPDATE that follows still guards
// against racing writers.
func checkTransition(ctx context.Context, tx pgx.Tx, action string, clientID int64) error {
	var status string
	row := tx.QueryRow(ctx, `SELECT status FROM clients WHERE id = $1`, clientID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrClientNotFound
		}
		return err
	}
	if !store.ValidTransition(action, status) {
		return store.ErrClientNotFound
	}
	return nil
}

func (s *Store) RegisterClient(ctx context.Context, input store.RegisterClientInput) (store.RegisterClientResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return store.RegisterClientResult{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	now := time.Now()
	var seq int64
	row := tx.QueryRow(ctx, `
		INSERT INTO ticket_counters (day, counter)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET counter = ticket_counters.counter + 1
		RETURNING counter
	`, now.Format("2006-01-02"))
	if err = row.Scan(&seq); err != nil {
		return store.RegisterClientResult{}, err
	}

	priority := store.PriorityFor(input.TypeClient)
	ticketNumber := store.FormatTicketNumber(now, seq)

	qrPayload, err := json.Marshal(map[string]string{
		"ticket": ticketNumber,
		"nom":    input.Nom,
		"prenom": input.Prenom,
		"type":   input.TypeClient,
		"time":   now.Format(time.RFC3339),
	})
	if err != nil {
		return store.RegisterClientResult{}, err
	}

	var clientID int64
	row = tx.QueryRow(ctx, `
		INSERT INTO clients (
			nom, prenom, numero_mtn, second_contact, raison_visite, type_client,
			priority, status, arrival_time, ticket_number, qr_code, registered_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), $9, $10, $11)
		RETURNING id
	`, input.Nom, input.Prenom, input.NumeroMTN, nullIfEmpty(input.SecondContact),
		input.RaisonVisite, input.TypeClient, priority, models.StatusWaiting,
		ticketNumber, string(qrPayload), input.RegisteredBy)
	if err = row.Scan(&clientID); err != nil {
		return store.RegisterClientResult{}, err
	}

	if err = insertActivity(ctx, tx, input.RegisteredBy, "register_client", &clientID, "Enregistrement du client "+input.Prenom+" "+input.Nom); err != nil {
		return store.RegisterClientResult{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return store.RegisterClientResult{}, err
	}

	return store.RegisterClientResult{
		ClientID:     clientID,
		Priority:     priority,
		TicketNumber: ticketNumber,
		QRCode:       string(qrPayload),
	}, nil
}

func (s *Store) ListQueue(ctx context.Context) ([]models.Client, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+clientColumns+`,
		       u.full_name,
		       FLOOR(EXTRACT(EPOCH FROM (NOW() - c.arrival_time)) / 60)::int
		FROM clients c
		LEFT JOIN users u ON u.id = c.registered_by
		WHERE c.status = $1
		ORDER BY c.priority ASC, c.arrival_time ASC
	`, models.StatusWaiting)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queue []models.Client
	for rows.Next() {
		var client models.Client
		var secondContact, registeredByName sql.NullString
		var servedBy, registeredBy sql.NullInt64
		var serviceStart, serviceEnd sql.NullTime
		var waitingMins, serviceMins, totalMins sql.NullInt64
		if err := rows.Scan(
			&client.ID, &client.Nom, &client.Prenom, &client.NumeroMTN, &secondContact,
			&client.RaisonVisite, &client.TypeClient, &client.Priority, &client.Status,
			&client.ArrivalTime, &servedBy, &serviceStart, &serviceEnd,
			&waitingMins, &serviceMins, &totalMins,
			&client.TicketNumber, &client.QRCode, &registeredBy,
			&registeredByName, &client.CurrentWaitingMinutes,
		); err != nil {
			return nil, err
		}
		client.SecondContact = nullStringOr(secondContact)
		client.ServedBy = nullInt64Ptr(servedBy)
		client.RegisteredBy = nullInt64Ptr(registeredBy)
		client.RegisteredByName = nullStringOr(registeredByName)
		client.ServiceStartTime = nullTimePtr(serviceStart)
		client.ServiceEndTime = nullTimePtr(serviceEnd)
		client.WaitingTimeMinutes = nullIntPtr(waitingMins)
		client.ServiceTimeMinutes = nullIntPtr(serviceMins)
		client.TotalTimeMinutes = nullIntPtr(totalMins)
		queue = append(queue, client)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return queue, nil
}

// CallClient claims the client for the advisor. Both updates are
// conditional so two advisors racing on the same client, or one advisor
// double-clicking, resolve without serving a client twice. The users row
// is always touched before the clients row to keep lock order stable
// with CompleteClient.
func (s *Store) CallClient(ctx context.Context, advisorID, clientID int64) (models.Client, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Client{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET is_available = FALSE, updated_at = NOW()
		WHERE id = $1 AND role = $2 AND is_active = TRUE AND is_available = TRUE AND on_break = FALSE
	`, advisorID, models.RoleConseiller)
	if err != nil {
		return models.Client{}, err
	}
	if tag.RowsAffected() == 0 {
		err = store.ErrAdvisorUnavailable
		return models.Client{}, err
	}

	if err = checkTransition(ctx, tx, "call", clientID); err != nil {
		return models.Client{}, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE clients c
		SET status = $1, served_by = $2, service_start_time = NOW(),
		    waiting_time_minutes = FLOOR(EXTRACT(EPOCH FROM (NOW() - arrival_time)) / 60)::int,
		    updated_at = NOW()
		WHERE c.id = $3 AND c.status = $4
		RETURNING`+clientColumns+`
	`, models.StatusInService, advisorID, clientID, models.StatusWaiting)
	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrClientNotFound
		}
		return models.Client{}, err
	}

	if err = insertActivity(ctx, tx, advisorID, "call_client", &clientID, "Début du service"); err != nil {
		return models.Client{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Client{}, err
	}
	return client, nil
}

func (s *Store) CompleteClient(ctx context.Context, advisorID, clientID int64) (models.Client, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Client{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Users row first, same order as CallClient. The rollback on a
	// failed client CAS undoes the availability flip.
	if _, err = tx.Exec(ctx, `
		UPDATE users
		SET is_available = TRUE, updated_at = NOW()
		WHERE id = $1
	`, advisorID); err != nil {
		return models.Client{}, err
	}

	if err = checkTransition(ctx, tx, "complete", clientID); err != nil {
		return models.Client{}, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE clients c
		SET status = $1, service_end_time = NOW(),
		    service_time_minutes = FLOOR(EXTRACT(EPOCH FROM (NOW() - service_start_time)) / 60)::int,
		    total_time_minutes = FLOOR(EXTRACT(EPOCH FROM (NOW() - arrival_time)) / 60)::int,
		    updated_at = NOW()
		WHERE c.id = $2 AND c.status = $3 AND c.served_by = $4
		RETURNING`+clientColumns+`
	`, models.StatusCompleted, clientID, models.StatusInService, advisorID)
	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrClientNotFound
		}
		return models.Client{}, err
	}

	if err = insertActivity(ctx, tx, advisorID, "complete_client", &clientID, "Service terminé"); err != nil {
		return models.Client{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Client{}, err
	}
	return client, nil
}

func (s *Store) CurrentClient(ctx context.Context, advisorID int64) (models.Client, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+clientColumns+`,
		       FLOOR(EXTRACT(EPOCH FROM (NOW() - c.service_start_time)) / 60)::int
		FROM clients c
		WHERE c.served_by = $1 AND c.status = $2
		ORDER BY c.service_start_time DESC
		LIMIT 1
	`, advisorID, models.StatusInService)

	var client models.Client
	var secondContact sql.NullString
	var servedBy, registeredBy sql.NullInt64
	var serviceStart, serviceEnd sql.NullTime
	var waitingMins, serviceMins, totalMins sql.NullInt64
	err := row.Scan(
		&client.ID, &client.Nom, &client.Prenom, &client.NumeroMTN, &secondContact,
		&client.RaisonVisite, &client.TypeClient, &client.Priority, &client.Status,
		&client.ArrivalTime, &servedBy, &serviceStart, &serviceEnd,
		&waitingMins, &serviceMins, &totalMins,
		&client.TicketNumber, &client.QRCode, &registeredBy,
		&client.CurrentServiceMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Client{}, false, nil
		}
		return models.Client{}, false, err
	}
	client.SecondContact = nullStringOr(secondContact)
	client.ServedBy = nullInt64Ptr(servedBy)
	client.RegisteredBy = nullInt64Ptr(registeredBy)
	client.ServiceStartTime = nullTimePtr(serviceStart)
	client.ServiceEndTime = nullTimePtr(serviceEnd)
	client.WaitingTimeMinutes = nullIntPtr(waitingMins)
	client.ServiceTimeMinutes = nullIntPtr(serviceMins)
	client.TotalTimeMinutes = nullIntPtr(totalMins)
	return client, true, nil
}

func (s *Store) GetTicket(ctx context.Context, clientID int64) (models.Client, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+clientColumns+`
		FROM clients c
		WHERE c.id = $1
	`, clientID)
	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Client{}, store.ErrClientNotFound
		}
		return models.Client{}, err
	}
	return client, nil
}
