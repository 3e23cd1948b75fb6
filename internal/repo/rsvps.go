package repo

import (
	"context"
	"fmt"

	"stagedoor/internal/model"
)

// CreateRSVPTx books an RSVP against one occurrence, enforcing capacity and
// the one-RSVP-per-email rule inside a single transaction. The event row is
// locked so concurrent RSVPs cannot oversell the room.
func (r *repository) CreateRSVPTx(ctx context.Context, rsvp *model.RSVP) (int64, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var capacity int
	err = tx.QueryRowContext(ctx, `
		SELECT capacity FROM events WHERE id = $1 FOR UPDATE
	`, rsvp.EventID).Scan(&capacity)
	if err != nil {
		_ = tx.Rollback()
		return 0, ErrEventNotFound
	}

	if rsvp.Status == model.RSVPStatusGoing && capacity > 0 {
		var going int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM event_rsvps
			WHERE event_id = $1 AND date_key = $2 AND status = 'going'
		`, rsvp.EventID, rsvp.DateKey).Scan(&going)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to count rsvps: %w", err)
		}
		if going >= capacity {
			_ = tx.Rollback()
			return 0, ErrEventFull
		}
	}

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM event_rsvps
		WHERE event_id = $1 AND date_key = $2 AND email = $3
	`, rsvp.EventID, rsvp.DateKey, rsvp.Email).Scan(&existing)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to check duplicate rsvp: %w", err)
	}
	if existing > 0 {
		_ = tx.Rollback()
		return 0, ErrDuplicateRSVP
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO event_rsvps (event_id, date_key, profile_id, name, email, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, rsvp.EventID, rsvp.DateKey, rsvp.ProfileID, rsvp.Name, rsvp.Email, rsvp.Status).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to create rsvp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rsvp transaction: %w", err)
	}
	return id, nil
}

func (r *repository) GetRSVPByID(ctx context.Context, id int64) (*model.RSVP, error) {
	query := `
		SELECT id, event_id, date_key, profile_id, name, email, status, created_at, updated_at
		FROM event_rsvps
		WHERE id = $1
	`
	var rsvp model.RSVP
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rsvp.ID, &rsvp.EventID, &rsvp.DateKey, &rsvp.ProfileID,
		&rsvp.Name, &rsvp.Email, &rsvp.Status, &rsvp.CreatedAt, &rsvp.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("rsvp not found: %w", err)
	}
	return &rsvp, nil
}

func (r *repository) ListRSVPs(ctx context.Context, eventID int64, dateKey string) ([]model.RSVP, error) {
	query := `
		SELECT id, event_id, date_key, profile_id, name, email, status, created_at, updated_at
		FROM event_rsvps
		WHERE event_id = $1 AND date_key = $2
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list rsvps: %w", err)
	}
	defer rows.Close()

	var out []model.RSVP
	for rows.Next() {
		var rsvp model.RSVP
		if err := rows.Scan(
			&rsvp.ID, &rsvp.EventID, &rsvp.DateKey, &rsvp.ProfileID,
			&rsvp.Name, &rsvp.Email, &rsvp.Status, &rsvp.CreatedAt, &rsvp.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rsvp: %w", err)
		}
		out = append(out, rsvp)
	}
	return out, rows.Err()
}

func (r *repository) CountRSVPs(ctx context.Context, eventID int64, dateKey string) (int, error) {
	query := `
		SELECT COUNT(*) FROM event_rsvps
		WHERE event_id = $1 AND date_key = $2 AND status = 'going'
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID, dateKey).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rsvps: %w", err)
	}
	return count, nil
}
