package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stagedoor/internal/model"
)

// GenerateTimeslotsTx (re)builds the slot sheet for one occurrence from the
// event's slot configuration. Claimed slots are left alone; unclaimed slots
// are dropped and the missing indexes re-inserted. Returns the number of
// slots created.
func (r *repository) GenerateTimeslotsTx(ctx context.Context, e *model.Event, dateKey string) (int, error) {
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

	// Drop slots for this occurrence that carry no active claim.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM event_timeslots t
		WHERE t.event_id = $1 AND t.date_key = $2
		  AND NOT EXISTS (
			SELECT 1 FROM timeslot_claims c
			WHERE c.timeslot_id = t.id AND c.status IN ('confirmed', 'waitlisted')
		  )
	`, e.ID, dateKey)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to clear unclaimed slots: %w", err)
	}

	// Indexes that survived because they are claimed.
	rows, err := tx.QueryContext(ctx, `
		SELECT slot_index FROM event_timeslots
		WHERE event_id = $1 AND date_key = $2
	`, e.ID, dateKey)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to read surviving slots: %w", err)
	}
	kept := make(map[int]struct{})
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			rows.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to scan slot index: %w", err)
		}
		kept[idx] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to read surviving slots: %w", err)
	}

	created := 0
	for i := 0; i < e.SlotCount; i++ {
		if _, ok := kept[i]; ok {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO event_timeslots (event_id, date_key, slot_index, offset_minutes, duration_minutes)
			VALUES ($1, $2, $3, $4, $5)
		`, e.ID, dateKey, i, i*e.SlotMinutes, e.SlotMinutes)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to insert slot %d: %w", i, err)
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit slot generation: %w", err)
	}
	return created, nil
}

func (r *repository) ListTimeslots(ctx context.Context, eventID int64, dateKey string) ([]model.Timeslot, error) {
	query := `
		SELECT id, event_id, date_key, slot_index, offset_minutes, duration_minutes, created_at
		FROM event_timeslots
		WHERE event_id = $1 AND date_key = $2
		ORDER BY slot_index ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeslots: %w", err)
	}
	defer rows.Close()

	var out []model.Timeslot
	for rows.Next() {
		var t model.Timeslot
		if err := rows.Scan(
			&t.ID, &t.EventID, &t.DateKey, &t.SlotIndex,
			&t.OffsetMinutes, &t.DurationMin, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan timeslot: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) GetTimeslotByID(ctx context.Context, id int64) (*model.Timeslot, error) {
	query := `
		SELECT id, event_id, date_key, slot_index, offset_minutes, duration_minutes, created_at
		FROM event_timeslots
		WHERE id = $1
	`
	var t model.Timeslot
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.EventID, &t.DateKey, &t.SlotIndex,
		&t.OffsetMinutes, &t.DurationMin, &t.CreatedAt,
	); err != nil {
		return nil, ErrTimeslotNotFound
	}
	return &t, nil
}

// ClaimTimeslotTx inserts a claim for the slot. The first performer gets
// confirmed; while a confirmed claim exists further performers queue as
// waitlisted. The slot row is locked so two concurrent claims cannot both
// see it free.
func (r *repository) ClaimTimeslotTx(ctx context.Context, claim *model.TimeslotClaim) (int64, string, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var slotID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM event_timeslots WHERE id = $1 FOR UPDATE
	`, claim.TimeslotID).Scan(&slotID)
	if err != nil {
		_ = tx.Rollback()
		return 0, "", ErrTimeslotNotFound
	}

	var confirmed int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM timeslot_claims
		WHERE timeslot_id = $1 AND status = 'confirmed'
	`, claim.TimeslotID).Scan(&confirmed)
	if err != nil {
		_ = tx.Rollback()
		return 0, "", fmt.Errorf("failed to count confirmed claims: %w", err)
	}

	status := model.ClaimStatusConfirmed
	if confirmed > 0 {
		status = model.ClaimStatusWaitlisted
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO timeslot_claims (timeslot_id, profile_id, performer_name, guest_email, guest_token, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, claim.TimeslotID, claim.ProfileID, claim.PerformerName, claim.GuestEmail, claim.GuestToken, status).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		return 0, "", fmt.Errorf("failed to create claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, "", fmt.Errorf("failed to commit claim transaction: %w", err)
	}
	return id, status, nil
}

func (r *repository) GetClaimByID(ctx context.Context, id int64) (*model.TimeslotClaim, error) {
	query := `
		SELECT id, timeslot_id, profile_id, performer_name,
		       COALESCE(guest_email, ''), COALESCE(guest_token, ''),
		       status, created_at, updated_at
		FROM timeslot_claims
		WHERE id = $1
	`
	var c model.TimeslotClaim
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.TimeslotID, &c.ProfileID, &c.PerformerName,
		&c.GuestEmail, &c.GuestToken, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, ErrClaimNotFound
	}
	return &c, nil
}

func (r *repository) ListClaimsForOccurrence(ctx context.Context, eventID int64, dateKey string) ([]model.TimeslotClaim, error) {
	query := `
		SELECT c.id, c.timeslot_id, c.profile_id, c.performer_name,
		       COALESCE(c.guest_email, ''), COALESCE(c.guest_token, ''),
		       c.status, c.created_at, c.updated_at
		FROM timeslot_claims c
		JOIN event_timeslots t ON t.id = c.timeslot_id
		WHERE t.event_id = $1 AND t.date_key = $2
		ORDER BY t.slot_index ASC, c.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var out []model.TimeslotClaim
	for rows.Next() {
		var c model.TimeslotClaim
		if err := rows.Scan(
			&c.ID, &c.TimeslotID, &c.ProfileID, &c.PerformerName,
			&c.GuestEmail, &c.GuestToken, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RemoveClaimTx cancels a claim and promotes the earliest waitlisted claim
// on the same slot, if any. The promoted claim is returned so the caller
// can notify the performer.
func (r *repository) RemoveClaimTx(ctx context.Context, claimID int64) (*model.TimeslotClaim, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var slotID int64
	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT timeslot_id, status FROM timeslot_claims WHERE id = $1 FOR UPDATE
	`, claimID).Scan(&slotID, &status)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrClaimNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE timeslot_claims SET status = 'cancelled', updated_at = NOW() WHERE id = $1
	`, claimID); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to cancel claim: %w", err)
	}

	var promoted *model.TimeslotClaim
	if status == model.ClaimStatusConfirmed {
		var c model.TimeslotClaim
		err = tx.QueryRowContext(ctx, `
			UPDATE timeslot_claims
			SET status = 'confirmed', updated_at = NOW()
			WHERE id = (
				SELECT id FROM timeslot_claims
				WHERE timeslot_id = $1 AND status = 'waitlisted'
				ORDER BY created_at ASC
				LIMIT 1
				FOR UPDATE
			)
			RETURNING id, timeslot_id, profile_id, performer_name,
			          COALESCE(guest_email, ''), COALESCE(guest_token, ''),
			          status, created_at, updated_at
		`, slotID).Scan(
			&c.ID, &c.TimeslotID, &c.ProfileID, &c.PerformerName,
			&c.GuestEmail, &c.GuestToken, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to promote waitlisted claim: %w", err)
		}
		if err == nil {
			promoted = &c
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim removal: %w", err)
	}
	return promoted, nil
}

func (r *repository) UpdateClaimStatusTx(ctx context.Context, claimID int64, newStatus string) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	query := `
		UPDATE timeslot_claims
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id
	`

	var id int64
	if err := tx.QueryRowContext(ctx, query, newStatus, claimID).Scan(&id); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return ErrClaimNotFound
		}
		return fmt.Errorf("failed to update claim status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CancelIfStillWaitlistedTx expires a waitlisted claim whose hold window has
// passed. Claims that were confirmed or already cancelled are left alone and
// the method reports false.
func (r *repository) CancelIfStillWaitlistedTx(ctx context.Context, claimID int64) (bool, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var currentStatus string
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM timeslot_claims WHERE id = $1 FOR UPDATE
	`, claimID).Scan(&currentStatus)
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to select claim for expiry: %w", err)
	}

	if currentStatus != model.ClaimStatusWaitlisted {
		_ = tx.Rollback()
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE timeslot_claims SET status = 'cancelled', updated_at = NOW() WHERE id = $1
	`, claimID); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to expire claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit expiry transaction: %w", err)
	}
	return true, nil
}
