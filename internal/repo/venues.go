package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stagedoor/internal/model"
)

func (r *repository) CreateVenue(ctx context.Context, v *model.Venue) (int64, error) {
	query := `
		INSERT INTO venues (slug, name, address, description, owner_profile_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		v.Slug, v.Name, v.Address, v.Description, v.OwnerProfileID,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert venue: %w", err)
	}
	return id, nil
}

func (r *repository) UpdateVenue(ctx context.Context, v *model.Venue) error {
	query := `
		UPDATE venues
		SET slug = $1, name = $2, address = $3, description = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		v.Slug, v.Name, v.Address, v.Description, v.ID,
	).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVenueNotFound
		}
		return fmt.Errorf("failed to update venue: %w", err)
	}
	return nil
}

func (r *repository) GetVenueByID(ctx context.Context, id int64) (*model.Venue, error) {
	query := `
		SELECT id, slug, name, address, description, owner_profile_id, created_at, updated_at
		FROM venues
		WHERE id = $1
	`
	var v model.Venue
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.Slug, &v.Name, &v.Address, &v.Description,
		&v.OwnerProfileID, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, ErrVenueNotFound
	}
	return &v, nil
}

func (r *repository) ListVenues(ctx context.Context) ([]model.Venue, error) {
	query := `
		SELECT id, slug, name, address, description, owner_profile_id, created_at, updated_at
		FROM venues
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	defer rows.Close()

	var out []model.Venue
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(
			&v.ID, &v.Slug, &v.Name, &v.Address, &v.Description,
			&v.OwnerProfileID, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) CreateOwnershipClaim(ctx context.Context, c *model.OwnershipClaim) (int64, error) {
	query := `
		INSERT INTO ownership_claims (subject_type, subject_id, profile_id, note, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		c.SubjectType, c.SubjectID, c.ProfileID, c.Note,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert ownership claim: %w", err)
	}
	return id, nil
}

func (r *repository) ListOwnershipClaims(ctx context.Context, status string) ([]model.OwnershipClaim, error) {
	query := `
		SELECT id, subject_type, subject_id, profile_id, COALESCE(note, ''),
		       status, decided_by, decided_at, created_at
		FROM ownership_claims
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list ownership claims: %w", err)
	}
	defer rows.Close()

	var out []model.OwnershipClaim
	for rows.Next() {
		var c model.OwnershipClaim
		if err := rows.Scan(
			&c.ID, &c.SubjectType, &c.SubjectID, &c.ProfileID, &c.Note,
			&c.Status, &c.DecidedBy, &c.DecidedAt, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ownership claim: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DecideOwnershipClaimTx approves or rejects a pending ownership claim and,
// on approval, grants the claimant their role: host association for events,
// ownership for venues. Deciding an already-decided claim is an error.
func (r *repository) DecideOwnershipClaimTx(ctx context.Context, claimID, deciderID int64, approve bool) (*model.OwnershipClaim, error) {
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

	var c model.OwnershipClaim
	err = tx.QueryRowContext(ctx, `
		SELECT id, subject_type, subject_id, profile_id, COALESCE(note, ''), status, created_at
		FROM ownership_claims
		WHERE id = $1
		FOR UPDATE
	`, claimID).Scan(&c.ID, &c.SubjectType, &c.SubjectID, &c.ProfileID, &c.Note, &c.Status, &c.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrOwnershipNotFound
	}

	if c.Status != model.OwnershipClaimPending {
		_ = tx.Rollback()
		return nil, ErrAlreadyDecided
	}

	newStatus := model.OwnershipClaimRejected
	if approve {
		newStatus = model.OwnershipClaimApproved
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE ownership_claims
		SET status = $1, decided_by = $2, decided_at = NOW()
		WHERE id = $3
		RETURNING status, decided_by, decided_at
	`, newStatus, deciderID, claimID).Scan(&c.Status, &c.DecidedBy, &c.DecidedAt)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to decide ownership claim: %w", err)
	}

	if approve {
		switch c.SubjectType {
		case model.SubjectEvent:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO event_hosts (event_id, profile_id, role)
				VALUES ($1, $2, 'host')
				ON CONFLICT (event_id, profile_id) DO NOTHING
			`, c.SubjectID, c.ProfileID)
		case model.SubjectVenue:
			_, err = tx.ExecContext(ctx, `
				UPDATE venues SET owner_profile_id = $1, updated_at = NOW() WHERE id = $2
			`, c.ProfileID, c.SubjectID)
		}
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to grant ownership: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ownership decision: %w", err)
	}
	return &c, nil
}
