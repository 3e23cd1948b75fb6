package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stagedoor/internal/model"
)

func (r *repository) UpsertOverride(ctx context.Context, ov *model.OccurrenceOverride) (int64, error) {
	query := `
		INSERT INTO occurrence_overrides (event_id, date_key, status, start_time, cover_image, notes, patch)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id, date_key) DO UPDATE
		SET status = EXCLUDED.status,
		    start_time = EXCLUDED.start_time,
		    cover_image = EXCLUDED.cover_image,
		    notes = EXCLUDED.notes,
		    patch = EXCLUDED.patch,
		    updated_at = NOW()
		RETURNING id
	`

	patch := []byte(ov.Patch)
	if len(patch) == 0 {
		patch = nil
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		ov.EventID, ov.DateKey, ov.Status, ov.StartTime, ov.CoverImage, ov.Notes, patch,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert occurrence override: %w", err)
	}
	return id, nil
}

func (r *repository) GetOverride(ctx context.Context, eventID int64, dateKey string) (*model.OccurrenceOverride, error) {
	query := `
		SELECT id, event_id, date_key, status, start_time, cover_image,
		       COALESCE(notes, ''), patch, created_at, updated_at
		FROM occurrence_overrides
		WHERE event_id = $1 AND date_key = $2
	`

	var ov model.OccurrenceOverride
	var patch []byte
	err := r.db.QueryRowContext(ctx, query, eventID, dateKey).Scan(
		&ov.ID, &ov.EventID, &ov.DateKey, &ov.Status, &ov.StartTime,
		&ov.CoverImage, &ov.Notes, &patch, &ov.CreatedAt, &ov.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOverrideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get occurrence override: %w", err)
	}
	ov.Patch = patch
	return &ov, nil
}

func (r *repository) ListOverrides(ctx context.Context, eventID int64, startKey, endKey string) ([]model.OccurrenceOverride, error) {
	query := `
		SELECT id, event_id, date_key, status, start_time, cover_image,
		       COALESCE(notes, ''), patch, created_at, updated_at
		FROM occurrence_overrides
		WHERE event_id = $1 AND date_key >= $2 AND date_key <= $3
		ORDER BY date_key ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID, startKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrence overrides: %w", err)
	}
	defer rows.Close()

	var out []model.OccurrenceOverride
	for rows.Next() {
		var ov model.OccurrenceOverride
		var patch []byte
		if err := rows.Scan(
			&ov.ID, &ov.EventID, &ov.DateKey, &ov.Status, &ov.StartTime,
			&ov.CoverImage, &ov.Notes, &patch, &ov.CreatedAt, &ov.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan occurrence override: %w", err)
		}
		ov.Patch = patch
		out = append(out, ov)
	}
	return out, rows.Err()
}

// UpsertLineupState is the single-row last-write-wins upsert behind the
// host "now playing" control. No optimistic locking on purpose. It returns
// the row's updated_at so the caller echoes the stored timestamp rather
// than its own clock.
func (r *repository) UpsertLineupState(ctx context.Context, eventID int64, dateKey string, timeslotID *int64) (time.Time, error) {
	query := `
		INSERT INTO event_lineup_state (event_id, date_key, now_playing_timeslot_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (event_id, date_key) DO UPDATE
		SET now_playing_timeslot_id = EXCLUDED.now_playing_timeslot_id,
		    updated_at = NOW()
		RETURNING updated_at
	`
	var updatedAt time.Time
	if err := r.db.QueryRowContext(ctx, query, eventID, dateKey, timeslotID).Scan(&updatedAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to upsert lineup state: %w", err)
	}
	return updatedAt, nil
}

// GetLineupState never reports "not found": an absent row reads as an empty
// lineup with nothing playing, which is what a display should show.
func (r *repository) GetLineupState(ctx context.Context, eventID int64, dateKey string) (*model.LineupState, error) {
	query := `
		SELECT event_id, date_key, now_playing_timeslot_id, updated_at
		FROM event_lineup_state
		WHERE event_id = $1 AND date_key = $2
	`

	var st model.LineupState
	err := r.db.QueryRowContext(ctx, query, eventID, dateKey).Scan(
		&st.EventID, &st.DateKey, &st.NowPlayingTimeslotID, &st.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.LineupState{EventID: eventID, DateKey: dateKey}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lineup state: %w", err)
	}
	return &st, nil
}
