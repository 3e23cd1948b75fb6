package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stagedoor/internal/model"
)

const eventColumns = `
	id, slug, venue_id, name, description, anchor_date, weekday, recurrence_rule,
	start_time, duration_minutes, cover_image, published, cancelled, capacity,
	timeslots_enabled, slot_count, slot_minutes, created_at, updated_at
`

func scanEvent(row interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Slug, &e.VenueID, &e.Name, &e.Description, &e.AnchorDate,
		&e.Weekday, &e.RecurrenceRule, &e.StartTime, &e.DurationMinutes,
		&e.CoverImage, &e.Published, &e.Cancelled, &e.Capacity,
		&e.TimeslotsEnabled, &e.SlotCount, &e.SlotMinutes,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	query := `
		INSERT INTO events (slug, venue_id, name, description, anchor_date, weekday,
		                    recurrence_rule, start_time, duration_minutes, cover_image,
		                    published, capacity, timeslots_enabled, slot_count, slot_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	row := r.db.QueryRowContext(ctx, query,
		e.Slug, e.VenueID, e.Name, e.Description, e.AnchorDate, e.Weekday,
		e.RecurrenceRule, e.StartTime, e.DurationMinutes, e.CoverImage,
		e.Published, e.Capacity, e.TimeslotsEnabled, e.SlotCount, e.SlotMinutes,
	)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

func (r *repository) UpdateEvent(ctx context.Context, e *model.Event) error {
	query := `
		UPDATE events
		SET slug = $1, venue_id = $2, name = $3, description = $4, anchor_date = $5,
		    weekday = $6, recurrence_rule = $7, start_time = $8, duration_minutes = $9,
		    cover_image = $10, cancelled = $11, capacity = $12, timeslots_enabled = $13,
		    slot_count = $14, slot_minutes = $15, updated_at = NOW()
		WHERE id = $16
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		e.Slug, e.VenueID, e.Name, e.Description, e.AnchorDate, e.Weekday,
		e.RecurrenceRule, e.StartTime, e.DurationMinutes, e.CoverImage,
		e.Cancelled, e.Capacity, e.TimeslotsEnabled, e.SlotCount, e.SlotMinutes,
		e.ID,
	).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, ErrEventNotFound
	}
	return e, nil
}

func (r *repository) ListPublishedEvents(ctx context.Context) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE published = true ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *repository) ListTimeslotEnabledEvents(ctx context.Context) ([]model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE published = true AND cancelled = false AND timeslots_enabled = true
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeslot events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *repository) SetEventPublished(ctx context.Context, id int64, published bool) error {
	var got int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE events SET published = $1, updated_at = NOW() WHERE id = $2 RETURNING id`,
		published, id,
	).Scan(&got)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to set published flag: %w", err)
	}
	return nil
}

func (r *repository) GetProfileByToken(ctx context.Context, token string) (*model.Profile, error) {
	query := `
		SELECT id, display_name, email, role, api_token, created_at
		FROM profiles
		WHERE api_token = $1
	`
	var p model.Profile
	if err := r.db.QueryRowContext(ctx, query, token).Scan(
		&p.ID, &p.DisplayName, &p.Email, &p.Role, &p.APIToken, &p.CreatedAt,
	); err != nil {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (r *repository) GetProfileByID(ctx context.Context, id int64) (*model.Profile, error) {
	query := `
		SELECT id, display_name, email, role, api_token, created_at
		FROM profiles
		WHERE id = $1
	`
	var p model.Profile
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.DisplayName, &p.Email, &p.Role, &p.APIToken, &p.CreatedAt,
	); err != nil {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

// GetHostRole returns the host/co-host role for the profile on the event, or
// an empty string when there is no association.
func (r *repository) GetHostRole(ctx context.Context, eventID, profileID int64) (string, error) {
	query := `
		SELECT role
		FROM event_hosts
		WHERE event_id = $1 AND profile_id = $2
	`
	var role string
	err := r.db.QueryRowContext(ctx, query, eventID, profileID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get host role: %w", err)
	}
	return role, nil
}

func (r *repository) AddEventHost(ctx context.Context, eventID, profileID int64, role string) error {
	query := `
		INSERT INTO event_hosts (event_id, profile_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, profile_id) DO UPDATE SET role = EXCLUDED.role
	`
	if _, err := r.db.ExecContext(ctx, query, eventID, profileID, role); err != nil {
		return fmt.Errorf("failed to add event host: %w", err)
	}
	return nil
}
