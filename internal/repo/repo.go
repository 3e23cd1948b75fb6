package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"stagedoor/internal/model"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrVenueNotFound     = errors.New("venue not found")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrOverrideNotFound  = errors.New("occurrence override not found")
	ErrTimeslotNotFound  = errors.New("timeslot not found")
	ErrClaimNotFound     = errors.New("claim not found")
	ErrEventFull         = errors.New("event is full")
	ErrDuplicateRSVP     = errors.New("duplicate rsvp")
	ErrOwnershipNotFound = errors.New("ownership claim not found")
	ErrAlreadyDecided    = errors.New("ownership claim already decided")
)

type Repository interface {
	// Events
	CreateEvent(ctx context.Context, e *model.Event) (int64, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	ListPublishedEvents(ctx context.Context) ([]model.Event, error)
	ListTimeslotEnabledEvents(ctx context.Context) ([]model.Event, error)
	SetEventPublished(ctx context.Context, id int64, published bool) error

	// Profiles and host associations
	GetProfileByToken(ctx context.Context, token string) (*model.Profile, error)
	GetProfileByID(ctx context.Context, id int64) (*model.Profile, error)
	GetHostRole(ctx context.Context, eventID, profileID int64) (string, error)
	AddEventHost(ctx context.Context, eventID, profileID int64, role string) error

	// Occurrence overrides
	UpsertOverride(ctx context.Context, ov *model.OccurrenceOverride) (int64, error)
	GetOverride(ctx context.Context, eventID int64, dateKey string) (*model.OccurrenceOverride, error)
	ListOverrides(ctx context.Context, eventID int64, startKey, endKey string) ([]model.OccurrenceOverride, error)

	// Timeslots and claims
	GenerateTimeslotsTx(ctx context.Context, e *model.Event, dateKey string) (int, error)
	ListTimeslots(ctx context.Context, eventID int64, dateKey string) ([]model.Timeslot, error)
	GetTimeslotByID(ctx context.Context, id int64) (*model.Timeslot, error)
	ClaimTimeslotTx(ctx context.Context, claim *model.TimeslotClaim) (int64, string, error)
	GetClaimByID(ctx context.Context, id int64) (*model.TimeslotClaim, error)
	ListClaimsForOccurrence(ctx context.Context, eventID int64, dateKey string) ([]model.TimeslotClaim, error)
	RemoveClaimTx(ctx context.Context, claimID int64) (*model.TimeslotClaim, error)
	UpdateClaimStatusTx(ctx context.Context, claimID int64, newStatus string) error
	CancelIfStillWaitlistedTx(ctx context.Context, claimID int64) (bool, error)

	// Lineup state
	UpsertLineupState(ctx context.Context, eventID int64, dateKey string, timeslotID *int64) (time.Time, error)
	GetLineupState(ctx context.Context, eventID int64, dateKey string) (*model.LineupState, error)

	// RSVPs
	CreateRSVPTx(ctx context.Context, r *model.RSVP) (int64, error)
	GetRSVPByID(ctx context.Context, id int64) (*model.RSVP, error)
	ListRSVPs(ctx context.Context, eventID int64, dateKey string) ([]model.RSVP, error)
	CountRSVPs(ctx context.Context, eventID int64, dateKey string) (int, error)

	// Venues and ownership claims
	CreateVenue(ctx context.Context, v *model.Venue) (int64, error)
	UpdateVenue(ctx context.Context, v *model.Venue) error
	GetVenueByID(ctx context.Context, id int64) (*model.Venue, error)
	ListVenues(ctx context.Context) ([]model.Venue, error)
	CreateOwnershipClaim(ctx context.Context, c *model.OwnershipClaim) (int64, error)
	ListOwnershipClaims(ctx context.Context, status string) ([]model.OwnershipClaim, error)
	DecideOwnershipClaimTx(ctx context.Context, claimID, deciderID int64, approve bool) (*model.OwnershipClaim, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}
