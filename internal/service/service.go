package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"stagedoor/internal/model"
	"stagedoor/internal/rabbit"
	"stagedoor/internal/recurrence"
	"stagedoor/internal/repo"
)

type Service interface {
	// Events and occurrences
	CreateEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	ListEvents(ctx *ginext.Context)
	ListOccurrences(ctx *ginext.Context)
	ExportCalendar(ctx *ginext.Context)
	UpsertOverride(ctx *ginext.Context)
	PublishEvent(ctx *ginext.Context)
	UnpublishEvent(ctx *ginext.Context)

	// Lineup
	GetLineup(ctx *ginext.Context)
	SetNowPlaying(ctx *ginext.Context)

	// Timeslots and claims
	GenerateTimeslots(ctx *ginext.Context)
	ClaimTimeslot(ctx *ginext.Context)
	RemoveClaim(ctx *ginext.Context)
	SetClaimStatus(ctx *ginext.Context)

	// RSVPs
	CreateRSVP(ctx *ginext.Context)
	ListRSVPs(ctx *ginext.Context)

	// Venues and ownership claims
	CreateVenue(ctx *ginext.Context)
	UpdateVenue(ctx *ginext.Context)
	GetVenue(ctx *ginext.Context)
	ListVenues(ctx *ginext.Context)
	CreateOwnershipClaim(ctx *ginext.Context)
	ListOwnershipClaims(ctx *ginext.Context)
	ApproveOwnershipClaim(ctx *ginext.Context)
	RejectOwnershipClaim(ctx *ginext.Context)
}

// Settings carries the request-independent knobs the handlers need.
type Settings struct {
	Location     *time.Location
	WindowDays   int
	ClaimHoldHrs int
	ReminderHour int
}

type service struct {
	repo     repo.Repository
	log      *zerolog.Logger
	rbt      *rabbit.Client
	settings Settings
}

func NewService(repository repo.Repository, logger *zerolog.Logger, rbt *rabbit.Client, settings Settings) Service {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.WindowDays <= 0 {
		settings.WindowDays = recurrence.DefaultWindowDays
	}
	if settings.ClaimHoldHrs <= 0 {
		settings.ClaimHoldHrs = 48
	}
	if settings.ReminderHour <= 0 {
		settings.ReminderHour = 9
	}
	return &service{
		repo:     repository,
		log:      logger,
		rbt:      rbt,
		settings: settings,
	}
}

func parseID(ctx *ginext.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *service) window(now time.Time) recurrence.Window {
	today := now.In(s.settings.Location)
	return recurrence.Window{
		Start: today.Format(recurrence.DateKeyLayout),
		End:   today.AddDate(0, 0, s.settings.WindowDays).Format(recurrence.DateKeyLayout),
	}
}

func (s *service) expandEvent(e *model.Event, now time.Time) []recurrence.Occurrence {
	return recurrence.Expand(recurrence.Input{
		AnchorDate: e.AnchorDate,
		Weekday:    e.Weekday,
		Rule:       e.RecurrenceRule,
	}, s.window(now))
}

// chooseDate picks the occurrence to render for a detail page. A requested
// date that is one of the expanded dates wins; in TV mode any well-formed
// date is accepted so kiosks can replay past nights. Anything else falls
// back to the nearest upcoming occurrence with the fallback flag set.
func chooseDate(dates []string, requested string, tvMode bool) (string, bool) {
	_, wellFormed := recurrence.ParseDateKey(requested)

	if wellFormed {
		for _, d := range dates {
			if d == requested {
				return requested, false
			}
		}
		if tvMode {
			return requested, false
		}
	}

	if len(dates) == 0 {
		return "", requested != ""
	}
	return dates[0], requested != ""
}

// parseDateParam validates a date-key path or query parameter.
func parseDateParam(s string) (string, bool) {
	if _, ok := recurrence.ParseDateKey(s); !ok {
		return "", false
	}
	return s, true
}

// slugify lowercases a display name and collapses everything that is not a
// letter or digit into single hyphens.
func slugify(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// newSlug fills a missing slug from the display name, with a short random
// suffix so two events with the same name never collide on the unique index.
func newSlug(name string) string {
	suffix := uuid.NewString()[:8]
	if s := slugify(name); s != "" {
		return s + "-" + suffix
	}
	return suffix
}

func dateKeys(occs []recurrence.Occurrence) []string {
	out := make([]string, 0, len(occs))
	for _, o := range occs {
		out = append(out, o.DateKey)
	}
	return out
}
