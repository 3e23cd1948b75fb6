package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wb-go/wbf/ginext"

	"stagedoor/internal/dto"
	"stagedoor/internal/model"
	"stagedoor/internal/recurrence"
	"stagedoor/internal/repo"
	"stagedoor/pkg/validator"
)

// CreateRSVP books a spot for one occurrence. Members are linked by token;
// guests RSVP with name and email only. A reminder is scheduled through the
// delayed exchange for the morning of the occurrence.
func (s *service) CreateRSVP(ctx *ginext.Context) {
	eventID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	var req dto.CreateRSVPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	// The RSVP must target a real upcoming occurrence of this event.
	dates := dateKeys(s.expandEvent(event, time.Now()))
	found := false
	for _, d := range dates {
		if d == req.DateKey {
			found = true
			break
		}
	}
	if !found {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Date is not an upcoming occurrence of this event")
		return
	}

	resolved := s.resolveOccurrence(ctx, event, req.DateKey)
	if resolved.Cancelled || event.Cancelled {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "This occurrence is cancelled")
		return
	}

	status := req.Status
	if status == "" {
		status = model.RSVPStatusGoing
	}

	rsvp := &model.RSVP{
		EventID: eventID,
		DateKey: req.DateKey,
		Name:    req.Name,
		Email:   req.Email,
		Status:  status,
	}
	if p := currentProfile(ctx); p != nil {
		rsvp.ProfileID = &p.ID
	}

	id, err := s.repo.CreateRSVPTx(ctx.Request.Context(), rsvp)
	if err != nil {
		switch err {
		case repo.ErrEventNotFound:
			dto.EventNotFoundError(ctx)
			return
		case repo.ErrEventFull:
			dto.EventFullError(ctx)
			return
		case repo.ErrDuplicateRSVP:
			dto.RSVPDuplicateError(ctx)
			return
		default:
			s.log.Error().Err(err).Msg("failed to create rsvp")
			dto.InternalServerError(ctx)
			return
		}
	}
	rsvp.ID = id

	s.log.Info().Int64("rsvp_id", id).Int64("event_id", eventID).Str("date_key", req.DateKey).
		Msg("rsvp created successfully")

	if status == model.RSVPStatusGoing {
		s.publishRSVPReminder(id, eventID, req.DateKey)
	}

	dto.SuccessCreatedResponse(ctx, rsvp)
}

// publishRSVPReminder schedules a reminder email for the morning of the
// occurrence. Dates already underway get no reminder.
func (s *service) publishRSVPReminder(rsvpID, eventID int64, dateKey string) {
	day, ok := recurrence.ParseDateKey(dateKey)
	if !ok {
		return
	}
	remindAt := time.Date(day.Year(), day.Month(), day.Day(),
		s.settings.ReminderHour, 0, 0, 0, s.settings.Location)
	delay := int(time.Until(remindAt).Seconds())
	if delay <= 0 {
		return
	}

	msg := dto.NotifyMessage{
		Kind:    dto.NotifyKindRSVPReminder,
		RSVPID:  rsvpID,
		EventID: eventID,
		DateKey: dateKey,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal rsvp reminder message")
		return
	}
	if err := s.rbt.Publish(payload, delay); err != nil {
		s.log.Error().Err(err).Msg("failed to publish rsvp reminder message")
	}
}

// ListRSVPs is the host/admin roster view for one occurrence.
func (s *service) ListRSVPs(ctx *ginext.Context) {
	eventID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}
	dateKey, valid := parseDateParam(ctx.Query("date"))
	if !valid {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Field 'date' has bad format")
		return
	}

	if _, ok := s.requireEventControl(ctx, eventID); !ok {
		return
	}

	rsvps, err := s.repo.ListRSVPs(ctx.Request.Context(), eventID, dateKey)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list rsvps")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, rsvps)
}
