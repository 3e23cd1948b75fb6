package service

import (
	"fmt"
	"time"

	"github.com/wb-go/wbf/ginext"

	"stagedoor/internal/dto"
	"stagedoor/internal/ics"
	"stagedoor/internal/model"
	"stagedoor/internal/occurrence"
	"stagedoor/internal/repo"
	"stagedoor/pkg/validator"
)

func (s *service) CreateEvent(ctx *ginext.Context) {
	p := currentProfile(ctx)
	if p == nil {
		dto.UnauthorizedError(ctx)
		return
	}

	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		s.log.Error().Msgf("validation failed: %v", verr)
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = newSlug(req.Name)
	}

	event := &model.Event{
		Slug:             slug,
		VenueID:          req.VenueID,
		Name:             req.Name,
		Description:      req.Description,
		AnchorDate:       req.AnchorDate,
		Weekday:          req.Weekday,
		RecurrenceRule:   req.RecurrenceRule,
		StartTime:        req.StartTime,
		DurationMinutes:  req.DurationMinutes,
		CoverImage:       req.CoverImage,
		Capacity:         req.Capacity,
		TimeslotsEnabled: req.TimeslotsEnabled,
		SlotCount:        req.SlotCount,
		SlotMinutes:      req.SlotMinutes,
	}

	id, err := s.repo.CreateEvent(ctx.Request.Context(), event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create event in DB")
		dto.InternalServerError(ctx)
		return
	}
	event.ID = id

	// The creator hosts their own event.
	if err := s.repo.AddEventHost(ctx.Request.Context(), id, p.ID, model.HostRoleHost); err != nil {
		s.log.Error().Err(err).Int64("event_id", id).Msg("failed to attach creator as host")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("event_id", id).Msg("event created successfully")
	dto.SuccessCreatedResponse(ctx, event)
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	eventID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	if _, ok := s.requireEventControl(ctx, eventID); !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	applyEventUpdate(event, &req)

	if _, valid := parseDateParam(event.AnchorDate); !valid {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Field 'anchor_date' has bad format")
		return
	}

	if err := s.repo.UpdateEvent(ctx.Request.Context(), event); err != nil {
		s.log.Error().Err(err).Int64("event_id", eventID).Msg("failed to update event")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, event)
}

func applyEventUpdate(e *model.Event, req *dto.UpdateEventRequest) {
	if req.Slug != nil {
		e.Slug = *req.Slug
	}
	if req.VenueID != nil {
		e.VenueID = req.VenueID
	}
	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.AnchorDate != nil {
		e.AnchorDate = *req.AnchorDate
	}
	if req.Weekday != nil {
		e.Weekday = *req.Weekday
	}
	if req.RecurrenceRule != nil {
		e.RecurrenceRule = *req.RecurrenceRule
	}
	if req.StartTime != nil {
		e.StartTime = *req.StartTime
	}
	if req.DurationMinutes != nil {
		e.DurationMinutes = *req.DurationMinutes
	}
	if req.CoverImage != nil {
		e.CoverImage = *req.CoverImage
	}
	if req.Cancelled != nil {
		e.Cancelled = *req.Cancelled
	}
	if req.Capacity != nil {
		e.Capacity = *req.Capacity
	}
	if req.TimeslotsEnabled != nil {
		e.TimeslotsEnabled = *req.TimeslotsEnabled
	}
	if req.SlotCount != nil {
		e.SlotCount = *req.SlotCount
	}
	if req.SlotMinutes != nil {
		e.SlotMinutes = *req.SlotMinutes
	}
}

// GetEvent renders the detail payload for one occurrence. The optional date
// query selects which one; bad or out-of-window dates degrade to the nearest
// upcoming occurrence with a fallback notice, and tv=1 relaxes the check for
// kiosks replaying past dates.
func (s *service) GetEvent(ctx *ginext.Context) {
	eventID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	tvMode := ctx.Query("tv") == "1"
	requested := ctx.Query("date")

	dates := dateKeys(s.expandEvent(event, time.Now()))
	chosen, fallback := chooseDate(dates, requested, tvMode)

	resp := dto.EventDetailResponse{
		Event:        event,
		Dates:        dates,
		DateFallback: fallback,
	}

	if chosen != "" {
		resp.Occurrence = s.resolveOccurrence(ctx, event, chosen)

		count, err := s.repo.CountRSVPs(ctx.Request.Context(), eventID, chosen)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to count rsvps")
			dto.InternalServerError(ctx)
			return
		}
		resp.RSVPCount = count
	}

	dto.SuccessResponse(ctx, resp)
}

// resolveOccurrence loads the override for one date, if any, and merges it
// over the event. Lookup failures degrade to the base event rather than
// failing the page.
func (s *service) resolveOccurrence(ctx *ginext.Context, event *model.Event, dateKey string) occurrence.Resolved {
	ov, err := s.repo.GetOverride(ctx.Request.Context(), event.ID, dateKey)
	if err != nil && err != repo.ErrOverrideNotFound {
		s.log.Error().Err(err).Int64("event_id", event.ID).Str("date_key", dateKey).
			Msg("failed to load occurrence override")
		ov = nil
	}
	return occurrence.Resolve(event, ov, dateKey)
}

func (s *service) ListEvents(ctx *ginext.Context) {
	events, err := s.repo.ListPublishedEvents(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list events")
		dto.InternalServerError(ctx)
		return
	}

	type listItem struct {
		Event          *model.Event `json:"event"`
		NextOccurrence string       `json:"next_occurrence,omitempty"`
	}

	now := time.Now()
	resp := make([]listItem, 0, len(events))
	for i := range events {
		e := &events[i]
		item := listItem{Event: e}
		if dates := dateKeys(s.expandEvent(e, now)); len(dates) > 0 {
			item.NextOccurrence = dates[0]
		}
		resp = append(resp, item)
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) ListOccurrences(ctx *ginext.Context) {
	eventID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	occs := s.expandEvent(event, time.Now())
	resp := dto.OccurrenceListResponse{
		EventID:     eventID,
		Dates:       dateKeys(occs),
		IsConfident: len(occs) > 0 && occs[0].IsConfident,
	}

	// One batched override read for the whole window, so the caller can see
	// which dates are cancelled or adjusted without a request per date.
	if len(resp.Dates) > 0 {
		overrides, err := s.repo.ListOverrides(ctx.Request.Context(), eventID,
			resp.Dates[0], resp.Dates[len(resp.Dates)-1])
		if err != nil {
			s.log.Error().Err(err).Int64("event_id", eventID).Msg("failed to list occurrence overrides")
			dto.InternalServerError(ctx)
			return
		}
		inWindow := make(map[string]struct{}, len(resp.Dates))
		for _, d := range resp.Dates {
			inWindow[d] = struct{}{}
		}
		for _, ov := range overrides {
			if _, ok := inWindow[ov.DateKey]; !ok {
				continue
			}
			res := occurrence.Resolve(event, &ov, ov.DateKey)
			if res.Cancelled {
				resp.Cancelled = append(resp.Cancelled, ov.DateKey)
			} else {
				resp.Overridden = append(resp.Overridden, ov.DateKey)
			}
		}
	}

	dto.SuccessResponse(ctx, resp)
}

// ExportCalendar serves the event's upcoming occurrences as an iCalendar
// feed, with overrides applied so cancelled dates are skipped and moved
// start times carried through.
func (s *service) ExportCalendar(ctx *ginext.Context) {
	eventID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	resolved := make([]occurrence.Resolved, 0)
	for _, occ := range s.expandEvent(event, time.Now()) {
		res := s.resolveOccurrence(ctx, event, occ.DateKey)
		if res.Cancelled {
			continue
		}
		resolved = append(resolved, res)
	}

	var venueName string
	if event.VenueID != nil {
		if v, err := s.repo.GetVenueByID(ctx.Request.Context(), *event.VenueID); err == nil {
			venueName = v.Name
		}
	}

	payload := ics.BuildCalendar(event, venueName, resolved, s.settings.Location)

	ctx.Header("Content-Type", "text/calendar; charset=utf-8")
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "event-"+ctx.Param("id")+".ics"))
	ctx.String(200, payload)
}

func (s *service) UpsertOverride(ctx *ginext.Context) {
	eventID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}
	dateKey := ctx.Param("date")
	if _, valid := parseDateParam(dateKey); !valid {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Field 'date' has bad format")
		return
	}

	if _, ok := s.requireEventControl(ctx, eventID); !ok {
		return
	}

	if _, err := s.repo.GetEventByID(ctx.Request.Context(), eventID); err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	var req dto.UpsertOverrideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	status := req.Status
	if status == "" {
		status = model.OccurrenceStatusActive
	}

	ov := &model.OccurrenceOverride{
		EventID:    eventID,
		DateKey:    dateKey,
		Status:     status,
		StartTime:  req.StartTime,
		CoverImage: req.CoverImage,
		Notes:      req.Notes,
		Patch:      req.Patch,
	}

	id, err := s.repo.UpsertOverride(ctx.Request.Context(), ov)
	if err != nil {
		s.log.Error().Err(err).Int64("event_id", eventID).Str("date_key", dateKey).
			Msg("failed to upsert occurrence override")
		dto.InternalServerError(ctx)
		return
	}
	ov.ID = id

	s.log.Info().Int64("event_id", eventID).Str("date_key", dateKey).Msg("occurrence override saved")
	dto.SuccessResponse(ctx, ov)
}

func (s *service) PublishEvent(ctx *ginext.Context) {
	s.setPublished(ctx, true)
}

func (s *service) UnpublishEvent(ctx *ginext.Context) {
	s.setPublished(ctx, false)
}

func (s *service) setPublished(ctx *ginext.Context, published bool) {
	eventID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	if _, ok := s.requireAdmin(ctx); !ok {
		return
	}

	if err := s.repo.SetEventPublished(ctx.Request.Context(), eventID, published); err != nil {
		if err == repo.ErrEventNotFound {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Int64("event_id", eventID).Msg("failed to set published flag")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, map[string]any{"event_id": eventID, "published": published})
}
