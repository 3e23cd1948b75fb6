package service

import (
	"github.com/wb-go/wbf/ginext"

	"stagedoor/internal/dto"
	"stagedoor/internal/model"
)

// GetLineup is the public read side of the lineup record: the TV display
// and audience pages poll it with no authentication. It returns the current
// now-playing pointer plus the full slot roster for the occurrence.
func (s *service) GetLineup(ctx *ginext.Context) {
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

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	state, err := s.repo.GetLineupState(ctx.Request.Context(), eventID, dateKey)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read lineup state")
		dto.InternalServerError(ctx)
		return
	}

	slots, err := s.repo.ListTimeslots(ctx.Request.Context(), eventID, dateKey)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list timeslots")
		dto.InternalServerError(ctx)
		return
	}
	claims, err := s.repo.ListClaimsForOccurrence(ctx.Request.Context(), eventID, dateKey)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list claims")
		dto.InternalServerError(ctx)
		return
	}

	confirmedBySlot := make(map[int64]model.TimeslotClaim, len(claims))
	for _, c := range claims {
		if c.Status == model.ClaimStatusConfirmed || c.Status == model.ClaimStatusPerformed {
			confirmedBySlot[c.TimeslotID] = c
		}
	}

	resolved := s.resolveOccurrence(ctx, event, dateKey)

	resp := dto.LineupResponse{
		EventID:              eventID,
		EventName:            resolved.Name,
		DateKey:              dateKey,
		Cancelled:            resolved.Cancelled || event.Cancelled,
		NowPlayingTimeslotID: state.NowPlayingTimeslotID,
		UpdatedAt:            state.UpdatedAt,
		Slots:                make([]dto.TimeslotEntry, 0, len(slots)),
	}

	for _, slot := range slots {
		entry := dto.TimeslotEntry{
			ID:            slot.ID,
			SlotIndex:     slot.SlotIndex,
			OffsetMinutes: slot.OffsetMinutes,
			DurationMin:   slot.DurationMin,
			NowPlaying:    state.NowPlayingTimeslotID != nil && *state.NowPlayingTimeslotID == slot.ID,
		}
		if c, ok := confirmedBySlot[slot.ID]; ok {
			entry.PerformerName = c.PerformerName
			entry.ClaimStatus = c.Status
		}
		resp.Slots = append(resp.Slots, entry)
	}

	dto.SuccessResponse(ctx, resp)
}

// SetNowPlaying moves the live pointer for one occurrence. Hosts, co-hosts
// and admins only; the slot, when non-null, must belong to the same event
// and date. Last write wins: no optimistic locking on the lineup row.
func (s *service) SetNowPlaying(ctx *ginext.Context) {
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

	if _, err := s.repo.GetEventByID(ctx.Request.Context(), eventID); err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	var req dto.SetNowPlayingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if req.TimeslotID != nil {
		slot, err := s.repo.GetTimeslotByID(ctx.Request.Context(), *req.TimeslotID)
		if err != nil {
			dto.TimeslotNotFoundError(ctx)
			return
		}
		if slot.EventID != eventID || slot.DateKey != dateKey {
			dto.BadResponseError(ctx, dto.WrongOccurrence, "Timeslot belongs to a different occurrence")
			return
		}
	}

	updatedAt, err := s.repo.UpsertLineupState(ctx.Request.Context(), eventID, dateKey, req.TimeslotID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to upsert lineup state")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Int64("event_id", eventID).
		Str("date_key", dateKey).
		Msg("now playing updated")

	dto.SuccessResponse(ctx, model.LineupState{
		EventID:              eventID,
		DateKey:              dateKey,
		NowPlayingTimeslotID: req.TimeslotID,
		UpdatedAt:            updatedAt,
	})
}
