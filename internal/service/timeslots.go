package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"

	"stagedoor/internal/dto"
	"stagedoor/internal/model"
	"stagedoor/internal/repo"
	"stagedoor/pkg/validator"
)

// GenerateTimeslots (re)builds the signup sheet for one occurrence from the
// event's slot configuration. Safe to re-run: claimed slots survive.
func (s *service) GenerateTimeslots(ctx *ginext.Context) {
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

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}
	if !event.TimeslotsEnabled || event.SlotCount <= 0 {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Timeslots are not enabled for this event")
		return
	}

	created, err := s.repo.GenerateTimeslotsTx(ctx.Request.Context(), event, dateKey)
	if err != nil {
		s.log.Error().Err(err).Int64("event_id", eventID).Str("date_key", dateKey).
			Msg("failed to generate timeslots")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Int64("event_id", eventID).
		Str("date_key", dateKey).
		Int("created", created).
		Msg("timeslots generated")

	dto.SuccessResponse(ctx, dto.GenerateTimeslotsResponse{
		EventID: eventID,
		DateKey: dateKey,
		Created: created,
		Total:   event.SlotCount,
	})
}

// ClaimTimeslot signs a performer up for a slot. Members are identified by
// their token; guests get a uuid token back so they can manage the claim
// later. A slot that already has a confirmed performer queues the claim as
// waitlisted and schedules its expiry through the delayed exchange.
func (s *service) ClaimTimeslot(ctx *ginext.Context) {
	eventID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}
	slotID, ok := parseID(ctx, "slotID")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid timeslot ID")
		return
	}

	var req dto.ClaimTimeslotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	slot, err := s.repo.GetTimeslotByID(ctx.Request.Context(), slotID)
	if err != nil {
		dto.TimeslotNotFoundError(ctx)
		return
	}
	if slot.EventID != eventID {
		dto.BadResponseError(ctx, dto.WrongOccurrence, "Timeslot belongs to a different event")
		return
	}

	claim := &model.TimeslotClaim{
		TimeslotID:    slotID,
		PerformerName: req.PerformerName,
		GuestEmail:    req.GuestEmail,
	}
	if p := currentProfile(ctx); p != nil {
		claim.ProfileID = &p.ID
	} else {
		claim.GuestToken = uuid.NewString()
	}

	id, status, err := s.repo.ClaimTimeslotTx(ctx.Request.Context(), claim)
	if err != nil {
		switch err {
		case repo.ErrTimeslotNotFound:
			dto.TimeslotNotFoundError(ctx)
			return
		default:
			s.log.Error().Err(err).Msg("failed to claim timeslot")
			dto.InternalServerError(ctx)
			return
		}
	}

	s.log.Info().
		Int64("claim_id", id).
		Int64("timeslot_id", slotID).
		Str("status", status).
		Msg("timeslot claim created")

	if status == model.ClaimStatusWaitlisted {
		s.publishClaimHold(id, eventID)
	}

	dto.SuccessCreatedResponse(ctx, dto.ClaimResponse{
		ID:            id,
		TimeslotID:    slotID,
		PerformerName: req.PerformerName,
		Status:        status,
		GuestToken:    claim.GuestToken,
		CreatedAt:     time.Now(),
	})
}

func (s *service) publishClaimHold(claimID, eventID int64) {
	holdSeconds := s.settings.ClaimHoldHrs * 3600
	msg := dto.NotifyMessage{
		Kind:     dto.NotifyKindClaimHold,
		ClaimID:  claimID,
		EventID:  eventID,
		ExpireAt: time.Now().Add(time.Duration(holdSeconds) * time.Second),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal claim hold message")
		return
	}
	if err := s.rbt.Publish(payload, holdSeconds); err != nil {
		s.log.Error().Err(err).Msg("failed to publish claim hold message")
	}
}

// RemoveClaim cancels a claim on behalf of the host and promotes the first
// waitlisted performer on the same slot, if there is one.
func (s *service) RemoveClaim(ctx *ginext.Context) {
	claimID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid claim ID")
		return
	}

	eventID, ok := s.eventForClaim(ctx, claimID)
	if !ok {
		return
	}
	if _, ok := s.requireEventControl(ctx, eventID); !ok {
		return
	}

	promoted, err := s.repo.RemoveClaimTx(ctx.Request.Context(), claimID)
	if err != nil {
		if err == repo.ErrClaimNotFound {
			dto.ClaimNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Int64("claim_id", claimID).Msg("failed to remove claim")
		dto.InternalServerError(ctx)
		return
	}

	resp := map[string]any{"removed": claimID}
	if promoted != nil {
		resp["promoted_claim_id"] = promoted.ID
		s.log.Info().
			Int64("claim_id", promoted.ID).
			Str("performer", promoted.PerformerName).
			Msg("waitlisted claim promoted")
		s.publishClaimPromoted(promoted.ID, eventID)
	}

	dto.SuccessResponse(ctx, resp)
}

// publishClaimPromoted routes the confirmation email for a freshly promoted
// claim through the same exchange the worker already consumes, undelayed.
func (s *service) publishClaimPromoted(claimID, eventID int64) {
	msg := dto.NotifyMessage{
		Kind:    dto.NotifyKindClaimPromoted,
		ClaimID: claimID,
		EventID: eventID,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal claim promoted message")
		return
	}
	if err := s.rbt.Publish(payload, 0); err != nil {
		s.log.Error().Err(err).Msg("failed to publish claim promoted message")
	}
}

// SetClaimStatus records host decisions about a performer: confirming a
// waitlisted claim, or marking performed / no-show after the set.
func (s *service) SetClaimStatus(ctx *ginext.Context) {
	claimID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid claim ID")
		return
	}

	var req dto.ClaimStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	eventID, ok := s.eventForClaim(ctx, claimID)
	if !ok {
		return
	}
	if _, ok := s.requireEventControl(ctx, eventID); !ok {
		return
	}

	if err := s.repo.UpdateClaimStatusTx(ctx.Request.Context(), claimID, req.Status); err != nil {
		if err == repo.ErrClaimNotFound {
			dto.ClaimNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Int64("claim_id", claimID).Msg("failed to update claim status")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("claim_id", claimID).Str("status", req.Status).Msg("claim status updated")
	dto.SuccessResponse(ctx, map[string]any{"claim_id": claimID, "status": req.Status})
}

// eventForClaim walks claim -> timeslot -> event so authorization can be
// checked against the owning event.
func (s *service) eventForClaim(ctx *ginext.Context, claimID int64) (int64, bool) {
	claim, err := s.repo.GetClaimByID(ctx.Request.Context(), claimID)
	if err != nil {
		dto.ClaimNotFoundError(ctx)
		return 0, false
	}
	slot, err := s.repo.GetTimeslotByID(ctx.Request.Context(), claim.TimeslotID)
	if err != nil {
		dto.TimeslotNotFoundError(ctx)
		return 0, false
	}
	return slot.EventID, true
}
