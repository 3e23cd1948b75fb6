package service

import (
	"fmt"

	"github.com/wb-go/wbf/ginext"

	"stagedoor/internal/dto"
	"stagedoor/internal/model"
	"stagedoor/internal/repo"
	"stagedoor/pkg/validator"
)

func (s *service) CreateVenue(ctx *ginext.Context) {
	p := currentProfile(ctx)
	if p == nil {
		dto.UnauthorizedError(ctx)
		return
	}

	var req dto.CreateVenueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = newSlug(req.Name)
	}

	venue := &model.Venue{
		Slug:           slug,
		Name:           req.Name,
		Address:        req.Address,
		Description:    req.Description,
		OwnerProfileID: &p.ID,
	}

	id, err := s.repo.CreateVenue(ctx.Request.Context(), venue)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create venue")
		dto.InternalServerError(ctx)
		return
	}
	venue.ID = id

	s.log.Info().Int64("venue_id", id).Msg("venue created successfully")
	dto.SuccessCreatedResponse(ctx, venue)
}

func (s *service) UpdateVenue(ctx *ginext.Context) {
	venueID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid venue ID")
		return
	}

	p := currentProfile(ctx)
	if p == nil {
		dto.UnauthorizedError(ctx)
		return
	}

	venue, err := s.repo.GetVenueByID(ctx.Request.Context(), venueID)
	if err != nil {
		dto.VenueNotFoundError(ctx)
		return
	}

	isOwner := venue.OwnerProfileID != nil && *venue.OwnerProfileID == p.ID
	if !isOwner && p.Role != model.RoleAdmin {
		dto.ForbiddenError(ctx)
		return
	}

	var req dto.UpdateVenueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if req.Slug != nil {
		venue.Slug = *req.Slug
	}
	if req.Name != nil {
		venue.Name = *req.Name
	}
	if req.Address != nil {
		venue.Address = *req.Address
	}
	if req.Description != nil {
		venue.Description = *req.Description
	}

	if err := s.repo.UpdateVenue(ctx.Request.Context(), venue); err != nil {
		s.log.Error().Err(err).Int64("venue_id", venueID).Msg("failed to update venue")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, venue)
}

func (s *service) GetVenue(ctx *ginext.Context) {
	venueID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid venue ID")
		return
	}

	venue, err := s.repo.GetVenueByID(ctx.Request.Context(), venueID)
	if err != nil {
		dto.VenueNotFoundError(ctx)
		return
	}

	dto.SuccessResponse(ctx, venue)
}

func (s *service) ListVenues(ctx *ginext.Context) {
	venues, err := s.repo.ListVenues(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list venues")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, venues)
}

// CreateOwnershipClaim lets a member assert "this venue/event is mine"; the
// claim sits pending until an admin decides it.
func (s *service) CreateOwnershipClaim(ctx *ginext.Context) {
	p := currentProfile(ctx)
	if p == nil {
		dto.UnauthorizedError(ctx)
		return
	}

	var req dto.CreateOwnershipClaimRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	// The subject must exist before a claim can point at it.
	switch req.SubjectType {
	case model.SubjectEvent:
		if _, err := s.repo.GetEventByID(ctx.Request.Context(), req.SubjectID); err != nil {
			dto.EventNotFoundError(ctx)
			return
		}
	case model.SubjectVenue:
		if _, err := s.repo.GetVenueByID(ctx.Request.Context(), req.SubjectID); err != nil {
			dto.VenueNotFoundError(ctx)
			return
		}
	}

	claim := &model.OwnershipClaim{
		SubjectType: req.SubjectType,
		SubjectID:   req.SubjectID,
		ProfileID:   p.ID,
		Note:        req.Note,
		Status:      model.OwnershipClaimPending,
	}

	id, err := s.repo.CreateOwnershipClaim(ctx.Request.Context(), claim)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create ownership claim")
		dto.InternalServerError(ctx)
		return
	}
	claim.ID = id

	s.log.Info().
		Int64("ownership_claim_id", id).
		Str("subject_type", req.SubjectType).
		Int64("subject_id", req.SubjectID).
		Msg("ownership claim created")

	dto.SuccessCreatedResponse(ctx, claim)
}

func (s *service) ListOwnershipClaims(ctx *ginext.Context) {
	if _, ok := s.requireAdmin(ctx); !ok {
		return
	}

	status := ctx.Query("status")
	claims, err := s.repo.ListOwnershipClaims(ctx.Request.Context(), status)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list ownership claims")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, claims)
}

func (s *service) ApproveOwnershipClaim(ctx *ginext.Context) {
	s.decideOwnershipClaim(ctx, true)
}

func (s *service) RejectOwnershipClaim(ctx *ginext.Context) {
	s.decideOwnershipClaim(ctx, false)
}

func (s *service) decideOwnershipClaim(ctx *ginext.Context, approve bool) {
	claimID, ok := parseID(ctx, "id")
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid claim ID")
		return
	}

	admin, ok := s.requireAdmin(ctx)
	if !ok {
		return
	}

	claim, err := s.repo.DecideOwnershipClaimTx(ctx.Request.Context(), claimID, admin.ID, approve)
	if err != nil {
		switch err {
		case repo.ErrOwnershipNotFound:
			dto.NotFoundError(ctx, dto.ClaimNotFound, "Ownership claim not found")
			return
		case repo.ErrAlreadyDecided:
			dto.BadResponseError(ctx, dto.AlreadyDecided, "Ownership claim already decided")
			return
		default:
			s.log.Error().Err(err).Int64("ownership_claim_id", claimID).Msg("failed to decide ownership claim")
			dto.InternalServerError(ctx)
			return
		}
	}

	s.log.Info().
		Int64("ownership_claim_id", claimID).
		Bool("approved", approve).
		Int64("decided_by", admin.ID).
		Msg("ownership claim decided")

	dto.SuccessResponse(ctx, claim)
}
