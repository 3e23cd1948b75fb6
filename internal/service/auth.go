package service

import (
	"github.com/wb-go/wbf/ginext"

	"stagedoor/internal/dto"
	"stagedoor/internal/model"
)

type accessDecision int

const (
	accessUnauthenticated accessDecision = iota
	accessForbidden
	accessAllowed
)

// currentProfile reads the profile the auth middleware attached to the
// request, if any.
func currentProfile(ctx *ginext.Context) *model.Profile {
	v, ok := ctx.Get("profile")
	if !ok {
		return nil
	}
	p, ok := v.(*model.Profile)
	if !ok {
		return nil
	}
	return p
}

// decideEventControl is the authorization rule for anything that mutates an
// event or its live lineup. Admins and the event's own hosts/co-hosts get
// in. Hosts of other events carry an empty hostRole here and are refused.
func decideEventControl(p *model.Profile, hostRole string) accessDecision {
	if p == nil {
		return accessUnauthenticated
	}
	if p.Role == model.RoleAdmin {
		return accessAllowed
	}
	if hostRole == model.HostRoleHost || hostRole == model.HostRoleCoHost {
		return accessAllowed
	}
	return accessForbidden
}

// requireEventControl enforces decideEventControl for the request, writing
// the 401/403 response itself. The returned profile is valid only when ok.
func (s *service) requireEventControl(ctx *ginext.Context, eventID int64) (*model.Profile, bool) {
	p := currentProfile(ctx)

	hostRole := ""
	if p != nil {
		role, err := s.repo.GetHostRole(ctx.Request.Context(), eventID, p.ID)
		if err != nil {
			s.log.Error().Err(err).Int64("event_id", eventID).Msg("failed to read host role")
			dto.InternalServerError(ctx)
			return nil, false
		}
		hostRole = role
	}

	switch decideEventControl(p, hostRole) {
	case accessAllowed:
		return p, true
	case accessUnauthenticated:
		dto.UnauthorizedError(ctx)
		return nil, false
	default:
		dto.ForbiddenError(ctx)
		return nil, false
	}
}

func (s *service) requireAdmin(ctx *ginext.Context) (*model.Profile, bool) {
	p := currentProfile(ctx)
	if p == nil {
		dto.UnauthorizedError(ctx)
		return nil, false
	}
	if p.Role != model.RoleAdmin {
		dto.ForbiddenError(ctx)
		return nil, false
	}
	return p, true
}
