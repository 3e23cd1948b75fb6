// Package notifyworker consumes scheduled notifications from the delayed
// exchange: morning-of RSVP reminders and waitlist hold expiries.
package notifyworker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"stagedoor/internal/dto"
	"stagedoor/internal/model"
	"stagedoor/internal/rabbit"
	"stagedoor/internal/repo"
)

// Sender is the slice of the mailer this worker needs.
type Sender interface {
	SendRSVPReminder(recipient, eventName, dateKey, startTime string) error
	SendClaimExpired(recipient, eventName string) error
	SendClaimConfirmed(recipient, eventName string) error
}

type Reader struct {
	RMQ    *rabbit.Client
	repo   repo.Repository
	mail   Sender
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, repo repo.Repository, mail Sender) *Reader {
	return &Reader{
		RMQ:  rmq,
		repo: repo,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("notification worker started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.NotifyMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().Err(err).Msgf("failed to unmarshal message: %s", string(body))
				return err
			}

			zlog.Logger.Info().
				Str("kind", msg.Kind).
				Int64("event_id", msg.EventID).
				Msg("received notification message")

			switch msg.Kind {
			case dto.NotifyKindRSVPReminder:
				return r.handleRSVPReminder(cctx, msg)
			case dto.NotifyKindClaimHold:
				return r.handleClaimHold(cctx, msg)
			case dto.NotifyKindClaimPromoted:
				return r.handleClaimPromoted(cctx, msg)
			default:
				zlog.Logger.Warn().Str("kind", msg.Kind).Msg("unknown notification kind, dropping")
				return nil
			}
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("notification worker stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// handleRSVPReminder mails the attendee on the morning of the occurrence.
// RSVPs flipped to "can't go" since scheduling get no email.
func (r *Reader) handleRSVPReminder(ctx context.Context, msg dto.NotifyMessage) error {
	rsvp, err := r.repo.GetRSVPByID(ctx, msg.RSVPID)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("rsvp_id", msg.RSVPID).
			Msg("failed to load rsvp for reminder")
		return nil
	}
	if rsvp.Status != model.RSVPStatusGoing {
		zlog.Logger.Info().Int64("rsvp_id", msg.RSVPID).
			Msg("rsvp no longer going, skipping reminder")
		return nil
	}

	event, err := r.repo.GetEventByID(ctx, rsvp.EventID)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("event_id", rsvp.EventID).
			Msg("failed to load event for reminder")
		return nil
	}
	if event.Cancelled || !event.Published {
		return nil
	}

	if err := r.mail.SendRSVPReminder(rsvp.Email, event.Name, rsvp.DateKey, event.StartTime); err != nil {
		zlog.Logger.Warn().Err(err).Int64("rsvp_id", msg.RSVPID).
			Msg("failed to send rsvp reminder email")
	}
	return nil
}

// handleClaimHold expires a waitlisted claim whose hold window lapsed. A
// claim that was confirmed or cancelled in the meantime is left alone.
func (r *Reader) handleClaimHold(ctx context.Context, msg dto.NotifyMessage) error {
	cancelled, err := r.repo.CancelIfStillWaitlistedTx(ctx, msg.ClaimID)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("claim_id", msg.ClaimID).
			Msg("failed to expire waitlisted claim")
		return err
	}
	if !cancelled {
		zlog.Logger.Info().Int64("claim_id", msg.ClaimID).
			Msg("claim already decided, skipping expiry")
		return nil
	}

	claim, err := r.repo.GetClaimByID(ctx, msg.ClaimID)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("claim_id", msg.ClaimID).
			Msg("failed to load claim after expiry")
		return nil
	}

	event, err := r.repo.GetEventByID(ctx, msg.EventID)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("event_id", msg.EventID).
			Msg("failed to load event after claim expiry")
		return nil
	}

	recipient := r.claimEmail(ctx, claim.ProfileID, claim.GuestEmail)
	if recipient == "" {
		return nil
	}
	if err := r.mail.SendClaimExpired(recipient, event.Name); err != nil {
		zlog.Logger.Warn().Err(err).Int64("claim_id", msg.ClaimID).
			Msg("failed to send claim expiry email")
	}
	return nil
}

// handleClaimPromoted mails a performer whose waitlisted claim moved up
// after the confirmed claim on the slot was removed. A claim that changed
// state again before the message arrived is left alone.
func (r *Reader) handleClaimPromoted(ctx context.Context, msg dto.NotifyMessage) error {
	claim, err := r.repo.GetClaimByID(ctx, msg.ClaimID)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("claim_id", msg.ClaimID).
			Msg("failed to load promoted claim")
		return nil
	}
	if claim.Status != model.ClaimStatusConfirmed {
		zlog.Logger.Info().Int64("claim_id", msg.ClaimID).Str("status", claim.Status).
			Msg("claim no longer confirmed, skipping promotion email")
		return nil
	}

	event, err := r.repo.GetEventByID(ctx, msg.EventID)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("event_id", msg.EventID).
			Msg("failed to load event for promotion email")
		return nil
	}

	recipient := r.claimEmail(ctx, claim.ProfileID, claim.GuestEmail)
	if recipient == "" {
		return nil
	}
	if err := r.mail.SendClaimConfirmed(recipient, event.Name); err != nil {
		zlog.Logger.Warn().Err(err).Int64("claim_id", msg.ClaimID).
			Msg("failed to send claim promotion email")
	}
	return nil
}

func (r *Reader) claimEmail(ctx context.Context, profileID *int64, guestEmail string) string {
	if guestEmail != "" {
		return guestEmail
	}
	if profileID == nil {
		return ""
	}
	p, err := r.repo.GetProfileByID(ctx, *profileID)
	if err != nil {
		return ""
	}
	return p.Email
}
