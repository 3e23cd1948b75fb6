package notifyworker

import (
	"context"
	"testing"

	"github.com/wb-go/wbf/zlog"

	"stagedoor/internal/dto"
	"stagedoor/internal/model"
	"stagedoor/internal/repo"
)

type stubRepo struct {
	repo.Repository
	claim   *model.TimeslotClaim
	event   *model.Event
	profile *model.Profile
}

func (s *stubRepo) GetClaimByID(_ context.Context, id int64) (*model.TimeslotClaim, error) {
	if s.claim == nil || s.claim.ID != id {
		return nil, repo.ErrClaimNotFound
	}
	return s.claim, nil
}

func (s *stubRepo) GetEventByID(_ context.Context, id int64) (*model.Event, error) {
	if s.event == nil || s.event.ID != id {
		return nil, repo.ErrEventNotFound
	}
	return s.event, nil
}

func (s *stubRepo) GetProfileByID(_ context.Context, id int64) (*model.Profile, error) {
	if s.profile == nil || s.profile.ID != id {
		return nil, repo.ErrProfileNotFound
	}
	return s.profile, nil
}

type recordingSender struct {
	reminders []string
	expired   []string
	confirmed []string
}

func (r *recordingSender) SendRSVPReminder(recipient, _, _, _ string) error {
	r.reminders = append(r.reminders, recipient)
	return nil
}

func (r *recordingSender) SendClaimExpired(recipient, _ string) error {
	r.expired = append(r.expired, recipient)
	return nil
}

func (r *recordingSender) SendClaimConfirmed(recipient, _ string) error {
	r.confirmed = append(r.confirmed, recipient)
	return nil
}

func TestHandleClaimPromoted(t *testing.T) {
	zlog.Init()

	t.Run("guest claim gets confirmation email", func(t *testing.T) {
		rp := &stubRepo{
			claim: &model.TimeslotClaim{
				ID:            7,
				TimeslotID:    3,
				PerformerName: "Sam",
				GuestEmail:    "sam@example.com",
				Status:        model.ClaimStatusConfirmed,
			},
			event: &model.Event{ID: 11, Name: "Open Mic"},
		}
		sender := &recordingSender{}
		r := NewReader(nil, rp, sender)

		msg := dto.NotifyMessage{Kind: dto.NotifyKindClaimPromoted, ClaimID: 7, EventID: 11}
		if err := r.handleClaimPromoted(context.Background(), msg); err != nil {
			t.Fatalf("handleClaimPromoted: %v", err)
		}
		if len(sender.confirmed) != 1 || sender.confirmed[0] != "sam@example.com" {
			t.Fatalf("expected one confirmation to sam@example.com, got %v", sender.confirmed)
		}
	})

	t.Run("member claim resolves profile email", func(t *testing.T) {
		profileID := int64(42)
		rp := &stubRepo{
			claim: &model.TimeslotClaim{
				ID:            8,
				TimeslotID:    3,
				PerformerName: "Riley",
				ProfileID:     &profileID,
				Status:        model.ClaimStatusConfirmed,
			},
			event:   &model.Event{ID: 11, Name: "Open Mic"},
			profile: &model.Profile{ID: profileID, Email: "riley@example.com"},
		}
		sender := &recordingSender{}
		r := NewReader(nil, rp, sender)

		msg := dto.NotifyMessage{Kind: dto.NotifyKindClaimPromoted, ClaimID: 8, EventID: 11}
		if err := r.handleClaimPromoted(context.Background(), msg); err != nil {
			t.Fatalf("handleClaimPromoted: %v", err)
		}
		if len(sender.confirmed) != 1 || sender.confirmed[0] != "riley@example.com" {
			t.Fatalf("expected one confirmation to riley@example.com, got %v", sender.confirmed)
		}
	})

	t.Run("claim cancelled in the meantime is skipped", func(t *testing.T) {
		rp := &stubRepo{
			claim: &model.TimeslotClaim{
				ID:            9,
				TimeslotID:    3,
				PerformerName: "Alex",
				GuestEmail:    "alex@example.com",
				Status:        model.ClaimStatusCancelled,
			},
			event: &model.Event{ID: 11, Name: "Open Mic"},
		}
		sender := &recordingSender{}
		r := NewReader(nil, rp, sender)

		msg := dto.NotifyMessage{Kind: dto.NotifyKindClaimPromoted, ClaimID: 9, EventID: 11}
		if err := r.handleClaimPromoted(context.Background(), msg); err != nil {
			t.Fatalf("handleClaimPromoted: %v", err)
		}
		if len(sender.confirmed) != 0 {
			t.Fatalf("expected no email for a cancelled claim, got %v", sender.confirmed)
		}
	})

	t.Run("missing claim is dropped without error", func(t *testing.T) {
		sender := &recordingSender{}
		r := NewReader(nil, &stubRepo{}, sender)

		msg := dto.NotifyMessage{Kind: dto.NotifyKindClaimPromoted, ClaimID: 99, EventID: 11}
		if err := r.handleClaimPromoted(context.Background(), msg); err != nil {
			t.Fatalf("handleClaimPromoted: %v", err)
		}
		if len(sender.confirmed) != 0 {
			t.Fatalf("expected no email, got %v", sender.confirmed)
		}
	})
}
