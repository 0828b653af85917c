// Package submission runs the evidence pipeline: one photo per user per
// event, queued for human moderation, committed as an immutable report on
// accept. Intake and commit are separated by a moderation pause of
// unbounded length, so every capacity check is repeated at commit time.
package submission

import (
	"log"
	"sync"
	"time"

	"cultgo/backend/internal/config"
	"cultgo/backend/internal/gameerr"
	"cultgo/backend/internal/models"
)

// Store is the storage surface the pipeline needs.
type Store interface {
	GetActiveEvent() (*models.Event, error)
	ListWeapons() ([]models.Weapon, error)
	GetPlayerByTelegramID(telegramID int64) (*models.Player, error)
	GetReportsForVictim(victimID string) ([]models.Report, error)
	CreateReport(report *models.Report) error
	CreatePending(sub *models.PendingSubmission) error
	GetPendingByControlMessageID(msgID int) (*models.PendingSubmission, error)
	GetPendingForUserVictim(userID int64, victimID string) (*models.PendingSubmission, error)
	BindPendingControlMessage(id string, msgID int) error
	DeletePending(id string) (bool, error)
	AddScore(userID int64, delta int) (int, error)
	PublishUpdate(update models.GameUpdate) error
}

// Pipeline accepts evidence photos and drives their moderation verdicts.
// A single mutex covers every read-check-write sequence that touches the
// pending queue or the report lists.
type Pipeline struct {
	store Store
	mu    sync.Mutex
}

// NewPipeline creates a submission pipeline.
func NewPipeline(store Store) *Pipeline {
	return &Pipeline{store: store}
}

// AcceptResult is the outcome of a successful moderation accept.
type AcceptResult struct {
	Report   *models.Report
	Pending  *models.PendingSubmission
	NewScore int
}

// Intake validates an evidence photo against the active event and queues
// it for moderation. Preconditions (§ event live, claim present, no
// pending, no prior report, cap not reached) fail with no state change.
func (p *Pipeline) Intake(userID int64, username, photoRef string) (*models.PendingSubmission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	event, err := p.store.GetActiveEvent()
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "no_active_event")
	}

	claim := event.ClaimFor(userID)
	if claim == nil {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "no_weapon_claim")
	}

	if pending, err := p.store.GetPendingForUserVictim(userID, event.VictimID); err != nil {
		return nil, err
	} else if pending != nil {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "submission_pending")
	}

	reports, err := p.store.GetReportsForVictim(event.VictimID)
	if err != nil {
		return nil, err
	}
	if len(reports) >= config.MaxReportsPerVictim {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "report_cap_reached")
	}
	for _, rep := range reports {
		if rep.UserID == userID {
			return nil, gameerr.New(gameerr.ErrPreconditionFailed, "already_reported")
		}
	}

	sub := &models.PendingSubmission{
		UserID:     userID,
		Username:   username,
		VictimID:   event.VictimID,
		VictimName: event.VictimName,
		Ritual:     event.Ritual,
		Place:      event.Place,
		WeaponCode: claim.Code,
		WeaponName: p.weaponNameForCode(claim.Code),
		PhotoRef:   photoRef,
	}
	if err := p.store.CreatePending(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// BindControlMessage attaches the moderation card's message id to the
// pending entry once the card has been posted.
func (p *Pipeline) BindControlMessage(pendingID string, msgID int) error {
	return p.store.BindPendingControlMessage(pendingID, msgID)
}

// Accept commits the pending submission behind a moderation card. The
// report cap and the one-report-per-user rule are re-checked here because
// several submissions can race to moderation: a press past the cap fails
// loudly and commits nothing. A second press on an already-processed card
// fails with "already handled" instead of double-committing.
func (p *Pipeline) Accept(controlMsgID int) (*AcceptResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending, err := p.store.GetPendingByControlMessageID(controlMsgID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "already_handled")
	}

	reports, err := p.store.GetReportsForVictim(pending.VictimID)
	if err != nil {
		return nil, err
	}
	if len(reports) >= config.MaxReportsPerVictim {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "report_cap_reached")
	}
	for _, rep := range reports {
		if rep.UserID == pending.UserID {
			return nil, gameerr.New(gameerr.ErrPreconditionFailed, "already_reported")
		}
	}

	// The submitter's identity at commit time is the ground truth an
	// investigator must later recover as the mask fact. Even if the
	// player has defected since, the reference persists on their record.
	var identityID *string
	if player, err := p.store.GetPlayerByTelegramID(pending.UserID); err != nil {
		return nil, err
	} else if player != nil {
		identityID = player.IdentityID
	}

	report := &models.Report{
		VictimID:    pending.VictimID,
		ReportIndex: len(reports),
		UserID:      pending.UserID,
		Username:    pending.Username,
		IdentityID:  identityID,
		WeaponCode:  pending.WeaponCode,
		WeaponName:  pending.WeaponName,
		VictimName:  pending.VictimName,
		Ritual:      pending.Ritual,
		Place:       pending.Place,
		PhotoRef:    pending.PhotoRef,
		Timestamp:   time.Now().UTC().Add(config.TimestampOffset),
	}
	if err := p.store.CreateReport(report); err != nil {
		return nil, err
	}

	if removed, err := p.store.DeletePending(pending.ID); err != nil {
		log.Printf("ERROR: Report committed but pending %s not removed: %v", pending.ID, err)
	} else if !removed {
		log.Printf("WARN: Pending %s vanished between commit and cleanup", pending.ID)
	}

	newScore, err := p.store.AddScore(pending.UserID, config.ReportReward)
	if err != nil {
		log.Printf("ERROR: Failed to credit score for user %d: %v", pending.UserID, err)
	}
	if err := p.store.PublishUpdate(models.GameUpdate{
		Type:     models.FeedReportAccepted,
		VictimID: pending.VictimID,
	}); err != nil {
		log.Printf("WARN: Failed to publish report feed update: %v", err)
	}

	return &AcceptResult{Report: report, Pending: pending, NewScore: newScore}, nil
}

// Reject discards the pending submission and returns it so the caller can
// notify the submitter. No report is created.
func (p *Pipeline) Reject(controlMsgID int) (*models.PendingSubmission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending, err := p.store.GetPendingByControlMessageID(controlMsgID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "already_handled")
	}
	if _, err := p.store.DeletePending(pending.ID); err != nil {
		return nil, err
	}
	return pending, nil
}

// weaponNameForCode maps an accepted code back to its catalog weapon name
// for the moderation card; empty if the catalog cannot resolve it.
func (p *Pipeline) weaponNameForCode(code string) string {
	weapons, err := p.store.ListWeapons()
	if err != nil {
		log.Printf("WARN: Failed to resolve weapon name for code %s: %v", code, err)
		return ""
	}
	for _, w := range weapons {
		if w.HasCode(code) {
			return w.Name
		}
	}
	return ""
}
