package investigation

import (
	"log"
	"time"

	"cultgo/backend/internal/config"
	"cultgo/backend/internal/gameerr"
	"cultgo/backend/internal/models"
	"cultgo/backend/internal/weapons"
)

// Verdict is the outcome of a final submission.
type Verdict struct {
	Case   *models.Case
	Closed bool

	// Set when another agent closed the case first. No attempt is
	// recorded for the losing agent in that branch (consistent policy,
	// see DESIGN.md), and the loser pays no penalty.
	AlreadyClosedBy *int64
	AlreadySolvedAt *time.Time

	VictimOK      bool
	WeaponOK      bool
	MaskOK        bool
	RitualOK      bool
	MaskCheckable bool

	NewScore int
}

// Submit runs the verification protocol for the agent's confirmed draft.
// The case is re-resolved fresh from the store: a stale session loses the
// race gracefully instead of double-closing. Win or lose, the attempt is
// appended (unless the case was already closed) and the session ends.
func (s *Service) Submit(agentID int64) (*Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionAt(agentID, StageConfirming)
	if err != nil {
		return nil, err
	}

	c, err := s.store.GetCaseByID(sess.CaseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		delete(s.sessions, agentID)
		return nil, gameerr.New(gameerr.ErrNotFound, "case_not_found")
	}
	if !c.IsOpen() {
		delete(s.sessions, agentID)
		return &Verdict{Case: c, AlreadyClosedBy: c.SolvedBy, AlreadySolvedAt: c.SolvedAt}, nil
	}
	if c.AttemptBy(agentID) != nil {
		delete(s.sessions, agentID)
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "attempt_exists")
	}

	truth, err := s.groundTruth(c)
	if err != nil {
		return nil, err
	}

	verdict := &Verdict{
		Case:          c,
		VictimOK:      sess.VictimGuess == c.VictimID,
		WeaponOK:      sess.WeaponGuess == weapons.Normalize(truth.weaponCode),
		RitualOK:      sess.RitualGuess == c.Ritual,
		MaskCheckable: truth.maskSymbol != "",
	}
	// An unverifiable mask counts as failing, never as passing: a case
	// with lost identity data cannot be closed.
	verdict.MaskOK = verdict.MaskCheckable && sess.MaskGuess == truth.maskSymbol
	verdict.Closed = verdict.VictimOK && verdict.WeaponOK && verdict.MaskOK && verdict.RitualOK

	now := time.Now().UTC()

	// The close commits before the attempt row so a raced close can never
	// leave a losing attempt marked as the closer. A loser of the race
	// gets the already-closed outcome with no attempt recorded, same as a
	// stale session.
	if verdict.Closed {
		if err := s.store.CloseCase(c.ID, agentID, now); err != nil {
			log.Printf("WARN: Case %s close raced: %v", c.CaseCode, err)
			delete(s.sessions, agentID)
			fresh, ferr := s.store.GetCaseByID(c.ID)
			if ferr == nil && fresh != nil {
				return &Verdict{Case: fresh, AlreadyClosedBy: fresh.SolvedBy, AlreadySolvedAt: fresh.SolvedAt}, nil
			}
			return nil, err
		}
		c.Status = models.CaseClosed
		c.SolvedBy = &agentID
		c.SolvedAt = &now
	}

	attempt := &models.Attempt{
		CaseID:        c.ID,
		AgentID:       agentID,
		VictimGuess:   sess.VictimGuess,
		WeaponGuess:   sess.WeaponGuess,
		MaskGuess:     sess.MaskGuess,
		RitualGuess:   sess.RitualGuess,
		VictimOK:      verdict.VictimOK,
		WeaponOK:      verdict.WeaponOK,
		MaskOK:        verdict.MaskOK,
		RitualOK:      verdict.RitualOK,
		MaskCheckable: verdict.MaskCheckable,
		ClosedCase:    verdict.Closed,
	}
	if err := s.store.AppendAttempt(attempt); err != nil {
		if !verdict.Closed {
			return nil, err
		}
		// The close already committed; the lost attempt row is logged,
		// not unwound.
		log.Printf("ERROR: Attempt by %d on closed case %s not recorded: %v", agentID, c.CaseCode, err)
	}
	delete(s.sessions, agentID)

	if verdict.Closed {
		newScore, err := s.store.AddScore(agentID, config.SolveReward)
		if err != nil {
			log.Printf("ERROR: Failed to credit solver %d: %v", agentID, err)
		}
		verdict.NewScore = newScore

		if err := s.store.PublishUpdate(models.GameUpdate{
			Type:     models.FeedCaseClosed,
			CaseCode: c.CaseCode,
		}); err != nil {
			log.Printf("WARN: Failed to publish close feed update: %v", err)
		}
	}
	return verdict, nil
}

// caseTruth is the ground truth read back from the report behind a case.
type caseTruth struct {
	weaponCode string
	maskSymbol string
}

func (s *Service) groundTruth(c *models.Case) (*caseTruth, error) {
	reports, err := s.store.GetReportsForVictim(c.VictimID)
	if err != nil {
		return nil, err
	}
	for _, rep := range reports {
		if rep.ReportIndex != c.ReportIndex {
			continue
		}
		truth := &caseTruth{weaponCode: rep.WeaponCode}
		if rep.IdentityID != nil {
			identity, err := s.store.GetIdentityByID(*rep.IdentityID)
			if err != nil {
				return nil, err
			}
			if identity != nil {
				truth.maskSymbol = identity.MaskSymbol
			}
		}
		return truth, nil
	}
	log.Printf("WARN: Case %s has no backing report %s/%d", c.CaseCode, c.VictimID, c.ReportIndex)
	return nil, gameerr.New(gameerr.ErrNotFound, "report_not_found")
}
