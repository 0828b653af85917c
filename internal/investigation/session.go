package investigation

import (
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"cultgo/backend/internal/config"
	"cultgo/backend/internal/gameerr"
	"cultgo/backend/internal/models"
	"cultgo/backend/internal/weapons"
)

// Stage is the position of an agent's session in the fixed protocol.
// Transitions are strictly sequential; each handler verifies the stage
// before acting so a stray callback cannot skip a step.
type Stage int

const (
	StageChoosingCase Stage = iota
	StageChoosingVictim
	StageEnteringWeapon
	StageChoosingMask
	StageChoosingRitual
	StageConfirming
)

// Session is one agent's in-progress investigation. Only the fields valid
// at the current stage are populated; there is no grab-bag of ad hoc keys.
// A session holds no lock on its case: other agents may race it to the
// final submission.
type Session struct {
	AgentID int64
	Stage   Stage
	CaseID  string

	VictimGuess   string
	WeaponGuess   string
	MaskGuess     string
	MaskCheckable bool
	RitualGuess   string
}

// SessionStore is the storage surface the session flow needs.
type SessionStore interface {
	GetPlayerByTelegramID(telegramID int64) (*models.Player, error)
	ListOpenCases() ([]models.Case, error)
	GetCaseByID(caseID string) (*models.Case, error)
	ListVictims() ([]models.Victim, error)
	GetReportsForVictim(victimID string) ([]models.Report, error)
	GetIdentityByID(identityID string) (*models.SecretIdentity, error)
	ListIdentities() ([]models.SecretIdentity, error)
	ListRituals() ([]string, error)
	AppendAttempt(attempt *models.Attempt) error
	CloseCase(caseID string, agentID int64, at time.Time) error
	AddScore(userID int64, delta int) (int, error)
	PublishUpdate(update models.GameUpdate) error
}

// VictimQuestion is the step-2 prompt: the true victim's description plus
// a shuffled option set that contains the right name exactly once.
type VictimQuestion struct {
	Description string
	Options     []models.Victim
}

// MaskQuestion is the step-4 prompt. Checkable is false when the report's
// identity reference cannot be resolved; the options are then decoys only
// and the mask fact can never count as correct.
type MaskQuestion struct {
	Options   []models.SecretIdentity
	Checkable bool
}

// Draft is the recap shown before final submission.
type Draft struct {
	CaseCode    string
	VictimName  string
	WeaponGuess string
	MaskGuess   string
	RitualGuess string
}

// Service drives investigation sessions. Sessions live in memory; an
// abandoned one simply never reaches Submit.
type Service struct {
	store    SessionStore
	sessions map[int64]*Session
	rng      *rand.Rand
	mu       sync.Mutex
}

// NewService creates the investigation service.
func NewService(store SessionStore) *Service {
	return &Service{
		store:    store,
		sessions: make(map[int64]*Session),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// OpenCases lists the cases a bureau agent can pick up. Other factions
// are refused.
func (s *Service) OpenCases(agentID int64) ([]models.Case, error) {
	if err := s.requireBureau(agentID); err != nil {
		return nil, err
	}
	return s.store.ListOpenCases()
}

// StartSession begins (or restarts) an agent's session at case selection.
func (s *Service) StartSession(agentID int64) ([]models.Case, error) {
	cases, err := s.OpenCases(agentID)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "no_open_cases")
	}
	s.mu.Lock()
	s.sessions[agentID] = &Session{AgentID: agentID, Stage: StageChoosingCase}
	s.mu.Unlock()
	return cases, nil
}

// ChooseCase pins the case and produces the victim question.
func (s *Service) ChooseCase(agentID int64, caseID string) (*VictimQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionAt(agentID, StageChoosingCase)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetCaseByID(caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, gameerr.New(gameerr.ErrNotFound, "case_not_found")
	}
	if !c.IsOpen() {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "case_already_closed")
	}

	victims, err := s.store.ListVictims()
	if err != nil {
		return nil, err
	}
	var correct *models.Victim
	var pool []models.Victim
	for i := range victims {
		if victims[i].ID == c.VictimID {
			correct = &victims[i]
		} else {
			pool = append(pool, victims[i])
		}
	}
	if correct == nil {
		// Referential inconsistency between the case store and the catalog.
		log.Printf("WARN: Case %s references unknown victim %s", c.CaseCode, c.VictimID)
		return nil, gameerr.New(gameerr.ErrNotFound, "victim_not_found")
	}

	options := []models.Victim{*correct}
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for i := 0; i < len(pool) && len(options) < 1+config.VictimDecoyCount; i++ {
		options = append(options, pool[i])
	}
	s.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	sess.CaseID = c.ID
	sess.Stage = StageChoosingVictim
	return &VictimQuestion{Description: correct.Description, Options: options}, nil
}

// ChooseVictim records the agent's pick. An incorrect choice still
// advances the session: correctness of all four facts is judged only at
// final submission, so nothing leaks mid-flow.
func (s *Service) ChooseVictim(agentID int64, victimID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionAt(agentID, StageChoosingVictim)
	if err != nil {
		return err
	}
	sess.VictimGuess = victimID
	sess.Stage = StageEnteringWeapon
	return nil
}

// EnterWeapon records a free-text or QR-decoded weapon code and produces
// the mask question. Invalid input is rejected with no state change.
func (s *Service) EnterWeapon(agentID int64, raw string) (*MaskQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionAt(agentID, StageEnteringWeapon)
	if err != nil {
		return nil, err
	}
	code, ok := weapons.ExtractCode(raw)
	if !ok || !weapons.IsValidCode(code) {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "weapon_code_invalid")
	}

	question, err := s.maskQuestion(sess)
	if err != nil {
		return nil, err
	}
	sess.WeaponGuess = code
	sess.MaskCheckable = question.Checkable
	sess.Stage = StageChoosingMask
	return question, nil
}

// ChooseMask records the mask pick and returns the full ritual catalog as
// the next question (the true ritual is simply one of its entries).
func (s *Service) ChooseMask(agentID int64, maskSymbol string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionAt(agentID, StageChoosingMask)
	if err != nil {
		return nil, err
	}
	rituals, err := s.store.ListRituals()
	if err != nil {
		return nil, err
	}
	sess.MaskGuess = maskSymbol
	sess.Stage = StageChoosingRitual
	return rituals, nil
}

// ChooseRitual records the ritual pick and returns the recap draft for
// explicit confirmation. Nothing is committed yet.
func (s *Service) ChooseRitual(agentID int64, ritual string) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionAt(agentID, StageChoosingRitual)
	if err != nil {
		return nil, err
	}
	sess.RitualGuess = ritual
	sess.Stage = StageConfirming

	c, err := s.store.GetCaseByID(sess.CaseID)
	if err != nil {
		return nil, err
	}
	caseCode := sess.CaseID
	if c != nil {
		caseCode = c.CaseCode
	}
	victimName := sess.VictimGuess
	for _, v := range s.victimsOrNil() {
		if v.ID == sess.VictimGuess {
			victimName = v.Name
		}
	}
	return &Draft{
		CaseCode:    caseCode,
		VictimName:  victimName,
		WeaponGuess: sess.WeaponGuess,
		MaskGuess:   sess.MaskGuess,
		RitualGuess: sess.RitualGuess,
	}, nil
}

// Abandon drops the agent's session, if any. The case stays open.
func (s *Service) Abandon(agentID int64) {
	s.mu.Lock()
	delete(s.sessions, agentID)
	s.mu.Unlock()
}

// maskQuestion resolves the identity behind the case's report and builds
// the option set: the true mask plus up to MaskDecoyCount decoys, or a
// decoy-only set when the identity reference is unresolvable.
func (s *Service) maskQuestion(sess *Session) (*MaskQuestion, error) {
	c, err := s.store.GetCaseByID(sess.CaseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, gameerr.New(gameerr.ErrNotFound, "case_not_found")
	}

	var truth *models.SecretIdentity
	reports, err := s.store.GetReportsForVictim(c.VictimID)
	if err != nil {
		return nil, err
	}
	for _, rep := range reports {
		if rep.ReportIndex != c.ReportIndex {
			continue
		}
		if rep.IdentityID != nil {
			truth, err = s.store.GetIdentityByID(*rep.IdentityID)
			if err != nil {
				return nil, err
			}
			if truth == nil {
				log.Printf("WARN: Report %s/%d references unknown identity %s",
					c.VictimID, c.ReportIndex, *rep.IdentityID)
			}
		}
		break
	}

	catalog, err := s.store.ListIdentities()
	if err != nil {
		return nil, err
	}
	question := &MaskQuestion{Checkable: truth != nil}

	seen := make(map[string]bool)
	if truth != nil {
		question.Options = append(question.Options, *truth)
		seen[truth.MaskSymbol] = true
	}
	pool := make([]models.SecretIdentity, 0, len(catalog))
	for _, id := range catalog {
		if !seen[id.MaskSymbol] {
			pool = append(pool, id)
			seen[id.MaskSymbol] = true
		}
	}
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for i := 0; i < len(pool) && len(question.Options) < 1+config.MaskDecoyCount; i++ {
		question.Options = append(question.Options, pool[i])
	}
	s.rng.Shuffle(len(question.Options), func(i, j int) {
		question.Options[i], question.Options[j] = question.Options[j], question.Options[i]
	})
	return question, nil
}

// sessionAt fetches the agent's session and verifies its stage.
// Callers must hold s.mu.
func (s *Service) sessionAt(agentID int64, stage Stage) (*Session, error) {
	sess, ok := s.sessions[agentID]
	if !ok {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "no_session")
	}
	if sess.Stage != stage {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "wrong_step")
	}
	return sess, nil
}

func (s *Service) requireBureau(agentID int64) error {
	player, err := s.store.GetPlayerByTelegramID(agentID)
	if err != nil {
		return err
	}
	if player == nil || !player.IsBureau() {
		return gameerr.New(gameerr.ErrPermissionDenied, "bureau_only")
	}
	return nil
}

func (s *Service) victimsOrNil() []models.Victim {
	victims, err := s.store.ListVictims()
	if err != nil {
		return nil
	}
	return victims
}
