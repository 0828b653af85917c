package investigation_test

import (
	"errors"
	"fmt"
	"time"

	"cultgo/backend/internal/models"
)

// fakeInvStore is an in-memory store implementing both the session and
// the deriver storage surfaces. Reads return copies, the way a database
// row fetch would.
type fakeInvStore struct {
	players    map[int64]*models.Player
	victims    []models.Victim
	identities []models.SecretIdentity
	rituals    []string

	reports map[string][]models.Report
	cases   map[string]*models.Case
	scores  map[int64]int
	feed    []models.GameUpdate
}

func newFakeInvStore() *fakeInvStore {
	return &fakeInvStore{
		players: map[int64]*models.Player{
			500: {TelegramID: 500, Faction: models.FactionBureau},
			501: {TelegramID: 501, Faction: models.FactionBureau},
			100: {TelegramID: 100, Faction: models.FactionCult},
		},
		victims: []models.Victim{
			{ID: "victim-1", Name: "Prof. Hollow", Description: "Wears tweed"},
			{ID: "victim-2", Name: "Dr. Vane"},
			{ID: "victim-3", Name: "Ms. Quill"},
			{ID: "victim-4", Name: "Mr. Ash"},
			{ID: "victim-5", Name: "Sgt. Pike"},
		},
		identities: []models.SecretIdentity{
			{ID: "id-1", Name: "The Gardener", MaskSymbol: "🌿"},
			{ID: "id-2", Name: "The Locksmith", MaskSymbol: "🗝"},
			{ID: "id-3", Name: "The Cartographer", MaskSymbol: "🗺"},
			{ID: "id-4", Name: "The Beekeeper", MaskSymbol: "🐝"},
			{ID: "id-5", Name: "The Archivist", MaskSymbol: "📜"},
			{ID: "id-6", Name: "The Lamplighter", MaskSymbol: "🕯"},
		},
		rituals: []string{"Binding", "Silencing", "Unmaking"},
		reports: make(map[string][]models.Report),
		cases:   make(map[string]*models.Case),
		scores:  make(map[int64]int),
	}
}

// addReport registers an accepted report for a victim.
func (s *fakeInvStore) addReport(r models.Report) {
	s.reports[r.VictimID] = append(s.reports[r.VictimID], r)
}

// addOpenCase registers a derived case and returns its id.
func (s *fakeInvStore) addOpenCase(victimID string, reportIndex int, ritual string) string {
	id := fmt.Sprintf("case-%s-%d", victimID, reportIndex)
	s.cases[id] = &models.Case{
		ID:          id,
		CaseCode:    fmt.Sprintf("RIT-TEST-%d", reportIndex+1),
		VictimID:    victimID,
		ReportIndex: reportIndex,
		Ritual:      ritual,
		Place:       "Old Library",
		Status:      models.CaseOpen,
	}
	return id
}

func (s *fakeInvStore) GetPlayerByTelegramID(telegramID int64) (*models.Player, error) {
	return s.players[telegramID], nil
}

func (s *fakeInvStore) ListOpenCases() ([]models.Case, error) {
	var out []models.Case
	for _, c := range s.cases {
		if c.Status == models.CaseOpen {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *fakeInvStore) GetCaseByID(caseID string) (*models.Case, error) {
	c, ok := s.cases[caseID]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Attempts = append([]models.Attempt(nil), c.Attempts...)
	return &cp, nil
}

func (s *fakeInvStore) GetCaseByKey(victimID string, reportIndex int) (*models.Case, error) {
	for _, c := range s.cases {
		if c.VictimID == victimID && c.ReportIndex == reportIndex {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeInvStore) CreateCase(c *models.Case) error {
	if c.ID == "" {
		c.ID = fmt.Sprintf("case-%s-%d", c.VictimID, c.ReportIndex)
	}
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

func (s *fakeInvStore) ListVictims() ([]models.Victim, error) { return s.victims, nil }
func (s *fakeInvStore) ListRituals() ([]string, error)        { return s.rituals, nil }

func (s *fakeInvStore) GetReportsForVictim(victimID string) ([]models.Report, error) {
	return s.reports[victimID], nil
}

func (s *fakeInvStore) GetIdentityByID(identityID string) (*models.SecretIdentity, error) {
	for i := range s.identities {
		if s.identities[i].ID == identityID {
			cp := s.identities[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeInvStore) ListIdentities() ([]models.SecretIdentity, error) {
	return s.identities, nil
}

func (s *fakeInvStore) AppendAttempt(attempt *models.Attempt) error {
	c, ok := s.cases[attempt.CaseID]
	if !ok {
		return errors.New("unknown case")
	}
	c.Attempts = append(c.Attempts, *attempt)
	return nil
}

func (s *fakeInvStore) CloseCase(caseID string, agentID int64, at time.Time) error {
	c, ok := s.cases[caseID]
	if !ok || c.Status != models.CaseOpen {
		return errors.New("case is not open")
	}
	c.Status = models.CaseClosed
	c.SolvedBy = &agentID
	c.SolvedAt = &at
	return nil
}

func (s *fakeInvStore) AddScore(userID int64, delta int) (int, error) {
	s.scores[userID] += delta
	return s.scores[userID], nil
}

func (s *fakeInvStore) PublishUpdate(update models.GameUpdate) error {
	s.feed = append(s.feed, update)
	return nil
}

// fakeFetcher resolves photo refs to deterministic local paths and
// records which ones were cleaned up.
type fakeFetcher struct {
	failFor map[string]bool
	cleaned []string
}

func (f *fakeFetcher) Fetch(ref string) (string, func(), error) {
	if f.failFor[ref] {
		return "", nil, errors.New("file expired")
	}
	local := "local-" + ref
	return local, func() { f.cleaned = append(f.cleaned, local) }, nil
}

// fakeObscurer degrades by prefixing, or fails for marked inputs.
type fakeObscurer struct {
	failFor map[string]bool
}

func (o *fakeObscurer) Obscure(path string) (string, error) {
	if o.failFor[path] {
		return "", errors.New("convert exited 1")
	}
	return "degraded-" + path, nil
}

// fakePublisher records channel posts.
type fakePublisher struct {
	cases    []string
	warnings []string
	failFor  map[string]bool
}

func (p *fakePublisher) PostCase(c *models.Case) error {
	if p.failFor[c.CaseCode] {
		return errors.New("telegram down")
	}
	p.cases = append(p.cases, c.CaseCode)
	return nil
}

func (p *fakePublisher) PostOperatorWarning(text string) error {
	p.warnings = append(p.warnings, text)
	return nil
}
