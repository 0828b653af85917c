package submission_test

import (
	"fmt"
	"testing"

	"cultgo/backend/internal/config"
	"cultgo/backend/internal/gameerr"
	"cultgo/backend/internal/models"
	"cultgo/backend/internal/submission"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

// fakeSubmissionStore is an in-memory submission.Store. The pipeline is a
// read-check-write sequence over three collections, so a stateful fake
// keeps the scenarios readable.
type fakeSubmissionStore struct {
	event   *models.Event
	weapons []models.Weapon
	players map[int64]*models.Player

	reports []models.Report
	pending map[string]*models.PendingSubmission
	scores  map[int64]int
	feed    []models.GameUpdate

	nextPendingID int
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{
		event: &models.Event{
			ID:         "event-1",
			VictimID:   "victim-1",
			VictimName: "Prof. Hollow",
			Ritual:     "Binding",
			Place:      "Old Library",
			WeaponName: "Ritual Dagger",
			Claims: []models.WeaponClaim{
				{EventID: "event-1", UserID: 100, Code: "QW34"},
				{EventID: "event-1", UserID: 101, Code: "QW34"},
				{EventID: "event-1", UserID: 102, Code: "QW34"},
				{EventID: "event-1", UserID: 103, Code: "QW34"},
			},
		},
		weapons: []models.Weapon{{Name: "Ritual Dagger", Codes: pq.StringArray{"QW34"}}},
		players: make(map[int64]*models.Player),
		pending: make(map[string]*models.PendingSubmission),
		scores:  make(map[int64]int),
	}
}

func (s *fakeSubmissionStore) GetActiveEvent() (*models.Event, error) { return s.event, nil }
func (s *fakeSubmissionStore) ListWeapons() ([]models.Weapon, error)  { return s.weapons, nil }

func (s *fakeSubmissionStore) GetPlayerByTelegramID(telegramID int64) (*models.Player, error) {
	return s.players[telegramID], nil
}

func (s *fakeSubmissionStore) GetReportsForVictim(victimID string) ([]models.Report, error) {
	var out []models.Report
	for _, r := range s.reports {
		if r.VictimID == victimID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeSubmissionStore) CreateReport(report *models.Report) error {
	s.reports = append(s.reports, *report)
	return nil
}

func (s *fakeSubmissionStore) CreatePending(sub *models.PendingSubmission) error {
	s.nextPendingID++
	sub.ID = fmt.Sprintf("pending-%d", s.nextPendingID)
	s.pending[sub.ID] = sub
	return nil
}

func (s *fakeSubmissionStore) GetPendingByControlMessageID(msgID int) (*models.PendingSubmission, error) {
	for _, p := range s.pending {
		if p.ControlMessageID == msgID {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakeSubmissionStore) GetPendingForUserVictim(userID int64, victimID string) (*models.PendingSubmission, error) {
	for _, p := range s.pending {
		if p.UserID == userID && p.VictimID == victimID {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakeSubmissionStore) BindPendingControlMessage(id string, msgID int) error {
	if p, ok := s.pending[id]; ok {
		p.ControlMessageID = msgID
	}
	return nil
}

func (s *fakeSubmissionStore) DeletePending(id string) (bool, error) {
	if _, ok := s.pending[id]; !ok {
		return false, nil
	}
	delete(s.pending, id)
	return true, nil
}

func (s *fakeSubmissionStore) AddScore(userID int64, delta int) (int, error) {
	s.scores[userID] += delta
	return s.scores[userID], nil
}

func (s *fakeSubmissionStore) PublishUpdate(update models.GameUpdate) error {
	s.feed = append(s.feed, update)
	return nil
}

// submitAndModerate walks one submission through intake, card binding and accept.
func submitAndModerate(t *testing.T, p *submission.Pipeline, store *fakeSubmissionStore, userID int64, msgID int) (*submission.AcceptResult, error) {
	t.Helper()
	pending, err := p.Intake(userID, fmt.Sprintf("user%d", userID), "photo-file-id")
	if err != nil {
		return nil, err
	}
	assert.NoError(t, p.BindControlMessage(pending.ID, msgID))
	return p.Accept(msgID)
}

// TestIntake_Preconditions verifies every gate in front of the moderation queue.
func TestIntake_Preconditions(t *testing.T) {
	store := newFakeSubmissionStore()
	p := submission.NewPipeline(store)

	// No weapon claim yet.
	_, err := p.Intake(999, "stranger", "photo")
	assert.Equal(t, "no_weapon_claim", gameerr.TextKeyOf(err, ""))

	// First intake passes, the duplicate is held until moderation.
	_, err = p.Intake(100, "alice", "photo")
	assert.NoError(t, err)
	_, err = p.Intake(100, "alice", "photo")
	assert.Equal(t, "submission_pending", gameerr.TextKeyOf(err, ""))

	// Without an active event nothing is accepted at all.
	store.event = nil
	_, err = p.Intake(101, "bob", "photo")
	assert.Equal(t, "no_active_event", gameerr.TextKeyOf(err, ""))
}

// TestAccept_CommitsReport verifies the happy path: episode numbering,
// identity snapshot, reward and feed update.
func TestAccept_CommitsReport(t *testing.T) {
	// Arrange
	store := newFakeSubmissionStore()
	identityID := "id-7"
	store.players[100] = &models.Player{TelegramID: 100, Faction: models.FactionCult, IdentityID: &identityID}
	p := submission.NewPipeline(store)

	// Act
	result, err := submitAndModerate(t, p, store, 100, 555)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Report.ReportIndex)
	assert.Equal(t, "QW34", result.Report.WeaponCode)
	assert.Equal(t, "Ritual Dagger", result.Report.WeaponName)
	if assert.NotNil(t, result.Report.IdentityID) {
		assert.Equal(t, "id-7", *result.Report.IdentityID)
	}
	assert.Equal(t, config.ReportReward, result.NewScore)
	assert.Empty(t, store.pending, "pending removed on accept")
	if assert.Len(t, store.feed, 1) {
		assert.Equal(t, models.FeedReportAccepted, store.feed[0].Type)
	}
}

// TestAccept_DoublePress verifies that the second press on a handled card
// commits nothing.
func TestAccept_DoublePress(t *testing.T) {
	store := newFakeSubmissionStore()
	p := submission.NewPipeline(store)

	_, err := submitAndModerate(t, p, store, 100, 555)
	assert.NoError(t, err)

	_, err = p.Accept(555)
	assert.Equal(t, "already_handled", gameerr.TextKeyOf(err, ""))
	assert.Len(t, store.reports, 1)
	assert.Equal(t, 1, store.scores[100], "no double reward")
}

// TestAccept_CapRecheck verifies the commit-time cap: four submissions can
// sit in moderation, only three can be accepted.
func TestAccept_CapRecheck(t *testing.T) {
	// Arrange
	store := newFakeSubmissionStore()
	p := submission.NewPipeline(store)

	users := []int64{100, 101, 102, 103}
	for i, u := range users {
		pending, err := p.Intake(u, fmt.Sprintf("user%d", u), "photo")
		assert.NoError(t, err, "intake is gated by the live count, not the queue")
		assert.NoError(t, p.BindControlMessage(pending.ID, 1000+i))
	}

	// Act - accept in order; the fourth hits the cap.
	for i := 0; i < config.MaxReportsPerVictim; i++ {
		_, err := p.Accept(1000 + i)
		assert.NoError(t, err)
	}
	_, err := p.Accept(1003)

	// Assert
	assert.ErrorIs(t, err, gameerr.ErrPreconditionFailed)
	assert.Equal(t, "report_cap_reached", gameerr.TextKeyOf(err, ""))
	assert.Len(t, store.reports, config.MaxReportsPerVictim)

	indexes := make([]int, 0, len(store.reports))
	for _, r := range store.reports {
		indexes = append(indexes, r.ReportIndex)
	}
	assert.Equal(t, []int{0, 1, 2}, indexes, "episode numbers are dense and ordered")
}

// TestAccept_OneReportPerUser verifies the per-user dedupe at commit time.
func TestAccept_OneReportPerUser(t *testing.T) {
	store := newFakeSubmissionStore()
	p := submission.NewPipeline(store)

	_, err := submitAndModerate(t, p, store, 100, 555)
	assert.NoError(t, err)

	// Forge a second pending for the same user (as if it raced intake).
	forged := &models.PendingSubmission{
		UserID: 100, Username: "alice", VictimID: "victim-1",
		WeaponCode: "QW34", PhotoRef: "photo",
	}
	assert.NoError(t, store.CreatePending(forged))
	assert.NoError(t, store.BindPendingControlMessage(forged.ID, 556))

	_, err = p.Accept(556)
	assert.Equal(t, "already_reported", gameerr.TextKeyOf(err, ""))
	assert.Len(t, store.reports, 1)
}

// TestReject_DiscardsPending verifies that a reject leaves no trace but
// the returned submission for the notification.
func TestReject_DiscardsPending(t *testing.T) {
	store := newFakeSubmissionStore()
	p := submission.NewPipeline(store)

	pending, err := p.Intake(100, "alice", "photo")
	assert.NoError(t, err)
	assert.NoError(t, p.BindControlMessage(pending.ID, 555))

	rejected, err := p.Reject(555)

	assert.NoError(t, err)
	assert.Equal(t, int64(100), rejected.UserID)
	assert.Empty(t, store.reports)
	assert.Empty(t, store.pending)
	assert.Zero(t, store.scores[100])

	// The user can resubmit after a rejection.
	_, err = p.Intake(100, "alice", "photo-2")
	assert.NoError(t, err)
}
