package scoring_test

import (
	"testing"

	"cultgo/backend/internal/models"
	"cultgo/backend/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockScoreStore is a mock of the scoring.Store interface.
type MockScoreStore struct {
	mock.Mock
}

func (m *MockScoreStore) ListPlayersByFaction(faction string) ([]models.Player, error) {
	args := m.Called(faction)
	return args.Get(0).([]models.Player), args.Error(1)
}

func (m *MockScoreStore) GetScore(userID int64) (int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Error(1)
}

func (m *MockScoreStore) SetScore(userID int64, score int) error {
	args := m.Called(userID, score)
	return args.Error(0)
}

// TestLeaderboard verifies faction scoping, descending order and the
// limit cut-off.
func TestLeaderboard(t *testing.T) {
	// Arrange
	store := new(MockScoreStore)
	store.On("ListPlayersByFaction", models.FactionCult).Return([]models.Player{
		{TelegramID: 1, Username: "acolyte"},
		{TelegramID: 2, Username: "hierophant"},
		{TelegramID: 3, Username: "novice"},
	}, nil)
	store.On("GetScore", int64(1)).Return(2, nil)
	store.On("GetScore", int64(2)).Return(7, nil)
	store.On("GetScore", int64(3)).Return(0, nil)
	svc := scoring.NewService(store)

	// Act
	entries, err := svc.Leaderboard(models.FactionCult, 2)

	// Assert
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].UserID)
	assert.Equal(t, "hierophant", entries[0].Username)
	assert.Equal(t, 7, entries[0].Score)
	assert.Equal(t, int64(1), entries[1].UserID)
	store.AssertExpectations(t)
}

// TestLeaderboard_Empty verifies that a faction with no members yields an
// empty board rather than an error.
func TestLeaderboard_Empty(t *testing.T) {
	store := new(MockScoreStore)
	store.On("ListPlayersByFaction", models.FactionBureau).Return([]models.Player{}, nil)
	svc := scoring.NewService(store)

	entries, err := svc.Leaderboard(models.FactionBureau, 10)

	assert.NoError(t, err)
	assert.Empty(t, entries)
}

// TestBoardFaction verifies that only bureau agents see the bureau
// ranking; everyone else falls back to the cult board.
func TestBoardFaction(t *testing.T) {
	assert.Equal(t, models.FactionBureau, scoring.BoardFaction(&models.Player{Faction: models.FactionBureau}))
	assert.Equal(t, models.FactionCult, scoring.BoardFaction(&models.Player{Faction: models.FactionCult}))
	assert.Equal(t, models.FactionCult, scoring.BoardFaction(&models.Player{}))
	assert.Equal(t, models.FactionCult, scoring.BoardFaction(nil))
}

// TestForceSet verifies the admin overwrite passes through untouched.
func TestForceSet(t *testing.T) {
	store := new(MockScoreStore)
	store.On("SetScore", int64(42), -5).Return(nil)
	svc := scoring.NewService(store)

	err := svc.ForceSet(42, -5)

	assert.NoError(t, err)
	store.AssertExpectations(t)
}
