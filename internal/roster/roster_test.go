package roster_test

import (
	"testing"

	"cultgo/backend/internal/config"
	"cultgo/backend/internal/gameerr"
	"cultgo/backend/internal/models"
	"cultgo/backend/internal/roster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRosterStore is a mock implementation of the roster.Store interface.
type MockRosterStore struct {
	mock.Mock
}

func (m *MockRosterStore) GetPlayerByTelegramID(telegramID int64) (*models.Player, error) {
	args := m.Called(telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Player), args.Error(1)
}

func (m *MockRosterStore) SavePlayer(player *models.Player) error {
	args := m.Called(player)
	return args.Error(0)
}

func (m *MockRosterStore) ListIdentities() ([]models.SecretIdentity, error) {
	args := m.Called()
	return args.Get(0).([]models.SecretIdentity), args.Error(1)
}

func (m *MockRosterStore) GetIdentityByID(identityID string) (*models.SecretIdentity, error) {
	args := m.Called(identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SecretIdentity), args.Error(1)
}

func (m *MockRosterStore) AddScore(userID int64, delta int) (int, error) {
	args := m.Called(userID, delta)
	return args.Int(0), args.Error(1)
}

var identityCatalog = []models.SecretIdentity{
	{ID: "id-1", Name: "The Gardener", MaskSymbol: "🌿"},
	{ID: "id-2", Name: "The Locksmith", MaskSymbol: "🗝"},
}

// TestJoinCult_AssignsIdentity verifies enrollment: the new player is
// saved as cult with an identity from the catalog.
func TestJoinCult_AssignsIdentity(t *testing.T) {
	// Arrange
	store := new(MockRosterStore)
	svc := roster.NewService(store)

	store.On("GetPlayerByTelegramID", int64(100)).Return(nil, nil)
	store.On("ListIdentities").Return(identityCatalog, nil)
	store.On("SavePlayer", mock.AnythingOfType("*models.Player")).Return(nil)

	// Act
	identity, err := svc.JoinCult(100, "alice")

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, identity)
	assert.Contains(t, []string{"id-1", "id-2"}, identity.ID)

	saved := store.Calls[len(store.Calls)-1].Arguments.Get(0).(*models.Player)
	assert.Equal(t, models.FactionCult, saved.Faction)
	assert.Equal(t, "alice", saved.Username)
	if assert.NotNil(t, saved.IdentityID) {
		assert.Equal(t, identity.ID, *saved.IdentityID)
	}
}

// TestJoinCult_BureauRejected verifies that defection is one-way: a
// bureau agent can never come back to the cult.
func TestJoinCult_BureauRejected(t *testing.T) {
	store := new(MockRosterStore)
	svc := roster.NewService(store)
	store.On("GetPlayerByTelegramID", int64(100)).Return(&models.Player{
		TelegramID: 100, Faction: models.FactionBureau,
	}, nil)

	_, err := svc.JoinCult(100, "alice")

	assert.ErrorIs(t, err, gameerr.ErrPermissionDenied)
	assert.Equal(t, "cult_rejects_bureau", gameerr.TextKeyOf(err, ""))
	store.AssertNotCalled(t, "SavePlayer", mock.Anything)
}

// TestJoinCult_Twice verifies that re-joining does not reroll the identity.
func TestJoinCult_Twice(t *testing.T) {
	store := new(MockRosterStore)
	svc := roster.NewService(store)
	identityID := "id-1"
	store.On("GetPlayerByTelegramID", int64(100)).Return(&models.Player{
		TelegramID: 100, Faction: models.FactionCult, IdentityID: &identityID,
	}, nil)

	_, err := svc.JoinCult(100, "alice")

	assert.ErrorIs(t, err, gameerr.ErrPreconditionFailed)
	assert.Equal(t, "already_cult", gameerr.TextKeyOf(err, ""))
}

// TestJoinBureau_DefectionPenalty verifies that a cult member pays the
// penalty exactly once and keeps their identity reference.
func TestJoinBureau_DefectionPenalty(t *testing.T) {
	// Arrange
	store := new(MockRosterStore)
	svc := roster.NewService(store)
	identityID := "id-1"
	store.On("GetPlayerByTelegramID", int64(100)).Return(&models.Player{
		TelegramID: 100, Faction: models.FactionCult, IdentityID: &identityID,
	}, nil).Once()
	store.On("AddScore", int64(100), config.DefectionPenalty).Return(-10, nil).Once()
	store.On("SavePlayer", mock.AnythingOfType("*models.Player")).Return(nil)

	// Act
	result, err := svc.JoinBureau(100, "alice")

	// Assert
	assert.NoError(t, err)
	assert.True(t, result.Penalized)
	assert.Equal(t, -10, result.NewScore)

	saved := store.Calls[len(store.Calls)-1].Arguments.Get(0).(*models.Player)
	assert.Equal(t, models.FactionBureau, saved.Faction)
	assert.NotNil(t, saved.IdentityID, "identity stays as report ground truth")

	// A second defection attempt fails without charging again.
	store.On("GetPlayerByTelegramID", int64(100)).Return(&models.Player{
		TelegramID: 100, Faction: models.FactionBureau, IdentityID: &identityID,
	}, nil).Once()

	_, err = svc.JoinBureau(100, "alice")
	assert.Equal(t, "already_bureau", gameerr.TextKeyOf(err, ""))
	store.AssertNumberOfCalls(t, "AddScore", 1)
}

// TestJoinBureau_FreshPlayer verifies that joining straight from outside
// carries no penalty.
func TestJoinBureau_FreshPlayer(t *testing.T) {
	store := new(MockRosterStore)
	svc := roster.NewService(store)
	store.On("GetPlayerByTelegramID", int64(200)).Return(nil, nil)
	store.On("SavePlayer", mock.AnythingOfType("*models.Player")).Return(nil)

	result, err := svc.JoinBureau(200, "bob")

	assert.NoError(t, err)
	assert.False(t, result.Penalized)
	assert.False(t, result.Betrayed)
	store.AssertNotCalled(t, "AddScore", mock.Anything, mock.Anything)
}
