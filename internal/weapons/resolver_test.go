package weapons_test

import (
	"testing"

	"cultgo/backend/internal/gameerr"
	"cultgo/backend/internal/models"
	"cultgo/backend/internal/weapons"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockResolverStore is a mock implementation of the weapons.Store interface.
type MockResolverStore struct {
	mock.Mock
}

func (m *MockResolverStore) GetActiveEvent() (*models.Event, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockResolverStore) GetWeaponByName(name string) (*models.Weapon, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Weapon), args.Error(1)
}

func (m *MockResolverStore) GetReportsForVictim(victimID string) ([]models.Report, error) {
	args := m.Called(victimID)
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockResolverStore) UpsertClaim(eventID string, userID int64, code string) error {
	args := m.Called(eventID, userID, code)
	return args.Error(0)
}

func activeEvent() *models.Event {
	return &models.Event{
		ID:         "event-1",
		VictimID:   "victim-1",
		WeaponName: "Ritual Dagger",
	}
}

// TestSubmitClaim_Accepted verifies the happy path: a prefixed, messy code
// is normalized and recorded for the active event.
func TestSubmitClaim_Accepted(t *testing.T) {
	// Arrange
	store := new(MockResolverStore)
	resolver := weapons.NewResolver(store)

	store.On("GetActiveEvent").Return(activeEvent(), nil)
	store.On("GetWeaponByName", "Ritual Dagger").Return(&models.Weapon{
		Name:  "Ritual Dagger",
		Codes: pq.StringArray{"QW34", "QW35"},
	}, nil)
	store.On("GetReportsForVictim", "victim-1").Return([]models.Report{}, nil)
	store.On("UpsertClaim", "event-1", int64(100), "QW34").Return(nil)

	// Act
	code, err := resolver.SubmitClaim(100, "т: qw34")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "QW34", code)
	store.AssertExpectations(t)
}

// TestSubmitClaim_DeepLinkCode verifies that a bare code, as delivered by
// a "/start weapon-XXXX" deep link, is claimed without any prefix.
func TestSubmitClaim_DeepLinkCode(t *testing.T) {
	// Arrange
	store := new(MockResolverStore)
	resolver := weapons.NewResolver(store)

	store.On("GetActiveEvent").Return(activeEvent(), nil)
	store.On("GetWeaponByName", "Ritual Dagger").Return(&models.Weapon{
		Name:  "Ritual Dagger",
		Codes: pq.StringArray{"QW34"},
	}, nil)
	store.On("GetReportsForVictim", "victim-1").Return([]models.Report{}, nil)
	store.On("UpsertClaim", "event-1", int64(100), "QW34").Return(nil)

	// Act
	code, err := resolver.SubmitClaim(100, "QW34")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "QW34", code)
	store.AssertExpectations(t)
}

// TestSubmitClaim_WrongCode verifies that a well-formed code for the wrong
// weapon is rejected without touching the claim map.
func TestSubmitClaim_WrongCode(t *testing.T) {
	// Arrange
	store := new(MockResolverStore)
	resolver := weapons.NewResolver(store)

	store.On("GetActiveEvent").Return(activeEvent(), nil)
	store.On("GetWeaponByName", "Ritual Dagger").Return(&models.Weapon{
		Name:  "Ritual Dagger",
		Codes: pq.StringArray{"QW34"},
	}, nil)

	// Act
	_, err := resolver.SubmitClaim(100, "weapon:ZZ99")

	// Assert
	assert.ErrorIs(t, err, gameerr.ErrPreconditionFailed)
	assert.Equal(t, "weapon_code_mismatch", gameerr.TextKeyOf(err, ""))
	store.AssertNotCalled(t, "UpsertClaim", mock.Anything, mock.Anything, mock.Anything)
}

// TestSubmitClaim_NoActiveEvent verifies the rejection between events.
func TestSubmitClaim_NoActiveEvent(t *testing.T) {
	store := new(MockResolverStore)
	resolver := weapons.NewResolver(store)
	store.On("GetActiveEvent").Return(nil, nil)

	_, err := resolver.SubmitClaim(100, "weapon:QW34")

	assert.ErrorIs(t, err, gameerr.ErrPreconditionFailed)
	assert.Equal(t, "no_active_event", gameerr.TextKeyOf(err, ""))
}

// TestSubmitClaim_AfterReport verifies that a user with an accepted report
// for the current victim cannot claim again.
func TestSubmitClaim_AfterReport(t *testing.T) {
	store := new(MockResolverStore)
	resolver := weapons.NewResolver(store)

	store.On("GetActiveEvent").Return(activeEvent(), nil)
	store.On("GetWeaponByName", "Ritual Dagger").Return(&models.Weapon{
		Name:  "Ritual Dagger",
		Codes: pq.StringArray{"QW34"},
	}, nil)
	store.On("GetReportsForVictim", "victim-1").Return([]models.Report{
		{VictimID: "victim-1", UserID: 100, ReportIndex: 0},
	}, nil)

	_, err := resolver.SubmitClaim(100, "weapon:QW34")

	assert.ErrorIs(t, err, gameerr.ErrPreconditionFailed)
	assert.Equal(t, "already_reported", gameerr.TextKeyOf(err, ""))
	store.AssertNotCalled(t, "UpsertClaim", mock.Anything, mock.Anything, mock.Anything)
}

// TestSubmitClaim_BadShape verifies that malformed input never reaches
// the store at all.
func TestSubmitClaim_BadShape(t *testing.T) {
	store := new(MockResolverStore)
	resolver := weapons.NewResolver(store)

	_, err := resolver.SubmitClaim(100, "weapon:Q")
	assert.Equal(t, "weapon_code_too_short", gameerr.TextKeyOf(err, ""))

	_, err = resolver.SubmitClaim(100, "weapon:Q#34")
	assert.Equal(t, "weapon_code_invalid", gameerr.TextKeyOf(err, ""))

	store.AssertNotCalled(t, "GetActiveEvent")
}
