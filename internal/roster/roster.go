// Package roster tracks faction membership and the secret identities
// handed out to cult members.
package roster

import (
	"log"
	"math/rand/v2"
	"sync"

	"cultgo/backend/internal/config"
	"cultgo/backend/internal/gameerr"
	"cultgo/backend/internal/models"
)

// Store is the storage surface the roster needs.
type Store interface {
	GetPlayerByTelegramID(telegramID int64) (*models.Player, error)
	SavePlayer(player *models.Player) error
	ListIdentities() ([]models.SecretIdentity, error)
	GetIdentityByID(identityID string) (*models.SecretIdentity, error)
	AddScore(userID int64, delta int) (int, error)
}

// Service manages faction choices. All mutations of a player's record are
// serialized behind one mutex so two button presses from the same user
// cannot interleave their read-check-write sequences.
type Service struct {
	store Store
	rng   *rand.Rand
	mu    sync.Mutex
}

// NewService creates a roster service.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// DefectionResult is the outcome of a cult member switching to the bureau.
type DefectionResult struct {
	NewScore int
	// Penalized is true when the player came from the cult and paid for it.
	Penalized bool
	// Betrayed is true when the cult channel is told about the defection.
	Betrayed bool
}

// JoinCult enrolls the user in the cult and assigns a secret identity.
// Identities are drawn random-with-replacement: two players may share one.
// A bureau agent cannot come back: defection is permanent.
func (s *Service) JoinCult(telegramID int64, username string) (*models.SecretIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.store.GetPlayerByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if player != nil && player.IsBureau() {
		return nil, gameerr.New(gameerr.ErrPermissionDenied, "cult_rejects_bureau")
	}
	if player != nil && player.IsCult() {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "already_cult")
	}

	identities, err := s.store.ListIdentities()
	if err != nil {
		return nil, err
	}
	if len(identities) == 0 {
		return nil, gameerr.New(gameerr.ErrNotFound, "no_identities")
	}
	identity := identities[s.rng.IntN(len(identities))]

	if player == nil {
		player = &models.Player{TelegramID: telegramID}
	}
	player.Username = username
	player.Faction = models.FactionCult
	player.IdentityID = &identity.ID
	if err := s.store.SavePlayer(player); err != nil {
		return nil, err
	}
	return &identity, nil
}

// JoinBureau moves the user to the bureau. A cult member pays the
// defection penalty exactly once; repeating the request afterwards fails
// instead of charging again.
func (s *Service) JoinBureau(telegramID int64, username string) (*DefectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.store.GetPlayerByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if player != nil && player.IsBureau() {
		return nil, gameerr.New(gameerr.ErrPreconditionFailed, "already_bureau")
	}

	result := &DefectionResult{}
	if player != nil && player.IsCult() {
		newScore, err := s.store.AddScore(telegramID, config.DefectionPenalty)
		if err != nil {
			return nil, err
		}
		result.NewScore = newScore
		result.Penalized = true
		result.Betrayed = s.rng.Float64() < config.BetrayalBroadcastOdds
		log.Printf("Player %d defected from the cult, score now %d", telegramID, newScore)
	}

	if player == nil {
		player = &models.Player{TelegramID: telegramID}
	}
	player.Username = username
	// IdentityID is kept on purpose: it stays the ground truth for the
	// reports this player filed while in the cult.
	player.Faction = models.FactionBureau
	if err := s.store.SavePlayer(player); err != nil {
		return nil, err
	}
	return result, nil
}

// IdentityOf resolves the secret identity currently tied to the user, or
// nil if they never enrolled in the cult.
func (s *Service) IdentityOf(telegramID int64) (*models.SecretIdentity, error) {
	player, err := s.store.GetPlayerByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if player == nil || player.IdentityID == nil {
		return nil, nil
	}
	return s.store.GetIdentityByID(*player.IdentityID)
}

// RequireFaction returns the player if they hold the given faction, and a
// PermissionDenied error otherwise.
func (s *Service) RequireFaction(telegramID int64, faction string) (*models.Player, error) {
	player, err := s.store.GetPlayerByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if player == nil || player.Faction != faction {
		return nil, gameerr.New(gameerr.ErrPermissionDenied, "wrong_faction")
	}
	return player, nil
}
