// Package scoring exposes faction-scoped leaderboards over the Redis
// score ledger. Score mutations happen at their triggering events (report
// accepted, case closed, defection); this service only reads and the
// admin surface only force-sets.
package scoring

import (
	"sort"

	"cultgo/backend/internal/models"
)

// Store is the storage surface the ledger views need.
type Store interface {
	ListPlayersByFaction(faction string) ([]models.Player, error)
	GetScore(userID int64) (int, error)
	SetScore(userID int64, score int) error
}

type Service struct {
	store Store
}

// NewService creates the scoring view service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// BoardFaction picks the leaderboard a player gets to see: bureau agents
// see the bureau ranking, everyone else (cultists included, factionless
// included) sees the cult ranking.
func BoardFaction(p *models.Player) string {
	if p != nil && p.IsBureau() {
		return models.FactionBureau
	}
	return models.FactionCult
}

// Leaderboard returns the top entries for one faction, highest first.
func (s *Service) Leaderboard(faction string, limit int) ([]models.ScoreEntry, error) {
	players, err := s.store.ListPlayersByFaction(faction)
	if err != nil {
		return nil, err
	}
	entries := make([]models.ScoreEntry, 0, len(players))
	for _, p := range players {
		score, err := s.store.GetScore(p.TelegramID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.ScoreEntry{UserID: p.TelegramID, Username: p.Username, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// ScoreOf returns one user's current score.
func (s *Service) ScoreOf(userID int64) (int, error) {
	return s.store.GetScore(userID)
}

// ForceSet overwrites a user's score. Admin surface only.
func (s *Service) ForceSet(userID int64, score int) error {
	return s.store.SetScore(userID, score)
}
