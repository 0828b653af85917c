package models

// ScoreEntry is one row of a leaderboard.
type ScoreEntry struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Score    int    `json:"score"`
}
