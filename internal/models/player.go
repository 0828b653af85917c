package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Faction values a player can hold. A player has at most one at a time.
const (
	FactionNone   = "none"
	FactionCult   = "cult"
	FactionBureau = "bureau"
)

// Player represents a participant in the game.
// A player is created on their first faction choice. IdentityID is set once
// per cult enrollment and survives a later defection: it stays the ground
// truth for reports the player filed while in the cult.
type Player struct {
	ID         string `gorm:"primaryKey" json:"id"`
	TelegramID int64  `gorm:"uniqueIndex"`
	Username   string
	Faction    string  `gorm:"type:text;not null;default:'none'"`
	IdentityID *string `gorm:"index"`
}

// BeforeCreate — GORM hook that assigns a UUID if the ID is not set yet.
func (p *Player) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

// IsCult reports whether the player currently belongs to the cult.
func (p *Player) IsCult() bool { return p.Faction == FactionCult }

// IsBureau reports whether the player currently belongs to the bureau.
func (p *Player) IsBureau() bool { return p.Faction == FactionBureau }
