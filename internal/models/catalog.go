package models

import (
	"time"

	"github.com/lib/pq" // needed for pq.StringArray
)

// Victim is a catalog entry an event can be assigned to. Once an event has
// used a victim, the victim is never selected again (see UsedVictim).
type Victim struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:text;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	PhotoRef    string `gorm:"type:text" json:"photo"`
}

// Weapon is a catalog entry. Codes is the accepted identifier set for the
// weapon; a claim is valid iff its normalized code is a member.
type Weapon struct {
	Name  string         `gorm:"primaryKey" json:"name"`
	Codes pq.StringArray `gorm:"type:text[]" json:"ids"`
}

// HasCode reports whether the (already normalized) code belongs to this weapon.
func (w *Weapon) HasCode(code string) bool {
	for _, c := range w.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// Ritual is a catalog entry: one of the finite ritual types.
type Ritual struct {
	Name string `gorm:"primaryKey" json:"name"`
}

// Place is a catalog entry: one of the finite event locations.
type Place struct {
	Name string `gorm:"primaryKey" json:"name"`
}

// UsedVictim records a victim permanently consumed by event generation.
// Rows are only ever inserted, never deleted, so selection history
// survives restarts.
type UsedVictim struct {
	VictimID string    `gorm:"primaryKey"`
	UsedAt   time.Time `gorm:"autoCreateTime"`
}
