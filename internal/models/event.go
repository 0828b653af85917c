package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is the single currently active assignment: one victim plus a
// randomized ritual, weapon and place. Exactly one row is live at a time;
// generating a new event replaces the previous row and its claim map in
// one transaction.
type Event struct {
	ID                string `gorm:"primaryKey"`
	VictimID          string `gorm:"index;not null"`
	VictimName        string `gorm:"type:text;not null"`
	VictimDescription string `gorm:"type:text"`
	VictimPhotoRef    string `gorm:"type:text"`
	Ritual            string `gorm:"type:text;not null"`
	WeaponName        string `gorm:"type:text;not null"`
	Place             string `gorm:"type:text;not null"`
	CreatedAt         time.Time

	// Claims maps users to the weapon code they announced for this event.
	Claims []WeaponClaim `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate — GORM hook that assigns a UUID if the ID is not set yet.
func (e *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return
}

// ClaimFor returns the user's claim for this event, or nil.
func (e *Event) ClaimFor(userID int64) *WeaponClaim {
	for i := range e.Claims {
		if e.Claims[i].UserID == userID {
			return &e.Claims[i]
		}
	}
	return nil
}

// WeaponClaim is one user's accepted weapon code for the active event.
// At most one claim per user per event; a later claim replaces the
// earlier one until the user submits evidence.
type WeaponClaim struct {
	ID      uint   `gorm:"primaryKey"`
	EventID string `gorm:"uniqueIndex:idx_event_user;not null"`
	UserID  int64  `gorm:"uniqueIndex:idx_event_user;not null"`
	Code    string `gorm:"type:text;not null"`
}
