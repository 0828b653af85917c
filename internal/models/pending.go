package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PendingSubmission is an evidence photo queued for human moderation.
// It snapshots the event facts at intake time, because the active event
// may rotate while the moderator sits on the queue. The row is removed on
// the first successful accept or reject; a second press on the same card
// finds nothing and is reported back to the moderator.
type PendingSubmission struct {
	ID               string `gorm:"primaryKey"`
	UserID           int64  `gorm:"index;not null"`
	Username         string
	VictimID         string `gorm:"index;not null"`
	VictimName       string `gorm:"type:text"`
	Ritual           string `gorm:"type:text"`
	Place            string `gorm:"type:text"`
	WeaponCode       string `gorm:"type:text;not null"`
	WeaponName       string `gorm:"type:text"`
	PhotoRef         string `gorm:"type:text;not null"`
	ControlMessageID int    `gorm:"index"`
	CreatedAt        time.Time
}

// BeforeCreate — GORM hook that assigns a UUID if the ID is not set yet.
func (p *PendingSubmission) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}
