package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Case status values.
const (
	CaseOpen   = "open"
	CaseClosed = "closed"
)

// Case is one investigatable unit, derived exactly once from a
// (victim, report index) pair. It is never deleted; the investigation
// service is the only writer after creation (appending attempts and
// flipping the status on the single closing attempt).
type Case struct {
	ID               string `gorm:"primaryKey"`
	CaseCode         string `gorm:"uniqueIndex;not null"`
	VictimID         string `gorm:"uniqueIndex:idx_case_victim_report;not null"`
	ReportIndex      int    `gorm:"uniqueIndex:idx_case_victim_report;not null"`
	VictimName       string `gorm:"type:text"`
	Ritual           string `gorm:"type:text"`
	Place            string `gorm:"type:text"`
	DegradedPhotoRef string `gorm:"type:text"`
	Status           string `gorm:"type:text;not null;default:'open'"`
	SolvedBy         *int64
	SolvedAt         *time.Time
	CreatedAt        time.Time

	Attempts []Attempt `gorm:"foreignKey:CaseID"`
}

// BeforeCreate — GORM hook that assigns a UUID if the ID is not set yet.
func (c *Case) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// IsOpen reports whether the case can still be attempted.
func (c *Case) IsOpen() bool { return c.Status == CaseOpen }

// AttemptBy returns the agent's recorded attempt for this case, or nil.
func (c *Case) AttemptBy(agentID int64) *Attempt {
	for i := range c.Attempts {
		if c.Attempts[i].AgentID == agentID {
			return &c.Attempts[i]
		}
	}
	return nil
}

// Attempt is one investigator's single try at closing a case. Immutable
// once appended; at most one per agent per case, and at most one with
// ClosedCase set across the whole case.
type Attempt struct {
	ID      uint   `gorm:"primaryKey"`
	CaseID  string `gorm:"uniqueIndex:idx_case_agent;not null"`
	AgentID int64  `gorm:"uniqueIndex:idx_case_agent;not null"`

	VictimGuess string `gorm:"type:text"`
	WeaponGuess string `gorm:"type:text"`
	MaskGuess   string `gorm:"type:text"`
	RitualGuess string `gorm:"type:text"`

	VictimOK bool
	WeaponOK bool
	MaskOK   bool
	RitualOK bool
	// MaskCheckable is false when the underlying report had no resolvable
	// identity; the mask fact then counts as failed, never as passed.
	MaskCheckable bool

	ClosedCase bool
	CreatedAt  time.Time
}
