package models

import "time"

// Report is the immutable ground truth of one accepted submission.
// ReportIndex is the position within the victim's report list (the
// "episode number"); at most config.MaxReportsPerVictim exist per victim
// and each user appears at most once across a victim's reports.
type Report struct {
	ID          uint   `gorm:"primaryKey"`
	VictimID    string `gorm:"uniqueIndex:idx_victim_report;uniqueIndex:idx_victim_user;not null"`
	ReportIndex int    `gorm:"uniqueIndex:idx_victim_report;not null"`
	UserID      int64  `gorm:"uniqueIndex:idx_victim_user;not null"`
	Username    string
	IdentityID  *string `gorm:"index"`
	WeaponCode  string  `gorm:"type:text;not null"`
	WeaponName  string  `gorm:"type:text"`
	VictimName  string  `gorm:"type:text"`
	Ritual      string  `gorm:"type:text"`
	Place       string  `gorm:"type:text"`
	PhotoRef    string  `gorm:"type:text"`
	Timestamp   time.Time
}
