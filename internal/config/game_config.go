package config

import "time"

const (
	// Reports
	MaxReportsPerVictim = 3
	ReportReward        = 1

	// Investigation
	SolveReward       = 1
	VictimDecoyCount  = 3
	MaskDecoyCount    = 4
	MinWeaponIDLength = 2
	MaxWeaponIDLength = 32

	// Factions
	DefectionPenalty      = -10
	BetrayalBroadcastOdds = 0.5
	InviteLinkMemberLimit = 1

	// Event cycle
	EventInterval   = 150 * time.Second
	TimestampOffset = 3 * time.Hour
)

// Case codes are derived from the victim id over this alphabet
// (no 0/1/I/O to keep them readable on a phone screen).
const CaseCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
