package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"cultgo/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Storage interface {
	// Players
	GetPlayerByTelegramID(telegramID int64) (*models.Player, error)
	SavePlayer(player *models.Player) error
	ListPlayersByFaction(faction string) ([]models.Player, error)

	// Catalogs
	ListVictims() ([]models.Victim, error)
	GetVictimByID(victimID string) (*models.Victim, error)
	ListWeapons() ([]models.Weapon, error)
	GetWeaponByName(name string) (*models.Weapon, error)
	ListRituals() ([]string, error)
	ListPlaces() ([]string, error)
	ListIdentities() ([]models.SecretIdentity, error)
	GetIdentityByID(identityID string) (*models.SecretIdentity, error)

	// Active event
	GetActiveEvent() (*models.Event, error)
	ReplaceEvent(event *models.Event) error
	UpsertClaim(eventID string, userID int64, code string) error
	ListUsedVictimIDs() ([]string, error)

	// Reports
	GetReportsForVictim(victimID string) ([]models.Report, error)
	CreateReport(report *models.Report) error

	// Pending moderation queue
	CreatePending(sub *models.PendingSubmission) error
	GetPendingByControlMessageID(msgID int) (*models.PendingSubmission, error)
	GetPendingForUserVictim(userID int64, victimID string) (*models.PendingSubmission, error)
	BindPendingControlMessage(id string, msgID int) error
	DeletePending(id string) (bool, error)

	// Cases
	ListOpenCases() ([]models.Case, error)
	GetCaseByID(caseID string) (*models.Case, error)
	GetCaseByKey(victimID string, reportIndex int) (*models.Case, error)
	CreateCase(c *models.Case) error
	AppendAttempt(attempt *models.Attempt) error
	CloseCase(caseID string, agentID int64, at time.Time) error

	// Score ledger (Redis)
	AddScore(userID int64, delta int) (int, error)
	GetScore(userID int64) (int, error)
	SetScore(userID int64, score int) error

	// Game feed
	PublishUpdate(update models.GameUpdate) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// GetPlayerByTelegramID returns the player, or nil without an error when
// the user never picked a faction.
func (s *Service) GetPlayerByTelegramID(telegramID int64) (*models.Player, error) {
	var player models.Player
	err := s.DB.Where("telegram_id = ?", telegramID).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// SavePlayer upserts the player record.
func (s *Service) SavePlayer(player *models.Player) error {
	return s.DB.Save(player).Error
}

// ListPlayersByFaction returns all players currently in the faction.
func (s *Service) ListPlayersByFaction(faction string) ([]models.Player, error) {
	var players []models.Player
	if err := s.DB.Where("faction = ?", faction).Find(&players).Error; err != nil {
		log.Printf("ERROR: Failed to list %s players: %v", faction, err)
		return nil, err
	}
	return players, nil
}

// GetActiveEvent returns the single live event, or nil without an error
// when no event is active.
func (s *Service) GetActiveEvent() (*models.Event, error) {
	var event models.Event
	err := s.DB.Preload("Claims").Order("created_at desc").First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ReplaceEvent atomically retires the previous event (with its claim map)
// and installs the new one, marking the victim as permanently used. No
// reader sees a partial overwrite: everything happens in one transaction.
func (s *Service) ReplaceEvent(event *models.Event) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.WeaponClaim{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.Event{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.UsedVictim{VictimID: event.VictimID}).Error; err != nil {
			return err
		}
		return tx.Create(event).Error
	})
}

// UpsertClaim records a user's weapon code for the event, replacing any
// earlier claim by the same user.
func (s *Service) UpsertClaim(eventID string, userID int64, code string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ? AND user_id = ?", eventID, userID).
			Delete(&models.WeaponClaim{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.WeaponClaim{EventID: eventID, UserID: userID, Code: code}).Error
	})
}

// ListUsedVictimIDs returns every victim id ever consumed by an event.
func (s *Service) ListUsedVictimIDs() ([]string, error) {
	var ids []string
	if err := s.DB.Model(&models.UsedVictim{}).Pluck("victim_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// GetReportsForVictim returns the victim's report list in episode order.
func (s *Service) GetReportsForVictim(victimID string) ([]models.Report, error) {
	var reports []models.Report
	err := s.DB.Where("victim_id = ?", victimID).
		Order("report_index asc").Find(&reports).Error
	if err != nil {
		log.Printf("ERROR: Failed to get reports for victim %s: %v", victimID, err)
		return nil, err
	}
	return reports, nil
}

// CreateReport appends an immutable accepted report. The composite unique
// indexes on (victim_id, report_index) and (victim_id, user_id) are the
// last line of defense against a double commit.
func (s *Service) CreateReport(report *models.Report) error {
	if err := s.DB.Create(report).Error; err != nil {
		log.Printf("ERROR: Failed to save report for victim %s: %v", report.VictimID, err)
		return err
	}
	return nil
}

// CreatePending queues an evidence photo for moderation.
func (s *Service) CreatePending(sub *models.PendingSubmission) error {
	return s.DB.Create(sub).Error
}

// GetPendingByControlMessageID resolves a moderation card back to its
// pending entry, or nil if it has already been processed.
func (s *Service) GetPendingByControlMessageID(msgID int) (*models.PendingSubmission, error) {
	var sub models.PendingSubmission
	err := s.DB.Where("control_message_id = ?", msgID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetPendingForUserVictim returns the user's queued submission for the
// victim, or nil.
func (s *Service) GetPendingForUserVictim(userID int64, victimID string) (*models.PendingSubmission, error) {
	var sub models.PendingSubmission
	err := s.DB.Where("user_id = ? AND victim_id = ?", userID, victimID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// BindPendingControlMessage attaches the moderation card message id to a
// queued submission.
func (s *Service) BindPendingControlMessage(id string, msgID int) error {
	return s.DB.Model(&models.PendingSubmission{}).
		Where("id = ?", id).
		Update("control_message_id", msgID).Error
}

// DeletePending removes a pending entry and reports whether a row was
// actually deleted. The first accept wins; a second press sees false.
func (s *Service) DeletePending(id string) (bool, error) {
	res := s.DB.Where("id = ?", id).Delete(&models.PendingSubmission{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
