package storage

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"cultgo/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	scoreKey    = "scores"
	feedChannel = "game:feed"
)

// ListVictims returns the full victim catalog.
func (s *Service) ListVictims() ([]models.Victim, error) {
	var victims []models.Victim
	return victims, s.DB.Find(&victims).Error
}

// GetVictimByID returns the victim, or nil when the id is unknown.
func (s *Service) GetVictimByID(victimID string) (*models.Victim, error) {
	var victim models.Victim
	err := s.DB.Where("id = ?", victimID).First(&victim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &victim, nil
}

// ListWeapons returns the full weapon catalog.
func (s *Service) ListWeapons() ([]models.Weapon, error) {
	var weapons []models.Weapon
	return weapons, s.DB.Find(&weapons).Error
}

// GetWeaponByName returns the weapon with its accepted code set, or nil.
func (s *Service) GetWeaponByName(name string) (*models.Weapon, error) {
	var weapon models.Weapon
	err := s.DB.Where("name = ?", name).First(&weapon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &weapon, nil
}

// ListRituals returns the ritual catalog entries by name.
func (s *Service) ListRituals() ([]string, error) {
	var names []string
	return names, s.DB.Model(&models.Ritual{}).Pluck("name", &names).Error
}

// ListPlaces returns the place catalog entries by name.
func (s *Service) ListPlaces() ([]string, error) {
	var names []string
	return names, s.DB.Model(&models.Place{}).Pluck("name", &names).Error
}

// ListIdentities returns the secret identity catalog.
func (s *Service) ListIdentities() ([]models.SecretIdentity, error) {
	var identities []models.SecretIdentity
	return identities, s.DB.Find(&identities).Error
}

// GetIdentityByID returns the identity, or nil when the reference is
// dangling (legacy reports may carry ids the catalog no longer has).
func (s *Service) GetIdentityByID(identityID string) (*models.SecretIdentity, error) {
	var identity models.SecretIdentity
	err := s.DB.Where("id = ?", identityID).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// ListOpenCases returns all cases still open, oldest first.
func (s *Service) ListOpenCases() ([]models.Case, error) {
	var cases []models.Case
	err := s.DB.Preload("Attempts").Where("status = ?", models.CaseOpen).
		Order("created_at asc").Find(&cases).Error
	if err != nil {
		log.Printf("ERROR: Failed to list open cases: %v", err)
		return nil, err
	}
	return cases, nil
}

// GetCaseByID returns the case with its attempt history, or nil.
func (s *Service) GetCaseByID(caseID string) (*models.Case, error) {
	var c models.Case
	err := s.DB.Preload("Attempts").Where("id = ?", caseID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCaseByKey returns the case for a (victim, report index) pair, or nil.
func (s *Service) GetCaseByKey(victimID string, reportIndex int) (*models.Case, error) {
	var c models.Case
	err := s.DB.Where("victim_id = ? AND report_index = ?", victimID, reportIndex).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCase stores a freshly derived case. The unique index on
// (victim_id, report_index) keeps re-derivation from duplicating it.
func (s *Service) CreateCase(c *models.Case) error {
	if err := s.DB.Create(c).Error; err != nil {
		log.Printf("ERROR: Failed to create case %s: %v", c.CaseCode, err)
		return err
	}
	return nil
}

// AppendAttempt records an investigator's attempt. The unique index on
// (case_id, agent_id) enforces one attempt per agent per case.
func (s *Service) AppendAttempt(attempt *models.Attempt) error {
	return s.DB.Create(attempt).Error
}

// CloseCase flips the case to closed and records the solver. The status
// guard in the WHERE clause makes a concurrent double close a no-op.
func (s *Service) CloseCase(caseID string, agentID int64, at time.Time) error {
	res := s.DB.Model(&models.Case{}).
		Where("id = ? AND status = ?", caseID, models.CaseOpen).
		Updates(map[string]interface{}{
			"status":    models.CaseClosed,
			"solved_by": agentID,
			"solved_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("case already closed")
	}
	return nil
}

// AddScore adjusts a user's score in the Redis ledger and returns the new
// total.
func (s *Service) AddScore(userID int64, delta int) (int, error) {
	total, err := s.Redis.ZIncrBy(s.Ctx, scoreKey, float64(delta), strconv.FormatInt(userID, 10)).Result()
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// GetScore returns a user's current score (zero for unknown users).
func (s *Service) GetScore(userID int64) (int, error) {
	score, err := s.Redis.ZScore(s.Ctx, scoreKey, strconv.FormatInt(userID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(score), nil
}

// SetScore overwrites a user's score (admin surface only).
func (s *Service) SetScore(userID int64, score int) error {
	return s.Redis.ZAdd(s.Ctx, scoreKey, redis.Z{
		Score:  float64(score),
		Member: strconv.FormatInt(userID, 10),
	}).Err()
}

// PublishUpdate pushes a game feed update through Redis Pub/Sub.
func (s *Service) PublishUpdate(update models.GameUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, feedChannel, string(payload)).Err()
}

// SubscribeUpdates subscribes to the game feed channel.
func (s *Service) SubscribeUpdates() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, feedChannel)
}
