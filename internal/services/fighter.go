package services

import (
	"math/rand"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/models"

	"gorm.io/gorm"
)

// FighterService is the read-only fighter catalog the game engines consume.
type FighterService struct {
	db *gorm.DB
}

func NewFighterService(db *gorm.DB) *FighterService {
	return &FighterService{db: db}
}

func (s *FighterService) GetFighter(fighterID uint) (*models.Fighter, error) {
	var fighter models.Fighter
	if err := s.db.First(&fighter, fighterID).Error; err != nil {
		return nil, err
	}
	return &fighter, nil
}

func (s *FighterService) ListActive() ([]models.Fighter, error) {
	var fighters []models.Fighter
	if err := s.db.Where("is_active = ?", true).
		Order("full_name_hiragana ASC").
		Find(&fighters).Error; err != nil {
		return nil, err
	}
	return fighters, nil
}

// SearchByHiragana is the incremental search used while picking a fighter on
// your turn.
func (s *FighterService) SearchByHiragana(query string, limit int) ([]models.Fighter, error) {
	if query == "" {
		return nil, nil
	}
	var fighters []models.Fighter
	if err := s.db.Where("is_active = ?", true).
		Where("full_name_hiragana LIKE ?", "%"+query+"%").
		Order("full_name_hiragana ASC").
		Limit(limit).
		Find(&fighters).Error; err != nil {
		return nil, err
	}
	return fighters, nil
}

// QuizEligible returns fighters with at least one registered feature; only
// those can be quiz targets.
func (s *FighterService) QuizEligible() ([]models.Fighter, error) {
	var fighters []models.Fighter
	if err := s.db.
		Joins("JOIN fighter_features ON fighter_features.fighter_id = fighters.id").
		Distinct("fighters.*").
		Find(&fighters).Error; err != nil {
		return nil, err
	}
	return fighters, nil
}

// RandomEligible samples one quiz-eligible fighter uniformly.
func (s *FighterService) RandomEligible() (*models.Fighter, error) {
	fighters, err := s.QuizEligible()
	if err != nil {
		return nil, err
	}
	if len(fighters) == 0 {
		return nil, ErrNoEligibleFighters
	}
	f := fighters[rand.Intn(len(fighters))]
	return &f, nil
}

// OrderedFeatures returns the fighter's features hardest-first: ascending
// level (1 = most specific) with creation order breaking ties.
func (s *FighterService) OrderedFeatures(fighterID uint) ([]models.FighterFeature, error) {
	var features []models.FighterFeature
	if err := s.db.Where("fighter_id = ?", fighterID).
		Preload("Category").
		Order("level ASC").
		Order("id ASC").
		Find(&features).Error; err != nil {
		return nil, err
	}
	return features, nil
}
