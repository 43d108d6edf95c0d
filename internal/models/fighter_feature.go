package models

import "time"

// Feature specificity levels. Level 1 hints are the hardest (most specific),
// level 3 the easiest (most generic). Quiz hints are revealed level 1 first.
const (
	FeatureLevelSpecific = 1
	FeatureLevelNormal   = 2
	FeatureLevelGeneric  = 3
)

type FighterFeatureCategory struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

type FighterFeature struct {
	ID         uint                   `gorm:"primaryKey" json:"id"`
	FighterID  uint                   `gorm:"not null;index" json:"fighter_id"`
	CategoryID uint                   `gorm:"not null;index" json:"category_id"`
	Category   FighterFeatureCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Feature    string                 `gorm:"type:text;not null" json:"feature"`
	Level      int                    `gorm:"not null;default:2" json:"level"`
	CreatedAt  time.Time              `json:"created_at"`
}
