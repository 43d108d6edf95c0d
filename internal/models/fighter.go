package models

import (
	"fmt"
	"time"
)

type Fighter struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	FullName         string           `gorm:"size:100;uniqueIndex;not null" json:"full_name"`
	FullNameHiragana string           `gorm:"size:100;uniqueIndex;not null" json:"full_name_hiragana"`
	RingName         string           `gorm:"size:100;default:''" json:"ring_name,omitempty"`
	IsActive         bool             `gorm:"not null;default:true" json:"is_active"`
	Features         []FighterFeature `gorm:"foreignKey:FighterID" json:"features,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// DisplayName returns "本名（リングネーム）" when a ring name is registered.
func (f *Fighter) DisplayName() string {
	if f.RingName != "" {
		return fmt.Sprintf("%s（%s）", f.FullName, f.RingName)
	}
	return f.FullName
}
