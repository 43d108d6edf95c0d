package models

import "time"

// UsedFighter marks a fighter as consumed within one game session. The
// (session, fighter) unique index is the race backstop for the "no fighter
// twice per game" rule.
type UsedFighter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;uniqueIndex:idx_used_fighter" json:"session_id"`
	FighterID uint      `gorm:"not null;uniqueIndex:idx_used_fighter" json:"fighter_id"`
	Fighter   Fighter   `gorm:"foreignKey:FighterID" json:"fighter,omitempty"`
	UsedByID  uint      `gorm:"not null" json:"used_by_id"`
	UsedBy    User      `gorm:"foreignKey:UsedByID" json:"used_by,omitempty"`
	UsedAt    time.Time `gorm:"not null" json:"used_at"`
}
