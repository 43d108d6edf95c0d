package models

import "time"

type GamePlayer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionID    uint      `gorm:"not null;uniqueIndex:idx_game_player_user;uniqueIndex:idx_game_player_order" json:"session_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_game_player_user" json:"user_id"`
	User         User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	TurnOrder    int       `gorm:"not null;uniqueIndex:idx_game_player_order" json:"turn_order"`
	IsEliminated bool      `gorm:"not null;default:false" json:"is_eliminated"`
	JoinedAt     time.Time `json:"joined_at"`
}
