package models

import "time"

type GameStatus string

const (
	GameStatusWaiting  GameStatus = "waiting"
	GameStatusPlaying  GameStatus = "playing"
	GameStatusFinished GameStatus = "finished"
)

// CanTransitionTo enforces the one-directional lifecycle
// waiting -> playing -> finished; nothing re-enters an earlier state.
func (s GameStatus) CanTransitionTo(next GameStatus) bool {
	switch s {
	case GameStatusWaiting:
		return next == GameStatusPlaying
	case GameStatusPlaying:
		return next == GameStatusFinished
	default:
		return false
	}
}

type GameSession struct {
	ID                  uint         `gorm:"primaryKey" json:"id"`
	Name                string       `gorm:"size:100;not null" json:"name"`
	Status              GameStatus   `gorm:"size:20;not null;default:'waiting'" json:"status"`
	CreatorID           uint         `gorm:"not null;index" json:"creator_id"`
	Creator             User         `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"creator,omitempty"`
	CurrentTurnPlayerID *uint        `gorm:"index" json:"current_turn_player_id,omitempty"`
	Players             []GamePlayer `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"players,omitempty"`
	UsedFighters        []UsedFighter `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"used_fighters,omitempty"`
	StartedAt           *time.Time   `json:"started_at,omitempty"`
	EndedAt             *time.Time   `json:"ended_at,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
}
