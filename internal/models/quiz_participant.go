package models

import "time"

type QuizParticipant struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SessionID   uint       `gorm:"not null;uniqueIndex:idx_quiz_participant" json:"session_id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_quiz_participant" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	MissCount   int        `gorm:"not null;default:0" json:"miss_count"`
	Points      int        `gorm:"not null;default:0" json:"points"`
	AnsweredAt  *time.Time `json:"answered_at,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	IsWinner    bool       `gorm:"not null;default:false" json:"is_winner"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Answered reports whether this participant has already guessed correctly.
// AnsweredAt is only ever cleared by the full reset at session start.
func (p *QuizParticipant) Answered() bool {
	return p.AnsweredAt != nil
}

func (p *QuizParticipant) Connected() bool {
	return p.ConnectedAt != nil
}
