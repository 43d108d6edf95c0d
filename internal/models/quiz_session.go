package models

import "time"

type QuizStatus string

const (
	QuizStatusWaiting QuizStatus = "waiting"
	QuizStatusStarted QuizStatus = "started"
	QuizStatusEnded   QuizStatus = "ended"
)

func (s QuizStatus) CanTransitionTo(next QuizStatus) bool {
	switch s {
	case QuizStatusWaiting:
		return next == QuizStatusStarted
	case QuizStatusStarted:
		return next == QuizStatusEnded
	default:
		return false
	}
}

type QuizSession struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	Status           QuizStatus        `gorm:"size:20;not null;default:'waiting'" json:"status"`
	CreatorID        uint              `gorm:"not null;index" json:"creator_id"`
	Creator          User              `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"creator,omitempty"`
	TargetFighterID  uint              `gorm:"not null" json:"-"`
	TargetFighter    Fighter           `gorm:"foreignKey:TargetFighterID" json:"-"`
	CurrentHintIndex int               `gorm:"not null;default:0" json:"current_hint_index"`
	SoloMode         bool              `gorm:"not null;default:false" json:"solo_mode"`
	WinnerUserID     *uint             `json:"winner_user_id,omitempty"`
	Participants     []QuizParticipant `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Answers          []QuizAnswer      `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	Hints            []QuizHint        `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	EndedAt          *time.Time        `json:"ended_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}
