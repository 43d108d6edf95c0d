package models

import "time"

// QuizAnswer records one response to one hint. A nil FighterID means the
// participant passed. The (session, user, hint_index) unique index stops the
// same user responding twice to one hint, even on racing duplicate requests.
type QuizAnswer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   uint      `gorm:"not null;uniqueIndex:idx_quiz_answer_hint" json:"session_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_quiz_answer_hint" json:"user_id"`
	FighterID   *uint     `json:"fighter_id,omitempty"`
	Fighter     *Fighter  `gorm:"foreignKey:FighterID" json:"fighter,omitempty"`
	IsCorrect   bool      `gorm:"not null;default:false" json:"is_correct"`
	HintIndex   int       `gorm:"not null;uniqueIndex:idx_quiz_answer_hint" json:"hint_index"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
}

func (a *QuizAnswer) Passed() bool {
	return a.FighterID == nil
}
