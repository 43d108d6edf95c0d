package models

// QuizHint is one entry of the hint sequence materialized when a quiz session
// is created. Freezing the sequence here means feature edits mid-quiz cannot
// shift hint content under CurrentHintIndex.
type QuizHint struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SessionID    uint           `gorm:"not null;uniqueIndex:idx_quiz_hint_order" json:"session_id"`
	FeatureID    uint           `gorm:"not null" json:"feature_id"`
	Feature      FighterFeature `gorm:"foreignKey:FeatureID" json:"feature,omitempty"`
	DisplayOrder int            `gorm:"not null;uniqueIndex:idx_quiz_hint_order" json:"display_order"`
}
