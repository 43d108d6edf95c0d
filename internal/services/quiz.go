package services

import (
	"errors"
	"time"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/models"

	"gorm.io/gorm"
)

// QuizService runs the hint-based guessing game. The hint sequence is frozen
// into quiz_hints rows at creation, hardest feature first, so the session's
// CurrentHintIndex always points into a stable list.
type QuizService struct {
	db       *gorm.DB
	fighters *FighterService
	presence *PresenceService
}

func NewQuizService(db *gorm.DB, fighters *FighterService, presence *PresenceService) *QuizService {
	return &QuizService{db: db, fighters: fighters, presence: presence}
}

type AnswerOutcome string

const (
	OutcomeCorrect   AnswerOutcome = "correct"
	OutcomeIncorrect AnswerOutcome = "incorrect"
	OutcomePassed    AnswerOutcome = "passed"
)

// AnswerResult tells the caller what a response triggered, so exactly one
// matching event can be broadcast per state transition.
type AnswerResult struct {
	Outcome      AnswerOutcome `json:"outcome"`
	HintAdvanced bool          `json:"hint_advanced"`
	HintIndex    int           `json:"hint_index"`
	SessionEnded bool          `json:"session_ended"`
	WinnerUserID *uint         `json:"winner_user_id,omitempty"`
}

// HintView is one hint as shown to players. The answer-defining fighter is
// never part of it.
type HintView struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Level    int    `json:"level"`
	Category string `json:"category,omitempty"`
}

// CreateSession builds a quiz session around targetFighterID, or around a
// uniformly sampled quiz-eligible fighter when nil. The creator becomes the
// first participant and the hint sequence is materialized immediately.
func (s *QuizService) CreateSession(creatorID uint, targetFighterID *uint, soloMode bool) (*models.QuizSession, error) {
	var target *models.Fighter
	var err error
	if targetFighterID != nil {
		target, err = s.fighters.GetFighter(*targetFighterID)
	} else {
		target, err = s.fighters.RandomEligible()
	}
	if err != nil {
		return nil, err
	}

	features, err := s.fighters.OrderedFeatures(target.ID)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, ErrNoHints
	}

	var session models.QuizSession
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session = models.QuizSession{
			Status:          models.QuizStatusWaiting,
			CreatorID:       creatorID,
			TargetFighterID: target.ID,
			SoloMode:        soloMode,
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		for i, f := range features {
			hint := models.QuizHint{
				SessionID:    session.ID,
				FeatureID:    f.ID,
				DisplayOrder: i,
			}
			if err := tx.Create(&hint).Error; err != nil {
				return err
			}
		}

		participant := models.QuizParticipant{
			SessionID: session.ID,
			UserID:    creatorID,
		}
		return tx.Create(&participant).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *QuizService) Join(sessionID, userID uint) (*models.QuizParticipant, error) {
	var participant models.QuizParticipant
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var session models.QuizSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if session.Status != models.QuizStatusWaiting {
			return ErrNotJoinable
		}

		var count int64
		if err := tx.Model(&models.QuizParticipant{}).
			Where("session_id = ? AND user_id = ?", sessionID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyJoined
		}

		participant = models.QuizParticipant{SessionID: sessionID, UserID: userID}
		if err := tx.Create(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyJoined
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// Start flips the session to started and resets all per-round participant
// state in the same transaction, so a reused session always begins clean.
func (s *QuizService) Start(sessionID, userID uint) (*models.QuizSession, error) {
	var session models.QuizSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if session.CreatorID != userID {
			return ErrNotCreator
		}
		if !session.Status.CanTransitionTo(models.QuizStatusStarted) {
			return ErrNotWaiting
		}

		var count int64
		if err := tx.Model(&models.QuizParticipant{}).
			Where("session_id = ?", sessionID).
			Count(&count).Error; err != nil {
			return err
		}
		if !session.SoloMode && count < 2 {
			return ErrNotEnoughPlayers
		}

		allConnected, err := s.presence.allConnectedTx(tx, &session)
		if err != nil {
			return err
		}
		if !allConnected {
			return ErrNotAllConnected
		}

		now := time.Now()
		if err := tx.Model(&session).Updates(map[string]interface{}{
			"status":     models.QuizStatusStarted,
			"started_at": now,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.QuizParticipant{}).
			Where("session_id = ?", sessionID).
			Updates(map[string]interface{}{
				"miss_count":   0,
				"answered_at":  nil,
				"responded_at": nil,
				"points":       0,
				"is_winner":    false,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	s.db.First(&session, sessionID)
	return &session, nil
}

// SubmitAnswer records one guess against the current hint. A correct guess
// locks the participant's answered_at and scores them immediately; the
// advance-or-conclude step runs in the same transaction so "everyone
// responded" can never be left dangling.
func (s *QuizService) SubmitAnswer(sessionID, userID, fighterID uint) (*AnswerResult, error) {
	result := &AnswerResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		session, participant, err := s.respondGuardsTx(tx, sessionID, userID)
		if err != nil {
			return err
		}

		var fighter models.Fighter
		if err := tx.First(&fighter, fighterID).Error; err != nil {
			return err
		}

		isCorrect := fighter.ID == session.TargetFighterID
		now := time.Now()
		answer := models.QuizAnswer{
			SessionID:   sessionID,
			UserID:      userID,
			FighterID:   &fighter.ID,
			IsCorrect:   isCorrect,
			HintIndex:   session.CurrentHintIndex,
			SubmittedAt: now,
		}
		if err := tx.Create(&answer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyResponded
			}
			return err
		}

		if isCorrect {
			result.Outcome = OutcomeCorrect
			passes, err := s.passCountTx(tx, sessionID, userID)
			if err != nil {
				return err
			}
			points := ComputePoints(session.CurrentHintIndex+1, passes, participant.MissCount)
			if err := tx.Model(participant).Updates(map[string]interface{}{
				"answered_at":  now,
				"responded_at": now,
				"points":       points,
			}).Error; err != nil {
				return err
			}

			remaining, err := s.remainingCountTx(tx, sessionID)
			if err != nil {
				return err
			}
			if remaining == 0 {
				// Last pending participant got it right: the round is over and
				// they are the provisional winner, pending point arbitration.
				if err := s.endWithWinnerTx(tx, session, &userID); err != nil {
					return err
				}
				result.SessionEnded = true
				result.WinnerUserID = session.WinnerUserID
				return nil
			}
		} else {
			result.Outcome = OutcomeIncorrect
			if err := tx.Model(participant).
				Updates(map[string]interface{}{
					"miss_count":   gorm.Expr("miss_count + 1"),
					"responded_at": now,
				}).Error; err != nil {
				return err
			}
		}

		return s.advanceOrConcludeTx(tx, session, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Pass records an explicit non-answer for the current hint. Passes never
// touch miss_count; they only cost points at scoring time.
func (s *QuizService) Pass(sessionID, userID uint) (*AnswerResult, error) {
	result := &AnswerResult{Outcome: OutcomePassed}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		session, participant, err := s.respondGuardsTx(tx, sessionID, userID)
		if err != nil {
			return err
		}

		now := time.Now()
		answer := models.QuizAnswer{
			SessionID:   sessionID,
			UserID:      userID,
			FighterID:   nil,
			IsCorrect:   false,
			HintIndex:   session.CurrentHintIndex,
			SubmittedAt: now,
		}
		if err := tx.Create(&answer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyResponded
			}
			return err
		}

		if err := tx.Model(participant).Update("responded_at", now).Error; err != nil {
			return err
		}

		return s.advanceOrConcludeTx(tx, session, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// NextHint advances to the next hint; fails when the last hint is already
// showing.
func (s *QuizService) NextHint(sessionID uint) (*HintView, error) {
	var session models.QuizSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		total, err := s.hintCountTx(tx, sessionID)
		if err != nil {
			return err
		}
		if session.CurrentHintIndex >= total-1 {
			return ErrNoMoreHints
		}
		session.CurrentHintIndex++
		return tx.Model(&session).Update("current_hint_index", session.CurrentHintIndex).Error
	})
	if err != nil {
		return nil, err
	}
	return s.CurrentHint(sessionID)
}

func (s *QuizService) HasMoreHints(sessionID uint) (bool, error) {
	var session models.QuizSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return false, err
	}
	total, err := s.hintCountTx(s.db, sessionID)
	if err != nil {
		return false, err
	}
	return session.CurrentHintIndex < total-1, nil
}

// CurrentHint returns the hint at the session's current index.
func (s *QuizService) CurrentHint(sessionID uint) (*HintView, error) {
	var session models.QuizSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, err
	}
	return s.hintAtTx(s.db, sessionID, session.CurrentHintIndex)
}

// AllRespondedToCurrentHint reports whether every participant still in the
// running has an answer or pass recorded for the current hint.
func (s *QuizService) AllRespondedToCurrentHint(sessionID uint) (bool, error) {
	var session models.QuizSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return false, err
	}
	return s.allRespondedTx(s.db, &session)
}

// RemainingParticipants returns participants who have not answered correctly
// yet.
func (s *QuizService) RemainingParticipants(sessionID uint) ([]models.QuizParticipant, error) {
	var participants []models.QuizParticipant
	err := s.db.Where("session_id = ? AND answered_at IS NULL", sessionID).
		Preload("User").
		Find(&participants).Error
	return participants, err
}

// EndWithWinner ends a running session with a provisional winner, then lets
// point arbitration decide the final one. A point tie clears the winner
// entirely; the point-based result is authoritative.
func (s *QuizService) EndWithWinner(sessionID uint, winnerUserID *uint) (*models.QuizSession, error) {
	var session models.QuizSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if session.Status != models.QuizStatusStarted {
			return ErrNotStarted
		}
		return s.endWithWinnerTx(tx, &session, winnerUserID)
	})
	if err != nil {
		return nil, err
	}
	s.db.First(&session, sessionID)
	return &session, nil
}

func (s *QuizService) GetSession(sessionID uint) (*QuizState, error) {
	var session models.QuizSession
	if err := s.db.
		Preload("Creator").
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("points DESC, answered_at ASC")
		}).
		Preload("Participants.User").
		First(&session, sessionID).Error; err != nil {
		return nil, err
	}

	total, err := s.hintCountTx(s.db, sessionID)
	if err != nil {
		return nil, err
	}

	state := &QuizState{
		QuizSession: session,
		HintCount:   total,
	}

	if session.Status != models.QuizStatusWaiting {
		hint, err := s.hintAtTx(s.db, sessionID, session.CurrentHintIndex)
		if err == nil {
			state.CurrentHint = hint
		}

		var answers []models.QuizAnswer
		if err := s.db.Where("session_id = ? AND hint_index = ?", sessionID, session.CurrentHintIndex).
			Find(&answers).Error; err != nil {
			return nil, err
		}
		state.CurrentHintResponses = make(map[uint]AnswerOutcome, len(answers))
		for _, a := range answers {
			switch {
			case a.Passed():
				state.CurrentHintResponses[a.UserID] = OutcomePassed
			case a.IsCorrect:
				state.CurrentHintResponses[a.UserID] = OutcomeCorrect
			default:
				state.CurrentHintResponses[a.UserID] = OutcomeIncorrect
			}
		}
	}

	if session.Status == models.QuizStatusEnded {
		// Reveal the answer only once the session is over.
		var target models.Fighter
		if err := s.db.First(&target, session.TargetFighterID).Error; err == nil {
			state.TargetFighter = &target
		}
		if session.WinnerUserID != nil {
			var winner models.User
			if err := s.db.First(&winner, *session.WinnerUserID).Error; err == nil {
				state.WinnerUser = &winner
			}
		}
	}
	return state, nil
}

// ListActive returns joinable or running multiplayer sessions, newest first.
// Solo runs are private and never listed.
func (s *QuizService) ListActive() ([]models.QuizSession, error) {
	var sessions []models.QuizSession
	err := s.db.Where("status IN ? AND solo_mode = ?",
		[]models.QuizStatus{models.QuizStatusWaiting, models.QuizStatusStarted}, false).
		Preload("Creator").
		Preload("Participants").
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (s *QuizService) ListForUser(userID uint) ([]models.QuizSession, error) {
	var sessions []models.QuizSession
	err := s.db.Where("creator_id = ?", userID).
		Preload("Participants").
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

type QuizState struct {
	models.QuizSession
	HintCount            int                    `json:"hint_count"`
	CurrentHint          *HintView              `json:"current_hint,omitempty"`
	CurrentHintResponses map[uint]AnswerOutcome `json:"current_hint_responses,omitempty"`
	TargetFighter        *models.Fighter        `json:"target_fighter,omitempty"`
	WinnerUser           *models.User           `json:"winner_user,omitempty"`
}

// respondGuardsTx runs the shared duplicate-response checks for answers and
// passes against a fresh session read.
func (s *QuizService) respondGuardsTx(tx *gorm.DB, sessionID, userID uint) (*models.QuizSession, *models.QuizParticipant, error) {
	var session models.QuizSession
	if err := tx.First(&session, sessionID).Error; err != nil {
		return nil, nil, err
	}
	if session.Status != models.QuizStatusStarted {
		return nil, nil, ErrNotStarted
	}

	var participant models.QuizParticipant
	if err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotParticipant
		}
		return nil, nil, err
	}
	if participant.Answered() {
		return nil, nil, ErrAlreadyAnswered
	}

	var count int64
	if err := tx.Model(&models.QuizAnswer{}).
		Where("session_id = ? AND user_id = ? AND hint_index = ?", sessionID, userID, session.CurrentHintIndex).
		Count(&count).Error; err != nil {
		return nil, nil, err
	}
	if count > 0 {
		return nil, nil, ErrAlreadyResponded
	}
	return &session, &participant, nil
}

// advanceOrConcludeTx is the single post-response step shared by answers and
// passes: once everyone responded to the current hint, either the next hint
// comes up or, with none left, the session ends and scores are finalized.
func (s *QuizService) advanceOrConcludeTx(tx *gorm.DB, session *models.QuizSession, result *AnswerResult) error {
	allResponded, err := s.allRespondedTx(tx, session)
	if err != nil {
		return err
	}
	if !allResponded {
		result.HintIndex = session.CurrentHintIndex
		return nil
	}

	total, err := s.hintCountTx(tx, session.ID)
	if err != nil {
		return err
	}
	if session.CurrentHintIndex < total-1 {
		session.CurrentHintIndex++
		if err := tx.Model(session).
			Update("current_hint_index", session.CurrentHintIndex).Error; err != nil {
			return err
		}
		result.HintAdvanced = true
		result.HintIndex = session.CurrentHintIndex
		return nil
	}

	// Hints exhausted: no further correct answers are possible.
	if err := s.endWithWinnerTx(tx, session, nil); err != nil {
		return err
	}
	result.SessionEnded = true
	result.WinnerUserID = session.WinnerUserID
	result.HintIndex = session.CurrentHintIndex
	return nil
}

func (s *QuizService) endWithWinnerTx(tx *gorm.DB, session *models.QuizSession, winnerUserID *uint) error {
	now := time.Now()
	if err := tx.Model(session).Updates(map[string]interface{}{
		"status":         models.QuizStatusEnded,
		"ended_at":       now,
		"winner_user_id": winnerUserID,
	}).Error; err != nil {
		return err
	}
	session.Status = models.QuizStatusEnded
	session.WinnerUserID = winnerUserID

	if winnerUserID != nil {
		if err := tx.Model(&models.QuizParticipant{}).
			Where("session_id = ? AND user_id = ?", session.ID, *winnerUserID).
			Update("is_winner", true).Error; err != nil {
			return err
		}
	}
	return s.calculateAllPointsTx(tx, session)
}

// calculateAllPointsTx scores every correctly-answered participant from the
// final hint index and re-derives the winner. The derived result overrides
// any provisional winner.
func (s *QuizService) calculateAllPointsTx(tx *gorm.DB, session *models.QuizSession) error {
	var participants []models.QuizParticipant
	if err := tx.Where("session_id = ?", session.ID).
		Find(&participants).Error; err != nil {
		return err
	}

	for _, p := range participants {
		if !p.Answered() {
			continue
		}
		passes, err := s.passCountTx(tx, session.ID, p.UserID)
		if err != nil {
			return err
		}
		points := ComputePoints(session.CurrentHintIndex+1, passes, p.MissCount)
		if err := tx.Model(&models.QuizParticipant{}).
			Where("id = ?", p.ID).
			Update("points", points).Error; err != nil {
			return err
		}
	}
	return s.determineWinnerTx(tx, session)
}

func (s *QuizService) determineWinnerTx(tx *gorm.DB, session *models.QuizSession) error {
	var maxPoints int
	if err := tx.Model(&models.QuizParticipant{}).
		Where("session_id = ?", session.ID).
		Select("COALESCE(MAX(points), 0)").
		Scan(&maxPoints).Error; err != nil {
		return err
	}

	var top []models.QuizParticipant
	if err := tx.Where("session_id = ? AND points = ?", session.ID, maxPoints).
		Find(&top).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.QuizParticipant{}).
		Where("session_id = ?", session.ID).
		Update("is_winner", false).Error; err != nil {
		return err
	}

	if len(top) != 1 {
		// A tie, including an all-zero one, means no winner.
		session.WinnerUserID = nil
		return tx.Model(session).Update("winner_user_id", nil).Error
	}

	winner := top[0]
	if err := tx.Model(&models.QuizParticipant{}).
		Where("id = ?", winner.ID).
		Update("is_winner", true).Error; err != nil {
		return err
	}
	session.WinnerUserID = &winner.UserID
	return tx.Model(session).Update("winner_user_id", winner.UserID).Error
}

func (s *QuizService) allRespondedTx(tx *gorm.DB, session *models.QuizSession) (bool, error) {
	var pending []models.QuizParticipant
	if err := tx.Where("session_id = ? AND answered_at IS NULL", session.ID).
		Find(&pending).Error; err != nil {
		return false, err
	}
	if len(pending) == 0 {
		return true, nil
	}

	userIDs := make([]uint, len(pending))
	for i, p := range pending {
		userIDs[i] = p.UserID
	}

	var responded int64
	if err := tx.Model(&models.QuizAnswer{}).
		Where("session_id = ? AND hint_index = ? AND user_id IN ?", session.ID, session.CurrentHintIndex, userIDs).
		Count(&responded).Error; err != nil {
		return false, err
	}
	return responded == int64(len(pending)), nil
}

func (s *QuizService) remainingCountTx(tx *gorm.DB, sessionID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.QuizParticipant{}).
		Where("session_id = ? AND answered_at IS NULL", sessionID).
		Count(&count).Error
	return count, err
}

func (s *QuizService) passCountTx(tx *gorm.DB, sessionID, userID uint) (int, error) {
	var count int64
	err := tx.Model(&models.QuizAnswer{}).
		Where("session_id = ? AND user_id = ? AND fighter_id IS NULL", sessionID, userID).
		Count(&count).Error
	return int(count), err
}

func (s *QuizService) hintCountTx(tx *gorm.DB, sessionID uint) (int, error) {
	var count int64
	err := tx.Model(&models.QuizHint{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return int(count), err
}

func (s *QuizService) hintAtTx(tx *gorm.DB, sessionID uint, index int) (*HintView, error) {
	var hint models.QuizHint
	if err := tx.Where("session_id = ? AND display_order = ?", sessionID, index).
		Preload("Feature").
		Preload("Feature.Category").
		First(&hint).Error; err != nil {
		return nil, err
	}
	return &HintView{
		Index:    index,
		Text:     hint.Feature.Feature,
		Level:    hint.Feature.Level,
		Category: hint.Feature.Category.Name,
	}, nil
}
