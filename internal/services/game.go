package services

import (
	"errors"
	"log"
	"time"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/models"

	"gorm.io/gorm"
)

// GameService runs the turn-based elimination game. Every mutating operation
// is one transaction over the session row and its player rows; turn
// advancement always works from a fresh read of the player set so concurrent
// eliminations cannot leave the turn on a stale player.
type GameService struct {
	db *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{db: db}
}

type GameState struct {
	models.GameSession
	Winner *models.User `json:"winner,omitempty"`
}

func (s *GameService) CreateSession(creatorID uint, name string) (*models.GameSession, error) {
	var session models.GameSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		inGame, err := s.userInActiveGame(tx, creatorID)
		if err != nil {
			return err
		}
		if inGame {
			return ErrInAnotherGame
		}

		session = models.GameSession{
			Name:      name,
			Status:    models.GameStatusWaiting,
			CreatorID: creatorID,
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		player := models.GamePlayer{
			SessionID: session.ID,
			UserID:    creatorID,
			TurnOrder: 1,
			JoinedAt:  time.Now(),
		}
		return tx.Create(&player).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *GameService) Join(sessionID, userID uint) (*models.GamePlayer, error) {
	var player models.GamePlayer
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var session models.GameSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if session.Status != models.GameStatusWaiting {
			return ErrNotJoinable
		}

		var count int64
		if err := tx.Model(&models.GamePlayer{}).
			Where("session_id = ? AND user_id = ?", sessionID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyJoined
		}

		inGame, err := s.userInActiveGame(tx, userID)
		if err != nil {
			return err
		}
		if inGame {
			return ErrInAnotherGame
		}

		var maxOrder int
		if err := tx.Model(&models.GamePlayer{}).
			Where("session_id = ?", sessionID).
			Select("COALESCE(MAX(turn_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}

		player = models.GamePlayer{
			SessionID: sessionID,
			UserID:    userID,
			TurnOrder: maxOrder + 1,
			JoinedAt:  time.Now(),
		}
		if err := tx.Create(&player).Error; err != nil {
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
	return &player, nil
}

// Leave removes a waiting player and renumbers the rest densely. While the
// game is running, leaving is an elimination instead of a removal.
func (s *GameService) Leave(sessionID, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var session models.GameSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}

		if session.Status == models.GameStatusPlaying {
			return s.eliminateTx(tx, &session, userID)
		}
		if session.Status != models.GameStatusWaiting {
			return ErrNotPlaying
		}

		var player models.GamePlayer
		if err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).
			First(&player).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotParticipant
			}
			return err
		}
		if err := tx.Delete(&player).Error; err != nil {
			return err
		}

		return s.renumberTx(tx, sessionID)
	})
}

// StartGame assigns dense turn orders, hands the turn to the first player and
// flips the session to playing, all in one transaction.
func (s *GameService) StartGame(sessionID, userID uint) (*models.GameSession, error) {
	var session models.GameSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if session.CreatorID != userID {
			return ErrNotCreator
		}
		if !session.Status.CanTransitionTo(models.GameStatusPlaying) {
			return ErrNotWaiting
		}

		var players []models.GamePlayer
		if err := tx.Where("session_id = ?", sessionID).
			Order("turn_order ASC").
			Find(&players).Error; err != nil {
			return err
		}
		if len(players) < 2 {
			return ErrNotEnoughPlayers
		}

		for i, p := range players {
			if p.TurnOrder == i+1 {
				continue
			}
			if err := tx.Model(&models.GamePlayer{}).
				Where("id = ?", p.ID).
				Update("turn_order", i+1).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		return tx.Model(&session).Updates(map[string]interface{}{
			"status":                 models.GameStatusPlaying,
			"current_turn_player_id": players[0].UserID,
			"started_at":             now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.db.First(&session, sessionID)
	return &session, nil
}

// NextTurn advances the turn circularly over the non-eliminated players.
func (s *GameService) NextTurn(sessionID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var session models.GameSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		return s.nextTurnTx(tx, &session)
	})
}

func (s *GameService) EliminatePlayer(sessionID, targetUserID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var session models.GameSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		return s.eliminateTx(tx, &session, targetUserID)
	})
}

// Retire is self-elimination, allowed only on your own turn.
func (s *GameService) Retire(sessionID, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var session models.GameSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if session.Status != models.GameStatusPlaying {
			return ErrNotPlaying
		}
		if session.CurrentTurnPlayerID == nil || *session.CurrentTurnPlayerID != userID {
			return ErrWrongTurn
		}
		return s.eliminateTx(tx, &session, userID)
	})
}

func (s *GameService) UseFighter(sessionID, fighterID, userID uint) (*models.UsedFighter, error) {
	var used models.UsedFighter
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var u *models.UsedFighter
		var err error
		if u, err = s.useFighterTx(tx, sessionID, fighterID, userID); err != nil {
			return err
		}
		used = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &used, nil
}

// SubmitFighter is one full move: turn check, fighter consumption, turn
// advance. It fails without side effects on a wrong turn or a reused fighter.
func (s *GameService) SubmitFighter(sessionID, userID, fighterID uint) (*models.UsedFighter, error) {
	var used models.UsedFighter
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var session models.GameSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if session.Status != models.GameStatusPlaying {
			return ErrNotPlaying
		}
		if session.CurrentTurnPlayerID == nil || *session.CurrentTurnPlayerID != userID {
			return ErrWrongTurn
		}

		u, err := s.useFighterTx(tx, sessionID, fighterID, userID)
		if err != nil {
			return err
		}
		used = *u

		return s.nextTurnTx(tx, &session)
	})
	if err != nil {
		return nil, err
	}
	s.db.Preload("Fighter").Preload("UsedBy").First(&used, used.ID)
	return &used, nil
}

// Winner is defined only for finished sessions: the unique player left
// standing.
func (s *GameService) Winner(sessionID uint) (*models.User, error) {
	var session models.GameSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, err
	}
	if session.Status != models.GameStatusFinished {
		return nil, nil
	}

	var remaining []models.GamePlayer
	if err := s.db.Where("session_id = ? AND is_eliminated = ?", sessionID, false).
		Preload("User").
		Find(&remaining).Error; err != nil {
		return nil, err
	}
	if len(remaining) != 1 {
		// Integrity alarm: a finished game must have exactly one survivor.
		log.Printf("game %d finished with %d active players", sessionID, len(remaining))
		return nil, nil
	}
	user := remaining[0].User
	return &user, nil
}

func (s *GameService) GetSession(sessionID uint) (*GameState, error) {
	var session models.GameSession
	if err := s.db.
		Preload("Creator").
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("turn_order ASC")
		}).
		Preload("Players.User").
		Preload("UsedFighters", func(db *gorm.DB) *gorm.DB {
			return db.Order("used_at DESC")
		}).
		Preload("UsedFighters.Fighter").
		Preload("UsedFighters.UsedBy").
		First(&session, sessionID).Error; err != nil {
		return nil, err
	}

	state := &GameState{GameSession: session}
	if session.Status == models.GameStatusFinished {
		winner, err := s.Winner(sessionID)
		if err != nil {
			return nil, err
		}
		state.Winner = winner
	}
	return state, nil
}

// ListJoinable returns waiting sessions, newest first.
func (s *GameService) ListJoinable() ([]models.GameSession, error) {
	var sessions []models.GameSession
	if err := s.db.Where("status = ?", models.GameStatusWaiting).
		Preload("Creator").
		Preload("Players").
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListForUser returns the active sessions the user belongs to.
func (s *GameService) ListForUser(userID uint) ([]models.GameSession, error) {
	var sessions []models.GameSession
	if err := s.db.
		Joins("JOIN game_players ON game_players.session_id = game_sessions.id").
		Where("game_players.user_id = ?", userID).
		Where("game_sessions.status IN ?", []models.GameStatus{models.GameStatusWaiting, models.GameStatusPlaying}).
		Preload("Creator").
		Preload("Players").
		Order("game_sessions.created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *GameService) userInActiveGame(tx *gorm.DB, userID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.GamePlayer{}).
		Joins("JOIN game_sessions ON game_sessions.id = game_players.session_id").
		Where("game_players.user_id = ?", userID).
		Where("game_sessions.status IN ?", []models.GameStatus{models.GameStatusWaiting, models.GameStatusPlaying}).
		Count(&count).Error
	return count > 0, err
}

func (s *GameService) renumberTx(tx *gorm.DB, sessionID uint) error {
	var players []models.GamePlayer
	if err := tx.Where("session_id = ?", sessionID).
		Order("turn_order ASC").
		Find(&players).Error; err != nil {
		return err
	}
	for i, p := range players {
		if p.TurnOrder == i+1 {
			continue
		}
		if err := tx.Model(&models.GamePlayer{}).
			Where("id = ?", p.ID).
			Update("turn_order", i+1).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *GameService) activePlayersTx(tx *gorm.DB, sessionID uint) ([]models.GamePlayer, error) {
	var players []models.GamePlayer
	err := tx.Where("session_id = ? AND is_eliminated = ?", sessionID, false).
		Order("turn_order ASC").
		Find(&players).Error
	return players, err
}

func (s *GameService) nextTurnTx(tx *gorm.DB, session *models.GameSession) error {
	if session.Status != models.GameStatusPlaying || session.CurrentTurnPlayerID == nil {
		return ErrNotPlaying
	}

	var current models.GamePlayer
	if err := tx.Where("session_id = ? AND user_id = ?", session.ID, *session.CurrentTurnPlayerID).
		First(&current).Error; err != nil {
		return err
	}
	return s.advanceTurnTx(tx, session, current.TurnOrder)
}

// advanceTurnTx hands the turn to the first active player after fromOrder,
// wrapping past the last seat back to the lowest. Works whether or not the
// player holding fromOrder is still active, so it also covers advancing away
// from a just-eliminated current player.
func (s *GameService) advanceTurnTx(tx *gorm.DB, session *models.GameSession, fromOrder int) error {
	players, err := s.activePlayersTx(tx, session.ID)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return ErrNotPlaying
	}

	next := players[0]
	for _, p := range players {
		if p.TurnOrder > fromOrder {
			next = p
			break
		}
	}
	session.CurrentTurnPlayerID = &next.UserID
	return tx.Model(session).Update("current_turn_player_id", next.UserID).Error
}

func (s *GameService) eliminateTx(tx *gorm.DB, session *models.GameSession, userID uint) error {
	if session.Status != models.GameStatusPlaying {
		return ErrNotPlaying
	}

	var player models.GamePlayer
	if err := tx.Where("session_id = ? AND user_id = ?", session.ID, userID).
		First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotParticipant
		}
		return err
	}
	if player.IsEliminated {
		return ErrAlreadyEliminated
	}

	if err := tx.Model(&player).Update("is_eliminated", true).Error; err != nil {
		return err
	}

	players, err := s.activePlayersTx(tx, session.ID)
	if err != nil {
		return err
	}

	if len(players) <= 1 {
		now := time.Now()
		session.Status = models.GameStatusFinished
		return tx.Model(session).Updates(map[string]interface{}{
			"status":                 models.GameStatusFinished,
			"current_turn_player_id": nil,
			"ended_at":               now,
		}).Error
	}

	if session.CurrentTurnPlayerID != nil && *session.CurrentTurnPlayerID == userID {
		return s.advanceTurnTx(tx, session, player.TurnOrder)
	}
	return nil
}

func (s *GameService) useFighterTx(tx *gorm.DB, sessionID, fighterID, userID uint) (*models.UsedFighter, error) {
	var fighter models.Fighter
	if err := tx.First(&fighter, fighterID).Error; err != nil {
		return nil, err
	}

	var count int64
	if err := tx.Model(&models.UsedFighter{}).
		Where("session_id = ? AND fighter_id = ?", sessionID, fighterID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrFighterAlreadyUsed
	}

	used := models.UsedFighter{
		SessionID: sessionID,
		FighterID: fighterID,
		UsedByID:  userID,
		UsedAt:    time.Now(),
	}
	if err := tx.Create(&used).Error; err != nil {
		// Two submissions racing past the count check land here; the unique
		// index keeps exactly one.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrFighterAlreadyUsed
		}
		return nil, err
	}
	return &used, nil
}
