package services

import (
	"errors"
	"time"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/models"

	"gorm.io/gorm"
)

// PresenceService tracks which quiz participants currently hold a live
// connection. Its ConnectionState is the gating signal a creator waits on
// before starting the session.
type PresenceService struct {
	db *gorm.DB
}

func NewPresenceService(db *gorm.DB) *PresenceService {
	return &PresenceService{db: db}
}

type ConnectionState struct {
	ConnectedCount int  `json:"connected_count"`
	TotalCount     int  `json:"total_count"`
	AllConnected   bool `json:"all_connected"`
}

// MarkConnected stamps the participant's connected_at and returns the
// aggregate state recomputed from a fresh read. Calling it again for an
// already-connected participant changes nothing.
func (s *PresenceService) MarkConnected(sessionID, userID uint) (*ConnectionState, error) {
	return s.mark(sessionID, userID, true)
}

// MarkDisconnected clears connected_at; idempotent like MarkConnected.
func (s *PresenceService) MarkDisconnected(sessionID, userID uint) (*ConnectionState, error) {
	return s.mark(sessionID, userID, false)
}

func (s *PresenceService) mark(sessionID, userID uint, connected bool) (*ConnectionState, error) {
	var state *ConnectionState
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var participant models.QuizParticipant
		if err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).
			First(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotParticipant
			}
			return err
		}

		var value interface{}
		if connected {
			if participant.Connected() {
				value = *participant.ConnectedAt
			} else {
				value = time.Now()
			}
		}
		if err := tx.Model(&participant).Update("connected_at", value).Error; err != nil {
			return err
		}

		// Recompute counts after the write so concurrent connects converge
		// on the same aggregate.
		var session models.QuizSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		var err error
		state, err = s.connectionStateTx(tx, &session)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// AllConnected is true when every participant holds a connection. A solo
// session never waits on the network and always reports true.
func (s *PresenceService) AllConnected(sessionID uint) (bool, error) {
	var session models.QuizSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return false, err
	}
	return s.allConnectedTx(s.db, &session)
}

func (s *PresenceService) ConnectionStateFor(sessionID uint) (*ConnectionState, error) {
	var session models.QuizSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, err
	}
	return s.connectionStateTx(s.db, &session)
}

func (s *PresenceService) allConnectedTx(tx *gorm.DB, session *models.QuizSession) (bool, error) {
	state, err := s.connectionStateTx(tx, session)
	if err != nil {
		return false, err
	}
	return state.AllConnected, nil
}

func (s *PresenceService) connectionStateTx(tx *gorm.DB, session *models.QuizSession) (*ConnectionState, error) {
	var total, connected int64
	if err := tx.Model(&models.QuizParticipant{}).
		Where("session_id = ?", session.ID).
		Count(&total).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.QuizParticipant{}).
		Where("session_id = ? AND connected_at IS NOT NULL", session.ID).
		Count(&connected).Error; err != nil {
		return nil, err
	}

	state := &ConnectionState{
		ConnectedCount: int(connected),
		TotalCount:     int(total),
		AllConnected:   total > 0 && connected == total,
	}
	if session.SoloMode {
		state.AllConnected = true
	}
	return state, nil
}
