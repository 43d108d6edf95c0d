package ws

import "fmt"

// Event is the single message shape broadcast to clients. Type tags tell the
// client which Data payload to expect.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Elimination game events.
const (
	EventPlayerJoined     = "player_joined"
	EventPlayerLeft       = "player_left"
	EventGameStarted      = "game_started"
	EventFighterUsed      = "fighter_used"
	EventPlayerEliminated = "player_eliminated"
	EventGameFinished     = "game_finished"
)

// Quiz events.
const (
	EventConnectionUpdated   = "connection_updated"
	EventParticipantJoined   = "participant_joined"
	EventSessionStarted      = "session_started"
	EventParticipantAnswered = "participant_answered"
	EventNextHint            = "next_hint"
	EventGameEnded           = "game_ended"
)

// GameChannel is the per-session key elimination clients subscribe to.
func GameChannel(sessionID uint) string {
	return fmt.Sprintf("game_session_%d", sessionID)
}

// QuizChannel is the per-session key quiz clients subscribe to.
func QuizChannel(sessionID uint) string {
	return fmt.Sprintf("quiz_session_%d", sessionID)
}
