package services

import "errors"

// Game-rule violations. These are expected outcomes, safe to show to the
// user, and are never wrapped into 5xx responses.
var (
	ErrAlreadyJoined      = errors.New("already joined this session")
	ErrNotJoinable        = errors.New("session is not accepting participants")
	ErrInAnotherGame      = errors.New("already participating in another active game")
	ErrNotEnoughPlayers   = errors.New("at least 2 players are required")
	ErrNotPlaying         = errors.New("session is not in progress")
	ErrNotWaiting         = errors.New("session has already started")
	ErrNotStarted         = errors.New("quiz has not started")
	ErrWrongTurn          = errors.New("not your turn")
	ErrNotParticipant     = errors.New("not a participant of this session")
	ErrAlreadyEliminated  = errors.New("player is already eliminated")
	ErrFighterAlreadyUsed = errors.New("fighter has already been used in this session")
	ErrAlreadyAnswered    = errors.New("already answered correctly")
	ErrAlreadyResponded   = errors.New("already responded to the current hint")
	ErrNoMoreHints        = errors.New("no more hints available")
	ErrNoEligibleFighters = errors.New("no quiz-eligible fighters registered")
	ErrNoHints            = errors.New("target fighter has no features for hints")
	ErrNotAllConnected    = errors.New("waiting for all participants to connect")
	ErrNotCreator         = errors.New("only the session creator can do this")
)

// IsRuleViolation reports whether err is an expected game-rule failure as
// opposed to a data or programming error.
func IsRuleViolation(err error) bool {
	for _, rule := range []error{
		ErrAlreadyJoined, ErrNotJoinable, ErrInAnotherGame, ErrNotEnoughPlayers,
		ErrNotPlaying, ErrNotWaiting, ErrNotStarted, ErrWrongTurn,
		ErrNotParticipant, ErrAlreadyEliminated, ErrFighterAlreadyUsed,
		ErrAlreadyAnswered, ErrAlreadyResponded, ErrNoMoreHints,
		ErrNoEligibleFighters, ErrNoHints, ErrNotAllConnected, ErrNotCreator,
	} {
		if errors.Is(err, rule) {
			return true
		}
	}
	return false
}
