package quiz

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrTargetNotFound    = errors.New("target player not found")
	ErrNoCurrentQuestion = errors.New("no current question")

	ErrUnknownExtra       = errors.New("unknown extra")
	ErrExtraNotPurchased  = errors.New("extra not purchased")
	ErrExtraAlreadyUsed   = errors.New("extra already used")
	ErrExtraUsedThisRound = errors.New("extra already used this round")
	ErrPlayerFrozen       = errors.New("player is frozen and cannot use extras")

	ErrNoClue           = errors.New("current question has no clue")
	ErrSocketUnresolved = errors.New("player socket could not be resolved")
	ErrNothingToRestore = errors.New("no points to restore")
)
