package apperror

import "errors"

var (
	ErrRoomNotFound      = errors.New("room does not exist")
	ErrRoomFull          = errors.New("room is full")
	ErrNotInRoom         = errors.New("you are not in this room")
	ErrAlreadyInRoom     = errors.New("you are already in a room")
	ErrInvalidName       = errors.New("name is required")
	ErrGameFinished      = errors.New("game is already finished")
	ErrGameIsNotStarted  = errors.New("game is not started")
	ErrGameNotFinished   = errors.New("game is not finished yet")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrAlreadyStruck     = errors.New("number is already struck")
	ErrNumberNotOnBoard  = errors.New("number is not on your board")
	ErrInvalidTossChoice = errors.New("toss choice must be head or tails")
	ErrNotTossCaller     = errors.New("you are not the toss caller")
	ErrTossNotPending    = errors.New("no toss is pending")
)
