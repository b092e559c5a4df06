package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorCode classifies game failures. Session-originated codes recover
// locally; Internal recovers by ending the whole game.
type ErrorCode string

const (
	ErrPlayerNotFound ErrorCode = "PlayerNotFound"
	ErrGameNotRunning ErrorCode = "GameNotRunning"
	ErrInvalidMove    ErrorCode = "InvalidMove"
	ErrRoomFull       ErrorCode = "RoomFull"
	ErrNameTaken      ErrorCode = "NameTaken"
	ErrSerialization  ErrorCode = "Serialization"
	ErrInternal       ErrorCode = "Internal"
)

// GameError is the typed error for all game-level failures.
type GameError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *GameError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// Is matches on the error code so callers can compare against sentinels.
func (e *GameError) Is(target error) bool {
	var ge *GameError
	if errors.As(target, &ge) {
		return e.Code == ge.Code
	}
	return false
}

func playerNotFoundError(id uuid.UUID) *GameError {
	return &GameError{Code: ErrPlayerNotFound, Message: fmt.Sprintf("player not found: %s", id)}
}

func gameNotRunningError() *GameError {
	return &GameError{Code: ErrGameNotRunning, Message: "game not running"}
}

func invalidMoveError(msg string) *GameError {
	return &GameError{Code: ErrInvalidMove, Message: msg}
}

func roomFullError() *GameError {
	return &GameError{Code: ErrRoomFull, Message: "room is full"}
}

func nameTakenError(name string) *GameError {
	return &GameError{Code: ErrNameTaken, Message: fmt.Sprintf("player name already taken: %s", name)}
}

func serializationError(cause error) *GameError {
	return &GameError{Code: ErrSerialization, Message: cause.Error(), Cause: cause}
}

func internalError(msg string) *GameError {
	return &GameError{Code: ErrInternal, Message: msg}
}
