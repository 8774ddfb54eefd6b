package service

import (
	"errors"
	"fmt"

	"partyrooms/internal/store"
)

// Error classes. Handlers map these to status codes with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrStateMismatch = errors.New("state mismatch")
	ErrForbidden     = errors.New("forbidden")
	ErrContention    = store.ErrContention
)

var (
	ErrGameNotFound   = fmt.Errorf("game %w", ErrNotFound)
	ErrPlayerNotFound = fmt.Errorf("player %w", ErrNotFound)

	ErrNotCurrentPlayer = fmt.Errorf("not the current player: %w", ErrStateMismatch)
	ErrWrongPhase       = fmt.Errorf("action not allowed in the current phase: %w", ErrStateMismatch)

	ErrPlayerEliminated = fmt.Errorf("eliminated players cannot vote: %w", ErrForbidden)
	ErrTargetEliminated = fmt.Errorf("cannot vote for an eliminated player: %w", ErrForbidden)
	ErrNotGuessingSpy   = fmt.Errorf("only the eliminated spy may guess: %w", ErrForbidden)
	ErrNotRoomMember    = fmt.Errorf("player is not in this room: %w", ErrForbidden)

	ErrNoRoomCode    = errors.New("no free room code available")
	ErrEmailDisabled = errors.New("email service is not configured")
)
