package quiz

import (
	"errors"
	"fmt"
)

// Error kinds, matched with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("collaborator unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrNotRegistered   = fmt.Errorf("%w: must register", ErrValidation)
	ErrNoActiveGame    = fmt.Errorf("%w: no active game", ErrConflict)
	ErrAlreadyAnswered = fmt.Errorf("%w: already answered", ErrConflict)
	ErrInvalidState    = fmt.Errorf("%w: invalid state for action", ErrConflict)
	ErrUnknownQuestion = fmt.Errorf("%w: unknown question", ErrValidation)
	ErrQuestionClosed  = fmt.Errorf("%w: question not open", ErrValidation)
	ErrUnknownPlayer   = fmt.Errorf("%w: unknown player", ErrValidation)
	ErrNotAdmin        = errors.New("not admin")
)

// NameTakenError reports a display name held by another active player.
// Existing lets the caller offer to continue as that player.
type NameTakenError struct {
	Name     string
	Existing *Player
}

func (e *NameTakenError) Error() string {
	return fmt.Sprintf("name %q is in use by an active player", e.Name)
}

func (e *NameTakenError) Unwrap() error { return ErrConflict }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
