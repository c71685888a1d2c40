package db

import (
	"equipment_lending/models"
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnavailable       = errors.New("equipment not available")
	ErrConflict          = errors.New("conflict")
	ErrNoFields          = errors.New("no fields to update")
	ErrMissingParam      = errors.New("missing parameter")
	ErrInvalidQuantity   = errors.New("invalid quantity")
)

// TransitionError 请求不在所需的源状态；消息带上当前状态
type TransitionError struct {
	Action string
	From   models.RequestStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s when status = %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
