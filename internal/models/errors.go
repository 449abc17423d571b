package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the store, the persistence adapter and
// the CSV resolver wraps exactly one of these.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrInvalidFormat = errors.New("invalid format")
	ErrPersistence   = errors.New("persistence error")
	ErrCorruptData   = errors.New("corrupt data")
	ErrConflict      = errors.New("conflict")
)

var (
	ErrEmptyName       = fmt.Errorf("%w: name must not be empty", ErrValidation)
	ErrInvalidName     = fmt.Errorf("%w: invalid name", ErrValidation)
	ErrFloorNotFound   = fmt.Errorf("%w: floor", ErrNotFound)
	ErrRoomNotFound    = fmt.Errorf("%w: room", ErrNotFound)
	ErrItemNotFound    = fmt.Errorf("%w: item", ErrNotFound)
	ErrIndexOutOfRange = fmt.Errorf("%w: index out of range", ErrNotFound)
	ErrStateNotFound   = fmt.Errorf("%w: no saved state", ErrNotFound)
)
