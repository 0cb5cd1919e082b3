package dusk

import (
	"errors"
)

// construction errors. These abort the render pass and end the session,
// since they mean the render callbacks built an invalid tree.
var (
	ErrDuplicateId      = errors.New("duplicate control id")
	ErrIdTooLong        = errors.New("control id too long")
	ErrInvalidComponent = errors.New("invalid component")
)

// correlation errors
var (
	ErrAlreadyRegistered = errors.New("message already has a waiter")
	ErrCorrelatorClosed  = errors.New("correlator closed")
	ErrWaitAbandoned     = errors.New("wait abandoned before a response")
	ErrWaitTimeout       = errors.New("wait timed out")
)

var ErrHandlerPanic = errors.New("handler panic")
