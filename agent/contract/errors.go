package contract

import "errors"

var (
	// ErrResponder marks transport or protocol failures at the responder
	// boundary. Callers must never confuse it with genuine model content.
	ErrResponder = errors.New("responder call failed")

	ErrSchemaViolation = errors.New("responder reply violates schema")
	ErrValidation      = errors.New("validation failed")
	ErrDirectory       = errors.New("customer directory unavailable")
	ErrSessionClosed   = errors.New("session is no longer active")
)
