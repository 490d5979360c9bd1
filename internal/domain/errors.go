package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidPhone       = errors.New("invalid phone")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrNoAccountsSelected = errors.New("no accounts selected")
	ErrNoTargets          = errors.New("no targets")
	ErrImportUnavailable  = errors.New("desktop import unavailable")
	ErrImportPathMissing  = errors.New("desktop data path does not exist")
	ErrCodeNotFound       = errors.New("verification code not found")
	ErrPasswordNotFound   = errors.New("2fa password not found")
	ErrNotAuthorized      = errors.New("account not authorized")

	ErrCodeExpired      = errors.New("verification code expired")
	ErrCodeInvalid      = errors.New("verification code invalid")
	ErrCodeEmpty        = errors.New("verification code empty")
	ErrPasswordRequired = errors.New("2fa password required")
)

// FloodWaitError is returned by protocol adapters when the remote side
// rate-limits a call.
type FloodWaitError struct {
	Wait time.Duration
	Err  error
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait %s", e.Wait)
}

func (e *FloodWaitError) Unwrap() error {
	return e.Err
}
