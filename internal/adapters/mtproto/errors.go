package mtproto

import (
	"errors"
	"fmt"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tgerr"
)

// translate maps gotd and RPC errors onto domain sentinels so callers never
// depend on the protocol library.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if wait, ok := tgerr.AsFloodWait(err); ok {
		return &domain.FloodWaitError{Wait: wait, Err: err}
	}

	switch {
	case tgerr.Is(err, "PHONE_CODE_EXPIRED"):
		return fmt.Errorf("%w: %w", domain.ErrCodeExpired, err)
	case tgerr.Is(err, "PHONE_CODE_INVALID"):
		return fmt.Errorf("%w: %w", domain.ErrCodeInvalid, err)
	case tgerr.Is(err, "PHONE_CODE_EMPTY"):
		return fmt.Errorf("%w: %w", domain.ErrCodeEmpty, err)
	case errors.Is(err, auth.ErrPasswordAuthNeeded):
		return fmt.Errorf("%w: %w", domain.ErrPasswordRequired, err)
	case auth.IsUnauthorized(err):
		return fmt.Errorf("%w: %w", domain.ErrNotAuthorized, err)
	default:
		return err
	}
}
