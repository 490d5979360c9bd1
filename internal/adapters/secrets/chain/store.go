// Package chain keeps session artifacts in a primary store and falls back to
// a second one while the primary is unavailable. Sessions that only exist in
// the fallback move back to the primary the next time they are read.
package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/telegram-accounts-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/telegram-accounts-cli/internal/adapters/secrets/pass"
	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/rs/zerolog"
)

type Store struct {
	primary  ports.SessionStore
	fallback ports.SessionStore
	logger   zerolog.Logger
}

var _ ports.SessionStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary session store is nil")
	errNilFallbackStore = errors.New("fallback session store is nil")
)

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger.With().Str("component", "session_chain").Logger()
	}
}

func NewStore(primary ports.SessionStore, fallback ports.SessionStore, opts ...Option) *Store {
	store, err := NewStoreChecked(primary, fallback, opts...)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.SessionStore, fallback ports.SessionStore, opts ...Option) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	store := &Store{primary: primary, fallback: fallback, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// NewPassFirstWithFileFallback keeps sessions in pass and writes them under
// fileRoot while pass is unavailable.
func NewPassFirstWithFileFallback(fileRoot string, logger zerolog.Logger) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(), filestore.NewStore(fileRoot), WithLogger(logger))
}

func (s *Store) Put(ctx context.Context, ref string, data []byte) error {
	err := s.primary.Put(ctx, ref, data)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Put(ctx, ref, data)
	if fallbackErr == nil {
		s.logger.Warn().Err(err).Str("ref", ref).Msg("session written to fallback store")
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

// Get reads the primary first. A session missing there but present in the
// fallback is copied to the primary and removed from the fallback.
func (s *Store) Get(ctx context.Context, ref string) ([]byte, error) {
	data, err := s.primary.Get(ctx, ref)
	if err == nil {
		return data, nil
	}
	if shouldSkipFallback(err) {
		return nil, err
	}

	fallbackData, fallbackErr := s.fallback.Get(ctx, ref)
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
	}

	if errors.Is(err, domain.ErrSessionNotFound) {
		s.promote(ctx, ref, fallbackData)
	} else {
		s.logger.Warn().Err(err).Str("ref", ref).Msg("session read from fallback store")
	}
	return fallbackData, nil
}

// promote never fails the read. The fallback copy stays until the primary
// holds the session.
func (s *Store) promote(ctx context.Context, ref string, data []byte) {
	if err := s.primary.Put(ctx, ref, data); err != nil {
		s.logger.Debug().Err(err).Str("ref", ref).Msg("session kept in fallback store")
		return
	}
	if err := s.fallback.Delete(ctx, ref); err != nil {
		s.logger.Warn().Err(err).Str("ref", ref).Msg("remove promoted session from fallback store")
		return
	}
	s.logger.Info().Str("ref", ref).Msg("session moved to primary store")
}

// Delete removes the artifact from both backends since a failed primary
// Put may have left it in the fallback.
func (s *Store) Delete(ctx context.Context, ref string) error {
	err := s.primary.Delete(ctx, ref)
	if err != nil && shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, ref)
	switch {
	case err == nil && fallbackErr == nil:
		return nil
	case err == nil:
		return fmt.Errorf("fallback backend delete failed: %w", fallbackErr)
	case fallbackErr == nil:
		return nil
	default:
		return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
	}
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
