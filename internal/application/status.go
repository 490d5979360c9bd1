package application

import (
	"context"
	"errors"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/rs/zerolog"
)

type StatusService struct {
	store  *AccountStore
	cache  *ConnectionCache
	locks  *PhoneLocks
	logger zerolog.Logger
}

func NewStatusService(store *AccountStore, cache *ConnectionCache, locks *PhoneLocks, logger zerolog.Logger) *StatusService {
	if locks == nil {
		locks = NewPhoneLocks()
	}

	return &StatusService{
		store:  store,
		cache:  cache,
		locks:  locks,
		logger: logger.With().Str("component", "status").Logger(),
	}
}

// Check inspects each account (all of them when phones is empty) and reports
// its health. Results are also streamed on out when it is non-nil.
func (s *StatusService) Check(ctx context.Context, phones []string, out chan<- domain.AccountHealth) ([]domain.AccountHealth, error) {
	selected, err := s.selection(phones)
	if err != nil {
		return nil, err
	}

	results := make([]domain.AccountHealth, 0, len(selected))
	for _, phone := range selected {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		health := s.inspect(ctx, phone)
		results = append(results, health)
		s.logger.Info().Str("phone", string(phone)).Str("health", string(health.Health)).Msg(health.Detail)

		if out != nil {
			select {
			case out <- health:
			case <-ctx.Done():
				return results, ctx.Err()
			}
		}
	}
	return results, nil
}

func (s *StatusService) selection(phones []string) ([]domain.Phone, error) {
	if len(phones) > 0 {
		return domain.NormalizePhones(phones)
	}

	accounts := s.store.List()
	selected := make([]domain.Phone, 0, len(accounts))
	for _, account := range accounts {
		selected = append(selected, account.Phone)
	}
	return selected, nil
}

func (s *StatusService) inspect(ctx context.Context, phone domain.Phone) domain.AccountHealth {
	unlock := s.locks.Lock(phone)
	defer unlock()

	result := domain.AccountHealth{Phone: phone, Health: domain.HealthUnknown}

	client, err := s.cache.Get(ctx, phone)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		result.Detail = "account not found"
		return result
	case errors.Is(err, domain.ErrNotAuthorized):
		result.Health = domain.HealthOffline
		result.Detail = "session not authorized"
		return result
	case err != nil:
		result.Health = domain.HealthFromConnectError(err)
		result.Detail = err.Error()
		return result
	}

	profile, err := client.Self(ctx)
	if err != nil {
		result.Health = domain.HealthFromError(err)
		result.Detail = domain.Classify(err).Detail
		return result
	}
	if _, err := client.GetDialogs(ctx, 1); err != nil {
		result.Health = domain.HealthFromError(err)
		result.Detail = domain.Classify(err).Detail
		return result
	}

	result.Health = domain.HealthOnline
	result.Detail = profile.Label()
	return result
}
