package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/rs/zerolog"
)

// AccountStore is the in-memory account registry backed by a repository.
// Iteration order is insertion order and is preserved across saves.
type AccountStore struct {
	repo     ports.AccountRepository
	sessions ports.SessionStore
	logger   zerolog.Logger

	mu      sync.RWMutex
	order   []domain.Phone
	records map[domain.Phone]domain.Account
}

func NewAccountStore(repo ports.AccountRepository, sessions ports.SessionStore, logger zerolog.Logger) *AccountStore {
	return &AccountStore{
		repo:     repo,
		sessions: sessions,
		logger:   logger.With().Str("component", "account_store").Logger(),
		records:  make(map[domain.Phone]domain.Account),
	}
}

// Load replaces the in-memory state with the repository contents. A missing
// file yields an empty store; an unreadable one is logged and also yields an
// empty store.
func (s *AccountStore) Load(ctx context.Context) error {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		s.logger.Error().Err(err).Msg("account store unreadable, starting empty")
		accounts = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	s.records = make(map[domain.Phone]domain.Account, len(accounts))
	for _, account := range accounts {
		phone, err := domain.NormalizePhone(string(account.Phone))
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping stored account")
			continue
		}
		account.Phone = phone
		if _, dup := s.records[phone]; !dup {
			s.order = append(s.order, phone)
		}
		s.records[phone] = account
	}

	return nil
}

// Save writes the whole store. Failures are logged and returned; they are
// never retried.
func (s *AccountStore) Save(ctx context.Context) error {
	s.mu.RLock()
	accounts := s.listLocked()
	s.mu.RUnlock()

	if err := s.repo.SaveAll(ctx, accounts); err != nil {
		s.logger.Error().Err(err).Int("accounts", len(accounts)).Msg("save account store")
		return fmt.Errorf("save account store: %w", err)
	}
	return nil
}

// Upsert merges account into the store and saves immediately. The merged
// record is returned even when the save fails.
func (s *AccountStore) Upsert(ctx context.Context, account domain.Account) (domain.Account, error) {
	merged, err := s.Merge(account)
	if err != nil {
		return domain.Account{}, err
	}
	return merged, s.Save(ctx)
}

// Merge updates the in-memory record without saving. Empty incoming fields
// keep the stored values.
func (s *AccountStore) Merge(account domain.Account) (domain.Account, error) {
	phone, err := domain.NormalizePhone(string(account.Phone))
	if err != nil {
		return domain.Account{}, err
	}
	account.Phone = phone

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[phone]
	if !ok {
		if account.SessionRef == "" {
			account.SessionRef = domain.SessionRefFor(phone)
		}
		account.SessionKind = account.Kind()
		s.order = append(s.order, phone)
		s.records[phone] = account
		return account, nil
	}

	merged := mergeAccount(existing, account)
	s.records[phone] = merged
	return merged, nil
}

func mergeAccount(existing, incoming domain.Account) domain.Account {
	if incoming.SessionRef != "" {
		existing.SessionRef = incoming.SessionRef
	}
	if incoming.SessionKind != "" {
		existing.SessionKind = incoming.SessionKind
	}
	if incoming.VerificationURL != "" {
		existing.VerificationURL = incoming.VerificationURL
	}
	if incoming.Profile.DisplayName != "" {
		existing.Profile.DisplayName = incoming.Profile.DisplayName
	}
	if incoming.Profile.Username != "" {
		existing.Profile.Username = incoming.Profile.Username
	}
	if incoming.Profile.UserID != 0 {
		existing.Profile.UserID = incoming.Profile.UserID
	}
	if incoming.Profile.Phone != "" {
		existing.Profile.Phone = incoming.Profile.Phone
	}
	if incoming.Authenticated {
		existing.Authenticated = true
	}
	if !incoming.LastActive.IsZero() {
		existing.LastActive = incoming.LastActive
	}
	return existing
}

// SetAuthenticated overwrites the authenticated flag and saves.
func (s *AccountStore) SetAuthenticated(ctx context.Context, raw string, authenticated bool) error {
	phone, err := domain.NormalizePhone(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	account, ok := s.records[phone]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, phone)
	}
	changed := account.Authenticated != authenticated
	account.Authenticated = authenticated
	s.records[phone] = account
	s.mu.Unlock()

	if !changed {
		return nil
	}
	return s.Save(ctx)
}

// Remove deletes the record, saves, then deletes its session artifact. A
// failed artifact delete is logged and ignored.
func (s *AccountStore) Remove(ctx context.Context, raw string) error {
	phone, err := domain.NormalizePhone(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	account, ok := s.records[phone]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, phone)
	}
	delete(s.records, phone)
	for i, p := range s.order {
		if p == phone {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	saveErr := s.Save(ctx)

	if s.sessions != nil && account.SessionRef != "" {
		if err := s.sessions.Delete(ctx, account.SessionRef); err != nil {
			s.logger.Warn().Err(err).Str("phone", string(phone)).Msg("delete session artifact")
		}
	}

	return saveErr
}

func (s *AccountStore) Get(raw string) (domain.Account, bool) {
	phone, err := domain.NormalizePhone(raw)
	if err != nil {
		return domain.Account{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.records[phone]
	return account, ok
}

func (s *AccountStore) List() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listLocked()
}

// Authenticated lists accounts flagged authenticated, in store order.
func (s *AccountStore) Authenticated() []domain.Account {
	all := s.List()
	result := make([]domain.Account, 0, len(all))
	for _, account := range all {
		if account.Authenticated {
			result = append(result, account)
		}
	}
	return result
}

func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}

func (s *AccountStore) listLocked() []domain.Account {
	accounts := make([]domain.Account, 0, len(s.order))
	for _, phone := range s.order {
		accounts = append(accounts, s.records[phone])
	}
	return accounts
}
