package application

import (
	"context"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
)

// Manager owns the account registry and the live connections and hands them
// to every flow. Close must run before the process exits.
type Manager struct {
	Store    *AccountStore
	Cache    *ConnectionCache
	Locks    *PhoneLocks
	Login    *LoginService
	Import   *ImportService
	Dispatch *DispatchService
	Status   *StatusService
}

func (m *Manager) Close(ctx context.Context) {
	m.Cache.CloseAll(ctx)
}

// QuickSend logs in when needed, using url for the code, then sends text.
func (m *Manager) QuickSend(ctx context.Context, phone, target, text, url string) domain.DispatchResult {
	payload := domain.Payload{Text: text}
	if err := payload.Validate(); err != nil {
		return domain.DispatchResult{Phone: domain.Phone(phone), Target: target, Outcome: domain.Classify(err)}
	}

	outcome := m.Login.Login(ctx, LoginRequest{Phone: phone, VerificationURL: url})
	if !outcome.OK {
		normalized, _ := domain.NormalizePhone(phone)
		return domain.DispatchResult{Phone: normalized, Target: target, Outcome: outcome}
	}
	return m.Dispatch.SendFromAccount(ctx, phone, target, payload)
}

type AccountLiveness struct {
	Account domain.Account
	Live    bool
}

// ListWithLiveness returns every stored account with a live authorization
// check through the connection cache.
func (m *Manager) ListWithLiveness(ctx context.Context) []AccountLiveness {
	accounts := m.Store.List()
	result := make([]AccountLiveness, 0, len(accounts))
	for _, account := range accounts {
		unlock := m.Locks.Lock(account.Phone)
		_, err := m.Cache.Get(ctx, account.Phone)
		unlock()
		result = append(result, AccountLiveness{Account: account, Live: err == nil})
	}
	return result
}
