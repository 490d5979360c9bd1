package mtproto

import (
	"context"
	"errors"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
)

// SessionStorage exposes one session artifact of a ports.SessionStore to
// the gotd client.
type SessionStorage struct {
	Store ports.SessionStore
	Ref   string
}

var _ telegram.SessionStorage = SessionStorage{}

func (s SessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	data, err := s.Store.Get(ctx, s.Ref)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s SessionStorage) StoreSession(ctx context.Context, data []byte) error {
	return s.Store.Put(ctx, s.Ref, data)
}
