package ports

import (
	"context"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
)

// ProtocolClient is one account's connection to the messaging network.
// Implementations translate remote errors into domain sentinels
// (domain.FloodWaitError, domain.ErrCodeExpired, domain.ErrPasswordRequired...).
type ProtocolClient interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	IsAuthorized(ctx context.Context) (bool, error)

	SendCode(ctx context.Context, phone domain.Phone) (codeHash string, err error)
	SignIn(ctx context.Context, phone domain.Phone, code, codeHash string) error
	CheckPassword(ctx context.Context, password string) error
	Self(ctx context.Context) (domain.Profile, error)

	SendMessage(ctx context.Context, target, text string) error
	SendFile(ctx context.Context, target, path string, voice bool) error
	GetDialogs(ctx context.Context, limit int) (int, error)
	GetEntity(ctx context.Context, target string) (Entity, error)
	RecentMessages(ctx context.Context, target string, limit int) ([]Message, error)
}

type Entity struct {
	ID       int64
	Title    string
	Username string
}

type Message struct {
	ID       int
	Outgoing bool
	Text     string
	HasMedia bool
	Date     time.Time
}

// ClientFactory builds an unconnected client for the given session variant.
type ClientFactory interface {
	New(kind domain.SessionKind, sessionRef string) (ProtocolClient, error)
}
