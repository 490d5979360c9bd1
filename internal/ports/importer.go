package ports

import "context"

type DesktopImporter interface {
	// Available reports why import cannot run on this host, nil when it can.
	Available() error
	DefaultPath() string
	Accounts(ctx context.Context, path string) ([]DesktopAccount, error)
}

type DesktopAccount interface {
	ID() string
	UserID() int64
	// Bind converts the desktop session and writes it under ref.
	Bind(ctx context.Context, store SessionStore, ref string) error
}
