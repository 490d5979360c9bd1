package ports

import "context"

// SessionStore holds opaque session artifacts keyed by session ref. Get
// returns an error wrapping domain.ErrSessionNotFound for unknown refs.
type SessionStore interface {
	Get(ctx context.Context, ref string) ([]byte, error)
	Put(ctx context.Context, ref string, data []byte) error
	Delete(ctx context.Context, ref string) error
}
