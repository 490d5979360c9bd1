package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/rs/zerolog"
)

// ConnectionCache keeps at most one live client per account. There is no
// eviction; entries leave on Drop, on a failed liveness check, or on CloseAll.
type ConnectionCache struct {
	store   *AccountStore
	factory ports.ClientFactory
	logger  zerolog.Logger

	mu      sync.Mutex
	clients map[domain.Phone]ports.ProtocolClient
}

func NewConnectionCache(store *AccountStore, factory ports.ClientFactory, logger zerolog.Logger) *ConnectionCache {
	return &ConnectionCache{
		store:   store,
		factory: factory,
		logger:  logger.With().Str("component", "connection_cache").Logger(),
		clients: make(map[domain.Phone]ports.ProtocolClient),
	}
}

// Get returns a connected, authorized client for phone. A cached client that
// no longer reports itself connected is discarded and rebuilt from the
// account record.
func (c *ConnectionCache) Get(ctx context.Context, phone domain.Phone) (ports.ProtocolClient, error) {
	c.mu.Lock()
	cached, ok := c.clients[phone]
	if ok && cached.IsConnected() {
		c.mu.Unlock()
		return cached, nil
	}
	if ok {
		delete(c.clients, phone)
	}
	c.mu.Unlock()

	if ok {
		c.disconnect(ctx, phone, cached)
	}

	account, found := c.store.Get(string(phone))
	if !found {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, phone)
	}

	client, err := c.factory.New(account.Kind(), account.SessionRef)
	if err != nil {
		return nil, fmt.Errorf("create client for %s: %w", phone, err)
	}
	if err := client.Connect(ctx); err != nil {
		c.disconnect(ctx, phone, client)
		return nil, fmt.Errorf("connect %s: %w", phone, err)
	}
	authorized, err := client.IsAuthorized(ctx)
	if err != nil {
		c.disconnect(ctx, phone, client)
		return nil, fmt.Errorf("check authorization of %s: %w", phone, err)
	}
	if !authorized {
		c.disconnect(ctx, phone, client)
		return nil, fmt.Errorf("%w: %s", domain.ErrNotAuthorized, phone)
	}

	c.Put(ctx, phone, client)
	return client, nil
}

// Put caches client for phone, disconnecting any different client it replaces.
func (c *ConnectionCache) Put(ctx context.Context, phone domain.Phone, client ports.ProtocolClient) {
	c.mu.Lock()
	previous, ok := c.clients[phone]
	c.clients[phone] = client
	c.mu.Unlock()

	if ok && previous != client {
		c.disconnect(ctx, phone, previous)
	}
}

func (c *ConnectionCache) Drop(ctx context.Context, phone domain.Phone) {
	c.mu.Lock()
	client, ok := c.clients[phone]
	delete(c.clients, phone)
	c.mu.Unlock()

	if ok {
		c.disconnect(ctx, phone, client)
	}
}

// CloseAll disconnects every cached client, ignoring errors, and empties
// the cache.
func (c *ConnectionCache) CloseAll(ctx context.Context) {
	c.mu.Lock()
	clients := c.clients
	c.clients = make(map[domain.Phone]ports.ProtocolClient)
	c.mu.Unlock()

	for phone, client := range clients {
		c.disconnect(ctx, phone, client)
	}
}

func (c *ConnectionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.clients)
}

func (c *ConnectionCache) disconnect(ctx context.Context, phone domain.Phone, client ports.ProtocolClient) {
	if err := client.Disconnect(ctx); err != nil {
		c.logger.Debug().Err(err).Str("phone", string(phone)).Msg("disconnect")
	}
}
