// Package mtproto implements the protocol client port on top of gotd/td.
package mtproto

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"
)

// Public Telegram Desktop credentials. Imported desktop sessions are bound
// to them, and they are the default for standard logins as well.
const (
	DesktopAppID   = 2040
	DesktopAppHash = "b18441a1ff607e10a989891a5462e627"
)

type Config struct {
	AppID   int
	AppHash string
	// Proxy is an optional socks5:// URL.
	Proxy string
	// FloodWaitRetries > 0 makes the client sleep through FLOOD_WAIT
	// responses up to that many times instead of failing.
	FloodWaitRetries int
}

type Factory struct {
	cfg      Config
	store    ports.SessionStore
	resolver dcs.Resolver
	logger   zerolog.Logger
}

var _ ports.ClientFactory = (*Factory)(nil)

func NewFactory(cfg Config, store ports.SessionStore, logger zerolog.Logger) (*Factory, error) {
	if store == nil {
		return nil, errors.New("session store is nil")
	}
	if cfg.AppID == 0 {
		cfg.AppID = DesktopAppID
	}
	if strings.TrimSpace(cfg.AppHash) == "" {
		cfg.AppHash = DesktopAppHash
	}

	factory := &Factory{cfg: cfg, store: store, logger: logger.With().Str("component", "mtproto").Logger()}
	if strings.TrimSpace(cfg.Proxy) != "" {
		resolver, err := proxyResolver(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		factory.resolver = resolver
	}

	return factory, nil
}

func (f *Factory) New(kind domain.SessionKind, sessionRef string) (ports.ProtocolClient, error) {
	if strings.TrimSpace(sessionRef) == "" {
		return nil, errors.New("session ref is empty")
	}

	appID, appHash := f.cfg.AppID, f.cfg.AppHash
	opts := telegram.Options{
		SessionStorage: SessionStorage{Store: f.store, Ref: sessionRef},
		NoUpdates:      true,
	}
	switch kind {
	case domain.SessionKindDesktop:
		appID, appHash = DesktopAppID, DesktopAppHash
		opts.Device = desktopDevice()
	case domain.SessionKindStandard, "":
	default:
		return nil, fmt.Errorf("unknown session kind %q", kind)
	}
	if f.resolver != nil {
		opts.Resolver = f.resolver
	}
	if f.cfg.FloodWaitRetries > 0 {
		opts.Middlewares = append(opts.Middlewares,
			floodwait.NewSimpleWaiter().WithMaxRetries(uint(f.cfg.FloodWaitRetries)))
	}

	return &Client{
		build: func() *telegram.Client {
			return telegram.NewClient(appID, appHash, opts)
		},
		logger: f.logger.With().Str("session", sessionRef).Str("kind", string(kind)).Logger(),
	}, nil
}

func desktopDevice() telegram.DeviceConfig {
	return telegram.DeviceConfig{
		DeviceModel:    "Desktop",
		SystemVersion:  "Windows 10",
		AppVersion:     "5.6.3 x64",
		SystemLangCode: "en-US",
		LangPack:       "tdesktop",
		LangCode:       "en",
	}
}

func proxyResolver(raw string) (dcs.Resolver, error) {
	proxyURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("create proxy dialer: %w", err)
	}
	contextDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("proxy %q does not support dialing with context", proxyURL.Redacted())
	}
	return dcs.Plain(dcs.PlainOptions{Dial: contextDialer.DialContext}), nil
}
