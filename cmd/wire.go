package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/adapters/mtproto"
	"github.com/bnema/telegram-accounts-cli/internal/adapters/prompt"
	statusadapter "github.com/bnema/telegram-accounts-cli/internal/adapters/render/status"
	sqliterepo "github.com/bnema/telegram-accounts-cli/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/telegram-accounts-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/telegram-accounts-cli/internal/adapters/secrets/chain"
	filestore "github.com/bnema/telegram-accounts-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/telegram-accounts-cli/internal/adapters/secrets/pass"
	"github.com/bnema/telegram-accounts-cli/internal/adapters/tdesktop"
	"github.com/bnema/telegram-accounts-cli/internal/adapters/verification"
	"github.com/bnema/telegram-accounts-cli/internal/application"
	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/logging"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const staleAfter = 30 * 24 * time.Hour

type app struct {
	cfg            *viper.Viper
	logger         zerolog.Logger
	manager        *application.Manager
	prompter       *prompt.Terminal
	statusRenderer func([]statusadapter.Row, statusadapter.RenderOptions) (string, error)
	resultRenderer func(string, []statusadapter.Result) (string, error)
	dispatchDelay  time.Duration
	now            func() time.Time
	closers        []func() error
}

func wireApp(ctx context.Context, cfg *viper.Viper, in io.Reader, errOut io.Writer) (*app, error) {
	logger := logging.New(cfg.GetString(keyLogLevel), errOut)

	a := &app{
		cfg:            cfg,
		logger:         logger,
		statusRenderer: statusadapter.Render,
		resultRenderer: statusadapter.RenderResults,
		dispatchDelay:  durationOrDefault(cfg, keyDispatchDelay, application.DefaultDispatchDelay),
		now:            time.Now,
	}

	repo, err := a.wireRepository(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := wireSessionStore(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	factory, err := mtproto.NewFactory(mtproto.Config{
		AppID:            cfg.GetInt(keyAppID),
		AppHash:          cfg.GetString(keyAppHash),
		Proxy:            cfg.GetString(keyProxy),
		FloodWaitRetries: cfg.GetInt(keyFloodWaitRetries),
	}, sessions, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("wire telegram client factory: %w", err)
	}

	policy, ok := domain.ParseBroadcastPolicy(cfg.GetString(keyBroadcastPolicy))
	if !ok {
		a.close()
		return nil, fmt.Errorf("invalid %s %q: want metadata or live", keyBroadcastPolicy, cfg.GetString(keyBroadcastPolicy))
	}

	a.prompter = prompt.NewTerminal(in, errOut)
	clock := ports.SystemClock{}
	source := verification.HTTPSource{
		HTTPClient: http.DefaultClient,
		Timeout:    durationOrDefault(cfg, keyFetchTimeout, verification.DefaultFetchTimeout),
		Grace:      durationOrDefault(cfg, keyCodeGrace, verification.DefaultGrace),
		Clock:      clock,
	}
	importer := &tdesktop.Importer{Disabled: !cfg.GetBool(keyImportEnabled)}
	if passcode := cfg.GetString(keyImportPasscode); passcode != "" {
		importer.Passcode = []byte(passcode)
	}

	store := application.NewAccountStore(repo, sessions, logger)
	if err := store.Load(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	cache := application.NewConnectionCache(store, factory, logger)
	locks := application.NewPhoneLocks()

	login := application.NewLoginService(store, cache, factory, source, a.prompter, locks, clock, logger)
	login.BatchPause = durationOrDefault(cfg, keyBatchPause, application.DefaultBatchPause)

	imports := application.NewImportService(store, importer, sessions, factory, clock, logger)
	imports.Pause = durationOrDefault(cfg, keyImportPause, application.DefaultImportPause)

	dispatch := application.NewDispatchService(store, cache, locks, clock, logger)
	dispatch.Policy = policy

	a.manager = &application.Manager{
		Store:    store,
		Cache:    cache,
		Locks:    locks,
		Login:    login,
		Import:   imports,
		Dispatch: dispatch,
		Status:   application.NewStatusService(store, cache, locks, logger),
	}

	return a, nil
}

func (a *app) wireRepository(ctx context.Context) (ports.AccountRepository, error) {
	switch backend := strings.ToLower(strings.TrimSpace(a.cfg.GetString(keyAccountsBackend))); backend {
	case "", "toml":
		repo, err := tomlrepo.NewRepository(a.cfg)
		if err != nil {
			return nil, fmt.Errorf("wire account repository: %w", err)
		}
		return repo, nil
	case "sqlite":
		repo, err := sqliterepo.Open(ctx, a.cfg.GetString(keyAccountsSQLitePath))
		if err != nil {
			return nil, fmt.Errorf("wire account repository: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	default:
		return nil, fmt.Errorf("invalid %s %q: want toml or sqlite", keyAccountsBackend, backend)
	}
}

func wireSessionStore(cfg *viper.Viper, logger zerolog.Logger) (ports.SessionStore, error) {
	dir := cfg.GetString(keySessionsDir)
	switch backend := strings.ToLower(strings.TrimSpace(cfg.GetString(keySessionsBackend))); backend {
	case "", "file":
		return filestore.NewStore(dir), nil
	case "pass":
		return passstore.NewStore(), nil
	case "chain":
		store, err := chainstore.NewPassFirstWithFileFallback(dir, logger)
		if err != nil {
			return nil, fmt.Errorf("wire session store chain: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid %s %q: want file, pass or chain", keySessionsBackend, backend)
	}
}

// close disconnects every cached client and releases repository handles.
func (a *app) close() {
	if a.manager != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		a.manager.Close(ctx)
		cancel()
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn().Err(err).Msg("close resource")
		}
	}
	a.closers = nil
}
