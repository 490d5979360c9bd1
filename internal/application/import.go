package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/rs/zerolog"
)

const DefaultImportPause = 300 * time.Millisecond

type ImportedAccount struct {
	Phone      domain.Phone
	SessionRef string
	Profile    domain.Profile
}

type ImportResult struct {
	Path     string
	Outcomes []domain.Outcome
	Imported []ImportedAccount
	Tally    domain.Tally
}

type ImportService struct {
	store    *AccountStore
	importer ports.DesktopImporter
	sessions ports.SessionStore
	factory  ports.ClientFactory
	clock    ports.Clock
	logger   zerolog.Logger

	// Pause is slept between desktop accounts.
	Pause time.Duration
}

func NewImportService(
	store *AccountStore,
	importer ports.DesktopImporter,
	sessions ports.SessionStore,
	factory ports.ClientFactory,
	clock ports.Clock,
	logger zerolog.Logger,
) *ImportService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &ImportService{
		store:    store,
		importer: importer,
		sessions: sessions,
		factory:  factory,
		clock:    clock,
		logger:   logger.With().Str("component", "import").Logger(),
		Pause:    DefaultImportPause,
	}
}

// ImportFromDesktop converts every account found under path (or the
// platform default) into a stored session. Accounts are isolated from each
// other and the store is saved once at the end.
func (s *ImportService) ImportFromDesktop(ctx context.Context, path string) ImportResult {
	result := ImportResult{Path: strings.TrimSpace(path)}
	finish := func() ImportResult {
		result.Tally = domain.TallyOutcomes(result.Outcomes)
		return result
	}

	if s.importer == nil {
		result.Outcomes = append(result.Outcomes, importFailure(domain.ErrImportUnavailable))
		return finish()
	}
	if err := s.importer.Available(); err != nil {
		result.Outcomes = append(result.Outcomes, importFailure(err))
		return finish()
	}
	if result.Path == "" {
		result.Path = s.importer.DefaultPath()
	}

	accounts, err := s.importer.Accounts(ctx, result.Path)
	if err != nil {
		result.Outcomes = append(result.Outcomes, importFailure(fmt.Errorf("%s: %w", result.Path, err)))
		return finish()
	}

	for i, desktop := range accounts {
		if i > 0 && s.Pause > 0 {
			if err := s.clock.Sleep(ctx, s.Pause); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		imported, outcome := s.importOne(ctx, desktop)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.OK {
			result.Imported = append(result.Imported, imported)
		}
	}
	for i := len(result.Outcomes); i < len(accounts); i++ {
		result.Outcomes = append(result.Outcomes, importFailure(fmt.Errorf("account %s: %w", accounts[i].ID(), context.Cause(ctx))))
	}

	if len(result.Imported) > 0 {
		// Converted sessions are already on disk; keep their records even
		// when the operator cancelled between accounts.
		if err := s.store.Save(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error().Err(err).Msg("persist imported accounts")
		}
	}

	return finish()
}

func (s *ImportService) importOne(ctx context.Context, desktop ports.DesktopAccount) (imported ImportedAccount, outcome domain.Outcome) {
	id := desktop.ID()
	logger := s.logger.With().Str("desktop_account", id).Logger()

	var client ports.ProtocolClient
	defer func() {
		if r := recover(); r != nil {
			outcome = importFailure(fmt.Errorf("account %s: %v", id, r))
		}
		if client != nil {
			if err := client.Disconnect(ctx); err != nil {
				logger.Debug().Err(err).Msg("disconnect imported account")
			}
		}
		if outcome.OK {
			logger.Info().Str("phone", string(imported.Phone)).Msg("imported")
		} else {
			logger.Warn().Str("detail", outcome.Detail).Msg("import failed")
		}
	}()

	ref := domain.DesktopSessionRef(id)
	if err := desktop.Bind(ctx, s.sessions, ref); err != nil {
		return ImportedAccount{}, importFailure(fmt.Errorf("account %s: %w", id, err))
	}

	var err error
	client, err = s.factory.New(domain.SessionKindDesktop, ref)
	if err != nil {
		return ImportedAccount{}, importFailure(fmt.Errorf("account %s: %w", id, err))
	}
	if err := client.Connect(ctx); err != nil {
		return ImportedAccount{}, importFailure(fmt.Errorf("account %s: connect: %w", id, err))
	}
	authorized, err := client.IsAuthorized(ctx)
	if err != nil {
		return ImportedAccount{}, importFailure(fmt.Errorf("account %s: %w", id, err))
	}
	if !authorized {
		return ImportedAccount{}, importFailure(fmt.Errorf("account %s: %w", id, domain.ErrNotAuthorized))
	}

	profile, err := client.Self(ctx)
	if err != nil {
		return ImportedAccount{}, importFailure(fmt.Errorf("account %s: read profile: %w", id, err))
	}
	if profile.UserID == 0 {
		profile.UserID = desktop.UserID()
	}

	account, err := s.store.Merge(domain.Account{
		Phone:         domain.PhoneFromProfile(profile),
		SessionRef:    ref,
		SessionKind:   domain.SessionKindDesktop,
		Profile:       profile,
		Authenticated: true,
		LastActive:    s.clock.Now().UTC(),
	})
	if err != nil {
		return ImportedAccount{}, importFailure(fmt.Errorf("account %s: %w", id, err))
	}

	imported = ImportedAccount{Phone: account.Phone, SessionRef: ref, Profile: account.Profile}
	return imported, domain.Success("imported %s: %s", account.Phone, account.Profile.Label())
}

func importFailure(err error) domain.Outcome {
	return domain.Failure(domain.ReasonImportFailed, "%v", err)
}
