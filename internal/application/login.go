package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/rs/zerolog"
)

const DefaultBatchPause = 2 * time.Second

type LoginRequest struct {
	Phone           string
	VerificationURL string
	Code            string
	Password        string
}

// LoginObserver receives every state transition of a login attempt.
type LoginObserver func(phone domain.Phone, state domain.LoginState)

type LoginService struct {
	store    *AccountStore
	cache    *ConnectionCache
	factory  ports.ClientFactory
	source   ports.VerificationSource
	prompter ports.Prompter
	locks    *PhoneLocks
	clock    ports.Clock
	logger   zerolog.Logger

	// BatchPause is slept between items of LoginBatch.
	BatchPause time.Duration
	Observer   LoginObserver
}

func NewLoginService(
	store *AccountStore,
	cache *ConnectionCache,
	factory ports.ClientFactory,
	source ports.VerificationSource,
	prompter ports.Prompter,
	locks *PhoneLocks,
	clock ports.Clock,
	logger zerolog.Logger,
) *LoginService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if locks == nil {
		locks = NewPhoneLocks()
	}

	return &LoginService{
		store:      store,
		cache:      cache,
		factory:    factory,
		source:     source,
		prompter:   prompter,
		locks:      locks,
		clock:      clock,
		logger:     logger.With().Str("component", "login").Logger(),
		BatchPause: DefaultBatchPause,
	}
}

// Login authorizes one account. It never returns a raw protocol error: every
// failure is classified into the returned outcome.
func (s *LoginService) Login(ctx context.Context, req LoginRequest) domain.Outcome {
	phone, err := domain.NormalizePhone(req.Phone)
	if err != nil {
		return domain.Classify(err)
	}

	unlock := s.locks.Lock(phone)
	defer unlock()

	account, err := s.prepare(ctx, phone, strings.TrimSpace(req.VerificationURL))
	if err != nil {
		return domain.Classify(err)
	}

	s.cache.Drop(ctx, phone)

	s.observe(phone, domain.LoginConnecting)
	client, err := s.factory.New(account.Kind(), account.SessionRef)
	if err != nil {
		return s.fail(ctx, phone, nil, fmt.Errorf("create client: %w", err))
	}
	if err := client.Connect(ctx); err != nil {
		return s.fail(ctx, phone, client, fmt.Errorf("connect: %w", err))
	}

	s.observe(phone, domain.LoginCheckingAuthorization)
	authorized, err := client.IsAuthorized(ctx)
	if err != nil {
		return s.fail(ctx, phone, client, fmt.Errorf("check authorization: %w", err))
	}
	if authorized {
		s.observe(phone, domain.LoginAlreadyAuthorized)
		return s.complete(ctx, account, client, "already logged in")
	}

	hash, err := client.SendCode(ctx, phone)
	if err != nil {
		return s.fail(ctx, phone, client, fmt.Errorf("request code: %w", err))
	}
	s.observe(phone, domain.LoginCodeRequested)

	s.observe(phone, domain.LoginAwaitingCode)
	code, err := s.resolveCode(ctx, phone, account.VerificationURL, req.Code)
	if err != nil {
		return s.fail(ctx, phone, client, err)
	}

	s.observe(phone, domain.LoginCodeSubmitted)
	err = client.SignIn(ctx, phone, code, hash)
	if errors.Is(err, domain.ErrPasswordRequired) {
		s.observe(phone, domain.LoginTwoFactorRequired)
		password, resolveErr := s.resolvePassword(ctx, phone, account.VerificationURL, req.Password)
		if resolveErr != nil {
			return s.fail(ctx, phone, client, resolveErr)
		}
		s.observe(phone, domain.LoginPasswordSubmitted)
		err = client.CheckPassword(ctx, password)
	}
	if err != nil {
		return s.fail(ctx, phone, client, err)
	}

	s.observe(phone, domain.LoginAuthorized)
	return s.complete(ctx, account, client, "logged in")
}

// prepare creates the record on first login and records a new verification URL.
func (s *LoginService) prepare(ctx context.Context, phone domain.Phone, url string) (domain.Account, error) {
	account, ok := s.store.Get(string(phone))
	if ok && (url == "" || url == account.VerificationURL) {
		return account, nil
	}

	account, err := s.store.Upsert(ctx, domain.Account{Phone: phone, VerificationURL: url})
	if err != nil && account.Phone == "" {
		return domain.Account{}, err
	}
	return account, nil
}

func (s *LoginService) complete(ctx context.Context, account domain.Account, client ports.ProtocolClient, verb string) domain.Outcome {
	profile, err := client.Self(ctx)
	if err != nil {
		return s.fail(ctx, account.Phone, client, fmt.Errorf("read profile: %w", err))
	}

	account.Profile = profile
	account.Authenticated = true
	account.LastActive = s.clock.Now().UTC()
	if _, err := s.store.Upsert(context.WithoutCancel(ctx), account); err != nil {
		s.logger.Warn().Err(err).Str("phone", string(account.Phone)).Msg("persist login")
	}
	s.cache.Put(ctx, account.Phone, client)

	s.logger.Info().Str("phone", string(account.Phone)).Str("user", profile.Label()).Msg(verb)
	return domain.Success("%s %s: %s", account.Phone, verb, profile.Label())
}

func (s *LoginService) fail(ctx context.Context, phone domain.Phone, client ports.ProtocolClient, err error) domain.Outcome {
	s.observe(phone, domain.LoginFailed)
	if client != nil {
		if disconnectErr := client.Disconnect(ctx); disconnectErr != nil {
			s.logger.Debug().Err(disconnectErr).Str("phone", string(phone)).Msg("disconnect after failed login")
		}
	}

	outcome := domain.Classify(err)
	outcome.Detail = fmt.Sprintf("%s: %s", phone, outcome.Detail)
	s.logger.Warn().Err(err).Str("phone", string(phone)).Str("reason", string(outcome.Reason)).Msg("login failed")
	return outcome
}

// resolveCode applies manual > verification URL > prompt. A failed URL fetch
// fails the login without prompting.
func (s *LoginService) resolveCode(ctx context.Context, phone domain.Phone, url, manual string) (string, error) {
	if code := strings.TrimSpace(manual); code != "" {
		return code, nil
	}
	if url != "" && s.source != nil {
		code, err := s.source.FetchCode(ctx, url)
		if err != nil {
			return "", fmt.Errorf("fetch code: %w", err)
		}
		return code, nil
	}
	if s.prompter == nil {
		return "", domain.ErrCodeNotFound
	}

	code, err := s.prompter.Code(ctx, string(phone))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrCodeNotFound, err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", domain.ErrCodeEmpty
	}
	return code, nil
}

// resolvePassword applies manual > verification URL > prompt. Unlike the
// code, a URL that yields no password falls through to the prompt.
func (s *LoginService) resolvePassword(ctx context.Context, phone domain.Phone, url, manual string) (string, error) {
	if manual != "" {
		return manual, nil
	}
	if url != "" && s.source != nil {
		password, err := s.source.FetchPassword(ctx, url)
		if err == nil {
			return password, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.logger.Info().Err(err).Str("phone", string(phone)).Msg("no 2fa password at verification url, prompting")
	}
	if s.prompter == nil {
		return "", domain.ErrPasswordNotFound
	}

	password, err := s.prompter.Password(ctx, string(phone))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrPasswordNotFound, err)
	}
	if password == "" {
		return "", domain.ErrPasswordNotFound
	}
	return password, nil
}

func (s *LoginService) observe(phone domain.Phone, state domain.LoginState) {
	s.logger.Debug().Str("phone", string(phone)).Str("state", string(state)).Msg("login state")
	if s.Observer != nil {
		s.Observer(phone, state)
	}
}

type BatchLoginResult struct {
	Phones   []string
	Outcomes []domain.Outcome
	Tally    domain.Tally
}

// LoginBatch logs in "phone|url" lines one after another, pausing between
// items. Malformed lines produce an invalid_input outcome in place.
func (s *LoginService) LoginBatch(ctx context.Context, lines []string) BatchLoginResult {
	var result BatchLoginResult

	attempted := 0
	for _, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		if attempted > 0 && s.BatchPause > 0 {
			if err := s.clock.Sleep(ctx, s.BatchPause); err != nil {
				break
			}
		}
		attempted++

		line, err := domain.ParseAccountLine(trimmed)
		if err != nil {
			result.Phones = append(result.Phones, trimmed)
			result.Outcomes = append(result.Outcomes, domain.Classify(err))
			continue
		}

		result.Phones = append(result.Phones, string(line.Phone))
		result.Outcomes = append(result.Outcomes, s.Login(ctx, LoginRequest{
			Phone:           string(line.Phone),
			VerificationURL: line.VerificationURL,
		}))
	}

	result.Tally = domain.TallyOutcomes(result.Outcomes)
	return result
}
