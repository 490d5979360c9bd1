package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const DefaultDispatchDelay = time.Second

// DispatchOptions controls one dispatch call.
type DispatchOptions struct {
	// Delay is the pause between the end of one send and the start of the
	// next; the first send is immediate. Zero disables pacing.
	Delay time.Duration
	// Cancel is checked once per iteration, before each send.
	Cancel *domain.CancelFlag
	// Events, when set, receives one event per completed send.
	Events chan<- domain.DispatchEvent
	RunID  string
}

type DispatchService struct {
	store  *AccountStore
	cache  *ConnectionCache
	locks  *PhoneLocks
	clock  ports.Clock
	logger zerolog.Logger

	Policy domain.BroadcastPolicy
}

func NewDispatchService(store *AccountStore, cache *ConnectionCache, locks *PhoneLocks, clock ports.Clock, logger zerolog.Logger) *DispatchService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if locks == nil {
		locks = NewPhoneLocks()
	}

	return &DispatchService{
		store:  store,
		cache:  cache,
		locks:  locks,
		clock:  clock,
		logger: logger.With().Str("component", "dispatch").Logger(),
		Policy: domain.BroadcastPolicyMetadata,
	}
}

// SendFromAccount is the dispatch primitive: one payload from one account to
// one target. Errors are folded into the result.
func (s *DispatchService) SendFromAccount(ctx context.Context, rawPhone, target string, payload domain.Payload) domain.DispatchResult {
	phone, err := domain.NormalizePhone(rawPhone)
	if err != nil {
		return s.result(domain.Phone(strings.TrimSpace(rawPhone)), target, domain.Classify(err))
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return s.result(phone, target, domain.Classify(domain.ErrNoTargets))
	}
	if err := payload.Validate(); err != nil {
		return s.result(phone, target, domain.Classify(err))
	}

	return s.send(ctx, phone, target, payload)
}

func (s *DispatchService) send(ctx context.Context, phone domain.Phone, target string, payload domain.Payload) domain.DispatchResult {
	unlock := s.locks.Lock(phone)
	defer unlock()

	client, err := s.cache.Get(ctx, phone)
	if err != nil {
		return s.result(phone, target, domain.Classify(err))
	}

	if payload.IsFile() {
		err = client.SendFile(ctx, target, payload.FilePath, payload.Voice)
	} else {
		err = client.SendMessage(ctx, target, payload.Text)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthorized) {
			s.cache.Drop(ctx, phone)
		}
		return s.result(phone, target, domain.Classify(err))
	}

	if payload.IsFile() {
		return s.result(phone, target, domain.Success("sent file to %s", target))
	}
	return s.result(phone, target, domain.Success("sent to %s", target))
}

func (s *DispatchService) result(phone domain.Phone, target string, outcome domain.Outcome) domain.DispatchResult {
	event := s.logger.Info()
	if !outcome.OK {
		event = s.logger.Warn().Str("reason", string(outcome.Reason))
	}
	event.Str("phone", string(phone)).Str("target", target).Msg(outcome.Detail)

	return domain.DispatchResult{Phone: phone, Target: target, Outcome: outcome, At: s.clock.Now()}
}

// SendFromAll broadcasts from every eligible account in store order. With
// the metadata policy only accounts flagged authenticated are used; with the
// live policy every account is checked live and dead ones are reported without a
// send attempt.
func (s *DispatchService) SendFromAll(ctx context.Context, target string, payload domain.Payload, opts DispatchOptions) ([]domain.DispatchResult, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, domain.ErrNoTargets
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var accounts []domain.Account
	switch s.Policy {
	case domain.BroadcastPolicyLive:
		accounts = s.store.List()
	default:
		accounts = s.store.Authenticated()
	}
	if len(accounts) == 0 {
		return nil, domain.ErrNoAccountsSelected
	}

	steps := make([]step, 0, len(accounts))
	for _, account := range accounts {
		steps = append(steps, step{phone: account.Phone, target: target, liveCheck: s.Policy == domain.BroadcastPolicyLive})
	}
	return s.run(ctx, steps, payload, opts), nil
}

// SendToMultiple fans one payload out from one account to many targets.
func (s *DispatchService) SendToMultiple(ctx context.Context, rawPhone string, targets []string, payload domain.Payload, opts DispatchOptions) ([]domain.DispatchResult, error) {
	phone, err := domain.NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	targets = domain.NormalizeTargets(targets)
	if len(targets) == 0 {
		return nil, domain.ErrNoTargets
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	steps := make([]step, 0, len(targets))
	for _, target := range targets {
		steps = append(steps, step{phone: phone, target: target})
	}
	return s.run(ctx, steps, payload, opts), nil
}

// BatchSend walks an explicit assignment plan account by account, never
// concurrently. One delay applies between every send of the whole plan.
func (s *DispatchService) BatchSend(ctx context.Context, assignments []domain.Assignment, payload domain.Payload, opts DispatchOptions) ([]domain.DispatchResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var steps []step
	for _, assignment := range assignments {
		phone, err := domain.NormalizePhone(string(assignment.Phone))
		if err != nil {
			return nil, err
		}
		for _, target := range domain.NormalizeTargets(assignment.Targets) {
			steps = append(steps, step{phone: phone, target: target})
		}
	}
	if len(steps) == 0 {
		return nil, domain.ErrNoTargets
	}
	return s.run(ctx, steps, payload, opts), nil
}

// RoundRobin interleaves accounts over a flat target list: target i goes to
// account i mod len(accounts).
func (s *DispatchService) RoundRobin(ctx context.Context, rawPhones, rawTargets []string, payload domain.Payload, opts DispatchOptions) ([]domain.DispatchResult, error) {
	phones, err := domain.NormalizePhones(rawPhones)
	if err != nil {
		return nil, err
	}
	if len(phones) == 0 {
		return nil, domain.ErrNoAccountsSelected
	}
	targets := make([]string, 0, len(rawTargets))
	for _, target := range domain.NormalizeTargets(rawTargets) {
		if handle := domain.StripHandle(target); handle != "" {
			targets = append(targets, handle)
		}
	}
	if len(targets) == 0 {
		return nil, domain.ErrNoTargets
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	pairs := domain.AssignRoundRobin(phones, targets)
	steps := make([]step, 0, len(pairs))
	for _, pair := range pairs {
		steps = append(steps, step{phone: pair.Phone, target: pair.Target})
	}
	return s.run(ctx, steps, payload, opts), nil
}

type step struct {
	phone     domain.Phone
	target    string
	liveCheck bool
}

func (s *DispatchService) run(ctx context.Context, steps []step, payload domain.Payload, opts DispatchOptions) []domain.DispatchResult {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	pace := newPacer(opts.Delay, s.clock)
	logger := s.logger.With().Str("run", runID).Logger()

	results := make([]domain.DispatchResult, 0, len(steps))
	for i, st := range steps {
		if err := pace.wait(ctx); err != nil {
			logger.Info().Err(err).Int("done", i).Msg("dispatch interrupted")
			break
		}
		if opts.Cancel.Cancelled() {
			logger.Info().Int("done", i).Int("total", len(steps)).Msg("dispatch cancelled")
			break
		}

		var result domain.DispatchResult
		if st.liveCheck {
			result = s.verifyAndSend(ctx, st, payload)
		} else {
			result = s.send(ctx, st.phone, st.target, payload)
		}
		results = append(results, result)
		pace.rearm()

		if opts.Events != nil {
			event := domain.DispatchEvent{RunID: runID, Index: i, Total: len(steps), Result: result}
			select {
			case opts.Events <- event:
			case <-ctx.Done():
			}
		}
	}

	logger.Info().Str("tally", domain.TallyResults(results).String()).Msg("dispatch finished")
	return results
}

// verifyAndSend validates the account live before sending and keeps the
// stored authenticated flag in line with what the check found.
func (s *DispatchService) verifyAndSend(ctx context.Context, st step, payload domain.Payload) domain.DispatchResult {
	if _, err := s.cache.Get(ctx, st.phone); err != nil {
		if flagErr := s.store.SetAuthenticated(ctx, string(st.phone), false); flagErr != nil {
			s.logger.Debug().Err(flagErr).Str("phone", string(st.phone)).Msg("clear authenticated flag")
		}
		outcome := domain.Failure(domain.ReasonNotAuthorized, "%s skipped: %v", st.phone, err)
		return s.result(st.phone, st.target, outcome)
	}
	if err := s.store.SetAuthenticated(ctx, string(st.phone), true); err != nil {
		s.logger.Debug().Err(err).Str("phone", string(st.phone)).Msg("set authenticated flag")
	}
	return s.send(ctx, st.phone, st.target, payload)
}

// pacer spaces sends by delay, measured from the end of the previous send.
type pacer struct {
	delay   time.Duration
	clock   ports.Clock
	limiter *rate.Limiter
}

func newPacer(delay time.Duration, clock ports.Clock) *pacer {
	return &pacer{delay: delay, clock: clock}
}

// wait blocks until the delay since the last rearm has elapsed. Before the
// first rearm it returns at once.
func (p *pacer) wait(ctx context.Context) error {
	if p.limiter == nil {
		return ctx.Err()
	}
	now := p.clock.Now()
	reservation := p.limiter.ReserveN(now, 1)
	return p.clock.Sleep(ctx, reservation.DelayFrom(now))
}

// rearm starts a fresh delay window at the current time.
func (p *pacer) rearm() {
	if p.delay <= 0 {
		return
	}
	p.limiter = rate.NewLimiter(rate.Every(p.delay), 1)
	p.limiter.ReserveN(p.clock.Now(), 1)
}

type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryMissing DeliveryStatus = "missing"
	DeliveryError   DeliveryStatus = "error"
)

const (
	verifyMaxTargets  = 10
	verifyHistory     = 5
	verifyPreviewSize = 40
)

type Delivery struct {
	Target  string
	Status  DeliveryStatus
	Preview string
	Detail  string
}

// Verify looks at the recent history of up to ten targets and reports
// whether the account sent something there.
func (s *DispatchService) Verify(ctx context.Context, rawPhone string, targets []string) ([]Delivery, error) {
	phone, err := domain.NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	targets = domain.NormalizeTargets(targets)
	if len(targets) == 0 {
		return nil, domain.ErrNoTargets
	}
	if len(targets) > verifyMaxTargets {
		targets = targets[:verifyMaxTargets]
	}

	unlock := s.locks.Lock(phone)
	defer unlock()

	client, err := s.cache.Get(ctx, phone)
	if err != nil {
		return nil, err
	}

	deliveries := make([]Delivery, 0, len(targets))
	for _, target := range targets {
		messages, err := client.RecentMessages(ctx, target, verifyHistory)
		if err != nil {
			deliveries = append(deliveries, Delivery{Target: target, Status: DeliveryError, Detail: domain.Classify(err).Detail})
			continue
		}
		delivery := Delivery{Target: target, Status: DeliveryMissing}
		for _, msg := range messages {
			if msg.Outgoing {
				delivery.Status = DeliverySent
				delivery.Preview = preview(msg)
				break
			}
		}
		deliveries = append(deliveries, delivery)
	}
	return deliveries, nil
}

func preview(msg ports.Message) string {
	if msg.Text == "" {
		if msg.HasMedia {
			return "[file]"
		}
		return ""
	}
	runes := []rune(msg.Text)
	if len(runes) > verifyPreviewSize {
		return string(runes[:verifyPreviewSize]) + "..."
	}
	return msg.Text
}

// Summary renders a tally line for a finished dispatch.
func Summary(results []domain.DispatchResult) string {
	return fmt.Sprintf("dispatch %s", domain.TallyResults(results))
}
