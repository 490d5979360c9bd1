package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

func mockAnyContext() interface{} {
	return mock.Anything
}

type inMemoryAccountRepo struct {
	mu       sync.Mutex
	accounts []domain.Account
	listErr  error
	saveErr  error
	saves    int
}

func (r *inMemoryAccountRepo) List(_ context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]domain.Account(nil), r.accounts...), nil
}

func (r *inMemoryAccountRepo) SaveAll(ctx context.Context, accounts []domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves++
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.saveErr != nil {
		return r.saveErr
	}
	r.accounts = append([]domain.Account(nil), accounts...)
	return nil
}

func (r *inMemoryAccountRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.saves
}

type inMemorySessions struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newInMemorySessions() *inMemorySessions {
	return &inMemorySessions{data: make(map[string][]byte)}
}

func (s *inMemorySessions) Get(_ context.Context, ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.data[ref]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return data, nil
}

func (s *inMemorySessions) Put(_ context.Context, ref string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[ref] = data
	return nil
}

func (s *inMemorySessions) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, ref)
	return nil
}

func (s *inMemorySessions) has(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.data[ref]
	return ok
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func (f fixedClock) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

type recordingClock struct {
	fixedClock
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *recordingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return ctx.Err()
}

func (c *recordingClock) slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]time.Duration(nil), c.sleeps...)
}

var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// cancellingClock cancels the operation on its first Sleep, like an operator
// pressing Ctrl-C during a pause.
type cancellingClock struct {
	fixedClock
	cancel context.CancelFunc
}

func (c cancellingClock) Sleep(ctx context.Context, _ time.Duration) error {
	c.cancel()
	return ctx.Err()
}

// manualClock only moves when Sleep or advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *manualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return nil
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func (c *manualClock) slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]time.Duration(nil), c.sleeps...)
}

// fakeClient is a scripted ports.ProtocolClient.
type fakeClient struct {
	mu sync.Mutex

	authorized  bool
	connectErr  error
	authErr     error
	sendCodeErr error
	signInErr   error
	passwordErr error
	selfErr     error
	dialogsErr  error
	profile     domain.Profile
	sendErrs    map[string]error
	history     map[string][]ports.Message
	historyErrs map[string]error
	onSend      func(sent int)
	onSelf      func()

	connected   bool
	connects    int
	disconnects int
	codes       []string
	passwords   []string
	sent        []string
	files       []string
}

var _ ports.ProtocolClient = (*fakeClient)(nil)

func (c *fakeClient) Connect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connects++
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected = true
	return nil
}

func (c *fakeClient) Disconnect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disconnects++
	c.connected = false
	return nil
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

func (c *fakeClient) IsAuthorized(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.authorized, c.authErr
}

func (c *fakeClient) SendCode(context.Context, domain.Phone) (string, error) {
	if c.sendCodeErr != nil {
		return "", c.sendCodeErr
	}
	return "hash-1", nil
}

func (c *fakeClient) SignIn(_ context.Context, _ domain.Phone, code, codeHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if codeHash != "hash-1" {
		return errors.New("unexpected code hash")
	}
	c.codes = append(c.codes, code)
	if c.signInErr != nil {
		return c.signInErr
	}
	c.authorized = true
	return nil
}

func (c *fakeClient) CheckPassword(_ context.Context, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.passwords = append(c.passwords, password)
	if c.passwordErr != nil {
		return c.passwordErr
	}
	c.authorized = true
	return nil
}

func (c *fakeClient) Self(context.Context) (domain.Profile, error) {
	if c.onSelf != nil {
		c.onSelf()
	}
	return c.profile, c.selfErr
}

func (c *fakeClient) SendMessage(_ context.Context, target, _ string) error {
	return c.record(target, false)
}

func (c *fakeClient) SendFile(_ context.Context, target, path string, _ bool) error {
	c.mu.Lock()
	c.files = append(c.files, path)
	c.mu.Unlock()
	return c.record(target, true)
}

func (c *fakeClient) record(target string, _ bool) error {
	c.mu.Lock()
	err := c.sendErrs[target]
	if err == nil {
		c.sent = append(c.sent, target)
	}
	sent := len(c.sent)
	hook := c.onSend
	c.mu.Unlock()

	if hook != nil && err == nil {
		hook(sent)
	}
	return err
}

func (c *fakeClient) GetDialogs(context.Context, int) (int, error) {
	if c.dialogsErr != nil {
		return 0, c.dialogsErr
	}
	return 1, nil
}

func (c *fakeClient) GetEntity(_ context.Context, target string) (ports.Entity, error) {
	return ports.Entity{Title: target, Username: domain.StripHandle(target)}, nil
}

func (c *fakeClient) RecentMessages(_ context.Context, target string, limit int) ([]ports.Message, error) {
	if err := c.historyErrs[target]; err != nil {
		return nil, err
	}
	messages := c.history[target]
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (c *fakeClient) sentTargets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.sent...)
}

// fakeFactory hands out the client registered for a session ref.
type fakeFactory struct {
	mu      sync.Mutex
	clients map[string]*fakeClient
	kinds   map[string]domain.SessionKind
	newErr  error
	built   int
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		clients: make(map[string]*fakeClient),
		kinds:   make(map[string]domain.SessionKind),
	}
}

func (f *fakeFactory) register(ref string, client *fakeClient) *fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clients[ref] = client
	return client
}

func (f *fakeFactory) New(kind domain.SessionKind, ref string) (ports.ProtocolClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.newErr != nil {
		return nil, f.newErr
	}
	f.built++
	f.kinds[ref] = kind
	client, ok := f.clients[ref]
	if !ok {
		client = &fakeClient{}
		f.clients[ref] = client
	}
	return client, nil
}

func (f *fakeFactory) kindOf(ref string) domain.SessionKind {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.kinds[ref]
}

func (f *fakeFactory) buildCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.built
}

type testEnv struct {
	repo     *inMemoryAccountRepo
	sessions *inMemorySessions
	factory  *fakeFactory
	store    *AccountStore
	cache    *ConnectionCache
	locks    *PhoneLocks
}

func newTestEnv(t interface{ Helper() }, accounts ...domain.Account) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:     &inMemoryAccountRepo{accounts: accounts},
		sessions: newInMemorySessions(),
		factory:  newFakeFactory(),
		locks:    NewPhoneLocks(),
	}
	env.store = NewAccountStore(env.repo, env.sessions, zerolog.Nop())
	if err := env.store.Load(context.Background()); err != nil {
		panic(err)
	}
	env.cache = NewConnectionCache(env.store, env.factory, zerolog.Nop())
	return env
}

// addAuthorized stores an account flagged authenticated whose session is live.
func (e *testEnv) addAuthorized(phone string) (domain.Account, *fakeClient) {
	p := domain.Phone(phone)
	account := domain.Account{
		Phone:         p,
		SessionRef:    domain.SessionRefFor(p),
		SessionKind:   domain.SessionKindStandard,
		Authenticated: true,
		Profile:       domain.Profile{DisplayName: "User " + phone},
	}
	client := e.factory.register(account.SessionRef, &fakeClient{authorized: true, profile: account.Profile})
	if _, err := e.store.Merge(account); err != nil {
		panic(err)
	}
	return account, client
}

