package goAccount

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory AccountStore and RoleStore that enforces the same
// uniqueness and version rules as the Postgres store.
type memStore struct {
	mu         sync.Mutex
	accounts   map[string]*Account
	roles      map[string]Role
	nextRoleID int64
	now        func() time.Time

	// failures injected by tests
	findErr   error
	updateErr error
	// beforeUpdate runs with the lock released, before the version check.
	beforeUpdate func(id string)
	// beforeCreate runs with the lock released, before the uniqueness check.
	beforeCreate func(email string)

	finds   int
	updates int
}

func newMemStore() *memStore {
	s := &memStore{
		accounts: map[string]*Account{},
		roles:    map[string]Role{},
		now:      time.Now,
	}
	for _, r := range []string{"normal", "superuser", "ADMIN"} {
		s.nextRoleID++
		s.roles[r] = Role{ID: s.nextRoleID, Value: r}
	}
	return s
}

func cloneAccount(a *Account) Account {
	out := *a
	if a.Pending != nil {
		p := *a.Pending
		out.Pending = &p
	}
	out.Roles = append([]Role(nil), a.Roles...)
	return out
}

func (s *memStore) FindByEmail(_ context.Context, email string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if s.findErr != nil {
		return Account{}, s.findErr
	}
	for _, a := range s.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (s *memStore) FindByVerificationToken(_ context.Context, token string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if s.findErr != nil {
		return Account{}, s.findErr
	}
	for _, a := range s.accounts {
		if a.Pending != nil && a.Pending.Token == token {
			return cloneAccount(a), nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (s *memStore) tokenTaken(token, exceptID string) bool {
	for id, a := range s.accounts {
		if id != exceptID && a.Pending != nil && a.Pending.Token == token {
			return true
		}
	}
	return false
}

func (s *memStore) Create(_ context.Context, in NewAccount) (Account, error) {
	if hook := s.beforeCreate; hook != nil {
		hook(in.Email)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email == in.Email {
			return Account{}, &UniqueViolationError{Constraint: ConstraintEmail}
		}
	}
	if in.Pending != nil && s.tokenTaken(in.Pending.Token, "") {
		return Account{}, &UniqueViolationError{Constraint: ConstraintToken}
	}

	now := s.now()
	a := &Account{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Status:       in.Status,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Pending != nil {
		p := *in.Pending
		a.Pending = &p
	}
	for _, v := range in.Roles {
		r, ok := s.roles[v]
		if !ok {
			return Account{}, ErrRoleNotFound
		}
		a.Roles = append(a.Roles, r)
	}
	s.accounts[a.ID] = a
	return cloneAccount(a), nil
}

func (s *memStore) UpdateFields(_ context.Context, id string, expectedVersion int64, upd AccountUpdate) (Account, error) {
	if hook := s.beforeUpdate; hook != nil {
		hook(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if s.updateErr != nil {
		return Account{}, s.updateErr
	}

	a, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	if a.Version != expectedVersion {
		return Account{}, ErrVersionConflict
	}
	if !upd.ClearPending && upd.Pending != nil && s.tokenTaken(upd.Pending.Token, id) {
		return Account{}, &UniqueViolationError{Constraint: ConstraintToken}
	}

	if upd.PasswordHash != nil {
		a.PasswordHash = *upd.PasswordHash
	}
	if upd.Status != nil {
		a.Status = *upd.Status
	}
	switch {
	case upd.ClearPending:
		a.Pending = nil
	case upd.Pending != nil:
		p := *upd.Pending
		a.Pending = &p
	}
	a.Version++
	a.UpdatedAt = s.now()
	return cloneAccount(a), nil
}

func (s *memStore) AddRole(_ context.Context, accountID, roleValue string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	r, ok := s.roles[roleValue]
	if !ok {
		return Account{}, ErrRoleNotFound
	}
	for _, have := range a.Roles {
		if have.Value == roleValue {
			return cloneAccount(a), nil
		}
	}
	a.Roles = append(a.Roles, r)
	a.Version++
	return cloneAccount(a), nil
}

func (s *memStore) List(context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, cloneAccount(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *memStore) CreateRole(_ context.Context, value, description string) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[value]; ok {
		return Role{}, &UniqueViolationError{Constraint: ConstraintRole}
	}
	s.nextRoleID++
	r := Role{ID: s.nextRoleID, Value: value, Description: description}
	s.roles[value] = r
	return r, nil
}

func (s *memStore) FindRoleByValue(_ context.Context, value string) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[value]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return r, nil
}

func (s *memStore) get(t *testing.T, email string) Account {
	t.Helper()
	a, err := s.FindByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("account %q not found: %v", email, err)
	}
	return a
}

// put stores an account directly, bypassing the engine.
func (s *memStore) put(a Account) Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	c := cloneAccount(&a)
	s.accounts[a.ID] = &c
	return a
}

type sentMail struct {
	kind  string
	email string
	token string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) SendConfirmation(_ context.Context, email, token string) error {
	return n.record("confirmation", email, token)
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	return n.record("password_reset", email, token)
}

func (n *recordingNotifier) record(kind, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: kind, email: email, token: token})
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *recordingNotifier) last(t *testing.T) sentMail {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatal("expected a notification")
	}
	return n.sent[len(n.sent)-1]
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.PrivateKey = []byte("test-secret-0123456789")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Hashing.Workers = 4
	cfg.Audit.Enabled = false
	return cfg
}

type testEnv struct {
	engine   *Engine
	store    *memStore
	notifier *recordingNotifier
	clock    *testClock
}

func newTestEnv(t *testing.T, mutate ...func(*Config, *Builder)) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    newMemStore(),
		notifier: &recordingNotifier{},
		clock:    newTestClock(),
	}
	env.store.now = env.clock.Now

	cfg := testConfig()
	b := New()
	for _, m := range mutate {
		m(&cfg, b)
	}
	engine, err := b.
		WithConfig(cfg).
		WithAccountStore(env.store).
		WithNotifier(env.notifier).
		WithClock(env.clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

// activeAccount stores an active account with a password and the normal role.
func (env *testEnv) activeAccount(t *testing.T, email, pw string) Account {
	t.Helper()
	hash, err := env.engine.hasher.Hash(context.Background(), pw)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return env.store.put(Account{
		Email:        email,
		PasswordHash: hash,
		Status:       AccountActive,
		Roles:        []Role{env.store.roles["normal"]},
	})
}

func wantErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}
