package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type fakeStore struct {
	mu    sync.Mutex
	items map[entity.Key]entity.Challenge
	// deleteAt mirrors the sweep index: expiry, or consumption plus retention.
	deleteAt map[entity.Key]time.Time
	// superseded mirrors the digests a replaced challenge leaves behind.
	superseded map[entity.Key][]string
	stats      map[entity.Purpose]map[entity.Counter]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:    map[entity.Key]entity.Challenge{},
		deleteAt:   map[entity.Key]time.Time{},
		superseded: map[entity.Key][]string{},
		stats:      map[entity.Purpose]map[entity.Counter]int64{},
	}
}

func (f *fakeStore) Replace(_ context.Context, ch entity.Challenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var superseded []string
	if old, ok := f.items[ch.Key()]; ok {
		superseded = append([]string{old.CodeDigest}, f.superseded[ch.Key()]...)
		superseded = superseded[:min(len(superseded), entity.MaxSuperseded)]
	}
	f.items[ch.Key()] = ch
	f.superseded[ch.Key()] = superseded
	f.deleteAt[ch.Key()] = ch.ExpiresAt
	return nil
}

func (f *fakeStore) Get(_ context.Context, key entity.Key) (*entity.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.items[key]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &ch, nil
}

func (f *fakeStore) GetAndIncrementAttempts(_ context.Context, key entity.Key, q entity.AttemptQuery) (*entity.Challenge, entity.AttemptResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch, ok := f.items[key]
	if !ok || ch.Consumed || ch.OwnerID != q.OwnerID || (q.ChallengeRef != "" && q.ChallengeRef != ch.ID) {
		return nil, entity.AttemptNotFound, nil
	}
	if q.ChallengeRef == "" && q.CodeDigest != "" && q.CodeDigest != ch.CodeDigest &&
		slices.Contains(f.superseded[key], q.CodeDigest) {
		return nil, entity.AttemptNotFound, nil
	}
	if ch.Expired(q.Now) {
		f.remove(key)
		f.incr(ch.Purpose, entity.CounterExpired)
		return nil, entity.AttemptExpired, nil
	}
	if ch.Attempts >= q.MaxAttempts {
		f.remove(key)
		f.incr(ch.Purpose, entity.CounterExhausted)
		return nil, entity.AttemptExhausted, nil
	}

	ch.Attempts++
	f.items[key] = ch
	return &ch, entity.AttemptAccepted, nil
}

func (f *fakeStore) MarkConsumed(_ context.Context, key entity.Key, id string, at time.Time, retention time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch, ok := f.items[key]
	if !ok || ch.ID != id || ch.Consumed {
		return false, nil
	}
	ch.Consumed = true
	ch.ConsumedAt = at
	f.items[key] = ch
	f.deleteAt[key] = at.Add(retention)
	f.incr(ch.Purpose, entity.CounterVerified)
	return true, nil
}

func (f *fakeStore) DeleteIfID(_ context.Context, key entity.Key, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.items[key]; !ok || ch.ID != id {
		return false, nil
	}
	f.remove(key)
	return true, nil
}

func (f *fakeStore) DeleteExpiredBefore(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for key, at := range f.deleteAt {
		if !at.After(now) {
			if ch := f.items[key]; !ch.Consumed {
				f.incr(ch.Purpose, entity.CounterExpired)
			}
			f.remove(key)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) IncrStat(_ context.Context, p entity.Purpose, c entity.Counter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incr(p, c)
	return nil
}

func (f *fakeStore) Stats(context.Context) ([]entity.PurposeStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.PurposeStats
	for p, c := range f.stats {
		out = append(out, entity.PurposeStats{
			Purpose:        p,
			Issued:         c[entity.CounterIssued],
			Verified:       c[entity.CounterVerified],
			Expired:        c[entity.CounterExpired],
			Exhausted:      c[entity.CounterExhausted],
			Invalid:        c[entity.CounterInvalid],
			DeliveryFailed: c[entity.CounterDeliveryFailed],
		})
	}
	return out, nil
}

func (f *fakeStore) stat(p entity.Purpose, c entity.Counter) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats[p][c]
}

func (f *fakeStore) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *fakeStore) attempts(t *testing.T, key entity.Key) int {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.items[key]
	if !ok {
		t.Fatalf("no challenge stored for %+v", key)
	}
	return ch.Attempts
}

func (f *fakeStore) remove(key entity.Key) {
	delete(f.items, key)
	delete(f.deleteAt, key)
	delete(f.superseded, key)
}

func (f *fakeStore) incr(p entity.Purpose, c entity.Counter) {
	if f.stats[p] == nil {
		f.stats[p] = map[entity.Counter]int64{}
	}
	f.stats[p][c]++
}

type fakeLimiter struct {
	mu      sync.Mutex
	blocked map[string]bool
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{blocked: map[string]bool{}}
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blocked[key] {
		return false, nil
	}
	f.blocked[key] = true
	return true, nil
}

func (f *fakeLimiter) Record(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked[key] = true
	return nil
}

func (f *fakeLimiter) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blocked, key)
	return nil
}

func (f *fakeLimiter) Remaining(_ context.Context, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blocked[key] {
		return time.Minute, nil
	}
	return 0, nil
}

// expire lets every key pass again, as if the cooldown elapsed.
func (f *fakeLimiter) expire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked = map[string]bool{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []entity.Delivery
	err  error
	// hang makes Send wait for its context, like a provider that never answers.
	hang bool
}

func (f *fakeNotifier) Send(ctx context.Context, d entity.Delivery) error {
	f.mu.Lock()
	hang := f.hang
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, d)
	return nil
}

func (f *fakeNotifier) last(t *testing.T) entity.Delivery {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no code was delivered")
	}
	return f.sent[len(f.sent)-1]
}

type fakeExporter struct {
	got entity.Stats
}

func (f *fakeExporter) Export(_ context.Context, stats entity.Stats) (string, time.Time, error) {
	f.got = stats
	return "https://storage.local/otp-stats.json", stats.GeneratedAt.Add(15 * time.Minute), nil
}

type fakeBinders struct {
	mu      sync.Mutex
	calls   int
	confirm error
}

func (f *fakeBinders) ActivateAccount(_ context.Context, userID int64) (*entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &entity.Account{UserID: userID, Email: "user@example.com"}, nil
}

func (f *fakeBinders) IssueSession(_ context.Context, userID int64) (*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &entity.Session{AccessToken: fmt.Sprintf("access-%d", userID), RefreshToken: "refresh"}, nil
}

func (f *fakeBinders) ConfirmOrder(_ context.Context, _, orderID int64) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.confirm != nil {
		return nil, f.confirm
	}
	return &entity.Order{OrderID: orderID, Status: "confirmed"}, nil
}

func (f *fakeBinders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("ref-%d", s.n)
}

type harness struct {
	uc       *Usecase
	store    *fakeStore
	limiter  *fakeLimiter
	notifier *fakeNotifier
	exporter *fakeExporter
	binders  *fakeBinders
	clock    *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  otp:\n    consumed_retention_seconds: 5\n"))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	h := &harness{
		store:    newFakeStore(),
		limiter:  newFakeLimiter(),
		notifier: &fakeNotifier{},
		exporter: &fakeExporter{},
		binders:  &fakeBinders{},
		clock:    &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	h.uc = New(Dependency{
		Store:      h.store,
		Limiter:    h.limiter,
		Notifier:   h.notifier,
		Exporter:   h.exporter,
		Validator:  v,
		Config:     cfg,
		HMAC:       hash.NewHMACSHA256("test-secret"),
		UUID:       &seqID{},
		Clock:      h.clock,
		Instrument: instrument.NewNoop(),
	})

	if err := h.uc.Bind(Binders{Registration: h.binders, Login: h.binders, OrderConfirmation: h.binders}); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	return h
}

// issue delivers a challenge and returns its ref and plain code.
func (h *harness) issue(t *testing.T, in IssueInput) (string, string) {
	t.Helper()
	out, err := h.uc.IssueChallenge(context.Background(), in)
	if err != nil {
		t.Fatalf("IssueChallenge() error = %v", err)
	}
	return out.ChallengeRef, h.notifier.last(t).Code
}

func wrongCode(code string) string {
	if code == "123456" {
		return "654321"
	}
	return "123456"
}

func assertErr(t *testing.T, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Fatalf("error = %v, want %v", got, want)
	}
}
