package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	otpusecase "github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type fakeDB struct {
	mu    sync.Mutex
	users map[int64]entity.User
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (f *fakeDB) CreateUser(_ context.Context, u entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return nil
}

func (f *fakeDB) ActivateUser(_ context.Context, id int64, at time.Time) (*entity.Activation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.Status != entity.UserStatusUnverified {
		return nil, goerror.ErrNotFound
	}
	u.Status = entity.UserStatusActive
	u.EmailVerifiedAt = &at
	f.users[id] = u
	return &entity.Activation{UserID: id, Email: u.Email, FullName: u.FullName, VerifiedAt: at}, nil
}

type fakeSessions struct {
	mu     sync.Mutex
	owners map[string]int64
}

func (f *fakeSessions) CreateSession(_ context.Context, digest string, userID int64, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners[digest] = userID
	return nil
}

func (f *fakeSessions) SessionOwner(_ context.Context, digest string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.owners[digest]
	if !ok {
		return 0, goerror.ErrNotFound
	}
	return id, nil
}

func (f *fakeSessions) RotateSession(_ context.Context, oldDigest, newDigest string, userID int64, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owners[oldDigest] != userID {
		return goerror.ErrNotFound
	}
	delete(f.owners, oldDigest)
	f.owners[newDigest] = userID
	return nil
}

func (f *fakeSessions) RevokeSession(_ context.Context, digest string, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.owners[digest]; !ok || id != userID {
		return false, nil
	}
	delete(f.owners, digest)
	return true, nil
}

func (f *fakeSessions) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.owners)
}

type fakeMessaging struct {
	mu        sync.Mutex
	published []entity.Activation
	failures  int
}

func (f *fakeMessaging) PublishAccountActivated(_ context.Context, _ string, a entity.Activation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, a)
	return nil
}

// fakeChallenger records what identity asks of the otp engine.
type fakeChallenger struct {
	issued   []otpusecase.IssueInput
	resent   []otpusecase.IssueInput
	verified []otpusecase.VerifyInput
	err      error
	result   *otpentity.TransitionResult
}

func (f *fakeChallenger) IssueChallenge(_ context.Context, in otpusecase.IssueInput) (*otpentity.Issued, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.issued = append(f.issued, in)
	return &otpentity.Issued{ChallengeRef: fmt.Sprintf("ref-%d", len(f.issued)), ExpiresAt: testNow.Add(10 * time.Minute)}, nil
}

func (f *fakeChallenger) VerifyChallenge(_ context.Context, in otpusecase.VerifyInput) (*otpentity.TransitionResult, error) {
	f.verified = append(f.verified, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeChallenger) ResendChallenge(_ context.Context, in otpusecase.IssueInput) (*otpentity.Issued, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.resent = append(f.resent, in)
	return &otpentity.Issued{ChallengeRef: "ref-resent", ExpiresAt: testNow.Add(10 * time.Minute)}, nil
}

type seqNumber struct {
	mu sync.Mutex
	n  int64
}

func (s *seqNumber) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return 1000 + s.n
}

// seqToken returns 64-char tokens like the object id generator.
type seqToken struct {
	mu sync.Mutex
	n  int
}

func (s *seqToken) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%064d", s.n)
}

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

const testPassword = "correct-horse-battery"

type harness struct {
	uc         *Usecase
	db         *fakeDB
	sessions   *fakeSessions
	messaging  *fakeMessaging
	challenger *fakeChallenger
	goroutine  *goroutine.Manager
	password   hash.Hash
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}
	cfg, err := config.NewViperFromBytes("yaml", []byte(
		"jwt:\n  ttl_minutes: 15\nmodules:\n  identity:\n    session_ttl_days: 7\n    login_bypass_emails: [\"VIP@example.com\"]\n"))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	clk := clock.Fixed(testNow)
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "otpgate-test",
		Audiences: []string{"otpgate"},
		TTL:       15 * time.Minute,
		Clock:     clk,
		UUID:      &seqToken{},
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}

	h := &harness{
		db:         &fakeDB{users: map[int64]entity.User{}},
		sessions:   &fakeSessions{owners: map[string]int64{}},
		messaging:  &fakeMessaging{},
		challenger: &fakeChallenger{},
		goroutine:  goroutine.NewManager(4),
		password:   hash.NewBcrypt(4, ""),
	}

	h.uc = New(Dependency{
		RepoDB:        h.db,
		RepoSession:   h.sessions,
		RepoMessaging: h.messaging,
		Challenger:    h.challenger,
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("test-secret"),
		Password:      h.password,
		UID:           &seqNumber{},
		UUID:          &seqToken{},
		Tokens:        &seqToken{},
		Clock:         clk,
		JWT:           tokens,
		Instrument:    instrument.NewNoop(),
		Goroutine:     h.goroutine,
	})

	return h
}

// seedUser stores a user with testPassword.
func (h *harness) seedUser(t *testing.T, id int64, email string, status entity.UserStatus) entity.User {
	t.Helper()
	hashed, err := h.password.Hash(testPassword)
	if err != nil {
		t.Fatalf("password Hash() error = %v", err)
	}
	u := entity.User{ID: id, Email: email, FullName: "Test User", PasswordHash: string(hashed), Status: status, CreatedAt: testNow}
	h.db.users[id] = u
	return u
}

// authed returns a context carrying claims for userID.
func authed(userID int64, email string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID, UserEmail: email})
}

func assertErr(t *testing.T, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Fatalf("error = %v, want %v", got, want)
	}
}
