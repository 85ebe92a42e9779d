package usecase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/order/entity"
	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	otpusecase "github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type fakeDB struct {
	mu     sync.Mutex
	orders  map[int64]entity.Order
	emails  map[int64]string
	listErr error
}

func (f *fakeDB) CreateOrder(_ context.Context, o entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.emails[o.OwnerID]; !ok {
		return goerror.ErrNotFound
	}
	f.orders[o.ID] = o
	return nil
}

func (f *fakeDB) GetOrder(_ context.Context, id, ownerID int64) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.OwnerID != ownerID {
		return nil, goerror.ErrNotFound
	}
	return &o, nil
}

func (f *fakeDB) ListOrders(_ context.Context, ownerID int64, limit, offset int32) ([]entity.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}

	owned := make([]entity.Order, 0, len(f.orders))
	for _, o := range f.orders {
		if o.OwnerID == ownerID {
			owned = append(owned, o)
		}
	}
	slices.SortFunc(owned, func(a, b entity.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	start := min(int(offset), len(owned))
	end := min(start+int(limit), len(owned))
	return owned[start:end], int64(len(owned)), nil
}

func (f *fakeDB) ConfirmOrder(_ context.Context, id, ownerID int64, at, estimate time.Time) (*entity.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.OwnerID != ownerID || o.Status != entity.StatusPending {
		return nil, goerror.ErrNotFound
	}
	o.Status = entity.StatusConfirmed
	o.OTPVerifiedAt = &at
	o.EstimatedDelivery = &estimate
	f.orders[id] = o
	return &entity.Confirmation{Order: o, OwnerEmail: f.emails[ownerID]}, nil
}

func (f *fakeDB) CancelOrder(_ context.Context, id, ownerID int64, at time.Time) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.OwnerID != ownerID || !o.Status.Cancellable() {
		return nil, goerror.ErrNotFound
	}
	o.Status = entity.StatusCancelled
	o.CancelledAt = &at
	f.orders[id] = o
	return &o, nil
}

type fakeMessaging struct {
	mu        sync.Mutex
	published []entity.Confirmation
	failures  int
}

func (f *fakeMessaging) PublishOrderConfirmed(_ context.Context, _ string, c entity.Confirmation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, c)
	return nil
}

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
	return &otpentity.Issued{ChallengeRef: fmt.Sprintf("ref-%d", len(f.issued)), ExpiresAt: testNow.Add(15 * time.Minute)}, nil
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
	return &otpentity.Issued{ChallengeRef: "ref-resent", ExpiresAt: testNow.Add(15 * time.Minute)}, nil
}

type seqNumber struct {
	mu sync.Mutex
	n  int64
}

func (s *seqNumber) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return 5000 + s.n
}

type seqString struct {
	mu sync.Mutex
	n  int
}

func (s *seqString) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("event-%d", s.n)
}

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	uc         *Usecase
	db         *fakeDB
	messaging  *fakeMessaging
	challenger *fakeChallenger
	goroutine  *goroutine.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  order:\n    delivery_estimate_days: 5\n"))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	h := &harness{
		db:         &fakeDB{orders: map[int64]entity.Order{}, emails: map[int64]string{7: "buyer@example.com", 8: "other@example.com"}},
		messaging:  &fakeMessaging{},
		challenger: &fakeChallenger{},
		goroutine:  goroutine.NewManager(4),
	}

	h.uc = New(Dependency{
		RepoDB:        h.db,
		RepoMessaging: h.messaging,
		Challenger:    h.challenger,
		Validator:     v,
		Config:        cfg,
		UID:           &seqNumber{},
		UUID:          &seqString{},
		Clock:         clock.Fixed(testNow),
		Instrument:    instrument.NewNoop(),
		Goroutine:     h.goroutine,
	})

	return h
}

func (h *harness) seedOrder(id, ownerID int64, status entity.Status) {
	h.db.orders[id] = entity.Order{
		ID:          id,
		OwnerID:     ownerID,
		Status:      status,
		TotalAmount: 125000,
		Currency:    "IDR",
		CreatedAt:   testNow,
	}
}

func authed(userID int64, email string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID, UserEmail: email})
}

func assertErr(t *testing.T, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Fatalf("error = %v, want %v", got, want)
	}
}
