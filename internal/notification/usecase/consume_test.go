package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/notification/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/testkit"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type fakeMail struct {
	mu       sync.Mutex
	welcome  []entity.Welcome
	orders   []entity.OrderConfirmed
	failures int
}

func (f *fakeMail) fail() error {
	if f.failures > 0 {
		f.failures--
		return errors.New("smtp unavailable")
	}
	return nil
}

func (f *fakeMail) SendWelcome(_ context.Context, w entity.Welcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	f.welcome = append(f.welcome, w)
	return nil
}

func (f *fakeMail) SendOrderConfirmed(_ context.Context, o entity.OrderConfirmed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	f.orders = append(f.orders, o)
	return nil
}

func newTestUsecase(t *testing.T, m *fakeMail) *Usecase {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  notification:\n    dedup_ttl_days: 1\n    mail_retries: 2\n"))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	return New(Dependency{
		RepoMail:   m,
		Tracker:    idempotency.New(testkit.Redis(t)),
		Validator:  v,
		Config:     cfg,
		Instrument: instrument.NewNoop(),
	})
}

func TestConsumeAccountActivatedOncePerEvent(t *testing.T) {
	// Arrange
	m := &fakeMail{}
	uc := newTestUsecase(t, m)
	in := ConsumeAccountActivatedInput{
		EventID:     "evt-1",
		UserID:      7,
		Email:       "new@example.com",
		FullName:    "New User",
		ActivatedAt: time.Now(),
	}

	// Act
	first := uc.ConsumeAccountActivated(context.Background(), in)
	second := uc.ConsumeAccountActivated(context.Background(), in)

	// Assert
	if first != nil || second != nil {
		t.Fatalf("ConsumeAccountActivated() errors = %v, %v", first, second)
	}
	if len(m.welcome) != 1 || m.welcome[0].Email != "new@example.com" {
		t.Fatalf("welcome emails = %+v, want exactly one", m.welcome)
	}
}

func TestConsumeOrderConfirmedRetriesThenSends(t *testing.T) {
	// Arrange
	m := &fakeMail{failures: 1}
	uc := newTestUsecase(t, m)

	// Act
	err := uc.ConsumeOrderConfirmed(context.Background(), ConsumeOrderConfirmedInput{
		EventID:  "evt-2",
		OrderID:  100,
		Email:    "buyer@example.com",
		Currency: "IDR",
	})

	// Assert
	if err != nil {
		t.Fatalf("ConsumeOrderConfirmed() error = %v", err)
	}
	if len(m.orders) != 1 || m.orders[0].OrderID != 100 {
		t.Fatalf("order emails = %+v", m.orders)
	}
}

func TestConsumeFailureReleasesEventForRedelivery(t *testing.T) {
	// Arrange
	// three failures outlast one delivery's retries
	m := &fakeMail{failures: 3}
	uc := newTestUsecase(t, m)
	in := ConsumeOrderConfirmedInput{EventID: "evt-3", OrderID: 100, Email: "buyer@example.com"}

	// Act
	first := uc.ConsumeOrderConfirmed(context.Background(), in)
	redelivered := uc.ConsumeOrderConfirmed(context.Background(), in)

	// Assert
	if first == nil {
		t.Fatal("first ConsumeOrderConfirmed() error = nil, want send failure")
	}
	if redelivered != nil {
		t.Fatalf("redelivered ConsumeOrderConfirmed() error = %v", redelivered)
	}
	if len(m.orders) != 1 {
		t.Fatalf("order emails = %d, want 1", len(m.orders))
	}
}

func TestConsumeDropsInvalidPayload(t *testing.T) {
	// Arrange
	m := &fakeMail{}
	uc := newTestUsecase(t, m)

	// Act
	err := uc.ConsumeAccountActivated(context.Background(), ConsumeAccountActivatedInput{EventID: "evt-4", UserID: 7, Email: "not-an-email"})

	// Assert
	if err != nil {
		t.Fatalf("ConsumeAccountActivated() error = %v, want nil", err)
	}
	if len(m.welcome) != 0 {
		t.Fatal("email sent for invalid payload")
	}
}
