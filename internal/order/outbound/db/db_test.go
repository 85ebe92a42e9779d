package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/order/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/testkit"
	"github.com/shandysiswandi/otpgate/internal/pkg/valueobject"
)

func TestDBOrderLifecycle(t *testing.T) {
	// Arrange
	pool := testkit.Postgres(t)
	s := NewDB(pool, instrument.NewNoop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	if _, err := pool.Exec(ctx,
		`INSERT INTO identity_users (id, email, full_name, password_hash, status, created_at, updated_at)
		 VALUES (7, 'buyer@example.com', 'Buyer', 'hash', 2, $1, $1)`, now); err != nil {
		t.Fatalf("seed user error = %v", err)
	}

	o := entity.Order{
		ID:          100,
		OwnerID:     7,
		Status:      entity.StatusPending,
		TotalAmount: 125000,
		Currency:    "IDR",
		Metadata:    valueobject.JSONMap{"note": "leave at door"},
		CreatedAt:   now,
	}

	// Act
	if err := s.CreateOrder(ctx, o); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	orphan := s.CreateOrder(ctx, entity.Order{ID: 101, OwnerID: 404, Status: entity.StatusPending, Currency: "IDR", CreatedAt: now})
	_, foreign := s.GetOrder(ctx, 100, 8)
	estimate := now.AddDate(0, 0, 3)
	conf, err := s.ConfirmOrder(ctx, 100, 7, now, estimate)
	_, again := s.ConfirmOrder(ctx, 100, 7, now, estimate)

	// Assert
	if !errors.Is(orphan, goerror.ErrNotFound) {
		t.Fatalf("CreateOrder() for unknown owner error = %v, want ErrNotFound", orphan)
	}
	if !errors.Is(foreign, goerror.ErrNotFound) {
		t.Fatalf("GetOrder() by other owner error = %v, want ErrNotFound", foreign)
	}
	if err != nil {
		t.Fatalf("ConfirmOrder() error = %v", err)
	}
	if conf.OwnerEmail != "buyer@example.com" || conf.Order.Status != entity.StatusConfirmed {
		t.Fatalf("ConfirmOrder() = %+v", conf)
	}
	if conf.Order.EstimatedDelivery == nil || !conf.Order.EstimatedDelivery.Equal(estimate) {
		t.Fatalf("EstimatedDelivery = %v, want %v", conf.Order.EstimatedDelivery, estimate)
	}
	if conf.Order.Metadata.GetString("note") != "leave at door" {
		t.Fatalf("Metadata = %v", conf.Order.Metadata)
	}
	if !errors.Is(again, goerror.ErrNotFound) {
		t.Fatalf("second ConfirmOrder() error = %v, want ErrNotFound", again)
	}

	cancelled, err := s.CancelOrder(ctx, 100, 7, now)
	if err != nil {
		t.Fatalf("CancelOrder() error = %v", err)
	}
	if cancelled.Status != entity.StatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("CancelOrder() = %+v", cancelled)
	}
	if _, err := s.CancelOrder(ctx, 100, 7, now); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("second CancelOrder() error = %v, want ErrNotFound", err)
	}
}

func TestDBListOrders(t *testing.T) {
	// Arrange
	pool := testkit.Postgres(t)
	s := NewDB(pool, instrument.NewNoop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	if _, err := pool.Exec(ctx,
		`INSERT INTO identity_users (id, email, full_name, password_hash, status, created_at, updated_at)
		 VALUES (7, 'buyer@example.com', 'Buyer', 'hash', 2, $1, $1),
		        (8, 'other@example.com', 'Other', 'hash', 2, $1, $1)`, now); err != nil {
		t.Fatalf("seed users error = %v", err)
	}
	for i, o := range []entity.Order{
		{ID: 201, OwnerID: 7},
		{ID: 202, OwnerID: 7},
		{ID: 203, OwnerID: 7},
		{ID: 301, OwnerID: 8},
	} {
		o.Status = entity.StatusPending
		o.Currency = "IDR"
		o.Metadata = valueobject.JSONMap{}
		o.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		if err := s.CreateOrder(ctx, o); err != nil {
			t.Fatalf("CreateOrder(%d) error = %v", o.ID, err)
		}
	}

	// Act
	first, total, err := s.ListOrders(ctx, 7, 2, 0)
	second, _, err2 := s.ListOrders(ctx, 7, 2, 2)
	none, noneTotal, err3 := s.ListOrders(ctx, 404, 10, 0)

	// Assert
	if err != nil || err2 != nil || err3 != nil {
		t.Fatalf("ListOrders() errors = %v, %v, %v", err, err2, err3)
	}
	if total != 3 || len(first) != 2 || first[0].ID != 203 || first[1].ID != 202 {
		t.Fatalf("first page = %+v, total %d", first, total)
	}
	if len(second) != 1 || second[0].ID != 201 {
		t.Fatalf("second page = %+v", second)
	}
	if len(none) != 0 || noneTotal != 0 {
		t.Fatalf("unknown owner = %+v, total %d", none, noneTotal)
	}
}
