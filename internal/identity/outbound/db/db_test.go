package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/testkit"
)

func TestDBUserLifecycle(t *testing.T) {
	// Arrange
	s := NewDB(testkit.Postgres(t), instrument.NewNoop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := entity.User{
		ID:           1,
		Email:        "new@example.com",
		FullName:     "New User",
		PasswordHash: "hash",
		Status:       entity.UserStatusUnverified,
		CreatedAt:    now,
	}

	// Act
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	dup := s.CreateUser(ctx, entity.User{ID: 2, Email: "NEW@example.com", FullName: "Dup", PasswordHash: "h", Status: entity.UserStatusUnverified, CreatedAt: now})
	act, err := s.ActivateUser(ctx, 1, now)
	_, again := s.ActivateUser(ctx, 1, now)

	// Assert
	if !errors.Is(dup, goerror.ErrConflict) {
		t.Fatalf("duplicate CreateUser() error = %v, want ErrConflict", dup)
	}
	if err != nil {
		t.Fatalf("ActivateUser() error = %v", err)
	}
	if act.Email != "new@example.com" || act.FullName != "New User" {
		t.Fatalf("ActivateUser() = %+v", act)
	}
	if !errors.Is(again, goerror.ErrNotFound) {
		t.Fatalf("second ActivateUser() error = %v, want ErrNotFound", again)
	}

	got, err := s.GetUserByEmail(ctx, "New@Example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.Status != entity.UserStatusActive || got.EmailVerifiedAt == nil || !got.EmailVerifiedAt.Equal(now) {
		t.Fatalf("GetUserByEmail() = %+v", got)
	}
	if _, err := s.GetUserByID(ctx, 404); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("GetUserByID(404) error = %v, want ErrNotFound", err)
	}
}
