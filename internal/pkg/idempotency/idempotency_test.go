package idempotency

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/testkit"
)

func TestStateTrackerExec(t *testing.T) {
	client := testkit.Redis(t)
	tracker := New(client)
	ctx := context.Background()

	t.Run("runs once", func(t *testing.T) {
		calls := 0
		fn := func(context.Context) error { calls++; return nil }

		if err := tracker.Exec(ctx, "welcome:1", fn); err != nil {
			t.Fatalf("first Exec() error = %v", err)
		}
		err := tracker.Exec(ctx, "welcome:1", fn)
		if !errors.Is(err, ErrAlreadyCompleted) {
			t.Fatalf("second Exec() error = %v, want %v", err, ErrAlreadyCompleted)
		}
		if calls != 1 {
			t.Fatalf("calls = %d, want 1", calls)
		}
	})

	t.Run("failure releases key", func(t *testing.T) {
		errSend := errors.New("smtp down")
		err := tracker.Exec(ctx, "welcome:2", func(context.Context) error { return errSend })
		if !errors.Is(err, errSend) {
			t.Fatalf("Exec() error = %v, want %v", err, errSend)
		}

		if err := tracker.Exec(ctx, "welcome:2", func(context.Context) error { return nil }); err != nil {
			t.Fatalf("retry Exec() error = %v", err)
		}
	})

	t.Run("in progress", func(t *testing.T) {
		state, err := tracker.Acquire(ctx, "welcome:3", defaultLockDuration)
		if err != nil || state != StateNone {
			t.Fatalf("Acquire() = %v, %v", state, err)
		}

		err = tracker.Exec(ctx, "welcome:3", func(context.Context) error { return nil })
		if !errors.Is(err, ErrAlreadyInProgress) {
			t.Fatalf("Exec() error = %v, want %v", err, ErrAlreadyInProgress)
		}
	})
}
