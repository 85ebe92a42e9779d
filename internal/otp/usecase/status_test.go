package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

func TestChallengeStatus(t *testing.T) {
	// Arrange
	h := newHarness(t)
	in := orderInput()
	ref, code := h.issue(t, in)
	ctx := context.Background()
	status := func(ref string) *entity.Status {
		t.Helper()
		st, err := h.uc.ChallengeStatus(ctx, StatusInput{
			Destination: in.Destination, Purpose: in.Purpose, OwnerID: in.OwnerID, SubjectID: in.SubjectID, ChallengeRef: ref,
		})
		if err != nil {
			t.Fatalf("ChallengeStatus() error = %v", err)
		}
		return st
	}

	// Act & Assert
	if st := status(ref); !st.Pending || st.ExpiresAt.IsZero() {
		t.Fatalf("current challenge should be pending, got %+v", st)
	}
	if st := status("ref-unknown"); st.Pending || !st.ExpiresAt.IsZero() {
		t.Fatalf("foreign ref must not be pending, got %+v", st)
	}

	if _, err := h.uc.VerifyChallenge(ctx, verifyInput(in, code, ref)); err != nil {
		t.Fatalf("VerifyChallenge() error = %v", err)
	}
	if st := status(ref); st.Pending {
		t.Fatal("consumed challenge must not be pending")
	}
}

func TestStatsIncludesEveryPurpose(t *testing.T) {
	h := newHarness(t)
	h.issue(t, IssueInput{Destination: "user@example.com", Purpose: entity.PurposeLogin, OwnerID: 1})

	st, err := h.uc.Stats(context.Background())

	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if len(st.Purposes) != len(entity.Purposes) {
		t.Fatalf("purposes = %d, want %d", len(st.Purposes), len(entity.Purposes))
	}
	for _, row := range st.Purposes {
		want := int64(0)
		if row.Purpose == entity.PurposeLogin {
			want = 1
		}
		if row.Issued != want {
			t.Fatalf("%s issued = %d, want %d", row.Purpose, row.Issued, want)
		}
	}
}

func TestExportStats(t *testing.T) {
	h := newHarness(t)

	out, err := h.uc.ExportStats(context.Background())

	if err != nil {
		t.Fatalf("ExportStats() error = %v", err)
	}
	if out.URL == "" || !out.ExpiresAt.After(h.clock.Now()) {
		t.Fatalf("unexpected export %+v", out)
	}
	if len(h.exporter.got.Purposes) != len(entity.Purposes) {
		t.Fatal("exporter should receive the full snapshot")
	}
}

func TestSweep(t *testing.T) {
	// Arrange
	h := newHarness(t)
	ctx := context.Background()
	login := IssueInput{Destination: "a@example.com", Purpose: entity.PurposeLogin, OwnerID: 1}
	order := orderInput()
	h.issue(t, login)
	ref, code := h.issue(t, order)
	if _, err := h.uc.VerifyChallenge(ctx, verifyInput(order, code, ref)); err != nil {
		t.Fatalf("VerifyChallenge() error = %v", err)
	}

	// Act & Assert: consumed record outlives its retention, login is still live
	n, err := h.uc.Sweep(ctx, h.clock.Now().Add(6*time.Second))
	if err != nil || n != 1 {
		t.Fatalf("Sweep() = %d, %v, want 1", n, err)
	}

	n, err = h.uc.Sweep(ctx, h.clock.Now().Add(entity.PurposeLogin.TTL()+time.Second))
	if err != nil || n != 1 {
		t.Fatalf("Sweep() = %d, %v, want 1", n, err)
	}
	if h.store.size() != 0 {
		t.Fatal("store should be empty")
	}
	if got := h.store.stat(entity.PurposeLogin, entity.CounterExpired); got != 1 {
		t.Fatalf("login expired stat = %d, want 1", got)
	}
	if got := h.store.stat(order.Purpose, entity.CounterExpired); got != 0 {
		t.Fatalf("verified challenge counted as expired: %d", got)
	}
}
