package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/usecase"
)

func TestOTPIssue_SixDigits(t *testing.T) {
	engine := usecase.NewOTPEngine(newMemOTPRepo(), 0)

	code, expiresAt, err := engine.Issue(context.Background(), "identity-1", domain.PurposeRegistration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code %q has length %d, want 6", code, len(code))
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("code %q contains non-digit %q", code, r)
		}
	}
	if d := time.Until(expiresAt); d <= 9*time.Minute || d > usecase.DefaultOTPTTL {
		t.Errorf("expiry %v from now, want about %v", d, usecase.DefaultOTPTTL)
	}
}

func TestOTPIssue_StoresHashNotCode(t *testing.T) {
	repo := newMemOTPRepo()
	engine := usecase.NewOTPEngine(repo, time.Minute)

	code, _, err := engine.Issue(context.Background(), "identity-1", domain.PurposeRegistration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, err := repo.Get(context.Background(), "identity-1", domain.PurposeRegistration)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.CodeHash == code || len(stored.CodeHash) != 64 {
		t.Errorf("stored %q, want sha-256 hex of the code", stored.CodeHash)
	}
}

func TestOTPValidate_SingleUse(t *testing.T) {
	engine := usecase.NewOTPEngine(newMemOTPRepo(), 0)
	ctx := context.Background()

	code, _, err := engine.Issue(ctx, "identity-1", domain.PurposeRegistration)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := engine.Validate(ctx, "identity-1", domain.PurposeRegistration, code); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	err = engine.Validate(ctx, "identity-1", domain.PurposeRegistration, code)
	if !errors.Is(err, domain.ErrOTPNotFound) {
		t.Errorf("second validate: want ErrOTPNotFound, got %v", err)
	}
}

func TestOTPValidate_Mismatch_KeepsCode(t *testing.T) {
	engine := usecase.NewOTPEngine(newMemOTPRepo(), 0)
	ctx := context.Background()

	code, _, _ := engine.Issue(ctx, "identity-1", domain.PurposeRegistration)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	if err := engine.Validate(ctx, "identity-1", domain.PurposeRegistration, wrong); !errors.Is(err, domain.ErrOTPMismatch) {
		t.Fatalf("want ErrOTPMismatch, got %v", err)
	}
	if err := engine.Validate(ctx, "identity-1", domain.PurposeRegistration, code); err != nil {
		t.Errorf("correct code after mismatch: %v", err)
	}
}

func TestOTPValidate_Expired(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	engine := usecase.NewOTPEngine(newMemOTPRepo(), 0).WithClock(clock.Now)
	ctx := context.Background()

	code, _, _ := engine.Issue(ctx, "identity-1", domain.PurposeRegistration)

	// Exactly at expiry the code is still accepted by Check.
	clock.Advance(usecase.DefaultOTPTTL)
	if err := engine.Check(ctx, "identity-1", domain.PurposeRegistration, code); err != nil {
		t.Fatalf("check at expiry boundary: %v", err)
	}

	clock.Advance(time.Second)
	err := engine.Validate(ctx, "identity-1", domain.PurposeRegistration, code)
	if !errors.Is(err, domain.ErrOTPExpired) {
		t.Errorf("want ErrOTPExpired, got %v", err)
	}
}

func TestOTPIssue_ReissueInvalidatesPrevious(t *testing.T) {
	engine := usecase.NewOTPEngine(newMemOTPRepo(), 0)
	ctx := context.Background()

	first, _, _ := engine.Issue(ctx, "identity-1", domain.PurposeRegistration)
	second, _, _ := engine.Issue(ctx, "identity-1", domain.PurposeRegistration)
	if first == second {
		t.Skip("codes collided")
	}

	if err := engine.Validate(ctx, "identity-1", domain.PurposeRegistration, first); !errors.Is(err, domain.ErrOTPMismatch) {
		t.Errorf("old code: want ErrOTPMismatch, got %v", err)
	}
	if err := engine.Validate(ctx, "identity-1", domain.PurposeRegistration, second); err != nil {
		t.Errorf("new code: %v", err)
	}
}

func TestOTP_PurposesAreIndependent(t *testing.T) {
	engine := usecase.NewOTPEngine(newMemOTPRepo(), 0)
	ctx := context.Background()

	code, _, _ := engine.Issue(ctx, "identity-1", domain.PurposeRegistration)
	err := engine.Validate(ctx, "identity-1", domain.PurposePasswordReset, code)
	if !errors.Is(err, domain.ErrOTPNotFound) {
		t.Errorf("want ErrOTPNotFound for other purpose, got %v", err)
	}
}

func TestOTPCheck_DoesNotConsume(t *testing.T) {
	engine := usecase.NewOTPEngine(newMemOTPRepo(), 0)
	ctx := context.Background()

	code, _, _ := engine.Issue(ctx, "identity-1", domain.PurposePasswordReset)
	for range 3 {
		if err := engine.Check(ctx, "identity-1", domain.PurposePasswordReset, code); err != nil {
			t.Fatalf("check: %v", err)
		}
	}
	if err := engine.Validate(ctx, "identity-1", domain.PurposePasswordReset, code); err != nil {
		t.Errorf("validate after checks: %v", err)
	}
}

func TestOTPValidate_ConcurrentOnlyOneWins(t *testing.T) {
	engine := usecase.NewOTPEngine(newMemOTPRepo(), 0)
	ctx := context.Background()
	code, _, _ := engine.Issue(ctx, "identity-1", domain.PurposeRegistration)

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := engine.Validate(ctx, "identity-1", domain.PurposeRegistration, code); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("%d validations succeeded, want exactly 1", wins)
	}
}

func TestOTPSweepExpired(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	engine := usecase.NewOTPEngine(newMemOTPRepo(), 0).WithClock(clock.Now)
	ctx := context.Background()

	engine.Issue(ctx, "identity-1", domain.PurposeRegistration)
	clock.Advance(5 * time.Minute)
	fresh, _, _ := engine.Issue(ctx, "identity-2", domain.PurposeRegistration)
	clock.Advance(6 * time.Minute)

	n, err := engine.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d, want 1", n)
	}
	if err := engine.Validate(ctx, "identity-2", domain.PurposeRegistration, fresh); err != nil {
		t.Errorf("fresh code after sweep: %v", err)
	}
}
