package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingSleeper struct{ waits []time.Duration }

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestRetrySuccessFirst(t *testing.T) {
	s := &recordingSleeper{}
	n, err := Retrier{Policy: DefaultPolicy, Sleeper: s}.Do(context.Background(), func(context.Context, int) error { return nil })
	if err != nil {
		t.Fatalf("unexpected err %v", err)
	}
	if n != 1 || len(s.waits) != 0 {
		t.Fatalf("expected one attempt and no sleep, got %d attempts %v", n, s.waits)
	}
}

func TestRetryExhaustSleepsBetweenAttemptsOnly(t *testing.T) {
	s := &recordingSleeper{}
	calls := 0
	n, err := Retrier{Policy: Policy{MaxAttempts: 3, Base: 2}, Sleeper: s}.Do(context.Background(), func(context.Context, int) error {
		calls++
		return errors.New("fail")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if n != 3 || calls != 3 {
		t.Fatalf("expected 3 attempts, got n=%d calls=%d", n, calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(s.waits) != len(want) {
		t.Fatalf("expected waits %v, got %v", want, s.waits)
	}
	for i := range want {
		if s.waits[i] != want[i] {
			t.Fatalf("wait %d: expected %v, got %v", i, want[i], s.waits[i])
		}
	}
}

func TestRetryAttemptNumbersStartAtOne(t *testing.T) {
	var seen []int
	_, _ = Retrier{Policy: Policy{MaxAttempts: 4, Base: 2}, Sleeper: &recordingSleeper{}}.Do(context.Background(), func(_ context.Context, attempt int) error {
		seen = append(seen, attempt)
		if attempt == 3 {
			return nil
		}
		return errors.New("again")
	})
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Fatalf("unexpected attempts %v", seen)
	}
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, _ = Retrier{Policy: Policy{MaxAttempts: 0}, Sleeper: &recordingSleeper{}}.Do(context.Background(), func(context.Context, int) error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}

func TestRetryCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := Retrier{Policy: Policy{MaxAttempts: 5, Base: 2}}.Do(ctx, func(context.Context, int) error { return errors.New("fail") })
	if err == nil {
		t.Fatalf("expected error on cancel")
	}
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{MaxAttempts: 3, Base: 3}
	if got := p.Delay(2); got != 9*time.Second {
		t.Fatalf("expected 9s, got %v", got)
	}
	if got := (Policy{}).Delay(1); got != 2*time.Second {
		t.Fatalf("default base: expected 2s, got %v", got)
	}
}
