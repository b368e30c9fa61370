package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBucket(t *testing.T) {
	tests := []struct {
		name      string
		rate      float64
		burst     float64
		take      int
		sleep     time.Duration
		minTokens float64
		maxTokens float64
	}{
		{"starts full", 1, 10, 0, 0, 9.9, 10},
		{"burst consumed", 1, 5, 5, 0, 0, 0.1},
		{"refills at rate", 10, 10, 10, 200 * time.Millisecond, 1.5, 3},
		{"caps at burst", 100, 5, 0, 100 * time.Millisecond, 4.9, 5.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(tt.rate, tt.burst)
			for i := 0; i < tt.take; i++ {
				if !rl.tryAcquire() {
					t.Fatalf("token %d refused", i+1)
				}
			}
			time.Sleep(tt.sleep)
			if got := rl.GetCurrentTokens(); got < tt.minTokens || got > tt.maxTokens {
				t.Errorf("tokens = %.2f, want [%.2f, %.2f]", got, tt.minTokens, tt.maxTokens)
			}
		})
	}
}

func TestNonPositiveRateUsesDefault(t *testing.T) {
	rl := NewRateLimiter(0, 1)
	if rl.refillRate <= 0 {
		t.Fatalf("refill rate = %v", rl.refillRate)
	}
}

func TestWait(t *testing.T) {
	t.Run("blocks until refill", func(t *testing.T) {
		rl := NewRateLimiter(10, 1)
		rl.tryAcquire()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		start := time.Now()
		if err := rl.Wait(ctx); err != nil {
			t.Fatal(err)
		}
		if d := time.Since(start); d < 50*time.Millisecond {
			t.Errorf("returned after %v without waiting", d)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		rl := NewRateLimiter(0.1, 1)
		rl.tryAcquire()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("drained bucket", func(t *testing.T) {
		rl := NewRateLimiter(20, 5)
		rl.Drain()
		if rl.tryAcquire() {
			t.Fatal("token available right after drain")
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := rl.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	})
}

func TestConcurrentWaitersShareBurst(t *testing.T) {
	rl := NewRateLimiter(1, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var mu sync.Mutex
	ok := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Wait(ctx) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if ok != 4 {
		t.Errorf("%d waiters got through, want the burst of 4", ok)
	}
}

func TestCooldown(t *testing.T) {
	rl := NewRateLimiter(100, 10)
	if rl.CooldownRemaining() != 0 {
		t.Fatal("fresh limiter has a cooldown")
	}

	rl.SetCooldown(time.Second)
	rl.SetCooldown(10 * time.Millisecond)
	if d := rl.CooldownRemaining(); d < 900*time.Millisecond {
		t.Errorf("shorter cooldown replaced longer one: %v left", d)
	}
	rl.SetCooldown(2 * time.Second)
	if d := rl.CooldownRemaining(); d < 1900*time.Millisecond {
		t.Errorf("longer cooldown not applied: %v left", d)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Error("Wait passed during cooldown")
	}
}

func TestCooldownExpires(t *testing.T) {
	rl := NewRateLimiter(100, 10)
	rl.SetCooldown(30 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if d := time.Since(start); d < 25*time.Millisecond {
		t.Errorf("Wait returned after %v, before the cooldown ended", d)
	}
	if rl.CooldownRemaining() != 0 {
		t.Error("cooldown still reported after expiry")
	}
}
