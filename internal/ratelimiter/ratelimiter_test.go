package ratelimiter

import (
	"context"
	"testing"
	"time"
)

func TestAllow_EnforcesBurst(t *testing.T) {
	limiter := New(10, 10)

	// The full burst is served immediately.
	for i := 0; i < 10; i++ {
		if !limiter.Allow() {
			t.Fatalf("request %d should be allowed (within burst)", i)
		}
	}

	if limiter.Allow() {
		t.Fatal("request should be rate-limited after burst exhausted")
	}

	// 10 req/s refills one token every 100ms.
	time.Sleep(110 * time.Millisecond)

	if !limiter.Allow() {
		t.Fatal("request should be allowed after token replenishment")
	}
}

func TestAllow_ZeroRateIsUnlimited(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 10_000; i++ {
		if !limiter.Allow() {
			t.Fatalf("request %d rejected by an unlimited limiter", i)
		}
	}
}

func TestWait_BlocksUntilToken(t *testing.T) {
	limiter := New(10, 1)

	// Drain the single burst token.
	if !limiter.Allow() {
		t.Fatal("first request should be allowed")
	}

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	// The next token arrives after ~100ms at 10 req/s.
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Wait returned too early: %v", elapsed)
	}
}

func TestWait_RespectsCancellation(t *testing.T) {
	limiter := New(1, 1)

	// Drain the bucket so Wait must block.
	limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("Wait should fail when the context expires first")
	}
}

func TestSetLimit_ScalesDefaultBurst(t *testing.T) {
	limiter := New(10, 20)

	limiter.SetLimit(100)

	if got := limiter.limiter.Burst(); got != 200 {
		t.Errorf("expected burst 200 after SetLimit, got %d", got)
	}
}
