package main

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterUnlimited(t *testing.T) {
	limiter := NewRateLimiter(0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 1000; i++ {
		if err := limiter.Wait(ctx); err != nil {
			t.Fatalf("Wait() = %v", err)
		}
	}
}

func TestRateLimiterLimit(t *testing.T) {
	if got := NewRateLimiter(50).GetLimit(); got != 50 {
		t.Errorf("GetLimit() = %v, want 50", got)
	}
}
