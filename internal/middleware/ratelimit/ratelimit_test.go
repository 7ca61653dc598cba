package ratelimit

import "testing"

func TestLimiterAllowsUpToLimit(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 3})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("request past the limit should be rejected")
	}

	// Other clients are tracked independently.
	if !l.Allow("10.0.0.2") {
		t.Fatalf("second client should start fresh")
	}
	if l.ActiveClients() != 2 {
		t.Fatalf("active clients = %d, want 2", l.ActiveClients())
	}
}

func TestLimiterDefaultsOnBadConfig(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: -1})
	defer l.Stop()

	if !l.Allow("10.0.0.1") {
		t.Fatalf("first request should be allowed with defaulted config")
	}
}

func TestLimiterStopIsIdempotent(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	l.Stop()
	l.Stop()
}
