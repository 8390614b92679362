package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeRateStore struct {
	events map[string][]time.Time
	err    error
}

func (f *fakeRateStore) Record(ctx context.Context, key string, now time.Time, window time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if f.events == nil {
		f.events = map[string][]time.Time{}
	}
	f.events[key] = append(f.events[key], now)
	return nil
}

func (f *fakeRateStore) Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	if f.err != nil {
		return 0, time.Time{}, f.err
	}
	var oldest time.Time
	n := 0
	for _, at := range f.events[key] {
		if at.After(now.Add(-window)) && !at.After(now) {
			n++
			if oldest.IsZero() || at.Before(oldest) {
				oldest = at
			}
		}
	}
	return n, oldest, nil
}

func (f *fakeRateStore) Close() error { return nil }

func TestRateLimitAllowsUnderCeiling(t *testing.T) {
	t.Setenv("GENERATION_RATE_LIMIT", "3")
	store := &fakeRateStore{}
	svc, err := NewRateLimitService(store, testLogger(t))
	if err != nil {
		t.Fatalf("NewRateLimitService: %v", err)
	}

	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := svc.Check(ctx, userID)
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if d.Remaining != 3-i {
			t.Fatalf("request %d: remaining %d, want %d", i, d.Remaining, 3-i)
		}
		svc.RecordUse(ctx, userID)
	}

	d := svc.Check(ctx, userID)
	if d.Allowed {
		t.Fatal("fourth request should be rejected")
	}
	if d.Remaining != 0 {
		t.Fatalf("remaining %d, want 0", d.Remaining)
	}
	if d.ResetAt.IsZero() {
		t.Fatal("reset time must be set on rejection")
	}
}

func TestRateLimitIsPerUser(t *testing.T) {
	t.Setenv("GENERATION_RATE_LIMIT", "1")
	store := &fakeRateStore{}
	svc, _ := NewRateLimitService(store, testLogger(t))

	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	svc.RecordUse(ctx, first)
	if d := svc.Check(ctx, first); d.Allowed {
		t.Fatal("first user should be over the ceiling")
	}
	if d := svc.Check(ctx, second); !d.Allowed {
		t.Fatal("second user must be unaffected")
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	store := &fakeRateStore{err: errors.New("store unreachable")}
	svc, _ := NewRateLimitService(store, testLogger(t))

	d := svc.Check(context.Background(), uuid.New())
	if !d.Allowed {
		t.Fatal("store failure must not block generation")
	}
}
