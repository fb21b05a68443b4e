package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("simulate_payoff", []byte(`{"budget":500}`))
	b := Key("simulate_payoff", []byte(`{"budget":500}`))
	c := Key("simulate_payoff", []byte(`{"budget":501}`))
	d := Key("amortize", []byte(`{"budget":500}`))

	if a != b {
		t.Error("equal payloads must share a key")
	}
	if a == c || a == d {
		t.Error("different payloads or tools must not share a key")
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryCache()
	m.now = func() time.Time { return now }

	tests := []struct {
		name    string
		prepare func()
		key     string
		want    string
		wantHit bool
	}{
		{
			name:    "miss",
			key:     "absent",
			wantHit: false,
		},
		{
			name:    "hit",
			prepare: func() { _ = m.Set(ctx, "k", []byte("v"), time.Minute) },
			key:     "k",
			want:    "v",
			wantHit: true,
		},
		{
			name:    "expired",
			prepare: func() { now = now.Add(2 * time.Minute) },
			key:     "k",
			wantHit: false,
		},
		{
			name:    "no ttl",
			prepare: func() { _ = m.Set(ctx, "forever", []byte("x"), 0); now = now.Add(24 * time.Hour) },
			key:     "forever",
			want:    "x",
			wantHit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prepare != nil {
				tt.prepare()
			}
			got, hit, err := m.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if hit != tt.wantHit || string(got) != tt.want {
				t.Errorf("Get() = %q, %v; want %q, %v", got, hit, tt.want, tt.wantHit)
			}
		})
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	r := NewRedisCache(addr)
	defer r.Close()

	if err := r.Ping(ctx); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	key := Key("test", []byte(t.Name()))
	if err := r.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, hit, err := r.Get(ctx, key)
	if err != nil || !hit || string(got) != "payload" {
		t.Errorf("Get() = %q, %v, %v", got, hit, err)
	}
	if _, hit, _ := r.Get(ctx, key+":missing"); hit {
		t.Error("expected miss")
	}
}
