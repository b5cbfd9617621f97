// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testOptions points at the Valkey under test, using DB 15 so the suite
// never touches development data.
func testOptions() ValkeyOptions {
	return ValkeyOptions{
		Addr:        envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password:    os.Getenv("VALKEY_PASSWORD"),
		DB:          15,
		PingTimeout: time.Second,
	}
}

// testValkeyClient connects to the test Valkey, skipping when it is
// unreachable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()
	client, err := ConnectValkey(ctx, testOptions())
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, feedKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestValkeyOptionsClient(t *testing.T) {
	opts := ValkeyOptions{Addr: "cache:6380", Password: "pw", DB: 3}
	client := opts.client()
	defer client.Close()

	got := client.Options()
	if got.Addr != "cache:6380" || got.Password != "pw" || got.DB != 3 {
		t.Errorf("options = %s db %d", got.Addr, got.DB)
	}
	if got.ClientName != ClientName {
		t.Errorf("ClientName = %q, want %q", got.ClientName, ClientName)
	}

	if opts.pingTimeout() != defaultPingTimeout {
		t.Errorf("pingTimeout() = %v, want default", opts.pingTimeout())
	}
	opts.PingTimeout = 250 * time.Millisecond
	if opts.pingTimeout() != 250*time.Millisecond {
		t.Errorf("pingTimeout() = %v, want 250ms", opts.pingTimeout())
	}
}

func TestConnectValkeyUnreachable(t *testing.T) {
	// Port 1 is reserved and never serves Valkey.
	_, err := ConnectValkey(context.Background(), ValkeyOptions{Addr: "127.0.0.1:1", PingTimeout: time.Second})
	if err == nil {
		t.Fatal("expected an error for an unreachable address")
	}
	if !strings.Contains(err.Error(), "127.0.0.1:1") {
		t.Errorf("error %q does not name the address", err)
	}
}

func TestConnectValkey(t *testing.T) {
	client := testValkeyClient(t)

	name, err := client.ClientGetName(context.Background()).Result()
	if err != nil {
		t.Fatalf("CLIENT GETNAME: %v", err)
	}
	if name != ClientName {
		t.Errorf("client name = %q, want %q", name, ClientName)
	}
}

func TestFeedKey(t *testing.T) {
	tests := []struct {
		category      string
		limit, offset int
		want          string
	}{
		{"", 20, 0, "_all:20:0"},
		{"c1", 10, 30, "c1:10:30"},
	}
	for _, tt := range tests {
		if got := FeedKey(tt.category, tt.limit, tt.offset); got != tt.want {
			t.Errorf("FeedKey(%q, %d, %d) = %q, want %q", tt.category, tt.limit, tt.offset, got, tt.want)
		}
	}
}

// TestFeedCacheNil verifies that a nil cache is a silent no-op.
func TestFeedCacheNil(t *testing.T) {
	var fc *FeedCache
	ctx := context.Background()

	fc.Set(ctx, "k", []byte("v"))
	if _, ok := fc.Get(ctx, "k"); ok {
		t.Error("nil cache reported a hit")
	}
	fc.InvalidateFeeds(ctx)
}

func TestFeedCacheSetGetInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	fc := NewFeedCache(client, time.Minute)
	ctx := context.Background()

	if _, ok := fc.Get(ctx, "miss"); ok {
		t.Error("expected miss for unknown key")
	}

	fc.Set(ctx, FeedKey("", 20, 0), []byte(`{"posts":[]}`))
	fc.Set(ctx, FeedKey("c1", 20, 0), []byte(`{"posts":[1]}`))

	got, ok := fc.Get(ctx, FeedKey("", 20, 0))
	if !ok || string(got) != `{"posts":[]}` {
		t.Errorf("Get = %q, %v; want cached body", got, ok)
	}

	fc.InvalidateFeeds(ctx)
	for _, key := range []string{FeedKey("", 20, 0), FeedKey("c1", 20, 0)} {
		if _, ok := fc.Get(ctx, key); ok {
			t.Errorf("key %s still cached after InvalidateFeeds", key)
		}
	}
}

func TestFeedCacheDefaultTTL(t *testing.T) {
	fc := NewFeedCache(nil, 0)
	if fc.ttl != DefaultFeedTTL {
		t.Errorf("ttl = %v, want %v", fc.ttl, DefaultFeedTTL)
	}
}
