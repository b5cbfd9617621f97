// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cache provides Valkey (Redis-compatible) client initialization
// and the public feed cache.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientName is reported to Valkey by every connection, so CLIENT LIST
// shows which process holds it.
const ClientName = "inkwell"

const defaultPingTimeout = 5 * time.Second

// ValkeyOptions describes the shared Valkey connection.
type ValkeyOptions struct {
	Addr     string
	Password string
	DB       int

	// PingTimeout bounds the startup check. Zero means five seconds.
	PingTimeout time.Duration
}

func (o ValkeyOptions) client() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:       o.Addr,
		Password:   o.Password,
		DB:         o.DB,
		ClientName: ClientName,
	})
}

func (o ValkeyOptions) pingTimeout() time.Duration {
	if o.PingTimeout > 0 {
		return o.PingTimeout
	}
	return defaultPingTimeout
}

// ConnectValkey dials Valkey and pings it once. The client is closed again
// when the ping fails, so callers only own it on success.
func ConnectValkey(ctx context.Context, opts ValkeyOptions) (*redis.Client, error) {
	client := opts.client()

	ctx, cancel := context.WithTimeout(ctx, opts.pingTimeout())
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping %s: %w", opts.Addr, err)
	}

	slog.Info("valkey connected", "addr", opts.Addr, "db", opts.DB)
	return client, nil
}
