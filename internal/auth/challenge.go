// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// challengePrefix namespaces one-time code challenges in Valkey.
const challengePrefix = "otp:"

var (
	// ErrNoChallenge means no code is outstanding for the email, either
	// because none was requested or because it expired or was used.
	ErrNoChallenge = errors.New("no sign-in code was requested or it has expired")

	// ErrInvalidCode means the code did not match.
	ErrInvalidCode = errors.New("invalid sign-in code")

	// ErrTooManyAttempts means the challenge was burned after repeated
	// wrong guesses.
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")
)

// Codes issues and verifies one-time sign-in codes.
type Codes interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) error
}

// Challenges stores one-time sign-in codes in Valkey. Only a bcrypt hash
// of each code is kept, under a key that expires with the challenge.
type Challenges struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
}

// NewChallenges creates a challenge store. Codes expire after ttl and are
// burned after maxAttempts wrong guesses.
func NewChallenges(client *redis.Client, ttl time.Duration, maxAttempts int) *Challenges {
	return &Challenges{client: client, ttl: ttl, maxAttempts: maxAttempts}
}

func challengeKey(email string) string {
	return challengePrefix + strings.ToLower(strings.TrimSpace(email))
}

// Issue generates a fresh six-digit code for email, replacing any
// outstanding one, and returns it for delivery.
func (c *Challenges) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateCode(time.Now())
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash sign-in code: %w", err)
	}

	key := challengeKey(email)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "hash", string(hash), "attempts", 0)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store sign-in code: %w", err)
	}
	return code, nil
}

// Verify checks code against the outstanding challenge for email and
// consumes it on success. Each call counts as an attempt.
func (c *Challenges) Verify(ctx context.Context, email, code string) error {
	key := challengeKey(email)

	hash, err := c.client.HGet(ctx, key, "hash").Result()
	if errors.Is(err, redis.Nil) {
		return ErrNoChallenge
	}
	if err != nil {
		return fmt.Errorf("load sign-in code: %w", err)
	}

	attempts, err := c.client.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return fmt.Errorf("count sign-in attempt: %w", err)
	}
	if c.maxAttempts > 0 && attempts > int64(c.maxAttempts) {
		c.client.Del(ctx, key)
		return ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(code))) != nil {
		return ErrInvalidCode
	}

	// Only one concurrent verifier may consume the challenge.
	n, err := c.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("consume sign-in code: %w", err)
	}
	if n == 0 {
		return ErrNoChallenge
	}
	return nil
}

// generateCode derives a six-digit code from a throwaway random secret.
func generateCode(now time.Time) (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	code, err := totp.GenerateCodeCustom(secret, now, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate sign-in code: %w", err)
	}
	return code, nil
}
