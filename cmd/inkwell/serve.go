// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"inkwell/internal/access"
	"inkwell/internal/auth"
	"inkwell/internal/blog"
	"inkwell/internal/cache"
	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
	"inkwell/internal/router"
	"inkwell/internal/session"
	"inkwell/internal/storage"
	"inkwell/internal/store"
	"inkwell/internal/uploads"
)

const (
	// codeRequestLimit caps sign-in requests per client IP and window.
	codeRequestLimit  = 5
	codeRequestWindow = time.Minute

	// emailCodeLimit caps codes sent to one address per emailCodeWindow.
	emailCodeLimit  = 3
	emailCodeWindow = 15 * time.Minute

	shutdownTimeout = 30 * time.Second
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openDocstore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	// Valkey backs sessions, sign-in codes and the feed cache. Development
	// runs without it, identifying callers by the fallback cookie only.
	var valkey *redis.Client
	valkey, err = cache.ConnectValkey(ctx, cache.ValkeyOptions{
		Addr:     cfg.ValkeyAddr(),
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDB,
	})
	if err != nil {
		if !cfg.IsDev() {
			return fmt.Errorf("connect to valkey: %w", err)
		}
		slog.Warn("valkey unavailable, sign-in and feed caching disabled", "error", err)
		valkey = nil
	} else {
		defer valkey.Close()
	}

	var admins *access.Checker
	if cfg.AdminEnabled() {
		admins = access.NewChecker(db, cfg.AdminCollection)
	} else {
		slog.Warn("ADMIN_COLLECTION not set, admin features disabled")
	}

	var feeds blog.Feeds
	if valkey != nil {
		feeds = cache.NewFeedCache(valkey, cache.DefaultFeedTTL)
	}

	stores := store.New(db)
	blogSvc := blog.NewService(stores, admins, feeds, blog.Options{
		MinWords: cfg.MinWords,
		MaxWords: cfg.MaxWords,
	})

	secureCookies := !cfg.IsDev()
	deps := router.Deps{
		UserIDFallback: cfg.UserIDCookieFallback,
		SecureCookies:  secureCookies,
		Blog:           handlers.NewBlog(blogSvc),
	}

	if valkey != nil {
		sessions := session.NewStore(valkey, secureCookies)
		codes := auth.NewChallenges(valkey, cfg.OTPTTL, cfg.OTPMaxAttempts)
		authSvc := auth.NewService(stores.Users, codes, auth.LogSender{}, cfg.OTPIssuer)

		perEmail := middleware.NewRateLimiter(emailCodeLimit, emailCodeWindow)
		defer perEmail.Stop()

		deps.Sessions = sessions
		deps.Auth = handlers.NewAuth(authSvc, sessions, blogSvc).LimitPerEmail(perEmail)
	}

	media, err := newMedia(cfg.S3Bucket, cfg.MaxUploadBytes, storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
		ProjectID: cfg.S3ProjectID,
	})
	if err != nil {
		return err
	}
	deps.Media = media

	limiter := middleware.NewRateLimiter(codeRequestLimit, codeRequestWindow)
	defer limiter.Stop()
	deps.CodeLimiter = limiter

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.New(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutdown signal received")

	// Give active requests time to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newMedia builds the upload and file view handlers. Without storage
// credentials uploads answer 503 and view URLs 404.
func newMedia(bucket string, maxBytes int64, opts storage.Options) (*handlers.Media, error) {
	client, err := storage.New(opts)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	if client == nil {
		slog.Warn("s3 storage not configured, media uploads disabled")
		return handlers.NewMedia(uploads.NewService(nil, bucket, maxBytes), nil, bucket), nil
	}

	slog.Info("s3 storage connected", "endpoint", opts.Endpoint, "bucket", bucket)
	return handlers.NewMedia(uploads.NewService(client, bucket, maxBytes), client, bucket), nil
}
