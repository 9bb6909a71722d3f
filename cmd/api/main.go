package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paybridge/internal/config"
	"paybridge/internal/core/expiry"
	httpx "paybridge/internal/http"
	"paybridge/internal/provider/whitepay"
	"paybridge/internal/services/checkout"
	webhooksvc "paybridge/internal/services/webhook"
	"paybridge/internal/store/postgres"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init DB
	pool := postgres.MustOpen(ctx, cfg.DB.DSN)
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	repo := postgres.NewRepo(pool)

	// Redis is optional; without it the webhook endpoint just skips
	// transport-level dedupe.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, webhook dedupe disabled")
			rdb = nil
		}
	}

	// Payment gateway
	gw := whitepay.New(whitepay.Config{
		BaseURL:       cfg.Gateway.BaseURL,
		APIKey:        cfg.Gateway.APIKey,
		WebhookSecret: cfg.Gateway.WebhookSecret,
		Slug:          cfg.Gateway.Slug,
		Timeout:       cfg.Gateway.Timeout,
	})

	checkoutSvc := checkout.NewService(repo, gw, cfg.Messages.AwaitingText)
	processor := webhooksvc.NewProcessor(gw, repo, repo, cfg.Messages.PaymentSuccessText, cfg.Messages.PaymentFailText)
	replaySvc := webhooksvc.NewReplayService(repo, processor)

	// Expire stale pending orders in the background.
	worker := expiry.NewWorker(repo, gw, cfg.Expiry.SweepEvery, cfg.Expiry.PendingTTL,
		cfg.Messages.PaymentSuccessText, cfg.Messages.PaymentFailText)
	go worker.Run(ctx)

	r := httpx.NewRouter(httpx.RouterDependencies{
		Config:    cfg,
		Repo:      repo,
		Checkout:  checkoutSvc,
		Processor: processor,
		Replay:    replaySvc,
		Redis:     rdb,
		ReplayTTL: cfg.Redis.ReplayTTL,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Msgf("PayBridge API listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	log.Info().Msg("server stopped")
}
