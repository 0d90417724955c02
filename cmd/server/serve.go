package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fanvault/backend/internal/access"
	"github.com/fanvault/backend/internal/cache"
	"github.com/fanvault/backend/internal/handler"
	"github.com/fanvault/backend/internal/metrics"
	appMiddleware "github.com/fanvault/backend/internal/middleware"
	"github.com/fanvault/backend/internal/repository"
	"github.com/fanvault/backend/internal/service"
	"github.com/fanvault/backend/internal/token"
	"github.com/fanvault/backend/pkg/crypto"
	"github.com/fanvault/backend/pkg/payment"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
	expireInterval  = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		b, err := newBootstrap(ctx)
		if err != nil {
			return err
		}
		defer b.close()
		return serve(ctx, b)
	},
}

func newSubscriptionService(b *bootstrap, gateway payment.PaymentGateway) *service.SubscriptionService {
	return service.NewSubscriptionService(
		repository.NewSubscriptionRepository(b.db),
		repository.NewTierRepository(b.db),
		gateway,
		b.log.WithFields(map[string]interface{}{"component": "subscriptions"}),
	)
}

func serve(ctx context.Context, b *bootstrap) error {
	cfg, log := b.cfg, b.log

	if err := repository.RunMigrations(ctx, b.db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("database connected & migrated", nil)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	enc, err := crypto.NewEncryptor(cfg.Storage.EncryptionKey)
	if err != nil {
		return fmt.Errorf("encryption setup failed: %w", err)
	}

	gateway, err := payment.NewHostedGateway(cfg.Payment.CheckoutURL, cfg.Payment.WebhookSecret)
	if err != nil {
		return fmt.Errorf("payment setup failed: %w", err)
	}

	userRepo := repository.NewUserRepository(b.db)
	tierRepo := repository.NewTierRepository(b.db)
	contentRepo := repository.NewContentRepository(b.db)
	subRepo := repository.NewSubscriptionRepository(b.db)

	tokenOpts := []token.Option{
		token.WithMetrics(m),
		token.WithLogger(log.WithFields(map[string]interface{}{"component": "tokens"})),
	}
	var rdb *redis.Client
	if cfg.Token.RevocationEnabled {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		// Epochs only need to outlive the tokens they invalidate.
		store := cache.NewRedisRevocationStore(rdb, cfg.Token.TTL)
		tokenOpts = append(tokenOpts, token.WithRevocationStore(store))
		log.Info("token revocation enabled", map[string]interface{}{"redis": cfg.Redis.Address})
	}
	issuer := token.NewIssuer(cfg.Token.Secret, cfg.Token.TTL, tokenOpts...)

	evaluator := access.NewEvaluator(contentRepo, subRepo,
		access.WithLogger(log.WithFields(map[string]interface{}{"component": "access"})),
		access.WithMetrics(m),
	)

	authSvc := service.NewAuthService(service.AuthOptions{
		JWTSecret:     cfg.Auth.JWTSecret,
		SessionTTL:    cfg.Auth.SessionTTL,
		AdminEmail:    cfg.Auth.AdminEmail,
		AdminPassword: cfg.Auth.AdminPassword,
	}, userRepo, log)
	if err := authSvc.SeedAdmin(ctx); err != nil {
		return fmt.Errorf("admin seed failed: %w", err)
	}

	tierSvc := service.NewTierService(tierRepo, log)
	contentSvc := service.NewContentService(contentRepo, tierRepo, enc, log)
	accessSvc := service.NewAccessService(evaluator, issuer, contentRepo, enc, m, log)
	subSvc := newSubscriptionService(b, gateway)

	go runExpirySweep(ctx, subSvc, b)

	var redisPinger handler.Pinger
	if rdb != nil {
		redisPinger = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	httpLog := log.WithFields(map[string]interface{}{"component": "http"})
	h := handlers{
		auth:    handler.NewAuthHandler(authSvc, httpLog),
		users:   handler.NewUserHandler(authSvc, httpLog),
		stats:   handler.NewStatsHandler(userRepo, contentRepo, subRepo, httpLog),
		health:  handler.NewHealthHandler(b.db, redisPinger, httpLog),
		tiers:   handler.NewTierHandler(tierSvc, httpLog),
		content: handler.NewContentHandler(contentSvc, httpLog),
		access:  handler.NewAccessHandler(evaluator, accessSvc, httpLog),
		payment: handler.NewPaymentHandler(subSvc, httpLog),
		metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	router := newRouter(ctx, b, authSvc, m, h)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", map[string]interface{}{"addr": addr})
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runExpirySweep keeps subscription statuses tidy for listings and stats.
// Access decisions compare period ends directly and do not wait for it.
func runExpirySweep(ctx context.Context, subs *service.SubscriptionService, b *bootstrap) {
	ticker := time.NewTicker(expireInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := subs.ExpireLapsed(ctx); err != nil {
				b.log.WithError(err).Warn("subscription expiry sweep failed", nil)
			}
		}
	}
}

type handlers struct {
	auth    *handler.AuthHandler
	users   *handler.UserHandler
	stats   *handler.StatsHandler
	health  *handler.HealthHandler
	tiers   *handler.TierHandler
	content *handler.ContentHandler
	access  *handler.AccessHandler
	payment *handler.PaymentHandler
	metrics http.Handler
}

func newRouter(ctx context.Context, b *bootstrap, verifier appMiddleware.TokenVerifier, m *metrics.Metrics, h handlers) http.Handler {
	cfg := b.cfg
	r := chi.NewRouter()

	r.Use(appMiddleware.Recovery(b.log))
	r.Use(appMiddleware.Logger(b.log.WithFields(map[string]interface{}{"component": "http"}), m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(appMiddleware.NewRateLimiter(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())

	strict := appMiddleware.NewRateLimiter(ctx, cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst).Middleware()

	// Public
	r.Get("/health", h.health.Check)
	r.Handle("/metrics", h.metrics)
	r.Post("/api/payment/webhook", h.payment.Webhook)
	r.Get("/api/content/{id}/download", h.access.Download)
	r.Group(func(r chi.Router) {
		r.Use(strict)
		r.Post("/api/auth/login", h.auth.Login)
		r.Post("/api/auth/register", h.auth.Register)
	})

	// Anonymous allowed
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.OptionalAuth(verifier))
		r.Get("/api/content/{id}/access", h.access.Check)
		r.Get("/api/artists/{artistId}/tiers", h.tiers.ListByArtist)
	})

	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(verifier))

		r.Get("/api/auth/me", h.auth.Me)

		r.Get("/api/artists/{artistId}/content", h.access.ListAccessible)
		r.Get("/api/artists/{artistId}/access-summary", h.access.Summary)
		r.Get("/api/tiers/{id}/access", h.access.TierAccess)
		r.With(strict).Post("/api/content/{id}/token", h.access.IssueToken)
		r.Delete("/api/content/{id}/token", h.access.RevokeTokens)

		r.Post("/api/payment/checkout", h.payment.CreateCheckout)
		r.Get("/api/subscriptions", h.payment.ListSubscriptions)

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.ArtistOnly)
			r.Post("/api/tiers", h.tiers.Create)
			r.Put("/api/tiers/{id}", h.tiers.Update)
			r.Post("/api/tiers/{id}/activate", h.tiers.Activate)
			r.Post("/api/tiers/{id}/deactivate", h.tiers.Deactivate)
			r.Post("/api/content", h.content.Create)
			r.Patch("/api/content/{id}", h.content.Update)
			r.Delete("/api/content/{id}", h.content.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.AdminOnly)
			r.Get("/api/admin/stats", h.stats.Get)
			r.Get("/api/users", h.users.List)
			r.Post("/api/users", h.users.Create)
			r.Delete("/api/users/{id}", h.users.Delete)
			r.Post("/api/payment/simulate", h.payment.Simulate)
		})
	})

	return r
}
