package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/agency"
	"github.com/gehnahouse/backend-gehna/internal/auth"
	"github.com/gehnahouse/backend-gehna/internal/cart"
	"github.com/gehnahouse/backend-gehna/internal/catalog"
	"github.com/gehnahouse/backend-gehna/internal/checkout"
	"github.com/gehnahouse/backend-gehna/internal/common"
	"github.com/gehnahouse/backend-gehna/internal/config"
	"github.com/gehnahouse/backend-gehna/internal/coupon"
	"github.com/gehnahouse/backend-gehna/internal/db"
	"github.com/gehnahouse/backend-gehna/internal/events"
	"github.com/gehnahouse/backend-gehna/internal/goldprice"
	"github.com/gehnahouse/backend-gehna/internal/health"
	"github.com/gehnahouse/backend-gehna/internal/notify"
	"github.com/gehnahouse/backend-gehna/internal/obs"
	"github.com/gehnahouse/backend-gehna/internal/order"
	"github.com/gehnahouse/backend-gehna/internal/pricing"
	"github.com/gehnahouse/backend-gehna/internal/ratelimit"
	"github.com/gehnahouse/backend-gehna/internal/resilience"
)

const metricsNamespace = "gehna"

func main() {
	logger := obs.NewLogger(envOrDefault("LOG_FORMAT", "json"), envOrDefault("LOG_LEVEL", "info"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   "backend-gehna",
		Endpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Exporter:      envOrDefault("TRACING_EXPORTER", "otlp"),
		SamplingRatio: envFloat("TRACING_SAMPLING_RATIO", 1),
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled")
		shutdownTracer = func(context.Context) error { return nil }
	}

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to postgres")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Warn().Err(err).Msg("redis tracing instrumentation failed")
	}

	registry := prometheus.DefaultRegisterer
	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(os.Getenv("METRICS_BUCKETS_MS")), registry)
	obs.MustRegisterDomainMetrics(metricsNamespace, registry)

	bus := events.NewBus(pool, logger)

	pricingStore := pricing.NewStore(pool)
	pricingSvc := pricing.NewService(pricingStore, rdb, cfg.PricingConfigCacheTTL, bus, logger)
	seedPricingConfig(ctx, pricingStore, logger)

	goldBreaker := resilience.NewBreaker("gold_price", resilience.BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      time.Minute,
	})
	goldProvider := goldprice.NewHTTPProvider(cfg.GoldPriceURL, nil)
	goldSvc := goldprice.NewService(goldProvider, goldBreaker, rdb, cfg.GoldPriceCacheTTL,
		decimal.NewFromFloat(cfg.GoldPriceFallback), bus, logger)

	couponStore := coupon.NewStore(pool)
	couponSvc := coupon.NewService(couponStore, bus, logger)

	catalogStore := catalog.NewStore(pool)
	catalogCache := catalog.NewCache(rdb, cfg.CatalogCacheTTL, logger)
	catalogSvc := catalog.NewService(catalogStore, pricingSvc, goldSvc, catalogCache, logger)

	cartStore := cart.NewStore(pool)
	cartSvc := cart.NewService(cartStore, catalogStore, catalogSvc, goldSvc, couponSvc, logger)

	orderStore := order.NewStore(pool)
	orderSvc := order.NewService(orderStore, couponSvc, bus, logger)

	checkoutSvc := checkout.NewService(pool, cartSvc, orderStore, bus, logger)

	authSvc := auth.NewService(pool, cfg.JWTSecret, cfg.AccessTokenTTL)
	adminPolicy := auth.SharedSecretPolicy{Secret: cfg.AdminAPIKey}

	agencyStore := agency.NewStore(pool)

	var emailSender common.EmailSender = common.NopEmailSender{}
	if cfg.NotifyEmailEnabled {
		emailSender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.NotifyEmailFrom,
		})
	}
	notifier := notify.NewNotifier(pool, emailSender, logger)
	notifier.Register(bus)
	bus.Subscribe(events.TopicPricingConfigUpdated, func(ctx context.Context, _ events.Event) {
		catalogSvc.InvalidateCache(ctx)
	})
	bus.Subscribe(events.TopicGoldPriceUpdated, func(ctx context.Context, _ events.Event) {
		catalogSvc.InvalidateCache(ctx)
	})

	authHandlers := &auth.Handlers{Svc: authSvc, Log: logger}
	pricingHandlers := &pricing.Handlers{Svc: pricingSvc, GoldPrice: goldSvc.Current, Log: logger}
	couponHandlers := &coupon.Handlers{Store: couponStore, Svc: couponSvc, Log: logger}
	catalogHandlers := &catalog.Handlers{Svc: catalogSvc, Store: catalogStore, Log: logger}
	cartHandlers := &cart.Handlers{Svc: cartSvc, Catalog: catalogStore, Coupons: couponSvc, Log: logger}
	checkoutHandlers := &checkout.Handlers{Svc: checkoutSvc, Log: logger}
	orderHandlers := &order.Handlers{Store: orderStore, Log: logger}
	orderAdminHandlers := &order.AdminHandlers{Store: orderStore, Svc: orderSvc, Log: logger}
	goldHandlers := &goldprice.Handlers{Svc: goldSvc, Log: logger}
	agencyHandlers := &agency.Handlers{Store: agencyStore, Log: logger}
	checker := &health.Checker{Pool: pool, Redis: rdb}

	limiter := ratelimit.NewSlidingWindow(rdb, cfg.RateLimitWindow, cfg.RateLimitMax, logger)
	idem := common.Idem{R: rdb, TTL: cfg.IdempotencyTTL}
	requireCustomer := auth.RequireCustomer(authSvc)
	requireAdmin := auth.RequireAdmin(adminPolicy)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", auth.DefaultAdminHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)

	r.Get("/healthz", checker.Live)
	r.Get("/readyz", checker.Ready)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/debug/pprof", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get("/", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Handle("/{name}", http.HandlerFunc(pprof.Index))
	})

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Post("/auth/register", authHandlers.Register)
		r.Post("/auth/login", authHandlers.Login)

		r.Get("/products", catalogHandlers.List)
		r.Get("/products/{slug}", catalogHandlers.Get)
		r.Get("/gold-price", goldHandlers.Get)
		r.Post("/pricing/quote", pricingHandlers.Quote)

		r.Group(func(r chi.Router) {
			r.Use(requireCustomer)

			r.Get("/auth/me", authHandlers.Me)

			r.Get("/cart", cartHandlers.Get)
			r.Post("/cart/items", cartHandlers.AddItem)
			r.Patch("/cart/items/{id}", cartHandlers.UpdateItem)
			r.Delete("/cart/items/{id}", cartHandlers.RemoveItem)
			r.Post("/cart/coupon", cartHandlers.ApplyCoupon)
			r.Delete("/cart/coupon", cartHandlers.RemoveCoupon)
			r.Get("/cart/quote", cartHandlers.Quote)

			r.Post("/coupons/preview", couponHandlers.Preview)

			r.With(idem.Middleware).Post("/checkout", checkoutHandlers.Checkout)

			r.Get("/orders", orderHandlers.List)
			r.Get("/orders/{id}", orderHandlers.Get)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAdmin)

		r.Get("/pricing-config", pricingHandlers.GetConfig)
		r.Put("/pricing-config", pricingHandlers.PutConfig)

		r.Get("/coupons", couponHandlers.List)
		r.Post("/coupons", couponHandlers.Create)
		r.Get("/coupons/{id}", couponHandlers.Get)
		r.Put("/coupons/{id}", couponHandlers.Update)
		r.Delete("/coupons/{id}", couponHandlers.Delete)

		r.Get("/orders", orderAdminHandlers.List)
		r.Get("/orders/{id}", orderAdminHandlers.Get)
		r.Patch("/orders/{id}/status", orderAdminHandlers.ChangeStatus)

		r.Post("/products", catalogHandlers.Create)
		r.Put("/products/{id}", catalogHandlers.Update)
		r.Delete("/products/{id}", catalogHandlers.Delete)

		r.Get("/agencies", agencyHandlers.List)
		r.Post("/agencies", agencyHandlers.Create)
		r.Get("/agencies/{id}", agencyHandlers.Get)
		r.Put("/agencies/{id}", agencyHandlers.Update)
		r.Delete("/agencies/{id}", agencyHandlers.Delete)

		r.Put("/gold-price", goldHandlers.Override)
		r.Delete("/gold-price/override", goldHandlers.ClearOverride)
		r.Delete("/gold-price/cache", goldHandlers.Invalidate)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
}

// seedPricingConfig installs the default pricing table on first boot so
// quotes work before an admin has pushed a config.
func seedPricingConfig(ctx context.Context, store *pricing.Store, logger zerolog.Logger) {
	if _, err := store.Load(ctx); err == nil {
		return
	} else if !errors.Is(err, pricing.ErrConfigNotFound) {
		logger.Warn().Err(err).Msg("load pricing config")
		return
	}
	cfg := pricing.DefaultConfig()
	cfg.LastUpdated = time.Now().UTC()
	cfg.UpdatedBy = "bootstrap"
	if err := store.Replace(ctx, cfg); err != nil {
		logger.Warn().Err(err).Msg("seed pricing config")
		return
	}
	logger.Info().Msg("seeded default pricing config")
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return v
	}
	return fallback
}
