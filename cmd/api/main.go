package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-nursery/internal/audit"
	"github.com/noah-isme/backend-nursery/internal/auth"
	"github.com/noah-isme/backend-nursery/internal/cart"
	"github.com/noah-isme/backend-nursery/internal/catalog"
	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/community"
	"github.com/noah-isme/backend-nursery/internal/config"
	"github.com/noah-isme/backend-nursery/internal/health"
	"github.com/noah-isme/backend-nursery/internal/inventory"
	"github.com/noah-isme/backend-nursery/internal/lock"
	"github.com/noah-isme/backend-nursery/internal/notify"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/order"
	"github.com/noah-isme/backend-nursery/internal/payment"
	"github.com/noah-isme/backend-nursery/internal/pricing"
	"github.com/noah-isme/backend-nursery/internal/ratelimit"
	"github.com/noah-isme/backend-nursery/internal/repo"
	"github.com/noah-isme/backend-nursery/internal/resilience"
	"github.com/noah-isme/backend-nursery/internal/security"
)

const metricsNamespace = "nursery"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "nursery-api",
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongo, err := repo.NewClient(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect mongodb")
	}
	defer func() {
		if err := mongo.Close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("close mongodb")
		}
	}()
	if err := mongo.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping mongodb")
	}
	if err := mongo.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ensure indexes")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	plants := repo.NewPlants(mongo.DB)
	users := repo.NewUsers(mongo.DB)
	carts := repo.NewCarts(mongo.DB)
	orders := repo.NewOrders(mongo.DB)
	counters := repo.NewCounters(mongo.DB)
	events := repo.NewEvents(mongo.DB)
	auditLogs := repo.NewAuditLogs(mongo.DB)

	notifier, err := notify.FromChannels(cfg.NotifyChannels, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure notifier")
	}

	engine := pricing.NewEngine(pricing.DefaultRules(time.Now), logger)

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Plants:       plants,
		Cache:        catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		DefaultLimit: cfg.CatalogPageSize,
		MaxLimit:     cfg.CatalogMaxPage,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalogService)

	authService, err := auth.NewService(auth.Config{
		Users:          users,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.Middleware{Service: authService}

	inventoryService := inventory.NewService(inventory.ServiceConfig{
		Store:     plants,
		Notifier:  notifier,
		Logger:    logger,
		Threshold: cfg.LowStockThreshold,
	})
	inventoryHandler := inventory.NewHandler(inventoryService)

	cartService, err := cart.NewService(cart.ServiceConfig{
		Carts:  carts,
		Plants: plants,
		Users:  users,
		Engine: engine,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise cart service")
	}
	cartHandler := cart.NewHandler(cart.HandlerConfig{
		Service:          cartService,
		DeliveryFeeCents: cfg.DeliveryFeeCents,
		GiftWrapFeeCents: cfg.GiftWrapFeeCents,
	})

	provider, err := payment.ByName(cfg.PaymentProvider)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure payment provider")
	}
	breaker := resilience.NewBreaker(5, 0.5, 30*time.Second).
		WithTarget("payment:" + provider.Name()).
		WithLogger(logger)
	locker := lock.Locker{R: redisClient}

	orderService, err := order.NewService(order.ServiceConfig{
		Orders:           orders,
		Counters:         counters,
		Carts:            carts,
		Pricer:           cartService,
		Stock:            inventoryService,
		Users:            users,
		Provider:         payment.NewGuarded(provider, breaker),
		Notifier:         notifier,
		Locks:            &locker,
		Logger:           logger,
		DeliveryFeeCents: cfg.DeliveryFeeCents,
		GiftWrapFeeCents: cfg.GiftWrapFeeCents,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise order service")
	}
	orderHandler := order.NewHandler(orderService)

	communityService, err := community.NewService(events, notifier, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise community service")
	}
	communityHandler := community.NewHandler(communityService)

	auditRecorder := audit.HTTPRecorder{
		Service: audit.Service{Store: auditLogs, Enabled: true},
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit entry") },
	}
	auditHandler := audit.Handler{Store: auditLogs}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	loginLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:auth:"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return common.ClientIP(r) },
			Window: time.Minute,
			Max:    10,
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limit check failed") },
	}
	secHeaders := security.Headers{
		Enable:                true,
		EnableHSTS:            cfg.AppEnv == "production",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}
	bodyLimit := security.BodyLimit{Max: 1 << 20}

	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(secHeaders.Middleware)
	r.Use(bodyLimit.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{
		Checker: health.Probe{Mongo: mongo, Redis: redisClient},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(authMiddleware.Authenticate)

		v.Get("/plants", catalogHandler.Plants)
		v.Get("/plants/{id}", catalogHandler.PlantDetail)

		v.Get("/events", communityHandler.List)
		v.Get("/events/{id}", communityHandler.Get)

		v.Route("/auth", func(a chi.Router) {
			a.Group(func(g chi.Router) {
				g.Use(loginLimit.Middleware)
				g.Post("/register", authHandler.Register)
				g.Post("/login", authHandler.Login)
			})
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
			a.Group(func(admin chi.Router) {
				admin.Use(authMiddleware.RequireAuth)
				admin.Use(auth.RequireRole(repo.RoleAdmin))
				admin.With(auditRecorder.Middleware(audit.HTTPConfig{Action: "auth.register_employee", Resource: "user"})).
					Post("/employees", authHandler.RegisterEmployee)
			})
		})

		v.Route("/cart", func(c chi.Router) {
			c.Use(authMiddleware.RequireAuth)
			c.Get("/", cartHandler.Get)
			c.Put("/", cartHandler.Replace)
			c.Delete("/", cartHandler.Clear)
			c.Get("/quote", cartHandler.Quote)
		})

		v.Route("/orders", func(o chi.Router) {
			o.Use(authMiddleware.RequireAuth)
			o.With(idem.Middleware).Post("/", orderHandler.Checkout)
			o.Get("/", orderHandler.List)
			o.Get("/{id}", orderHandler.Get)
			o.With(idem.Middleware).Post("/{id}/pay", orderHandler.Pay)
			o.Post("/{id}/cancel", orderHandler.Cancel)
		})

		v.Group(func(member chi.Router) {
			member.Use(authMiddleware.RequireAuth)
			member.Post("/events", communityHandler.Create)
			member.Put("/events/{id}", communityHandler.Update)
			member.Delete("/events/{id}", communityHandler.Delete)
			member.Post("/events/{id}/attend", communityHandler.Attend)
			member.Delete("/events/{id}/attend", communityHandler.Unattend)
		})

		v.Group(func(staff chi.Router) {
			staff.Use(authMiddleware.RequireAuth)
			staff.Use(auth.RequireRole(repo.RoleStaff, repo.RoleAdmin))
			staff.With(auditRecorder.Middleware(audit.HTTPConfig{Action: "plant.create", Resource: "plant"})).
				Post("/plants", catalogHandler.Create)
			staff.With(auditRecorder.Middleware(audit.HTTPConfig{Action: "plant.update", Resource: "plant", ResourceIDParam: "id"})).
				Put("/plants/{id}", catalogHandler.Update)
			staff.With(auditRecorder.Middleware(audit.HTTPConfig{Action: "plant.delete", Resource: "plant", ResourceIDParam: "id"})).
				Delete("/plants/{id}", catalogHandler.Delete)
			staff.With(auditRecorder.Middleware(audit.HTTPConfig{Action: "plant.adjust_stock", Resource: "plant", ResourceIDParam: "id"})).
				Post("/plants/{id}/stock", inventoryHandler.Adjust)
			staff.Get("/inventory/low-stock", inventoryHandler.LowStock)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Use(auth.RequireRole(repo.RoleAdmin))
			admin.Get("/audit-logs", auditHandler.List)
			admin.With(auditRecorder.Middleware(audit.HTTPConfig{Action: "order.update", Resource: "order", ResourceIDParam: "id"})).
				Patch("/orders/{id}", orderHandler.AdminUpdate)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info().Msg("shutdown signal received")
		health.SetReady(false)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
