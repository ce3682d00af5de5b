// Package main is the entrypoint for the model marketplace portal.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/modelhub/portal/internal/account"
	"github.com/modelhub/portal/internal/apikey"
	"github.com/modelhub/portal/internal/backend"
	"github.com/modelhub/portal/internal/cache"
	"github.com/modelhub/portal/internal/catalog"
	"github.com/modelhub/portal/internal/checkout"
	"github.com/modelhub/portal/internal/config"
	"github.com/modelhub/portal/internal/dashboard"
	"github.com/modelhub/portal/internal/handler"
	"github.com/modelhub/portal/internal/instance"
	"github.com/modelhub/portal/internal/invoice"
	"github.com/modelhub/portal/internal/metrics"
	"github.com/modelhub/portal/internal/middleware"
	"github.com/modelhub/portal/internal/notification"
	"github.com/modelhub/portal/internal/repository"
	"github.com/modelhub/portal/internal/server"
	"github.com/modelhub/portal/internal/session"
	"github.com/modelhub/portal/internal/usage"
)

// stores groups the persistence backends chosen at startup.
type stores struct {
	notifications notification.Store
	preferences   account.PreferencesStore
	profiles      session.ProfileCache
	overlays      apikey.OverlayStore
	states        instance.StateStore
	limiter       middleware.Limiter

	db    handler.HealthChecker
	redis handler.HealthChecker
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	loc, _ := cfg.Location()

	promRecorder := metrics.NewPrometheus()

	client, err := backend.New(backend.Options{
		BaseURL: cfg.BackendAPIURL,
		Timeout: cfg.BackendTimeout,
		RPS:     cfg.BackendRPS,
		Burst:   cfg.BackendBurst,
		Logger:  logger,
		Metrics: promRecorder,
	})
	if err != nil {
		logger.Error("failed to create backend client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load catalog", slog.String("error", err.Error()), slog.String("path", cfg.CatalogPath))
		os.Exit(1)
	}

	st := memoryStores()

	var cleanups []namedCleanup

	if cfg.DatabaseURL != "" {
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		if err := repo.Migrate(ctx); err != nil {
			logger.Error("failed to run migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			repo.Close()
			os.Exit(1)
		}
		st.notifications = repository.NewNotificationRepository(repo)
		st.preferences = repo
		st.db = repo
		cleanups = append(cleanups, namedCleanup{"postgres", func(context.Context) error {
			repo.Close()
			return nil
		}})
		logger.Info("connected to database")
	} else {
		logger.Warn("DATABASE_URL not set, notifications and preferences are kept in memory")
	}

	if cfg.RedisURL != "" {
		cacheClient, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		st.profiles = cacheClient
		st.overlays = cacheClient
		st.states = cacheClient
		st.limiter = cacheClient
		st.redis = cacheClient
		cleanups = append(cleanups, namedCleanup{"redis", func(context.Context) error {
			return cacheClient.Close()
		}})
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set, sessions, rate limits and key overlays are kept in memory")
	}

	r := buildRouter(cfg, client, cat, st, loc, promRecorder, logger)

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	for _, c := range cleanups {
		srv.OnShutdown(c.name, c.fn)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"backend_url", redactURL(cfg.BackendAPIURL),
		"env", cfg.AppEnv,
		"checkout_mode", cfg.CheckoutMode,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildRouter wires services and handlers on top of the chosen stores.
func buildRouter(
	cfg *config.Config,
	client *backend.Client,
	cat *catalog.Catalog,
	st stores,
	loc *time.Location,
	promRecorder *metrics.PrometheusRecorder,
	logger *slog.Logger,
) *chi.Mux {
	// Services
	resolver := session.NewResolver(st.profiles, client, cfg.SessionMaxAge, promRecorder, logger)
	cookies := session.NewCookieStore([]byte(cfg.SessionSecret), cfg.SessionMaxAge, cfg.IsProduction())

	notificationService := notification.NewService(st.notifications, loc, promRecorder, logger)
	usageService := usage.NewService(client, logger)
	invoiceService := invoice.NewService(client, logger)
	instanceService := instance.NewService(client, st.states, promRecorder, logger)
	accountService := account.NewService(client, resolver, st.preferences, logger)
	dashboardService := dashboard.NewService(client, usageService, notificationService, invoiceService, logger)

	keyEnv := apikey.EnvLive
	if !cfg.IsProduction() {
		keyEnv = apikey.EnvTest
	}
	apiKeyService := apikey.NewService(client, st.overlays, keyEnv, promRecorder, logger)

	var processor checkout.Processor = checkout.NewSimulatedProcessor(cfg.CheckoutDelay)
	if cfg.CheckoutMode == config.CheckoutBackend {
		processor = checkout.NewBackendProcessor(client)
	}
	checkoutService := checkout.NewService(cat, processor, promRecorder, logger)

	// Handlers
	handlers := routeHandlers{
		health:        handler.NewHealthHandler(client, st.db, st.redis),
		catalog:       handler.NewCatalogHandler(cat, logger),
		session:       handler.NewSessionHandler(resolver, cookies, logger),
		dashboard:     handler.NewDashboardHandler(dashboardService, logger),
		subscriptions: handler.NewSubscriptionHandler(client, instanceService, logger),
		invoices:      handler.NewInvoiceHandler(invoiceService, logger),
		apiKeys:       handler.NewAPIKeyHandler(apiKeyService, logger),
		usage:         handler.NewUsageHandler(usageService, logger),
		notifications: handler.NewNotificationHandler(notificationService, logger),
		account:       handler.NewAccountHandler(accountService, logger),
		checkout:      handler.NewCheckoutHandler(checkoutService, logger),
	}

	return setupRouter(handlers, promRecorder, resolver, cookies, st.limiter, cfg, logger)
}

type namedCleanup struct {
	name string
	fn   server.ShutdownFunc
}

// memoryStores keeps all portal-side state in process memory.
func memoryStores() stores {
	return stores{
		notifications: notification.NewMemoryStore(),
		preferences:   account.NewMemoryPreferencesStore(),
		profiles:      session.NewMemoryProfileCache(cache.ProfileCacheTTL),
		overlays:      apikey.NewMemoryOverlayStore(),
		states:        instance.NewMemoryStateStore(),
		limiter:       cache.NewLocalLimiter(),
	}
}

// routeHandlers holds every HTTP handler mounted by setupRouter.
type routeHandlers struct {
	health        *handler.HealthHandler
	catalog       *handler.CatalogHandler
	session       *handler.SessionHandler
	dashboard     *handler.DashboardHandler
	subscriptions *handler.SubscriptionHandler
	invoices      *handler.InvoiceHandler
	apiKeys       *handler.APIKeyHandler
	usage         *handler.UsageHandler
	notifications *handler.NotificationHandler
	account       *handler.AccountHandler
	checkout      *handler.CheckoutHandler
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h routeHandlers,
	prom *metrics.PrometheusRecorder,
	resolver middleware.SessionResolver,
	cookies middleware.TokenSource,
	limiter middleware.Limiter,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.DefaultSecurityConfig(cfg.IsProduction())))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.GetCORSAllowedOrigins())))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Probes and metrics
	r.Get("/healthz", h.health.Healthz)
	r.Get("/readyz", h.health.Readyz)
	r.Method("GET", "/metrics", prom.Handler())

	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Logger:            logger,
		Limiter:           limiter,
		Enabled:           cfg.RateLimitEnabled,
		RequestsPerMinute: cfg.RateLimitRPM,
		Burst:             cfg.RateLimitBurst,
	})
	auth := middleware.Authenticate(middleware.AuthConfig{
		Logger:   logger,
		Resolver: resolver,
		Cookies:  cookies,
	})

	r.With(rateLimit).Get("/", h.catalog.Landing)

	r.Route("/api/v1", func(r chi.Router) {
		// Public: catalog, sign-in and order quotes
		r.Group(func(r chi.Router) {
			r.Use(rateLimit)

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/models", h.catalog.ListModels)
				r.Get("/models/{id}", h.catalog.GetModel)
				r.Get("/models/{id}/docs", h.catalog.ModelDocs)
				r.Get("/datasets", h.catalog.ListDatasets)
				r.Get("/datasets/{id}", h.catalog.GetDataset)
			})

			r.Post("/session", h.session.Create)
			r.Delete("/session", h.session.Delete)
			r.Post("/checkout/validate", h.checkout.Validate)
		})

		// Signed in: rate limited per user after authentication
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Use(rateLimit)

			r.Get("/dashboard", h.dashboard.Overview)
			r.Get("/activity", h.dashboard.Activity)

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", h.subscriptions.List)
				r.Get("/{id}", h.subscriptions.Get)
				r.Get("/{id}/instances", h.subscriptions.ListInstances)
			})

			r.Route("/instances/{id}", func(r chi.Router) {
				r.Post("/start", h.subscriptions.InstanceAction(instance.ActionStart))
				r.Post("/stop", h.subscriptions.InstanceAction(instance.ActionStop))
				r.Post("/restart", h.subscriptions.InstanceAction(instance.ActionRestart))
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", h.invoices.List)
				r.Get("/{id}", h.invoices.Get)
			})

			r.Route("/api-keys", func(r chi.Router) {
				r.Get("/", h.apiKeys.List)
				r.Post("/{id}/regenerate", h.apiKeys.Regenerate)
			})

			r.Get("/usage", h.usage.Summary)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.notifications.List)
				r.Get("/unread-count", h.notifications.UnreadCount)
				r.Post("/read", h.notifications.MarkManyRead)
				r.Post("/delete", h.notifications.Delete)
				r.Post("/{id}/read", h.notifications.MarkRead)
				r.Post("/{id}/unread", h.notifications.MarkUnread)
			})

			r.Route("/account", func(r chi.Router) {
				r.Get("/profile", h.account.GetProfile)
				r.Put("/profile", h.account.UpdateProfile)
				r.Post("/password", h.account.ChangePassword)
				r.Get("/preferences", h.account.GetPreferences)
				r.Put("/preferences", h.account.UpdatePreferences)
			})

			r.Post("/checkout", h.checkout.Submit)
		})
	})

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
