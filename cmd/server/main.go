package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"switchboard/internal/directory/cache"
	directoryhandler "switchboard/internal/directory/handler"
	directorymetrics "switchboard/internal/directory/metrics"
	directoryservice "switchboard/internal/directory/service"
	"switchboard/internal/directory/store"
	"switchboard/internal/directory/store/company"
	"switchboard/internal/directory/store/contact"
	"switchboard/internal/directory/store/tag"
	"switchboard/internal/platform/config"
	"switchboard/internal/platform/httpserver"
	"switchboard/internal/platform/logger"
	platformmetrics "switchboard/internal/platform/metrics"
	"switchboard/internal/platform/middleware"
	"switchboard/internal/platform/redis"
	"switchboard/internal/telephony/asterisk"
	telephonyhandler "switchboard/internal/telephony/handler"
	telephonymetrics "switchboard/internal/telephony/metrics"
	telephonyservice "switchboard/internal/telephony/service"
	"switchboard/pkg/platform/audit"
)

// main wires the dependency graph and keeps the server lifecycle
// small. Business logic lives in the internal service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx := context.Background()

	var (
		contacts  directoryservice.ContactStore
		companies directoryservice.CompanyStore
		tags      directoryservice.TagStore
		storeTx   directoryservice.StoreTx
		pool      *pgxpool.Pool
	)
	if cfg.PostgresURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := store.Migrate(ctx, pool); err != nil {
			log.Error("postgres migration failed", "error", err)
			os.Exit(1)
		}
		contacts = contact.NewPostgres(pool)
		companies = company.NewPostgres(pool)
		tags = tag.NewPostgres(pool)
		storeTx = store.NewPgxTx(pool)
		log.Info("using postgres stores")
	} else {
		contacts = contact.NewInMemory()
		companies = company.NewInMemory()
		tags = tag.NewInMemory()
		storeTx = directoryservice.NewMemoryTx()
		log.Info("using in-memory stores")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	var lookupCache *cache.Lookup
	if redisClient != nil {
		defer redisClient.Close()
		lookupCache = cache.NewLookup(redisClient, cfg.LookupCacheTTL, log)
		log.Info("lookup cache enabled", "ttl", cfg.LookupCacheTTL.String())
	}

	auditSinks := audit.Fanout{audit.NewLogPublisher(log)}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(audit.KafkaConfig{
			SeedBrokers: cfg.KafkaBrokers,
			Topic:       cfg.KafkaAuditTopic,
		})
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		auditSinks = append(auditSinks, kafkaPublisher)
		log.Info("kafka audit publisher enabled", "topic", cfg.KafkaAuditTopic)
	}

	directoryOpts := []directoryservice.Option{
		directoryservice.WithLogger(log),
		directoryservice.WithMetrics(directorymetrics.New()),
		directoryservice.WithAuditPublisher(auditSinks),
	}
	if lookupCache != nil {
		directoryOpts = append(directoryOpts, directoryservice.WithLookupCache(lookupCache))
	}
	directorySvc := directoryservice.New(contacts, companies, tags, storeTx, directoryOpts...)

	telephonySvc := telephonyservice.New(
		contacts,
		asterisk.NewClient(cfg.AMI, log),
		telephonyservice.WithLogger(log),
		telephonyservice.WithMetrics(telephonymetrics.New()),
		telephonyservice.WithAuditPublisher(auditSinks),
	)

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(platformmetrics.NewHTTP().Middleware)
	router.Use(middleware.RequestMeta)
	router.Use(middleware.Device)
	router.Use(middleware.CurrentUser(log))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if pool != nil {
			if err := pool.Ping(r.Context()); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	directoryhandler.New(directorySvc, log).Register(router)
	// Dialing needs a resolved user for the extension check.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		telephonyhandler.New(telephonySvc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting switchboard", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
