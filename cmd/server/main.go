// Command server runs the public aid lookup portal: beneficiary search with
// rate limiting, PIN-gated disclosure, OTP delivery, and the admin review
// surface. Backends degrade gracefully: without Postgres or Redis the server
// runs on in-memory stores, without Kafka audit events stay local.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"aidgate/internal/audit"
	disclosurehandler "aidgate/internal/disclosure/handler"
	disclosuremetrics "aidgate/internal/disclosure/metrics"
	disclosureservice "aidgate/internal/disclosure/service"
	disclosurestore "aidgate/internal/disclosure/store"
	lookupcache "aidgate/internal/lookup/cache"
	lookuphandler "aidgate/internal/lookup/handler"
	lookupmetrics "aidgate/internal/lookup/metrics"
	lookupservice "aidgate/internal/lookup/service"
	otphandler "aidgate/internal/otp/handler"
	otpmetrics "aidgate/internal/otp/metrics"
	otpservice "aidgate/internal/otp/service"
	otpstore "aidgate/internal/otp/store"
	"aidgate/internal/platform/config"
	"aidgate/internal/platform/httpserver"
	"aidgate/internal/platform/logger"
	platformmetrics "aidgate/internal/platform/metrics"
	platformredis "aidgate/internal/platform/redis"
	ratelimithandler "aidgate/internal/ratelimit/handler"
	ratelimitmetrics "aidgate/internal/ratelimit/metrics"
	ratelimitservice "aidgate/internal/ratelimit/service"
	attemptstore "aidgate/internal/ratelimit/store/attempt"
	counterstore "aidgate/internal/ratelimit/store/counter"
	"aidgate/internal/registry"
	registryhandler "aidgate/internal/registry/handler"
	registryservice "aidgate/internal/registry/service"
	registrystore "aidgate/internal/registry/store"
	"aidgate/internal/sms"
	httptransport "aidgate/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres is optional in development; every store has a memory fallback.
	var db *sql.DB
	if cfg.Postgres.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to reach postgres", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Audit pipeline: events fan out to the local store (and Kafka when
	// configured) through a buffered worker, so emitting never blocks a
	// request.
	var auditStore audit.Store
	if db != nil {
		auditStore = audit.NewPostgresStore(db)
	} else {
		auditStore = audit.NewInMemoryStore()
	}
	auditSink := audit.Publisher(audit.NewPublisher(auditStore))
	var kafkaPublisher *audit.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err = audit.NewKafkaPublisher(ctx, cfg.Kafka)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		auditSink = audit.NewFanout(log, auditSink, kafkaPublisher)
	}
	auditInbox := make(chan audit.Event, 1024)
	auditWorker := audit.NewWorker(auditSink, auditInbox, log)
	auditPublisher := audit.NewChannelPublisher(auditInbox, log)

	// Rate limiter.
	var counters ratelimitservice.CounterStore
	if redisClient != nil {
		counters = counterstore.NewRedisCounterStore(redisClient.Client)
	} else {
		counters = counterstore.NewInMemoryCounterStore()
	}
	var attempts ratelimitservice.AttemptStore
	if db != nil {
		attempts = attemptstore.NewPostgresAttemptStore(db)
	} else {
		attempts = attemptstore.NewInMemoryAttemptStore()
	}
	limiter, err := ratelimitservice.New(counters, attempts,
		ratelimitservice.WithLogger(log),
		ratelimitservice.WithConfig(&cfg.RateLimit),
		ratelimitservice.WithMetrics(ratelimitmetrics.New()),
	)
	if err != nil {
		log.Error("failed to build rate limiter", "error", err)
		os.Exit(1)
	}

	// Beneficiary directory.
	var directory registry.Directory
	if db != nil {
		directory = registrystore.NewPostgresDirectory(db)
	} else {
		directory = registrystore.NewInMemoryDirectory()
	}

	// Result cache.
	var resultCache lookupcache.Cache
	if redisClient != nil {
		resultCache = lookupcache.NewRedisCache(redisClient.Client, cfg.Search.CacheTTL)
	} else {
		resultCache = lookupcache.NewInMemoryCache(cfg.Search.CacheTTL)
	}

	// Disclosure service.
	var credentials disclosureservice.CredentialStore
	if db != nil {
		credentials = disclosurestore.NewPostgres(db)
	} else {
		credentials = disclosurestore.NewMemory()
	}
	disclosure, err := disclosureservice.New(credentials, directory,
		disclosureservice.WithResultCache(resultCache),
		disclosureservice.WithLogger(log),
		disclosureservice.WithConfig(&cfg.Pin),
		disclosureservice.WithMetrics(disclosuremetrics.New()),
		disclosureservice.WithAuditPublisher(auditPublisher),
		disclosureservice.WithTokenIssuer(disclosureservice.NewTokenIssuer(cfg.Pin.TokenSecret, cfg.Pin.TokenTTL)),
	)
	if err != nil {
		log.Error("failed to build disclosure service", "error", err)
		os.Exit(1)
	}

	// Search gateway.
	lookup, err := lookupservice.New(limiter, directory, disclosure, resultCache,
		lookupservice.WithLogger(log),
		lookupservice.WithConfig(&cfg.Search),
		lookupservice.WithMetrics(lookupmetrics.New()),
		lookupservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		log.Error("failed to build search gateway", "error", err)
		os.Exit(1)
	}

	// Registry write service (admin surface).
	registrySvc, err := registryservice.New(directory, resultCache,
		registryservice.WithLogger(log),
		registryservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		log.Error("failed to build registry service", "error", err)
		os.Exit(1)
	}

	// OTP service.
	var otpCodes otpservice.CodeStore
	if db != nil {
		otpCodes = otpstore.NewPostgres(db)
	} else {
		otpCodes = otpstore.NewMemory()
	}
	otpMetrics := otpmetrics.New()
	otpSvc, err := otpservice.New(otpCodes, sms.NewHTTPClient(cfg.SMS),
		otpservice.WithLogger(log),
		otpservice.WithConfig(&cfg.OTP),
		otpservice.WithCountryCode(cfg.SMS.CountryCode),
		otpservice.WithMetrics(otpMetrics),
		otpservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		log.Error("failed to build otp service", "error", err)
		os.Exit(1)
	}
	otpCleanup := otpservice.NewCleanupWorker(otpCodes, cfg.OTP.CleanupInterval, log, otpMetrics)

	httpMetrics := platformmetrics.New()
	router := httptransport.NewRouter(
		httptransport.Options{Logger: log},
		lookuphandler.New(lookup, log, httpMetrics),
		disclosurehandler.New(disclosure, log, httpMetrics),
		otphandler.New(otpSvc, log, httpMetrics),
		registryhandler.New(registrySvc, log, httpMetrics),
		ratelimithandler.New(limiter, log, httpMetrics),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return auditWorker.Run(ctx)
	})
	g.Go(func() error {
		return otpCleanup.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting aidgate", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
