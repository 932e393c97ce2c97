package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	identitymetrics "accountd/internal/identity/metrics"
	"accountd/internal/identity/service"
	"accountd/internal/identity/store/credential"
	"accountd/internal/identity/store/profile"
	"accountd/internal/identity/token"
	"accountd/internal/platform/config"
	"accountd/internal/platform/httpserver"
	"accountd/internal/platform/logger"
	"accountd/internal/platform/postgres"
	platformredis "accountd/internal/platform/redis"
	httptransport "accountd/internal/transport/http"
	"accountd/pkg/platform/audit"
	auditkafka "accountd/pkg/platform/audit/publishers/kafka"
	auditmemory "accountd/pkg/platform/audit/store/memory"
)

// main wires configuration, stores, the identity service and the HTTP server.
// Backends are selected by configuration: in-memory by default, Postgres for
// credentials, Redis for profiles and Kafka for audit when configured.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	credentials, err := buildCredentialStore(ctx, cfg)
	if err != nil {
		log.Error("failed to build credential store", "error", err)
		os.Exit(1)
	}

	profiles, err := buildProfileStore(ctx, cfg)
	if err != nil {
		log.Error("failed to build profile store", "error", err)
		os.Exit(1)
	}

	sink, closeSink, err := buildAuditSink(ctx, cfg)
	if err != nil {
		log.Error("failed to build audit sink", "error", err)
		os.Exit(1)
	}
	defer closeSink()

	inbox := audit.NewInbox(1024)
	worker := audit.NewWorker(sink, inbox.Events(), log)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(identitymetrics.New()),
		service.WithAuditPublisher(audit.NewPublisher(inbox)),
	}
	if cfg.VerifyTokens {
		opts = append(opts, service.WithTokenReader(token.NewReader(
			token.WithVerifier(token.NewHMACVerifier([]byte(cfg.JWTSigningKey))),
		)))
	}

	svc := service.New(credentials, profiles, service.TokenConfig{
		SigningKey: []byte(cfg.JWTSigningKey),
		Issuer:     cfg.JWTIssuer,
		TTL:        cfg.AccessTokenTTL,
	}, opts...)

	router := httptransport.NewRouter(httptransport.NewHandler(svc, log), log)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(gctx)
	})

	g.Go(func() error {
		log.Info("starting accountd", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("accountd stopped")
}

func buildCredentialStore(ctx context.Context, cfg config.Server) (credential.Store, error) {
	if cfg.PostgresDSN == "" {
		return credential.NewInMemoryStore(), nil
	}
	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	store := credential.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func buildProfileStore(ctx context.Context, cfg config.Server) (profile.Store, error) {
	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return profile.NewInMemoryStore(), nil
	}
	return profile.NewRedisStore(client.Client), nil
}

func buildAuditSink(ctx context.Context, cfg config.Server) (audit.Appender, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return auditmemory.New(), func() {}, nil
	}
	publisher, err := auditkafka.New(ctx, cfg.KafkaBrokers, cfg.KafkaAuditTopic)
	if err != nil {
		return nil, nil, err
	}
	return publisher, publisher.Close, nil
}
