// Package service orchestrates identity operations across the credential
// provider and the profile store. The two stores share no transaction, so
// every multi-store operation here is ordered writes plus, where needed,
// compensation.
package service

//go:generate mockgen -destination=mocks/credential_store.go -package=mocks -mock_names=Store=MockCredentialStore accountd/internal/identity/store/credential Store
//go:generate mockgen -destination=mocks/profile_store.go -package=mocks -mock_names=Store=MockProfileStore accountd/internal/identity/store/profile Store

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	identitymetrics "accountd/internal/identity/metrics"
	"accountd/internal/identity/store/credential"
	"accountd/internal/identity/store/profile"
	"accountd/internal/identity/token"
	"accountd/pkg/platform/audit"
	"accountd/pkg/requestcontext"
)

// TokenConfig controls the access tokens minted by the login pass-through.
type TokenConfig struct {
	SigningKey []byte
	Issuer     string
	TTL        time.Duration
}

// Service exposes the identity operations: provisioning, login, ownership-
// guarded reads and attribute sync.
type Service struct {
	credentials credential.Store
	profiles    profile.Store
	tokens      *token.Reader
	tokenCfg    TokenConfig
	logger      *slog.Logger
	metrics     *identitymetrics.Metrics
	audit       *audit.Publisher
	tracer      trace.Tracer
}

type serviceConfig struct {
	tokens  *token.Reader
	logger  *slog.Logger
	metrics *identitymetrics.Metrics
	audit   *audit.Publisher
}

// Option configures the Service.
type Option func(*serviceConfig)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *identitymetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithAuditPublisher sets the audit sink.
func WithAuditPublisher(p *audit.Publisher) Option {
	return func(c *serviceConfig) { c.audit = p }
}

// WithTokenReader overrides the bearer token reader, e.g. to add signature
// verification.
func WithTokenReader(r *token.Reader) Option {
	return func(c *serviceConfig) { c.tokens = r }
}

// New wires an identity service over the two store ports.
func New(credentials credential.Store, profiles profile.Store, tokenCfg TokenConfig, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.tokens == nil {
		cfg.tokens = token.NewReader()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		credentials: credentials,
		profiles:    profiles,
		tokens:      cfg.tokens,
		tokenCfg:    tokenCfg,
		logger:      cfg.logger,
		metrics:     cfg.metrics,
		audit:       cfg.audit,
		tracer:      otel.Tracer("accountd/identity"),
	}
}

// logAudit emits an audit event, logging (never propagating) delivery
// failures: audit is best-effort and must not fail the business operation.
func (s *Service) logAudit(ctx context.Context, action audit.AuditEvent, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Action = string(action)
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", action,
			"error", err,
		)
	}
}

// step runs one remote operation inside a child span so a trace shows exactly
// how far a multi-store operation progressed.
func (s *Service) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
