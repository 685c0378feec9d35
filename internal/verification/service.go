// Package verification orchestrates carrier verification: identifier
// normalization, cache lookups, coalesced registry fetches, risk scoring, and
// write-through caching. It owns the only two pieces of shared mutable state
// in the pipeline, the cache and the in-flight request table.
package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"loadvoice/internal/carrier"
	"loadvoice/internal/events"
	"loadvoice/internal/registry"
	"loadvoice/internal/verification/metrics"
	"loadvoice/internal/verification/risk"
	"loadvoice/internal/verification/store"
	dErrors "loadvoice/pkg/domain-errors"
	"loadvoice/pkg/requestcontext"
)

// Config carries the service's timing policy.
type Config struct {
	// VerifiedTTL is how long a successful verification stays fresh.
	VerifiedTTL time.Duration

	// NotFoundTTL is how long a not-found result stays cached. Short, so a
	// typo lookup is absorbed without masking a just-registered carrier for
	// a full day.
	NotFoundTTL time.Duration

	// AttemptTimeout bounds one verification attempt end to end, including
	// the single retry.
	AttemptTimeout time.Duration

	// RetryBackoff is the pause before the one retry of a transient
	// registry failure.
	RetryBackoff time.Duration
}

// DefaultConfig returns the production timing policy.
func DefaultConfig() Config {
	return Config{
		VerifiedTTL:    24 * time.Hour,
		NotFoundTTL:    15 * time.Minute,
		AttemptTimeout: 10 * time.Second,
		RetryBackoff:   500 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.VerifiedTTL <= 0 {
		c.VerifiedTTL = d.VerifiedTTL
	}
	if c.NotFoundTTL <= 0 {
		c.NotFoundTTL = d.NotFoundTTL
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = d.AttemptTimeout
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = d.RetryBackoff
	}
	return c
}

// CarrierResolver maps an internal CRM carrier id to its registry numbers.
// The CRM owns carrier records; this is its narrow boundary.
type CarrierResolver interface {
	Resolve(ctx context.Context, carrierID string) (carrier.Identifier, error)
}

// VerifyRequest is the inbound contract for one verification.
type VerifyRequest struct {
	Identifier   carrier.Identifier
	ForceRefresh bool
}

// Service coordinates the verification pipeline.
type Service struct {
	registry registry.Client
	cache    store.Store
	resolver CarrierResolver
	events   *events.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cfg      Config
	tracer   trace.Tracer

	group singleflight.Group
	sleep func(context.Context, time.Duration)
}

// Option configures optional service dependencies.
type Option func(*Service)

func WithResolver(r CarrierResolver) Option {
	return func(s *Service) { s.resolver = r }
}

func WithEvents(p *events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// withSleep swaps the retry backoff sleeper; tests use it to avoid waiting.
func withSleep(fn func(context.Context, time.Duration)) Option {
	return func(s *Service) { s.sleep = fn }
}

// NewService builds the verification service. Registry client and cache are
// required; everything else is optional.
func NewService(client registry.Client, cache store.Store, cfg Config, opts ...Option) *Service {
	s := &Service{
		registry: client,
		cache:    cache,
		logger:   slog.Default(),
		cfg:      cfg.withDefaults(),
		tracer:   otel.Tracer("loadvoice/verification"),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Verify runs the per-request state machine: normalize, cache lookup, and on
// miss/expiry/force a coalesced fetch-score-store cycle. Records are created
// here and nowhere else.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*carrier.VerificationRecord, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDuration(time.Since(start)) }()

	id, err := s.normalize(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}
	key := id.Key()

	ctx, span := s.tracer.Start(ctx, "verification.Verify",
		trace.WithAttributes(
			attribute.String("carrier.key", key),
			attribute.Bool("force_refresh", req.ForceRefresh),
		))
	defer span.End()

	now := requestcontext.Now(ctx)

	if !req.ForceRefresh {
		if cached, err := s.cache.Find(ctx, key); err == nil && !cached.ExpiredAt(now) {
			s.metrics.CacheHit()
			cached.FromCache = true
			cached.Stale = false
			return cached, nil
		}
	}

	s.metrics.CacheMiss()

	// All concurrent callers for one key share a single refresh; a burst of
	// profile-card loads costs one registry call.
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.refresh(ctx, key, id, req.ForceRefresh)
	})
	if shared {
		s.metrics.Coalesced()
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return v.(*carrier.VerificationRecord), nil
}

func (s *Service) normalize(ctx context.Context, id carrier.Identifier) (carrier.Identifier, error) {
	id = id.Normalize()
	if err := id.Validate(); err != nil {
		return carrier.Identifier{}, err
	}

	if !id.HasRegistryNumber() {
		if s.resolver == nil {
			return carrier.Identifier{}, dErrors.New(dErrors.CodeBadRequest,
				"carrier has no MC or DOT number to verify against the registry")
		}
		resolved, err := s.resolver.Resolve(ctx, id.CarrierID)
		if err != nil {
			return carrier.Identifier{}, dErrors.Wrap(dErrors.CodeBadRequest,
				"unknown carrier id", err)
		}
		resolved = resolved.Normalize()
		resolved.CarrierID = id.CarrierID
		if !resolved.HasRegistryNumber() {
			return carrier.Identifier{}, dErrors.New(dErrors.CodeBadRequest,
				"carrier record has no MC or DOT number on file")
		}
		id = resolved
	}
	return id, nil
}

// refresh performs one fetch-score-store cycle. It runs inside the
// singleflight group, so at most one refresh per key is in flight.
func (s *Service) refresh(ctx context.Context, key string, id carrier.Identifier, force bool) (*carrier.VerificationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	defer cancel()

	// Capture the prior record before any invalidation: it is the fallback
	// if the registry is down.
	prior, priorErr := s.cache.Find(ctx, key)

	if force {
		// Readers arriving between this invalidation and the Save below see
		// a miss and join this flight, never a second uncoalesced fetch.
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "cache invalidate failed", "key", key, "error", err)
		}
	}

	snap, err := s.fetchWithRetry(ctx, id)
	now := requestcontext.Now(ctx)

	switch {
	case err == nil:
		s.metrics.RegistryLookup("ok")
		return s.storeVerified(ctx, key, id, snap, now), nil

	case errors.Is(err, registry.ErrCarrierNotFound):
		s.metrics.RegistryLookup("not_found")
		return s.storeNotFound(ctx, key, id, now), nil

	default:
		var ue *registry.UpstreamError
		if errors.As(err, &ue) {
			s.metrics.RegistryLookup(string(ue.Category))
		} else {
			s.metrics.RegistryLookup("error")
		}

		if priorErr == nil && prior != nil {
			// Degrade to the last known record rather than failing the
			// request; the caller sees it flagged stale.
			s.metrics.StaleFallback()
			s.logger.WarnContext(ctx, "registry unavailable, serving stale record",
				"key", key, "error", err)
			prior.FromCache = true
			prior.Stale = true
			return prior, nil
		}

		s.logger.ErrorContext(ctx, "registry unavailable and no cached record",
			"key", key, "error", err)
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "carrier registry is unavailable", err)
	}
}

// fetchWithRetry issues the registry lookup, retrying exactly once on a
// transient failure. Retry policy lives here, not in the client.
func (s *Service) fetchWithRetry(ctx context.Context, id carrier.Identifier) (*carrier.RegistrySnapshot, error) {
	lookup := registry.Lookup{MCNumber: id.MCNumber, DOTNumber: id.DOTNumber}

	snap, err := s.registry.Fetch(ctx, lookup)
	if err == nil || !registry.IsRetryable(err) {
		return snap, err
	}

	s.sleep(ctx, s.cfg.RetryBackoff)
	if ctx.Err() != nil {
		return nil, err
	}
	return s.registry.Fetch(ctx, lookup)
}

func (s *Service) storeVerified(ctx context.Context, key string, id carrier.Identifier, snap *carrier.RegistrySnapshot, now time.Time) *carrier.VerificationRecord {
	assessment := risk.Score(*snap)
	record := &carrier.VerificationRecord{
		Identifier:     id,
		Verified:       true,
		Snapshot:       snap,
		Assessment:     &assessment,
		VerifiedAt:     now,
		CacheExpiresAt: now.Add(s.cfg.VerifiedTTL),
	}
	s.saveAndEmit(ctx, key, record)

	s.logger.InfoContext(ctx, "carrier verified",
		"key", key,
		"risk_score", assessment.Score,
		"risk_level", assessment.Level,
	)
	return record
}

// notFoundGuidance enumerates the likely reasons a lookup came back empty.
var notFoundGuidance = []string{
	"The MC or DOT number may be invalid or mistyped.",
	"The carrier's authority may be too new to appear in the registry yet.",
	"The carrier may have ceased operating.",
	"Double-check the number against the carrier's documents.",
}

func (s *Service) storeNotFound(ctx context.Context, key string, id carrier.Identifier, now time.Time) *carrier.VerificationRecord {
	record := &carrier.VerificationRecord{
		Identifier:     id,
		Verified:       false,
		Guidance:       notFoundGuidance,
		VerifiedAt:     now,
		CacheExpiresAt: now.Add(s.cfg.NotFoundTTL),
	}
	s.saveAndEmit(ctx, key, record)

	s.logger.InfoContext(ctx, "carrier not found in registry", "key", key)
	return record
}

func (s *Service) saveAndEmit(ctx context.Context, key string, record *carrier.VerificationRecord) {
	if err := s.cache.Save(ctx, key, *record); err != nil {
		// A write failure degrades cache efficiency, not correctness; the
		// caller still gets the fresh record.
		s.logger.ErrorContext(ctx, "cache write failed", "key", key, "error", err)
	}
	s.events.Emit(ctx, events.FromRecord(uuid.NewString(), *record))
}
