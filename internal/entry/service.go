// Package entry implements form submission on top of a RecordStore:
// validation, submission bookkeeping, and the reporting-only mode used when
// the database is not configured.
package entry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockparts/internal/logging"
	"github.com/mesh-intelligence/stockparts/internal/metrics"
	"github.com/mesh-intelligence/stockparts/internal/resolver"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// Service accepts form submissions and reads entries back for display.
// Every method performs at most one blocking store call per step and never
// retries.
type Service struct {
	store    types.RecordStore
	resolver *resolver.Resolver
	logger   *zap.Logger
	metrics  *metrics.Metrics
	notice   string
	refuse   error
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics sink. The default registers on a private
// registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wraps store.
func NewService(store types.RecordStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	s.resolver = resolver.New(store, store.Policy())
	return s
}

// NewDisabledService returns a Service in reporting-only mode: reads are
// empty, writes fail with ErrWritesDisabled, and Notice explains why.
func NewDisabledService(policy types.Policy, reason error, opts ...Option) *Service {
	s := NewService(DisabledStore{policy: policy}, opts...)
	s.notice = fmt.Sprintf("Database is not configured, entries cannot be saved: %v", reason)
	s.logger.Warn("writes disabled", zap.Error(reason))
	return s
}

// NewUnavailableService returns a Service for a database that could not be
// reached. It stays up so the caller can keep serving; every read and
// write fails with ErrUnavailable carrying reason.
func NewUnavailableService(policy types.Policy, reason error, opts ...Option) *Service {
	store := DisabledStore{policy: policy, cause: reason}
	s := NewService(store, opts...)
	s.notice = fmt.Sprintf("Database is unavailable, entries cannot be saved: %v", reason)
	s.refuse = store.unavailable()
	s.logger.Warn("database unavailable", zap.Error(reason))
	return s
}

// Writable reports whether submissions can be stored.
func (s *Service) Writable() bool { return s.notice == "" }

// Notice returns the persistent reporting-only message, or "".
func (s *Service) Notice() string { return s.notice }

// Policy returns the policy of the underlying store.
func (s *Service) Policy() types.Policy { return s.store.Policy() }

// Close releases the underlying store.
func (s *Service) Close() error { return s.store.Close() }

// Result describes a saved submission.
type Result struct {
	SubmissionID string
	Entry        types.PartEntry
}

// Message renders a confirmation for the user.
func (r Result) Message() string {
	if r.Entry.Sequence > 0 {
		return fmt.Sprintf("Data saved successfully! SKU %s entry #%d.", r.Entry.SKU, r.Entry.Sequence)
	}
	if r.Entry.Duplicate {
		return fmt.Sprintf("Data saved successfully! SKU %s was already entered (duplicate).", r.Entry.SKU)
	}
	return fmt.Sprintf("Data saved successfully! SKU %s is new.", r.Entry.SKU)
}

// Submit validates e and inserts it. Validation failures perform no store
// call. Store failures are returned wrapped and are not retried.
func (s *Service) Submit(ctx context.Context, e types.PartEntry) (Result, error) {
	id := newSubmissionID()
	log := s.logger.With(logging.ZapSubmission(id))

	e = e.Trimmed()
	if err := e.Validate(); err != nil {
		s.metrics.Submissions.WithLabelValues(metrics.OutcomeInvalid).Inc()
		log.Info("submission rejected", zap.Error(err))
		return Result{}, err
	}
	if !s.Writable() {
		s.metrics.Submissions.WithLabelValues(metrics.OutcomeDisabled).Inc()
		if s.refuse != nil {
			log.Warn("submission refused", zap.Error(s.refuse))
			return Result{}, s.refuse
		}
		return Result{}, types.ErrWritesDisabled
	}

	start := time.Now()
	saved, err := s.store.Insert(ctx, e)
	s.metrics.ObserveStore("insert", start, err)
	if err != nil {
		s.metrics.Submissions.WithLabelValues(metrics.OutcomeStoreError).Inc()
		log.Error("insert failed", logging.ZapSKU(e.SKU), zap.Error(err))
		return Result{}, fmt.Errorf("save entry: %w", err)
	}

	s.metrics.Submissions.WithLabelValues(metrics.OutcomeSaved).Inc()
	if saved.Duplicate {
		s.metrics.DuplicatesDetected.Inc()
	}
	log.Info("entry saved",
		logging.ZapSKU(saved.SKU),
		zap.Int64("id", saved.ID),
		zap.Int("nth_entry", saved.Sequence),
		zap.Bool("is_duplicate", saved.Duplicate))
	return Result{SubmissionID: id, Entry: saved}, nil
}

// List returns every entry. On failure it returns an empty slice together
// with the error so callers can render an empty table and the message.
func (s *Service) List(ctx context.Context) ([]types.PartEntry, error) {
	start := time.Now()
	rows, err := s.store.ListAll(ctx)
	s.metrics.ObserveStore("list", start, err)
	if err != nil {
		s.logger.Error("list failed", zap.Error(err))
		return []types.PartEntry{}, fmt.Errorf("load entries: %w", err)
	}
	return rows, nil
}

// Count returns the number of entries stored for sku, or 0 with the error.
func (s *Service) Count(ctx context.Context, sku string) (int, error) {
	start := time.Now()
	n, err := s.store.CountForKey(ctx, sku)
	s.metrics.ObserveStore("count", start, err)
	if err != nil {
		s.logger.Error("count failed", logging.ZapSKU(sku), zap.Error(err))
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Preview computes the discriminator the next submission of sku would
// receive. The stored value is computed again at insert time.
func (s *Service) Preview(ctx context.Context, sku string) (resolver.Decision, error) {
	return s.resolver.Preview(ctx, sku)
}

// UserMessage renders err for display next to the form.
func UserMessage(err error) string {
	var verr *types.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "Please fill in all fields."
	case errors.Is(err, types.ErrWritesDisabled):
		return "Entries cannot be saved because the database is not configured."
	case errors.Is(err, types.ErrUnavailable):
		return fmt.Sprintf("Database error, entry was not saved: %v", err)
	case errors.Is(err, types.ErrStoreClosed):
		return "The database connection is closed."
	default:
		return fmt.Sprintf("Database error: %v", err)
	}
}

func newSubmissionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
