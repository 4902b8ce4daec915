// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/telcobench/transit/internal/adapters/benchmarks"
	taskqueue "github.com/telcobench/transit/internal/adapters/mq/queue"
	workerpool "github.com/telcobench/transit/internal/adapters/mq/worker"
	"github.com/telcobench/transit/internal/adapters/permstore"
	"github.com/telcobench/transit/internal/adapters/transit"
	"github.com/telcobench/transit/internal/domain/disposition"
	"github.com/telcobench/transit/internal/domain/ledger"
	"github.com/telcobench/transit/internal/domain/model"
	"github.com/telcobench/transit/internal/domain/review"
	"github.com/telcobench/transit/internal/domain/syncer"
	"github.com/telcobench/transit/internal/domain/types"
	"github.com/telcobench/transit/internal/domain/validate"
	"github.com/telcobench/transit/pkg/logger"
	"github.com/telcobench/transit/pkg/metrics"
)

// Service drives submission bundles from ingestion through review to their
// terminal disposition.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry    *review.Registry
	artifacts   transit.Store
	evaluator   *validate.Evaluator
	ledger      ledger.Ledger
	permanent   syncer.PermanentStore
	syncClient  *syncer.Client
	disposition *disposition.Handler
	syncQueue   taskqueue.Queue
	workerPool  *workerpool.Pool

	// Configuration
	workerCount      int
	queueSize        int
	benchmarkVersion string
	benchmarksURL    string
	permanentURL     string
	ledgerPath       string
	requestTimeout   time.Duration
	syncMaxAttempts  int
	syncBackoffBase  time.Duration

	// Injected collaborators (tests swap these for the HTTP clients)
	sampleSource validate.Source

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the number of sync workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the sync queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithBenchmarkVersion pins the canonical sample-set version.
func WithBenchmarkVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.benchmarkVersion = version
		}
	}
}

// WithBenchmarksURL sets the canonical sample source base URL.
func WithBenchmarksURL(url string) Option {
	return func(s *Service) {
		s.benchmarksURL = url
	}
}

// WithPermanentStoreURL sets the permanent store base URL.
func WithPermanentStoreURL(url string) Option {
	return func(s *Service) {
		s.permanentURL = url
	}
}

// WithLedgerPath enables the SQLite ledger at the given path. An empty
// path keeps the in-memory ledger.
func WithLedgerPath(path string) Option {
	return func(s *Service) {
		s.ledgerPath = path
	}
}

// WithRequestTimeout bounds every external call.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithSyncMaxAttempts bounds sync retries on transient failures.
func WithSyncMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.syncMaxAttempts = n
		}
	}
}

// WithSyncBackoffBase sets the base delay for sync retry backoff.
func WithSyncBackoffBase(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncBackoffBase = d
		}
	}
}

// WithSampleSource injects a canonical sample source, replacing the HTTP
// client built from WithBenchmarksURL.
func WithSampleSource(src validate.Source) Option {
	return func(s *Service) {
		s.sampleSource = src
	}
}

// WithPermanentStore injects a permanent store, replacing the HTTP client
// built from WithPermanentStoreURL.
func WithPermanentStore(ps syncer.PermanentStore) Option {
	return func(s *Service) {
		s.permanent = ps
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      4,
		queueSize:        1024,
		benchmarkVersion: "v1",
		requestTimeout:   15 * time.Second,
		syncMaxAttempts:  3,
		syncBackoffBase:  time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting transit review service...")

	s.registry = review.NewRegistry()
	s.artifacts = transit.NewMemoryStore()

	if s.ledgerPath != "" {
		ldg, err := ledger.NewSQLiteLedger(s.ledgerPath)
		if err != nil {
			return fmt.Errorf("open sync ledger: %w", err)
		}
		s.ledger = ldg
		s.logger.Info(ctx, "using sqlite sync ledger", logger.String("path", s.ledgerPath))
	} else {
		s.ledger = ledger.NewMemoryLedger()
		s.logger.Info(ctx, "using in-memory sync ledger")
	}

	if s.sampleSource == nil {
		s.sampleSource = benchmarks.NewClient(
			s.benchmarksURL,
			benchmarks.WithRequestTimeout(s.requestTimeout),
		)
	}
	if s.permanent == nil {
		s.permanent = permstore.NewClient(
			s.permanentURL,
			permstore.WithRequestTimeout(s.requestTimeout),
		)
	}

	s.evaluator = validate.NewEvaluator(
		s.sampleSource,
		validate.WithBenchmarkVersion(s.benchmarkVersion),
	)
	s.syncClient = syncer.New(
		s.ledger,
		s.permanent,
		syncer.WithMaxAttempts(s.syncMaxAttempts),
		syncer.WithBackoffBase(s.syncBackoffBase),
	)
	s.disposition = disposition.NewHandler(s.artifacts, disposition.NewLogNotifier(s.logger.Named("notify")))

	s.syncQueue = taskqueue.NewInMemoryQueue(
		taskqueue.WithCapacity(s.queueSize),
		taskqueue.WithBufferSize(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.syncQueue, s)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "transit review service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("benchmarkVersion", s.benchmarkVersion),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping transit review service...")

	if s.syncQueue != nil {
		_ = s.syncQueue.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	if closer, ok := s.ledger.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "transit review service stopped")
}

// Ingest opens a review case for a submission bundle and runs validation.
func (s *Service) Ingest(ctx context.Context, b model.Bundle) (types.CaseView, error) {
	metrics.RecordSubmissionReceived()

	id := s.registry.Create(ctx, b)
	if err := s.artifacts.Put(ctx, id, b); err != nil {
		return types.CaseView{}, fmt.Errorf("store transit artifact: %w", err)
	}
	metrics.UpdateTransitArtifacts(s.artifacts.Count(ctx))

	if err := s.registry.Transition(ctx, id, review.StateValidating, review.ActorSystem, nil); err != nil {
		return types.CaseView{}, err
	}
	if err := s.runValidation(ctx, id, b); err != nil {
		return types.CaseView{}, err
	}
	return s.Case(ctx, id)
}

// Revise accepts a revised bundle for a case in NeedsWork and re-validates.
// There is no limit on revisions; this is the state machine's only cycle.
func (s *Service) Revise(ctx context.Context, caseID string, b model.Bundle) (types.CaseView, error) {
	if err := s.registry.Transition(ctx, caseID, review.StateValidating, review.ActorSystem, nil); err != nil {
		return types.CaseView{}, err
	}
	if err := s.registry.SetBundle(ctx, caseID, b); err != nil {
		return types.CaseView{}, err
	}
	if err := s.artifacts.Put(ctx, caseID, b); err != nil {
		return types.CaseView{}, fmt.Errorf("store transit artifact: %w", err)
	}
	if err := s.runValidation(ctx, caseID, b); err != nil {
		return types.CaseView{}, err
	}
	return s.Case(ctx, caseID)
}

// runValidation evaluates the bundle and routes the case by verdict.
func (s *Service) runValidation(ctx context.Context, caseID string, b model.Bundle) error {
	verdict := s.evaluator.Evaluate(ctx, b)
	if err := s.registry.SetVerdict(ctx, caseID, verdict); err != nil {
		return err
	}

	if verdict.Pass {
		s.logger.Info(ctx, "submission valid; requesting human review", logger.String("caseID", caseID))
		return s.registry.Transition(ctx, caseID, review.StateReadyForReview, review.ActorSystem, nil)
	}
	s.logger.Info(ctx, "submission failed validation",
		logger.String("caseID", caseID),
		logger.Int("failures", len(verdict.Failures)),
	)
	return s.registry.Transition(ctx, caseID, review.StateNeedsWork, review.ActorSystem, verdict.Reasons())
}

// Approve records a reviewer approval and queues the case for sync.
func (s *Service) Approve(ctx context.Context, caseID string) (types.CaseView, error) {
	if err := s.registry.Transition(ctx, caseID, review.StateApproved, review.ActorReviewer, nil); err != nil {
		return types.CaseView{}, err
	}
	if ok := s.syncQueue.Enqueue(ctx, taskqueue.Task{CaseID: caseID}); !ok {
		// The approval stands; the sync must be re-queued by an operator.
		s.logger.Error(ctx, "sync queue rejected approved case", logger.String("caseID", caseID))
		return types.CaseView{}, fmt.Errorf("case %s approved but sync queue is full", caseID)
	}
	return s.Case(ctx, caseID)
}

// RequestChanges sends a case back to the submitter with reviewer feedback.
func (s *Service) RequestChanges(ctx context.Context, caseID string, reasons []string) (types.CaseView, error) {
	if err := s.registry.Transition(ctx, caseID, review.StateNeedsWork, review.ActorReviewer, reasons); err != nil {
		return types.CaseView{}, err
	}
	return s.Case(ctx, caseID)
}

// Reject records a reviewer rejection and finalizes the case. The rejected
// case cannot be revised; a fresh submission must be opened.
func (s *Service) Reject(ctx context.Context, caseID, reason string) (types.CaseView, error) {
	if err := s.registry.Transition(ctx, caseID, review.StateRejected, review.ActorReviewer, []string{reason}); err != nil {
		return types.CaseView{}, err
	}

	if err := s.disposition.FinalizeRejected(ctx, caseID, []string{reason}); err != nil {
		// Stays in Rejected until disposition succeeds; nothing terminal yet.
		s.logger.Error(ctx, "rejection disposition failed", logger.String("caseID", caseID), logger.Error(err))
		return s.Case(ctx, caseID)
	}
	metrics.UpdateTransitArtifacts(s.artifacts.Count(ctx))

	if err := s.registry.Transition(ctx, caseID, review.StateClosed, review.ActorSystem, nil); err != nil {
		return types.CaseView{}, err
	}

	view, err := s.Case(ctx, caseID)
	if err != nil {
		return types.CaseView{}, err
	}
	if err := s.registry.Remove(ctx, caseID); err != nil {
		s.logger.Warn(ctx, "failed to remove closed case", logger.String("caseID", caseID), logger.Error(err))
	}
	return view, nil
}

// ProcessSync runs the sync protocol and terminal disposition for an
// approved case. Called by the sync workers.
func (s *Service) ProcessSync(ctx context.Context, caseID string) error {
	bundle, err := s.registry.Bundle(ctx, caseID)
	if err != nil {
		return err
	}
	sub, err := bundle.Submission()
	if err != nil {
		return fmt.Errorf("case %s: %w", caseID, err)
	}

	if err := s.syncClient.Sync(ctx, sub); err != nil {
		return err
	}
	if n, err := s.ledger.Size(ctx); err == nil {
		metrics.UpdateLedgerSize(n)
	}

	// Disposition before the terminal transition: a case may not look
	// terminal while it still holds transit resources.
	if err := s.disposition.FinalizeSynced(ctx, caseID); err != nil {
		return err
	}
	metrics.UpdateTransitArtifacts(s.artifacts.Count(ctx))

	if err := s.registry.Transition(ctx, caseID, review.StateSynced, review.ActorSystem, nil); err != nil {
		return err
	}
	if err := s.registry.Remove(ctx, caseID); err != nil {
		s.logger.Warn(ctx, "failed to remove synced case", logger.String("caseID", caseID), logger.Error(err))
	}

	s.logger.Info(ctx, "case synced to permanent store",
		logger.String("caseID", caseID),
		logger.String("model", sub.ModelIdentifier),
	)
	return nil
}

// Case returns the observable view of one review case.
func (s *Service) Case(ctx context.Context, caseID string) (types.CaseView, error) {
	snap, err := s.registry.Snapshot(ctx, caseID)
	if err != nil {
		return types.CaseView{}, err
	}
	return viewFrom(snap), nil
}

// Cases returns views of all in-flight cases.
func (s *Service) Cases(ctx context.Context) []types.CaseView {
	snaps := s.registry.List(ctx)
	views := make([]types.CaseView, len(snaps))
	for i, snap := range snaps {
		views[i] = viewFrom(snap)
	}
	return views
}

// Verdict returns the latest validation verdict for a case.
func (s *Service) Verdict(ctx context.Context, caseID string) (model.Verdict, bool, error) {
	snap, err := s.registry.Snapshot(ctx, caseID)
	if err != nil {
		return model.Verdict{}, false, err
	}
	return snap.Verdict, snap.HasVerdict, nil
}

// viewFrom projects a case snapshot onto its external shape.
func viewFrom(snap review.Snapshot) types.CaseView {
	view := types.CaseView{
		CaseID: snap.ID,
		State:  string(snap.State),
	}
	if label, ok := review.Label(snap.State); ok {
		view.Label = label
	}
	if len(snap.History) > 0 {
		view.Reasons = snap.History[len(snap.History)-1].Reasons
	}
	return view
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	if s.started {
		stats["openCases"] = s.registry.Count(ctx)
		stats["queueLength"] = s.syncQueue.Len(ctx)
		stats["transitArtifacts"] = s.artifacts.Count(ctx)
		if n, err := s.ledger.Size(ctx); err == nil {
			stats["ledgerSize"] = n
			metrics.UpdateLedgerSize(n)
		}
		metrics.UpdateOpenCases(s.registry.Count(ctx))
		metrics.UpdateTransitArtifacts(s.artifacts.Count(ctx))
	}
	return stats
}
