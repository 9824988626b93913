// Package service provides the core business service: the handicap update
// orchestrator plus the wiring for its queue, workers, and store.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	recalcqueue "github.com/fairwaylab/greenside/internal/adapters/mq/queue"
	workerpool "github.com/fairwaylab/greenside/internal/adapters/mq/worker"
	repository "github.com/fairwaylab/greenside/internal/adapters/repository"
	"github.com/fairwaylab/greenside/internal/domain/dedupe"
	"github.com/fairwaylab/greenside/internal/domain/model"
	"github.com/fairwaylab/greenside/internal/domain/whs"
	"github.com/fairwaylab/greenside/pkg/logger"
	"github.com/fairwaylab/greenside/pkg/metrics"
)

// handicapMethod names the calculation rules behind every persisted index.
const handicapMethod = "WHS"

// ErrNoIndex is returned when a subject has no computed handicap index yet.
// Callers must not confuse this with an index of 0.0.
var ErrNoIndex = errors.New("no handicap index for subject")

// Service implements the handicap engine's orchestration and read surface.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	coalescer dedupe.Coalescer
	jobQueue  recalcqueue.Queue
	pool      *workerpool.Pool

	// Configuration
	queueSize     int
	workerCount   int
	coalescerSize int
	defaultPar    int

	// State
	started bool

	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence collaborator. Defaults to the in-memory
// store when unset.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithQueueSize sets the maximum size of the recalculation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of recalculation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithCoalescerSize bounds the pending-recalculation tracker.
func WithCoalescerSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.coalescerSize = size
		}
	}
}

// WithDefaultPar sets the par assumed for rounds that carry none.
func WithDefaultPar(par int) Option {
	return func(s *Service) {
		if par > 0 {
			s.defaultPar = par
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source. Tests use this to pin effective
// dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:     1024,
		workerCount:   runtime.NumCPU(),
		coalescerSize: 10_000,
		defaultPar:    whs.DefaultPar,
		now:           time.Now,
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
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Warn(ctx, "no store configured; using in-memory store")
	}

	s.coalescer = dedupe.NewInMemoryCoalescer(
		dedupe.WithMaxSize(s.coalescerSize),
	)
	s.jobQueue = recalcqueue.NewInMemoryQueue(
		recalcqueue.WithCapacity(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "handicap service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
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
	s.logger.Info(ctx, "stopping handicap service...")

	if s.jobQueue != nil {
		_ = s.jobQueue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "handicap service stopped")
}

// RecordRound persists a finalized round and triggers recalculation of the
// affected handicap records. The trigger is fire-and-forget: the round is
// durable once this returns, whatever happens to the recalculation.
func (s *Service) RecordRound(ctx context.Context, r model.RoundRecord) error {
	if err := s.store.AddRound(ctx, r); err != nil {
		metrics.RecordPersistenceError()
		return fmt.Errorf("record round %s: %w", r.RoundID, err)
	}
	metrics.RecordRoundRecorded()

	// The player-level history always includes this round; a bag-scoped
	// round additionally feeds that bag's own index.
	s.UpdateHandicapAfterRound(ctx, r.PlayerID, "")
	if r.EquipmentSetID != "" {
		s.UpdateHandicapAfterRound(ctx, r.PlayerID, r.EquipmentSetID)
	}
	return nil
}

// UpdateHandicapAfterRound queues a recalculation for one subject: the
// player profile when equipmentSetID is empty, else the named equipment
// set. It never returns an error; failures are logged and the next
// finalized round retries from scratch.
func (s *Service) UpdateHandicapAfterRound(ctx context.Context, playerID, equipmentSetID string) {
	job := model.RecalcJob{
		PlayerID:       playerID,
		EquipmentSetID: equipmentSetID,
		RequestedAt:    s.now(),
	}

	if s.coalescer.SeenAndRecord(ctx, job.CoalesceKey()) {
		metrics.RecordRecalcCoalesced()
		s.logger.Debug(ctx, "recalculation already pending",
			logger.String("subject", job.CoalesceKey()),
		)
		return
	}

	if !s.jobQueue.Enqueue(ctx, job) {
		s.coalescer.Unrecord(ctx, job.CoalesceKey())
		s.logger.Warn(ctx, "recalculation queue full; dropping job",
			logger.String("subject", job.CoalesceKey()),
		)
		return
	}
	metrics.UpdateQueueSize(s.jobQueue.Len(ctx))
}

// Recalculate is the handicap update orchestrator: fetch the subject's
// recent rounds, filter them, derive differentials, aggregate, and persist
// the resulting index. It satisfies the worker pool's Recalculator.
//
// A write failure is reported to the caller but deliberately does not
// propagate to the round-entry workflow that queued the job.
func (s *Service) Recalculate(ctx context.Context, job model.RecalcJob) error {
	start := time.Now()
	defer func() {
		metrics.RecordAggregationLatency(float64(time.Since(start).Milliseconds()))
	}()

	// Release the pending slot before reading history: a round finalized
	// while this run is in flight must queue a fresh job, because this
	// run's snapshot will not include it.
	s.coalescer.Unrecord(ctx, job.CoalesceKey())

	// The window is the 20 most recent eligible rounds, so eligibility must
	// be filtered before any windowing. Fetch the full history and let the
	// aggregator apply the cap; a raw-round cap here would let data-entry
	// errors displace older eligible rounds.
	rounds, err := s.store.RecentRounds(ctx, job.PlayerID, job.EquipmentSetID, 0)
	if err != nil {
		metrics.RecordPersistenceError()
		return fmt.Errorf("fetch rounds for %s: %w", job.SubjectID(), err)
	}

	diffs, skipped := s.differentials(ctx, rounds)
	if skipped > 0 {
		metrics.RecordIneligibleRounds(skipped)
		s.logger.Debug(ctx, "rounds excluded from handicap aggregation",
			logger.String("subject", job.CoalesceKey()),
			logger.Int("skipped", skipped),
		)
	}

	result := whs.CalculateIndex(diffs, s.now())
	metrics.RecordRecalculation()

	if !result.Computed() {
		// Too few rounds for an official index. Nothing is written: the
		// absence of a record is what tells callers "no index yet".
		metrics.RecordRecalcUnavailable()
		s.logger.Debug(ctx, "insufficient rounds for handicap index",
			logger.String("subject", job.CoalesceKey()),
			logger.Int("rounds", result.TotalRounds),
		)
		return nil
	}

	idx := model.HandicapIndex{
		SubjectID:        job.SubjectID(),
		SubjectKind:      job.SubjectKind(),
		Value:            result.Index,
		EffectiveDate:    result.EffectiveDate,
		RoundsConsidered: result.TotalRounds,
		Method:           handicapMethod,
	}
	if err := s.store.PutIndex(ctx, idx); err != nil {
		metrics.RecordPersistenceError()
		s.logger.Error(ctx, "handicap index write failed",
			logger.String("subject", job.CoalesceKey()),
			logger.Float64("index", idx.Value),
			logger.Error(err),
		)
		return fmt.Errorf("persist index for %s: %w", job.SubjectID(), err)
	}

	metrics.RecordIndexWrite()
	s.logger.Info(ctx, "handicap index updated",
		logger.String("subject", job.CoalesceKey()),
		logger.Float64("index", idx.Value),
		logger.Int("roundsConsidered", idx.RoundsConsidered),
	)
	return nil
}

// differentials filters rounds through eligibility and converts the
// survivors. Returns the differentials plus how many rounds were excluded.
func (s *Service) differentials(ctx context.Context, rounds []model.RoundRecord) ([]model.Differential, int) {
	diffs := make([]model.Differential, 0, len(rounds))
	skipped := 0
	for _, r := range rounds {
		if !whs.Eligible(r.Score, r.CourseRating, r.SlopeRating, s.defaultPar) {
			skipped++
			continue
		}
		value, err := whs.Differential(r.Score, r.CourseRating, r.SlopeRating, r.PCC)
		if err != nil {
			// Unreachable after the eligibility gate, but never let a bad
			// row poison the aggregate.
			skipped++
			s.logger.Warn(ctx, "differential computation failed",
				logger.String("roundID", r.RoundID),
				logger.Error(err),
			)
			continue
		}
		diffs = append(diffs, model.Differential{
			SourceRoundID:  r.RoundID,
			EquipmentSetID: r.EquipmentSetID,
			Value:          value,
			DatePlayed:     r.DatePlayed,
		})
	}
	return diffs, skipped
}

// Index returns the current handicap index for a player or equipment set.
func (s *Service) Index(ctx context.Context, playerID, equipmentSetID string) (model.HandicapIndex, error) {
	job := model.RecalcJob{PlayerID: playerID, EquipmentSetID: equipmentSetID}
	idx, err := s.store.GetIndex(ctx, job.SubjectID(), job.SubjectKind())
	if err != nil {
		if errors.Is(err, repository.ErrIndexNotFound) {
			return model.HandicapIndex{}, ErrNoIndex
		}
		metrics.RecordPersistenceError()
		return model.HandicapIndex{}, fmt.Errorf("read index for %s: %w", job.SubjectID(), err)
	}
	return idx, nil
}

// Projection derives the course handicap and expected score for a subject
// on a specific course/tee. Returns ErrNoIndex when no index exists.
func (s *Service) Projection(ctx context.Context, playerID, equipmentSetID string, courseRating float64, slopeRating, par int) (model.CourseProjection, error) {
	idx, err := s.Index(ctx, playerID, equipmentSetID)
	if err != nil {
		return model.CourseProjection{}, err
	}
	if par <= 0 {
		par = s.defaultPar
	}
	proj, err := whs.Project(idx.Value, courseRating, slopeRating, par)
	if err != nil {
		return model.CourseProjection{}, fmt.Errorf("project index for %s: %w", playerID, err)
	}
	return proj, nil
}

// QueueLen reports the current recalculation backlog.
func (s *Service) QueueLen(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.jobQueue == nil {
		return 0
	}
	return s.jobQueue.Len(ctx)
}
