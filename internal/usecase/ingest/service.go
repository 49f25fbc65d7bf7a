package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdedup/internal/domain"
	"github.com/kailas-cloud/docdedup/internal/domain/match"
	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
	"github.com/kailas-cloud/docdedup/internal/logger"
	"github.com/kailas-cloud/docdedup/internal/metrics"
)

// Result is the outcome of an ingestion. Exactly one field is set.
type Result struct {
	Record    *domrec.Record
	Duplicate *match.Match
}

// Service runs the full ingestion pipeline: duplicate check, then conditional persistence.
type Service struct {
	detector Detector
	index    Index
	fps      Fingerprints
	blobs    Blobs
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// New creates an ingestion service.
func New(detector Detector, index Index, fps Fingerprints, blobs Blobs, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		detector: detector,
		index:    index,
		fps:      fps,
		blobs:    blobs,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock overrides the persistence timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// WithIDGenerator overrides record ID generation.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// Ingest checks raw for near-duplicates and persists it when unique.
// A duplicate is a result, not an error. Nothing is written unless a Record is returned.
func (s *Service) Ingest(ctx context.Context, raw []byte, meta domrec.Metadata) (res Result, err error) {
	start := time.Now()
	var top float64
	defer func() { s.observe(start, meta, res, top, err) }()

	if err := meta.Validate(); err != nil {
		return Result{}, err
	}

	dec, err := s.detector.CheckAndBuildRecord(ctx, raw, meta)
	if err != nil {
		return Result{}, fmt.Errorf("duplicate check: %w", err)
	}
	if len(dec.Candidates) > 0 {
		top = dec.Candidates[0].Score()
	}
	if dec.Duplicate != nil {
		return Result{Duplicate: dec.Duplicate}, nil
	}

	id := s.newID()
	pending := dec.Pending
	ctx = logger.With(ctx, zap.String("record_id", id), zap.String("filename", meta.Filename))

	holder, err := s.claim(ctx, pending.Fingerprint, id)
	if err != nil {
		return Result{}, err
	}
	if holder != nil {
		top = holder.Score()
		return Result{Duplicate: holder}, nil
	}

	rec, err := s.persist(ctx, raw, pending, id)
	if err != nil {
		s.release(ctx, pending.Fingerprint)
		return Result{}, err
	}

	if err := s.fps.Confirm(context.WithoutCancel(ctx), pending.Fingerprint, id); err != nil {
		logger.FromContext(ctx).Warn("confirm fingerprint failed", zap.Error(err))
	}
	return Result{Record: &rec}, nil
}

// claim reserves the fingerprint for id. A non-nil match means identical text
// is already stored or being stored by another ingestion.
func (s *Service) claim(ctx context.Context, fp, id string) (*match.Match, error) {
	for range 2 {
		ok, err := s.fps.Claim(ctx, fp, id)
		if err != nil {
			return nil, fmt.Errorf("claim fingerprint: %w", err)
		}
		if ok {
			return nil, nil
		}

		holderID, err := s.fps.Lookup(ctx, fp)
		if errors.Is(err, domain.ErrNotFound) {
			// released between Claim and Lookup
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup fingerprint: %w", err)
		}

		var filename string
		rec, err := s.index.Get(ctx, holderID)
		switch {
		case err == nil:
			filename = rec.Filename()
		case errors.Is(err, domain.ErrNotFound):
			// holder is still persisting
		default:
			return nil, fmt.Errorf("get fingerprint holder: %w", err)
		}
		m := match.New(holderID, filename, 1)
		return &m, nil
	}
	return nil, fmt.Errorf("%w: fingerprint claim contended", domain.ErrIndex)
}

func (s *Service) persist(ctx context.Context, raw []byte, p *domrec.Pending, id string) (domrec.Record, error) {
	if err := ctx.Err(); err != nil {
		return domrec.Record{}, fmt.Errorf("ingest aborted: %w", err)
	}

	loc, err := s.blobs.Put(ctx, id, raw)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("store file: %w", err)
	}

	rec, err := domrec.New(*p, id, loc, s.now().UTC())
	if err != nil {
		s.deleteBlob(ctx, loc)
		return domrec.Record{}, fmt.Errorf("build record: %w", err)
	}

	if err := s.index.Insert(ctx, rec); err != nil {
		s.deleteBlob(ctx, loc)
		return domrec.Record{}, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

func (s *Service) release(ctx context.Context, fp string) {
	if err := s.fps.Release(context.WithoutCancel(ctx), fp); err != nil {
		logger.FromContext(ctx).Warn("release fingerprint failed", zap.Error(err))
	}
}

func (s *Service) deleteBlob(ctx context.Context, loc string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), loc); err != nil {
		logger.FromContext(ctx).Warn("delete orphaned blob failed",
			zap.String("location", loc), zap.Error(err))
	}
}

func (s *Service) observe(
	start time.Time, meta domrec.Metadata, res Result, top float64, err error,
) {
	outcome := outcomeOf(res, err)
	elapsed := time.Since(start)

	metrics.IngestTotal.WithLabelValues(outcome).Inc()
	metrics.IngestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if outcome == metrics.OutcomeAccepted || outcome == metrics.OutcomeDuplicate {
		metrics.TopMatchScore.Observe(top)
	}

	fields := []zap.Field{
		zap.String("outcome", outcome),
		zap.String("filename", meta.Filename),
		zap.String("source", meta.SourceReference),
		zap.Float64("top_score", top),
		zap.Duration("duration", elapsed),
	}
	switch {
	case res.Record != nil:
		fields = append(fields, zap.String("record_id", res.Record.ID()))
	case res.Duplicate != nil:
		fields = append(fields, zap.String("similar_to", res.Duplicate.CandidateID()))
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
		if outcome == metrics.OutcomeFailed {
			s.logger.Error("ingest", fields...)
			return
		}
	}
	s.logger.Info("ingest", fields...)
}

func outcomeOf(res Result, err error) string {
	switch {
	case errors.Is(err, domain.ErrExtraction), errors.Is(err, domain.ErrInvalidInput):
		return metrics.OutcomeRejected
	case err != nil:
		return metrics.OutcomeFailed
	case res.Duplicate != nil:
		return metrics.OutcomeDuplicate
	default:
		return metrics.OutcomeAccepted
	}
}
