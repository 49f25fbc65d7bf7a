package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdedup/internal/config"
	dbValkey "github.com/kailas-cloud/docdedup/internal/db/valkey"
	"github.com/kailas-cloud/docdedup/internal/extract"
	"github.com/kailas-cloud/docdedup/internal/metrics"
	"github.com/kailas-cloud/docdedup/internal/repository/blob"
	campaignrepo "github.com/kailas-cloud/docdedup/internal/repository/campaign"
	"github.com/kailas-cloud/docdedup/internal/repository/fingerprint"
	"github.com/kailas-cloud/docdedup/internal/repository/memory"
	recordrepo "github.com/kailas-cloud/docdedup/internal/repository/record"
	openaiEmb "github.com/kailas-cloud/docdedup/internal/transport/openai"
	campaignuc "github.com/kailas-cloud/docdedup/internal/usecase/campaign"
	"github.com/kailas-cloud/docdedup/internal/usecase/dedup"
	embeddinguc "github.com/kailas-cloud/docdedup/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docdedup/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docdedup/internal/usecase/ingest"
	listinguc "github.com/kailas-cloud/docdedup/internal/usecase/listing"
)

// similarityIndex is the full index contract both drivers satisfy.
type similarityIndex interface {
	dedup.Index
	ingestuc.Index
	listinguc.Repository
	EnsureIndex(ctx context.Context) error
}

// storage groups the driver-specific repositories.
type storage struct {
	index     similarityIndex
	fps       ingestuc.Fingerprints
	blobs     ingestuc.Blobs
	campaigns campaignuc.Repository
	pinger    healthuc.DBPinger
	close     func()
}

// app is the composition root shared by serve and check.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	storage   storage
	embedder  *embeddinguc.InstrumentedEmbedder
	detector  *dedup.Detector
	ingest    *ingestuc.Service
	listing   *listinguc.Service
	campaigns *campaignuc.Service
	health    *healthuc.Service
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()
	metrics.RegisterHTTPMetrics()

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := st.index.EnsureIndex(ctx); err != nil {
		st.close()
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:            cfg.Embedding.APIKey,
		BaseURL:           cfg.Embedding.BaseURL,
		Model:             cfg.Embedding.Model,
		Provider:          cfg.Embedding.Provider,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})
	embedder := embeddinguc.NewInstrumentedEmbedder(
		base, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
	).WithTimeout(cfg.Embedding.EmbeddingTimeout())

	extractor := extract.New().WithMaxPages(cfg.Extract.MaxPages)

	detector := dedup.New(extractor, embedder, st.index).
		WithThreshold(cfg.Dedup.Threshold).
		WithTopK(cfg.Dedup.TopK).
		WithDimensions(cfg.Embedding.Dimensions).
		WithQueryTimeout(cfg.Index.QueryTimeout())

	a := &app{
		cfg:       cfg,
		logger:    logger,
		storage:   st,
		embedder:  embedder,
		detector:  detector,
		ingest:    ingestuc.New(detector, st.index, st.fps, st.blobs, logger),
		listing:   listinguc.New(st.index).WithPagination(cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize),
		campaigns: campaignuc.New(st.campaigns),
		health:    healthuc.New(st.pinger, embedder).WithRecordCounter(st.index),
	}
	return a, nil
}

func (a *app) Close() {
	a.storage.close()
}

func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory storage; records are lost on exit")
		index := memory.NewIndex(cfg.Embedding.Dimensions).WithDefaultLimit(cfg.Index.DefaultPageSize)
		return storage{
			index:     index,
			fps:       memory.NewFingerprints(),
			blobs:     memory.NewBlobs(),
			campaigns: memory.NewCampaigns(),
			pinger:    index,
			close:     func() {},
		}, nil

	case config.DriverValkey:
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return storage{}, fmt.Errorf("create valkey store: %w", err)
		}

		readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			store.Close()
			return storage{}, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))

		index := recordrepo.New(store, cfg.Embedding.Dimensions).
			WithHNSW(cfg.Index.HNSWM, cfg.Index.HNSWEFConstruct).
			WithDefaultLimit(cfg.Index.DefaultPageSize)
		return storage{
			index:     index,
			fps:       fingerprint.New(store).WithTTL(cfg.Ingest.FingerprintTTL()),
			blobs:     blob.New(store),
			campaigns: campaignrepo.New(store),
			pinger:    store,
			close:     store.Close,
		}, nil

	default:
		return storage{}, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func loadConfig(path string) (config.Config, string, error) {
	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, env, nil
}
