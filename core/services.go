package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"itemsclassification/internal/ai"
	"itemsclassification/internal/batch"
	"itemsclassification/internal/blob"
	"itemsclassification/internal/cache"
	"itemsclassification/internal/classification"
	"itemsclassification/internal/colors"
	"itemsclassification/internal/hscode"
	"itemsclassification/internal/metrics"
	"itemsclassification/internal/simsearch"
	"itemsclassification/internal/tasks"
	"itemsclassification/internal/taxonomy"
	"itemsclassification/internal/vectordb"
)

// Services holds the clients and pipelines built from the configuration.
type Services struct {
	Taxonomy *taxonomy.Taxonomy
	Models   *ai.Models
	Store    vectordb.Store
	Storage  blob.Storage
	Cache    *cache.Cache
	Runner   *tasks.Runner

	Classification *classification.Pipeline
	Colors         *colors.Pipeline
	HSCode         *hscode.Classifier
	SimSearch      *simsearch.Service
	Batch          *batch.Processor
}

// NewServices connects to the model provider, vector database, blob storage
// and cache described by cfg and builds the pipelines on top of them.
func NewServices(ctx context.Context, cfg *Config, db *gorm.DB, meter *metrics.PipelineMeter, logger *zap.SugaredLogger) (*Services, error) {
	tx, err := taxonomy.LoadDir(cfg.Resources)
	if err != nil {
		return nil, fmt.Errorf("cannot load taxonomy: %w", err)
	}

	models, err := ai.NewModels(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("cannot create model clients: %w", err)
	}

	embedder, err := ai.NewEmbedder(models.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("cannot create embedder: %w", err)
	}

	store, err := vectordb.New(cfg.VectorDB, embedder, nil)
	if err != nil {
		return nil, err
	}

	storage, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	s := &Services{
		Taxonomy: tx,
		Models:   models,
		Store:    store,
		Storage:  storage,
		Cache:    cache.New(cache.NewClient(cfg.Redis), cfg.Redis.TTL, logger),
		Runner:   tasks.NewRunner(db, cfg.Tasks.MaxConcurrent, logger),

		Classification: classification.New(tx, models.Default, cfg.Pipelines.Delay, meter, logger),
		Colors:         colors.New(tx, models.Vision, models.Fast, cfg.Pipelines.Delay, meter, logger),
		HSCode:         hscode.New(models.Default, meter, logger),
	}

	s.SimSearch = &simsearch.Service{
		DB:                  db,
		Store:               store,
		Storage:             storage,
		Describer:           ai.NewAgent("image_describer", models.Vision),
		ReferenceCollection: cfg.VectorDB.ReferenceCollection,
		ResultsCollection:   cfg.VectorDB.ResultsCollection,
		ImagesContainer:     cfg.Storage.ImagesContainer,
		Logger:              logger.With("service", "simsearch"),
	}

	s.Batch = &batch.Processor{
		DB:              db,
		Storage:         storage,
		ImagesContainer: cfg.Storage.ImagesContainer,
		Classification:  s.Classification,
		Colors:          s.Colors,
		HSCode:          s.HSCode,
		Logger:          logger.With("service", "batch"),
	}

	return s, nil
}

// Close waits for running tasks until ctx is done and disconnects from the
// cache.
func (s *Services) Close(ctx context.Context) error {
	err := s.Runner.Wait(ctx)
	if cerr := s.Cache.Close(); err == nil {
		err = cerr
	}
	return err
}
