package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"itemsclassification/core"
	"itemsclassification/internal/simsearch"
	"itemsclassification/models"
)

// reference_loader stores every classified item of the database as
// reference data for similarity search classification.
func main() {
	pageSize := flag.Int("page-size", 500, "number of items embedded per page")
	recreate := flag.Bool("recreate", false, "delete the reference collection before loading")
	flag.Parse()

	cfg, err := core.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := core.NewLogger(cfg.Server.Environment, cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := core.InitDB(cfg.Database, cfg.IsDevelopment())
	if err != nil {
		logger.Fatalw("Cannot connect to the database", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := core.NewServices(ctx, cfg, db, nil, logger)
	if err != nil {
		logger.Fatalw("Cannot create services", "error", err)
	}

	if *recreate {
		logger.Infow("Deleting reference data", "collection", cfg.VectorDB.ReferenceCollection)
		if err := services.SimSearch.DeleteReferenceData(ctx); err != nil {
			logger.Fatalw("Cannot delete reference data", "error", err)
		}
	}

	total, err := load(ctx, db, services.SimSearch, *pageSize, logger)
	if err != nil {
		logger.Fatalw("Loading reference data failed", "loaded", total, "error", err)
	}

	logger.Infow("Reference data loaded", "items", total)
}

// load pages through the classified items and stores each page. It returns
// the number of items stored.
func load(ctx context.Context, db *gorm.DB, service *simsearch.Service, pageSize int, logger *zap.SugaredLogger) (int, error) {
	total := 0

	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		items, err := models.LoadClassifiedItems(db, pageSize, offset)
		if err != nil {
			return total, err
		}
		if len(items) == 0 {
			return total, nil
		}

		reference := make([]simsearch.ReferenceItem, len(items))
		for i, item := range items {
			reference[i] = simsearch.ReferenceItemFromModel(item)
		}

		info, err := service.CreateReferenceData(ctx, reference)
		if err != nil {
			return total, err
		}

		total += len(items)
		logger.Infow(info, "offset", offset, "total", total)

		if len(items) < pageSize {
			return total, nil
		}
	}
}
