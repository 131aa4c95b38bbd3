// Package simsearch classifies items by their nearest already classified
// neighbour in the vector database.
package simsearch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"itemsclassification/internal/ai"
	"itemsclassification/internal/blob"
	"itemsclassification/internal/vectordb"
	"itemsclassification/models"
)

type Service struct {
	DB      *gorm.DB
	Store   vectordb.Store
	Storage blob.Storage
	// Describer describes item images. Classify without it ignores
	// describeImages.
	Describer *ai.Agent

	ReferenceCollection string
	ResultsCollection   string
	ImagesContainer     string

	Logger *zap.SugaredLogger
}

// CreateReferenceData embeds items and stores them in the reference
// collection, creating it when needed.
func (s *Service) CreateReferenceData(ctx context.Context, items []ReferenceItem) (string, error) {
	if err := s.Store.EnsureCollection(ctx, s.ReferenceCollection); err != nil {
		return "", fmt.Errorf("cannot create collection %v: %w", s.ReferenceCollection, err)
	}

	records := make([]vectordb.Record, len(items))
	for i, item := range items {
		records[i] = item.Record()
	}

	if err := s.Store.Upsert(ctx, s.ReferenceCollection, records); err != nil {
		return "", err
	}

	s.Logger.Infow("Stored reference data", "count", len(items))

	return fmt.Sprintf("Saved %d as reference data", len(items)), nil
}

func (s *Service) DeleteReferenceData(ctx context.Context) error {
	return s.Store.DeleteCollection(ctx, s.ReferenceCollection)
}

// Classify copies the categories of each item's closest reference item to
// the item row. Every item must exist in the database and have an image in
// blob storage before any of them is classified.
func (s *Service) Classify(ctx context.Context, itemIDs []int64, describeImages bool) (string, error) {
	items := make([]models.Item, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, err := models.GetItemByOriginID(s.DB, id)
		if err != nil {
			return "", err
		}
		if item == nil {
			return "", fmt.Errorf("Cannot find item %d in the SQL db", id)
		}

		ok, err := s.Storage.Exists(ctx, s.ImagesContainer, blob.ImageName(id))
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("Cannot find image for item %d in the Blob storage", id)
		}

		items = append(items, *item)
	}

	results := make([]vectordb.Record, 0, len(items))
	for _, item := range items {
		record, err := s.classify(ctx, item, describeImages)
		if err != nil {
			return "", fmt.Errorf("item %d: %w", item.OriginID, err)
		}
		results = append(results, record)
	}

	if s.ResultsCollection != "" && len(results) > 0 {
		if err := s.storeResults(ctx, results); err != nil {
			s.Logger.Warnw("Cannot store classification results", "error", err)
		}
	}

	return fmt.Sprintf("Classified %d items", len(items)), nil
}

func (s *Service) classify(ctx context.Context, item models.Item, describeImages bool) (vectordb.Record, error) {
	product := productOf(item)

	if describeImages && s.Describer != nil {
		description, err := s.describe(ctx, item.OriginID)
		if err != nil {
			return vectordb.Record{}, err
		}
		product.ImageDescription = description
	}

	matches, err := s.Store.Search(ctx, s.ReferenceCollection, product.Representation(), 1, vectordb.ItemFilter{})
	if err != nil {
		return vectordb.Record{}, err
	}
	if len(matches) == 0 {
		return vectordb.Record{}, fmt.Errorf("no reference data found")
	}

	nearest := matches[0]
	fields := map[string]any{
		"main":   nearest.String("main"),
		"sub":    nearest.String("sub"),
		"detail": nearest.String("detail"),
		"level4": nearest.String("level4"),
	}

	if _, err := models.UpdateItemByOriginID(s.DB, item.OriginID, fields); err != nil {
		return vectordb.Record{}, err
	}

	s.Logger.Debugw("Classified item", "item_id", item.OriginID, "main", fields["main"], "score", nearest.Score)

	metadata := map[string]any{vectordb.ItemIDKey: item.OriginID, "score": nearest.Score}
	for k, v := range fields {
		metadata[k] = v
	}
	if ref, ok := nearest.ItemID(); ok {
		metadata["reference_item_id"] = ref
	}

	return vectordb.Record{Text: product.Representation(), Metadata: metadata}, nil
}

func (s *Service) describe(ctx context.Context, id int64) (string, error) {
	url, err := s.Storage.ImageURL(ctx, s.ImagesContainer, blob.ImageName(id))
	if err != nil {
		return "", err
	}

	description, err := ai.DescribeImage(ctx, s.Describer, url)
	if err != nil {
		return "", fmt.Errorf("cannot describe image: %w", err)
	}

	return description.String(), nil
}

func (s *Service) storeResults(ctx context.Context, records []vectordb.Record) error {
	if err := s.Store.EnsureCollection(ctx, s.ResultsCollection); err != nil {
		return err
	}
	return s.Store.Upsert(ctx, s.ResultsCollection, records)
}
