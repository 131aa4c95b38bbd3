// Package batch runs the model pipelines over items stored in the database
// and writes the results back to the item rows.
package batch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"itemsclassification/internal/blob"
	"itemsclassification/internal/classification"
	"itemsclassification/internal/colors"
	"itemsclassification/internal/hscode"
	"itemsclassification/models"
)

type Processor struct {
	DB              *gorm.DB
	Storage         blob.Storage
	ImagesContainer string

	Classification *classification.Pipeline
	Colors         *colors.Pipeline
	HSCode         *hscode.Classifier

	Logger *zap.SugaredLogger
}

// Run applies the pipeline of kind to every item. All items are looked up
// before the first model request; a missing item fails the whole run.
// Pipeline errors stop the run, results saved so far are kept.
func (p *Processor) Run(ctx context.Context, kind models.TaskKind, itemIDs []int64) (string, error) {
	items, err := models.LoadItemsByOriginID(p.DB, itemIDs)
	if err != nil {
		return "", err
	}

	found := make(map[int64]bool, len(items))
	for _, item := range items {
		found[item.OriginID] = true
	}
	for _, id := range itemIDs {
		if !found[id] {
			return "", fmt.Errorf("Cannot find item %d in the SQL db", id)
		}
	}

	var process func(context.Context, models.Item, string) (map[string]any, error)
	var done string

	switch kind {
	case models.TaskClassification:
		process, done = p.classify, "Classified %d items"
	case models.TaskColorRecognition:
		process, done = p.detectColors, "Detected colors of %d items"
	case models.TaskHSCode:
		process, done = p.classifyHSCode, "Assigned HS codes to %d items"
	default:
		return "", fmt.Errorf("task %v cannot run over items", kind)
	}

	for i, item := range items {
		image, err := p.image(ctx, item.OriginID, kind == models.TaskColorRecognition)
		if err != nil {
			return "", err
		}

		fields, err := process(ctx, item, image)
		if err != nil {
			return "", fmt.Errorf("item %d: %w", item.OriginID, err)
		}

		if _, err := models.UpdateItemByOriginID(p.DB, item.OriginID, fields); err != nil {
			return "", err
		}

		p.Logger.Debugw("Item processed", "task", kind, "item_id", item.OriginID, "done", i+1, "total", len(items))
	}

	return fmt.Sprintf(done, len(items)), nil
}

// image returns a URL of the item's image, or "" when the item has none and
// the image is not required.
func (p *Processor) image(ctx context.Context, id int64, required bool) (string, error) {
	name := blob.ImageName(id)

	ok, err := p.Storage.Exists(ctx, p.ImagesContainer, name)
	if err != nil {
		return "", err
	}
	if !ok {
		if required {
			return "", fmt.Errorf("Cannot find image for item %d in the Blob storage", id)
		}
		return "", nil
	}

	return p.Storage.ImageURL(ctx, p.ImagesContainer, name)
}

func (p *Processor) classify(ctx context.Context, item models.Item, image string) (map[string]any, error) {
	res, err := p.Classification.Classify(ctx, classification.Input{
		Image:                        image,
		SupplierName:                 item.SupplierName,
		SupplierReferenceDescription: item.SupplierReferenceDescription,
		Materials:                    deref(item.Materials),
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"main":   res.Main,
		"sub":    res.Sub,
		"detail": res.Detail,
		"level4": res.Level4,
	}, nil
}

func (p *Processor) detectColors(ctx context.Context, item models.Item, image string) (map[string]any, error) {
	res, err := p.Colors.Detect(ctx, colors.Input{
		Image:                        image,
		SupplierReferenceDescription: item.SupplierReferenceDescription,
		Materials:                    deref(item.Materials),
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{"colors": strings.Join(res.Colors(), ", ")}, nil
}

func (p *Processor) classifyHSCode(ctx context.Context, item models.Item, image string) (map[string]any, error) {
	res, err := p.HSCode.Classify(ctx, hscode.Input{
		Image:                        image,
		SupplierName:                 item.SupplierName,
		SupplierReferenceDescription: item.SupplierReferenceDescription,
		Materials:                    deref(item.Materials),
		Main:                         deref(item.Main),
		Sub:                          deref(item.Sub),
		Detail:                       deref(item.Detail),
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{"hs_code": res.HSCode}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
