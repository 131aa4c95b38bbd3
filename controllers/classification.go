package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"itemsclassification/internal/cache"
	"itemsclassification/internal/classification"
)

const classificationCacheNamespace = "classification"

type ClassificationController struct {
	Pipeline *classification.Pipeline
	Cache    *cache.Cache
	Logger   *zap.SugaredLogger
}

func (cc ClassificationController) Classify(c *gin.Context) {
	image, err := imageFromRequest(c)
	if err != nil {
		RespondBadRequestErr(c, []error{err})
		return
	}
	if image == "" {
		RespondBadRequestErr(c, []error{ErrMissingImage})
		return
	}

	in := classification.Input{
		Image:                        image,
		SupplierName:                 formValue(c, "supplier_name"),
		SupplierReferenceDescription: formValue(c, "supplier_reference_description"),
		Materials:                    formValue(c, "materials"),
	}

	var cached classification.Result
	if cc.Cache.Get(c.Request.Context(), classificationCacheNamespace, in, &cached) {
		RespondOK(c, cached)
		return
	}

	result, err := cc.Pipeline.Classify(c.Request.Context(), in)
	if err != nil {
		cc.Logger.Errorw("Classification failed", "error", err)
		RespondPipelineErr(c, "Classification error: ", err)
		return
	}

	cc.Cache.Set(c.Request.Context(), classificationCacheNamespace, in, result)
	RespondOK(c, result)
}
