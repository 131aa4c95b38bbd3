package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"itemsclassification/internal/cache"
	"itemsclassification/internal/colors"
)

const colorsCacheNamespace = "colors"

type ColorsController struct {
	Pipeline *colors.Pipeline
	Cache    *cache.Cache
	Logger   *zap.SugaredLogger
}

func (cc ColorsController) Detect(c *gin.Context) {
	image, err := imageFromRequest(c)
	if err != nil {
		RespondBadRequestErr(c, []error{err})
		return
	}
	if image == "" {
		RespondBadRequestErr(c, []error{ErrMissingImage})
		return
	}

	in := colors.Input{
		Image:                        image,
		SupplierReferenceDescription: formValue(c, "supplier_reference_description"),
		Materials:                    formValue(c, "materials"),
	}

	var cached colors.Result
	if cc.Cache.Get(c.Request.Context(), colorsCacheNamespace, in, &cached) {
		RespondOK(c, cached)
		return
	}

	result, err := cc.Pipeline.Detect(c.Request.Context(), in)
	if err != nil {
		cc.Logger.Errorw("Color detection failed", "error", err)
		RespondPipelineErr(c, "Color detection error: ", err)
		return
	}

	cc.Cache.Set(c.Request.Context(), colorsCacheNamespace, in, result)
	RespondOK(c, result)
}
