package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"itemsclassification/internal/cache"
	"itemsclassification/internal/hscode"
)

const hsCodeCacheNamespace = "hs_code"

var ErrMissingDetails = errors.New("Must provide an image or supplier_reference_description")

type HSCodeController struct {
	Classifier *hscode.Classifier
	Cache      *cache.Cache
	Logger     *zap.SugaredLogger
}

// Classify suggests an HS code. Unlike the other pipelines the image is
// optional, the item description alone is enough.
func (hc HSCodeController) Classify(c *gin.Context) {
	image, err := imageFromRequest(c)
	if err != nil {
		RespondBadRequestErr(c, []error{err})
		return
	}

	in := hscode.Input{
		Image:                        image,
		SupplierName:                 formValue(c, "supplier_name"),
		SupplierReferenceDescription: formValue(c, "supplier_reference_description"),
		Materials:                    formValue(c, "materials"),
		Main:                         formValue(c, "main"),
		Sub:                          formValue(c, "sub"),
		Detail:                       formValue(c, "detail"),
	}
	if in.Image == "" && in.SupplierReferenceDescription == "" {
		RespondBadRequestErr(c, []error{ErrMissingDetails})
		return
	}

	var cached hscode.Result
	if hc.Cache.Get(c.Request.Context(), hsCodeCacheNamespace, in, &cached) {
		RespondOK(c, cached)
		return
	}

	result, err := hc.Classifier.Classify(c.Request.Context(), in)
	if err != nil {
		hc.Logger.Errorw("HS code classification failed", "error", err)
		RespondPipelineErr(c, "HS code classification error: ", err)
		return
	}

	hc.Cache.Set(c.Request.Context(), hsCodeCacheNamespace, in, result)
	RespondOK(c, result)
}
