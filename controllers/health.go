package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"itemsclassification/internal/blob"
	"itemsclassification/internal/cache"
	"itemsclassification/internal/vectordb"
)

type HealthController struct {
	DB      *gorm.DB
	Store   vectordb.Store
	Storage blob.Storage
	Cache   *cache.Cache
	Version string
	Logger  *zap.SugaredLogger
}

func (h HealthController) Home(c *gin.Context) {
	RespondOK(c, gin.H{
		"message": "Image Classification API",
		"version": h.Version,
		"endpoints": gin.H{
			"classify":        "/api/classify",
			"classify_colors": "/api/classify-colors",
			"classify_hscode": "/api/classify-hs-code",
			"health":          "/api/health",
			"docs":            "/docs",
		},
	})
}

// Status reports whether every backing service answers.
func (h HealthController) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]func(context.Context) error{
		"database": func(ctx context.Context) error {
			return h.DB.WithContext(ctx).Raw(`SELECT 1`).Row().Err()
		},
		"vector_db": h.Store.Ping,
		"blob_storage": func(ctx context.Context) error {
			_, err := h.Storage.ListContainers(ctx)
			return err
		},
		"cache": h.Cache.Ping,
	}

	status := http.StatusOK
	results := gin.H{}
	for name, check := range checks {
		if err := check(ctx); err != nil {
			h.Logger.Warnw("Health check failed", "check", name, "error", err)
			results[name] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "error"
	}

	c.JSON(status, gin.H{"status": overall, "checks": results})
}

func (h HealthController) ClassificationStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "classification"})
}

func (h HealthController) ColorStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "color-detection"})
}
