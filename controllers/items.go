package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"itemsclassification/core"
	"itemsclassification/internal/blob"
	"itemsclassification/models"
)

type CheckedItem struct {
	ItemID        int64 `json:"item_id"`
	InSQLDB       bool  `json:"in_sql_db"`
	InBlobStorage bool  `json:"in_blob_storage"`
}

type ItemsController struct {
	DB              *gorm.DB
	Storage         blob.Storage
	ImagesContainer string
	Logger          *zap.SugaredLogger
}

func (ic ItemsController) GetItems(c *gin.Context) {
	var ids []int64
	if err := c.ShouldBindJSON(&ids); err != nil {
		RespondBadRequestErr(c, []error{err})
		return
	}

	items, err := models.LoadItemsByOriginID(ic.DB, ids)
	if err != nil {
		ic.Logger.Errorw("Error loading items", "error", err)
		RespondCustomStatusErr(c, http.StatusInternalServerError, []error{core.NewError(core.ErrCodeDatabaseFailed, err.Error())})
		return
	}

	RespondOK(c, items)
}

// CheckItems reports for every id whether the item is stored and has an
// image.
func (ic ItemsController) CheckItems(c *gin.Context) {
	var ids []int64
	if err := c.ShouldBindJSON(&ids); err != nil {
		RespondBadRequestErr(c, []error{err})
		return
	}

	checked := make([]CheckedItem, 0, len(ids))
	for _, id := range ids {
		inDB, err := models.ItemExists(ic.DB, id)
		if err != nil {
			ic.Logger.Errorw("Error checking item", "item_id", id, "error", err)
			RespondCustomStatusErr(c, http.StatusInternalServerError, []error{core.NewError(core.ErrCodeDatabaseFailed, err.Error())})
			return
		}

		inBlob, err := ic.Storage.Exists(c.Request.Context(), ic.ImagesContainer, blob.ImageName(id))
		if err != nil {
			ic.Logger.Errorw("Error checking image", "item_id", id, "error", err)
			RespondCustomStatusErr(c, http.StatusInternalServerError, []error{core.NewError(core.ErrCodeStorageFailed, err.Error())})
			return
		}

		checked = append(checked, CheckedItem{ItemID: id, InSQLDB: inDB, InBlobStorage: inBlob})
	}

	RespondOK(c, gin.H{"items": checked})
}
