package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"itemsclassification/core"
	"itemsclassification/internal/batch"
	"itemsclassification/internal/simsearch"
	"itemsclassification/internal/tasks"
	"itemsclassification/models"
)

type GetStatusRequest struct {
	TaskID *string `json:"task_id"`
}

type SimSearchClassificationRequest struct {
	ItemIDs        []int64 `json:"item_ids" binding:"required,min=1"`
	DescribeImages bool    `json:"describe_images"`
}

type CreateReferenceDataRequest struct {
	Items []simsearch.ReferenceItem `json:"items" binding:"required,min=1,dive"`
}

type ClassifyItemsRequest struct {
	ItemIDs []int64         `json:"item_ids" binding:"required,min=1"`
	Task    models.TaskKind `json:"task" binding:"required"`
}

type TaskStarted struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

type TasksController struct {
	DB        *gorm.DB
	Runner    *tasks.Runner
	SimSearch *simsearch.Service
	Batch     *batch.Processor
	Logger    *zap.SugaredLogger
}

// GetStatus returns the requested task, or every task when no id is given.
func (tc TasksController) GetStatus(c *gin.Context) {
	var req GetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondBadRequestErr(c, []error{err})
		return
	}

	statuses, err := models.LoadTaskStatuses(tc.DB, req.TaskID)
	if err != nil {
		tc.Logger.Errorw("Error loading task statuses", "error", err)
		RespondCustomStatusErr(c, http.StatusInternalServerError, []error{core.NewError(core.ErrCodeDatabaseFailed, err.Error())})
		return
	}

	if req.TaskID != nil && len(statuses) == 0 {
		RespondNotFoundErr(c, []error{core.NewError(core.ErrCodeTaskNotFound, fmt.Sprintf("Unknown task %v", *req.TaskID))})
		return
	}

	RespondOK(c, gin.H{"tasks": statuses})
}

func (tc TasksController) SimSearchClassification(c *gin.Context) {
	var req SimSearchClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequestErr(c, []error{err})
		return
	}

	tc.start(c, models.TaskClassification, "Similarity search classification is running", func(ctx context.Context) (string, error) {
		return tc.SimSearch.Classify(ctx, req.ItemIDs, req.DescribeImages)
	})
}

func (tc TasksController) CreateReferenceData(c *gin.Context) {
	var req CreateReferenceDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequestErr(c, []error{err})
		return
	}

	tc.start(c, models.TaskCreateReferenceData, "Creating reference data is running", func(ctx context.Context) (string, error) {
		return tc.SimSearch.CreateReferenceData(ctx, req.Items)
	})
}

func (tc TasksController) DeleteReferenceData(c *gin.Context) {
	if err := tc.SimSearch.DeleteReferenceData(c.Request.Context()); err != nil {
		tc.Logger.Errorw("Error deleting reference data", "error", err)
		RespondCustomStatusErr(c, http.StatusInternalServerError, []error{core.NewError(core.ErrCodeVectorDBFailed, err.Error())})
		return
	}

	RespondOK(c, "Collection with reference data is successfully deleted")
}

// ClassifyItems runs one of the model pipelines over stored items in the
// background.
func (tc TasksController) ClassifyItems(c *gin.Context) {
	var req ClassifyItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequestErr(c, []error{err})
		return
	}

	switch req.Task {
	case models.TaskClassification, models.TaskColorRecognition, models.TaskHSCode:
	default:
		RespondBadRequestErr(c, []error{fmt.Errorf("Unsupported task %v", req.Task)})
		return
	}

	message := fmt.Sprintf("Task %v is running", req.Task)
	tc.start(c, req.Task, message, func(ctx context.Context) (string, error) {
		return tc.Batch.Run(ctx, req.Task, req.ItemIDs)
	})
}

func (tc TasksController) start(c *gin.Context, kind models.TaskKind, message string, fn tasks.Func) {
	taskID, err := tc.Runner.Start(context.WithoutCancel(c.Request.Context()), kind, fn)
	if err != nil {
		tc.Logger.Errorw("Error starting task", "task", kind, "error", err)
		RespondCustomStatusErr(c, http.StatusInternalServerError, []error{core.NewError(core.ErrCodeDatabaseFailed, err.Error())})
		return
	}

	RespondOK(c, TaskStarted{Message: message, TaskID: taskID})
}
