package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	HealthController         *HealthController
	ItemsController          *ItemsController
	TasksController          *TasksController
	ClassificationController *ClassificationController
	ColorsController         *ColorsController
	HSCodeController         *HSCodeController
	DocsController           *DocsController
}

func (r Router) RegisterRoutes(router gin.IRouter) {
	//
	// Service
	//
	router.GET("/", r.HealthController.Home)
	router.GET("/health", r.HealthController.Status)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/docs", r.DocsController.UI)
	router.GET("/openapi.json", r.DocsController.JSON)
	router.GET("/openapi.yaml", r.DocsController.YAML)

	//
	// Stored items and background tasks
	//
	router.POST("/get_status", r.TasksController.GetStatus)
	router.POST("/get_items", r.ItemsController.GetItems)
	router.POST("/check_items", r.ItemsController.CheckItems)
	router.POST("/sim_search_classification", r.TasksController.SimSearchClassification)
	router.PUT("/create_reference_data", r.TasksController.CreateReferenceData)
	router.DELETE("/delete_reference_data", r.TasksController.DeleteReferenceData)
	router.POST("/classify_items", r.TasksController.ClassifyItems)

	//
	// Model pipelines
	//
	api := router.Group("/api")
	api.POST("/classify", r.ClassificationController.Classify)
	api.GET("/health", r.HealthController.ClassificationStatus)
	api.POST("/classify-colors", r.ColorsController.Detect)
	api.GET("/color-health", r.HealthController.ColorStatus)
	api.POST("/classify-hs-code", r.HSCodeController.Classify)
}
