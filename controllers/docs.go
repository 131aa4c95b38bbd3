package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"itemsclassification/internal/openapi"
)

type DocsController struct {
	Document *openapi.Document
	Logger   *zap.SugaredLogger
}

func (dc DocsController) JSON(c *gin.Context) {
	c.JSON(http.StatusOK, dc.Document)
}

func (dc DocsController) YAML(c *gin.Context) {
	data, err := dc.Document.YAML()
	if err != nil {
		dc.Logger.Errorw("Error encoding OpenAPI document", "error", err)
		RespondInternalErr(c)
		return
	}

	c.Data(http.StatusOK, "application/yaml", data)
}

func (dc DocsController) UI(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(openapi.DocsPage("/openapi.json")))
}
