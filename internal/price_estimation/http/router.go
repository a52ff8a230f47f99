package http

import "github.com/gin-gonic/gin"

// Register registers the price estimation routes. predictMW runs in front of
// the predict endpoint only.
func (h *Handler) Register(rg *gin.RouterGroup, predictMW ...gin.HandlerFunc) {
	rg.GET("/catalog", h.Catalog)
	rg.GET("/model", h.ModelInfo)
	rg.POST("/predict", append(predictMW, h.Predict)...)

	rg.GET("/runs", h.ListRuns)
	rg.GET("/runs/:id", h.GetRun)
}
