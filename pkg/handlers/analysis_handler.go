package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bizinsight-api/pkg/logger"
	"bizinsight-api/pkg/services"
)

const maxRecommendProducts = 10

// AnalysisHandler serves uploads through the analysis pipeline.
type AnalysisHandler struct {
	reader         *services.TableReader
	pipeline       *services.PipelineService
	maxUploadBytes int64
}

func NewAnalysisHandler(reader *services.TableReader, pipeline *services.PipelineService, maxUploadBytes int64) *AnalysisHandler {
	return &AnalysisHandler{reader: reader, pipeline: pipeline, maxUploadBytes: maxUploadBytes}
}

// Analyze runs the full pipeline on the uploaded file.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())

	table, fileName, err := readUpload(c, h.reader, h.maxUploadBytes)
	if err != nil {
		log.Warn("upload rejected", "file", fileName, "error", err)
		respondPipelineError(c, err, nil)
		return
	}
	skip, err := formBool(c, "skip_recommendations")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "code": "bad_request", "error": err.Error()})
		return
	}

	result, err := h.pipeline.Run(c.Request.Context(), services.PipelineInput{
		FileName:            fileName,
		Table:               table,
		Overrides:           overridesFromForm(c),
		SkipRecommendations: skip,
	})
	if err != nil {
		respondPipelineError(c, err, result)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// PreviewSchema returns the inferred role map without cleaning, for operator confirmation.
func (h *AnalysisHandler) PreviewSchema(c *gin.Context) {
	table, _, err := readUpload(c, h.reader, h.maxUploadBytes)
	if err != nil {
		respondPipelineError(c, err, nil)
		return
	}

	columns, err := h.pipeline.PreviewSchema(table, overridesFromForm(c))
	if err != nil {
		respondPipelineError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "columns": columns, "rows": len(table.Rows)})
}

// RecommendRequest names the products to evaluate.
type RecommendRequest struct {
	Products []string `json:"products" binding:"required"`
}

// Recommend runs only the recommendation engine for the given product names.
func (h *AnalysisHandler) Recommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "code": "bad_request", "error": "products is required"})
		return
	}

	seen := make(map[string]bool, len(req.Products))
	names := make([]string, 0, len(req.Products))
	for _, p := range req.Products {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		names = append(names, p)
	}
	if len(names) == 0 || len(names) > maxRecommendProducts {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"code":    "bad_request",
			"error":   "products must list between 1 and 10 distinct names",
		})
		return
	}

	recs := h.pipeline.RecommendProducts(c.Request.Context(), names)
	c.JSON(http.StatusOK, gin.H{"success": true, "recommendations": recs})
}
