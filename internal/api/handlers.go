// handlers.go - HTTP handlers for the analyze endpoint

package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wilksmax/pokervision/configs"
	"github.com/wilksmax/pokervision/internal/ai"
	"github.com/wilksmax/pokervision/internal/common"
	"github.com/wilksmax/pokervision/internal/pipeline"
	"github.com/wilksmax/pokervision/internal/processor"
)

// Server holds the handler dependencies. Tests inject a stub provider.
type Server struct {
	pipeline *pipeline.Pipeline
}

// NewServer creates a server backed by the given provider
func NewServer(provider ai.Provider) *Server {
	return &Server{pipeline: pipeline.NewPipeline(provider)}
}

// AnalyzeTableHandler accepts a screenshot upload, runs extraction and
// strategy, and returns the combined result.
func (s *Server) AnalyzeTableHandler(c *gin.Context) {
	reqCtx := common.NewRequestContext()

	// Step 1: save the upload
	reqCtx.StartStep("save_upload")
	file, err := c.FormFile("image")
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No image file provided",
		})
		return
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	uploadPath := filepath.Join(configs.UPLOAD_DIR, uuid.New().String()+ext)

	if err := c.SaveUploadedFile(file, uploadPath); err != nil {
		reqCtx.EndStep("failed", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save uploaded image",
			"details": err.Error(),
		})
		return
	}
	// Upload artifacts are request-scoped, success or failure.
	defer func() {
		if err := os.Remove(uploadPath); err != nil {
			reqCtx.LogWarning("Failed to clean up upload %s: %v", uploadPath, err)
		}
	}()
	reqCtx.EndStep("success", nil, nil)

	// Step 2: prepare the screenshot
	reqCtx.StartStep("prepare_screenshot")
	img, err := processor.PrepareScreenshot(uploadPath, reqCtx)
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read uploaded image",
			"details": err.Error(),
		})
		return
	}
	reqCtx.EndStep("success", nil, nil)

	// Step 3: extract the table state
	reqCtx.StartStep("extract_table_state")
	state, repairFailures, err := s.pipeline.ExtractTableState(c.Request.Context(), img, reqCtx)
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		s.writeStageError(c, reqCtx, "extraction", err)
		return
	}
	if len(repairFailures) > 0 {
		reqCtx.LogWarning("%d repair rule(s) failed during correction", len(repairFailures))
	}
	reqCtx.EndStep("success", nil, nil)

	// Step 4: strategy recommendation
	reqCtx.StartStep("strategy_recommend")
	recommendation, err := s.pipeline.Recommend(c.Request.Context(), state, reqCtx)
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		s.writeStageError(c, reqCtx, "strategy", err)
		return
	}
	reqCtx.EndStep("success", nil, nil)

	c.JSON(http.StatusOK, gin.H{
		"state":          state,
		"recommendation": recommendation,
		"metadata":       reqCtx.GetSummary(),
	})
}

// writeStageError maps pipeline failures to HTTP statuses: provider
// failures are 500 with the provider's diagnostic text, parse and shape
// failures are 422 with the raw or partial payload.
func (s *Server) writeStageError(c *gin.Context, reqCtx *common.RequestContext, stage string, err error) {
	var provErr *ai.ProviderError
	if errors.As(err, &provErr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    fmt.Sprintf("The %s model call failed", stage),
			"category": provErr.Category,
			"details":  provErr.Message,
		})
		return
	}

	var extErr *pipeline.ExtractionError
	if errors.As(err, &extErr) {
		payload := gin.H{
			"error": "Model output could not be parsed as a table state",
		}
		if extErr.LooseRaw != "" {
			payload["raw"] = extErr.LooseRaw
		}
		if extErr.StrictRaw != "" {
			payload["raw_strict"] = extErr.StrictRaw
		}
		c.JSON(http.StatusUnprocessableEntity, payload)
		return
	}

	var incErr *pipeline.IncompleteStateError
	if errors.As(err, &incErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Extracted state is missing required fields",
			"missing": incErr.Missing,
			"partial": incErr.Partial,
		})
		return
	}

	var parseErr *ai.ParseError
	if errors.As(err, &parseErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": fmt.Sprintf("The %s model returned unparseable output", stage),
			"raw":   parseErr.Raw,
		})
		return
	}

	reqCtx.LogError("Unclassified %s failure: %v", stage, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   fmt.Sprintf("The %s stage failed", stage),
		"details": err.Error(),
	})
}

// HealthHandler reports service liveness
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pokervision",
	})
}
