package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"energy_finance/internal/domain"
	"energy_finance/internal/finance"
	"energy_finance/internal/formatter"
	"energy_finance/internal/repository"
	"energy_finance/internal/service"
	"energy_finance/internal/spreadsheet"
	"energy_finance/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv; charset=utf-8"
	maxListLimit    = 1000
)

// Handler handles HTTP requests
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new handler
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Health handles GET /api/health
func (h *Handler) Health(c *gin.Context) {
	stats, err := h.svc.GetStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
		"stats":  stats,
	})
}

// CreateProject handles POST /api/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var project domain.ProjectDescription
	if err := c.ShouldBindJSON(&project); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON: " + err.Error()})
		return
	}

	if err := h.svc.CreateProject(c.Request.Context(), &project); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// ListProjects handles GET /api/projects
func (h *Handler) ListProjects(c *gin.Context) {
	filter := domain.ProjectFilter{
		ProjectType: c.Query("project_type"),
		Status:      c.Query("status"),
		Limit:       getIntParam(c, "limit", 100),
		Offset:      getIntParam(c, "offset", 0),
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	projects, total, err := h.svc.ListProjects(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(projects),
		"total":    total,
		"projects": projects,
	})
}

// GetProject handles GET /api/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	project, err := h.svc.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/:id
func (h *Handler) DeleteProject(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.DeleteProject(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Project deleted",
		"id":      id,
	})
}

// ImportProjects handles POST /api/projects/import (multipart field "file")
func (h *Handler) ImportProjects(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing upload field \"file\""})
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	result, err := h.svc.ImportProjects(c.Request.Context(), fh.Filename, f)
	if err != nil {
		writeError(c, err)
		return
	}

	logger.WriteLog("INFO", requestID(c), "IMPORT", fh.Filename+": "+strconv.Itoa(len(result.Created))+" created")
	c.JSON(http.StatusOK, gin.H{
		"created_count": len(result.Created),
		"error_count":   len(result.Errors),
		"created":       result.Created,
		"errors":        result.Errors,
	})
}

// Analyze handles POST /api/projects/:id/analysis. An empty body uses the default assumptions.
func (h *Handler) Analyze(c *gin.Context) {
	var req domain.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON: " + err.Error()})
		return
	}

	result, err := h.svc.Analyze(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, formatter.FormatAnalysis(result, true))
}

// GetAnalysis handles GET /api/projects/:id/analysis
func (h *Handler) GetAnalysis(c *gin.Context) {
	result, err := h.svc.GetLatestResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	withSchedule := c.DefaultQuery("schedule", "true") != "false"
	c.JSON(http.StatusOK, formatter.FormatAnalysis(result, withSchedule))
}

// GetCashFlows handles GET /api/projects/:id/cashflows
func (h *Handler) GetCashFlows(c *gin.Context) {
	id := c.Param("id")
	records, err := h.svc.GetCashFlows(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": id,
		"count":      len(records),
		"cash_flows": formatter.FormatSchedule(records),
	})
}

// AnalyzeBatch handles POST /api/analysis/batch
func (h *Handler) AnalyzeBatch(c *gin.Context) {
	var req domain.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch request: " + err.Error()})
		return
	}

	outcomes := h.svc.AnalyzeBatch(c.Request.Context(), req)

	results := make([]gin.H, len(outcomes))
	failed := 0
	for i, o := range outcomes {
		if o.Error != nil {
			failed++
			status, body := errorBody(o.Error)
			body["project_id"] = o.ProjectID
			body["status"] = "error"
			body["code"] = status
			results[i] = body
			continue
		}
		results[i] = gin.H{
			"project_id": o.ProjectID,
			"status":     "ok",
			"result":     formatter.FormatAnalysis(o.Result, false),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(results),
		"failed":  failed,
		"results": results,
	})
}

// Calculate handles POST /api/calculate
func (h *Handler) Calculate(c *gin.Context) {
	var req domain.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON: " + err.Error()})
		return
	}

	ev, err := h.svc.Calculate(req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, formatter.FormatEvaluation(ev))
}

// TemplateXLSX handles GET /api/templates/project.xlsx
func (h *Handler) TemplateXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := spreadsheet.WriteTemplateXLSX(&buf); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="project_template.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// TemplateCSV handles GET /api/templates/project.csv
func (h *Handler) TemplateCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := spreadsheet.WriteTemplateCSV(&buf); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="project_template.csv"`)
	c.Data(http.StatusOK, csvContentType, buf.Bytes())
}

// GetStats handles GET /api/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.svc.GetStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetCacheStats handles GET /api/cache/stats
func (h *Handler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cache_stats":  h.svc.CacheStats(),
		"writer_stats": h.svc.WriterStats(),
	})
}

// ClearCache handles POST /api/cache/clear
func (h *Handler) ClearCache(c *gin.Context) {
	h.svc.ClearCache()
	logger.WriteLog("INFO", requestID(c), "CACHE", "Evaluation cache cleared")

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Cache cleared",
	})
}

// writeError maps service errors to status codes
func writeError(c *gin.Context, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		logger.WriteLog("ERROR", requestID(c), "API", err.Error())
	}
	c.JSON(status, body)
}

func errorBody(err error) (int, gin.H) {
	var verr *finance.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Errors}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": err.Error()}
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat), errors.Is(err, spreadsheet.ErrInvalidSheet):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	default:
		return http.StatusInternalServerError, gin.H{"error": err.Error()}
	}
}

// Helper functions
func getIntParam(c *gin.Context, key string, defaultValue int) int {
	if value := c.Query(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}
