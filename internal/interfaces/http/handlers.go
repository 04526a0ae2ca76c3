package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/deped/expenditure-matrix/internal/extractor"
	"github.com/deped/expenditure-matrix/internal/matrix"
	"github.com/deped/expenditure-matrix/internal/models"
	"github.com/deped/expenditure-matrix/internal/service"
	"github.com/deped/expenditure-matrix/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UploadLimits bounds a conversion request
type UploadLimits struct {
	MaxBytes int64
	MaxFiles int
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	converter service.ConversionService
	limits    UploadLimits
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(converter service.ConversionService, limits UploadLimits, logger *zap.Logger) *Handlers {
	return &Handlers{
		converter: converter,
		limits:    limits,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ConversionListResponse is one page of conversion history
type ConversionListResponse struct {
	Conversions []*models.Conversion `json:"conversions"`
	Total       int                  `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// ListConversionsRequest represents query parameters for listing conversions
type ListConversionsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Convert handles POST /api/v1/convert
func (h *Handlers) Convert(c *gin.Context) {
	if h.limits.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.limits.MaxBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.logger.Warn("Invalid upload", zap.Error(err))
		h.fail(c, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.fail(c, http.StatusBadRequest, `no files uploaded in field "files"`)
		return
	}
	if h.limits.MaxFiles > 0 && len(files) > h.limits.MaxFiles {
		h.fail(c, http.StatusBadRequest, fmt.Sprintf("too many files: %d (max %d)", len(files), h.limits.MaxFiles))
		return
	}

	sources := make([]service.Source, 0, len(files))
	for _, fh := range files {
		if err := utils.ValidateWorkbookName(fh.Filename); err != nil {
			h.fail(c, http.StatusBadRequest, err.Error())
			return
		}
		data, err := readUpload(fh)
		if err != nil {
			h.logger.Warn("Failed to read upload", zap.String("file", fh.Filename), zap.Error(err))
			h.fail(c, http.StatusBadRequest, "failed to read "+fh.Filename)
			return
		}
		sources = append(sources, service.Source{
			Name: utils.SanitizeFilename(fh.Filename),
			Data: data,
		})
	}

	result, err := h.converter.Convert(c.Request.Context(), sources)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "conversion failed"
		}
		h.fail(c, status, msg)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.FileName))
	c.Header("X-Conversion-ID", result.ConversionID)
	if len(result.Skipped) > 0 {
		if skipped, err := json.Marshal(result.Skipped); err == nil {
			c.Header("X-Skipped-Files", string(skipped))
		}
	}
	c.Data(http.StatusOK, xlsxContentType, result.Data)
}

// ListConversions handles GET /api/v1/conversions
func (h *Handlers) ListConversions(c *gin.Context) {
	var req ListConversionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid query parameters")
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	list, total, err := h.converter.ListConversions(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("Failed to list conversions", zap.Error(err))
		h.fail(c, http.StatusInternalServerError, "failed to retrieve conversions")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ConversionListResponse{
			Conversions: list,
			Total:       total,
			Limit:       req.Limit,
			Offset:      req.Offset,
		},
	})
}

func (h *Handlers) fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Success: false, Error: msg})
}

// statusFor maps conversion errors onto HTTP status codes
func statusFor(err error) int {
	var pe *extractor.ParseError
	switch {
	case errors.As(err, &pe),
		errors.Is(err, matrix.ErrNoActivities),
		errors.Is(err, service.ErrSourceLoad):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
