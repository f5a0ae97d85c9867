package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shortlink/internal/domain"
	"shortlink/internal/service"
	"shortlink/pkg/logger"
	"shortlink/pkg/validator"
)

// URLHandler handles HTTP requests for URL shortening operations
type URLHandler struct {
	service service.URLService
	logger  *logger.Logger
}

// NewURLHandler creates a new URL handler with dependencies
func NewURLHandler(service service.URLService, logger *logger.Logger) *URLHandler {
	return &URLHandler{
		service: service,
		logger:  logger,
	}
}

// ShortenURL handles POST /shorten
// Creates a new shortened URL
func (h *URLHandler) ShortenURL(c *gin.Context) {
	var req domain.ShortenRequest

	// Bind and validate request body
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_request",
			Message: "URL is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	resp, err := h.service.ShortenURL(c.Request.Context(), req.URL)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Redirect handles GET /:shortCode
// Redirects to the original URL
func (h *URLHandler) Redirect(c *gin.Context) {
	shortCode := c.Param("shortCode")

	if !validator.ValidateShortCode(shortCode) {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_short_code",
			Message: "Short code contains invalid characters",
			Code:    http.StatusBadRequest,
		})
		return
	}

	longURL, err := h.service.Redirect(c.Request.Context(), shortCode)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// 302 so repeat visits keep hitting us and clicks keep counting
	c.Redirect(http.StatusFound, longURL)
}

// GetStats handles GET /stats/:shortCode
// Returns click statistics for a shortened URL
func (h *URLHandler) GetStats(c *gin.Context) {
	shortCode := c.Param("shortCode")

	if !validator.ValidateShortCode(shortCode) {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_short_code",
			Message: "Short code contains invalid characters",
			Code:    http.StatusBadRequest,
		})
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), shortCode)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// handleError processes domain errors and returns appropriate HTTP responses
// Internal details never leak to the client
func (h *URLHandler) handleError(c *gin.Context, err error) {
	var appErr *domain.AppError

	switch {
	case errors.As(err, &appErr):
		// Log internal errors but don't expose details to users
		if appErr.Internal {
			h.logger.Error("Internal server error", "error", appErr.Err)
			c.JSON(appErr.StatusCode, domain.ErrorResponse{
				Error:   "internal_error",
				Message: "An internal error occurred",
				Code:    appErr.StatusCode,
			})
		} else {
			c.JSON(appErr.StatusCode, domain.ErrorResponse{
				Error:   "client_error",
				Message: appErr.Message,
				Code:    appErr.StatusCode,
			})
		}

	case errors.Is(err, domain.ErrURLNotFound):
		c.JSON(http.StatusNotFound, domain.ErrorResponse{
			Error:   "not_found",
			Message: "Short URL not found",
			Code:    http.StatusNotFound,
		})

	case errors.Is(err, domain.ErrShortCodeTaken):
		c.JSON(http.StatusConflict, domain.ErrorResponse{
			Error:   "short_code_taken",
			Message: "This short code is already in use",
			Code:    http.StatusConflict,
		})

	case errors.Is(err, domain.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_url",
			Message: "The provided URL is invalid",
			Code:    http.StatusBadRequest,
		})

	default:
		h.logger.Error("Unexpected error", "error", err)
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
			Code:    http.StatusInternalServerError,
		})
	}
}
