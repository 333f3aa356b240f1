// Package handler holds the gin handlers of the ventas HTTP surface.
package handler

import (
	"errors"
	"net/http"

	"github.com/Erickgiber/debts-my-clients/internal/application/report"
	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/domain/shared"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/logger"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/dto"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return middleware.GetRequestID(c)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving the status from the code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindError answers a failed ShouldBind* call
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError maps domain and offline errors to responses. Anything
// unrecognized is logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	var writeErr *offline.CacheWriteError
	switch {
	case errors.As(err, &domainErr):
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
	case errors.Is(err, offline.ErrNoWaitingWorker):
		h.ErrorWithCode(c, dto.ErrCodeNoWaitingWorker, "No worker is waiting to be promoted")
	case errors.Is(err, offline.ErrBucketNotFound):
		h.ErrorWithCode(c, dto.ErrCodeNotFound, "Cache bucket not found")
	case errors.Is(err, offline.ErrNavigationUnavailable):
		h.ErrorWithCode(c, dto.ErrCodeOffline, "Network unavailable and no cached document")
	case errors.Is(err, offline.ErrInvalidTransition):
		h.ErrorWithCode(c, dto.ErrCodeConflict, err.Error())
	case errors.As(err, &writeErr):
		h.ErrorWithCode(c, dto.ErrCodeUpstream, writeErr.Error())
	case errors.Is(err, report.ErrPDFUnavailable):
		h.ErrorWithCode(c, dto.ErrCodeUnavailable, "PDF rendering is not configured")
	default:
		logger.GetGinLogger(c).Error("request failed", zap.Error(err))
		h.InternalError(c, "An unexpected error occurred")
	}
}

// parseID reads a UUID path parameter, answering 400 when malformed
func (h *BaseHandler) parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
