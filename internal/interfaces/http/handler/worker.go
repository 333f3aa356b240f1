package handler

import (
	"context"

	appoffline "github.com/Erickgiber/debts-my-clients/internal/application/offline"
	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// WorkerRegistry is the part of the lifecycle registry the worker endpoints drive
type WorkerRegistry interface {
	Register(ctx context.Context, version offline.VersionTag) (*appoffline.Worker, error)
	Unregister(ctx context.Context) []offline.VersionTag
	Promote(ctx context.Context) error
	PostMessage(ctx context.Context, msg offline.Message) error
	Status() appoffline.Status
	Connect(c appoffline.Client) offline.VersionTag
	Disconnect(id string)
	Storage() offline.CacheStorage
	Prefix() string
}

// WorkerHandler exposes registration, messaging and cache administration of
// the offline worker runtime.
type WorkerHandler struct {
	BaseHandler
	registry WorkerRegistry
	validate *validator.Validate
	logger   *zap.Logger
}

// NewWorkerHandler creates a WorkerHandler
func NewWorkerHandler(registry WorkerRegistry, logger *zap.Logger) *WorkerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New()
	middleware.RegisterTagNames(v)
	return &WorkerHandler{
		registry: registry,
		validate: v,
		logger:   logger.Named("worker"),
	}
}

// Script handles GET /sw.js?v=<version>. Loading the script registers the
// worker for that version; the response carries the resulting slots.
// @ID          workerScript
// @Summary     Load and register the worker script
// @Tags        worker
// @Produce     json
// @Param       v query string false "Build version"
// @Success     200 {object} dto.Response{data=appoffline.Status}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /sw.js [get]
func (h *WorkerHandler) Script(c *gin.Context) {
	version := offline.VersionFromQuery(c.Request.URL.Query())
	c.Header("Service-Worker-Allowed", "/")
	c.Header("Cache-Control", "no-cache")

	if _, err := h.registry.Register(c.Request.Context(), version); err != nil {
		h.logger.Warn("registration failed",
			zap.String("version", version.String()),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.registry.Status())
}

// Unregister handles DELETE /sw/registrations
// @ID          unregisterWorkers
// @Summary     Retire every worker
// @Tags        worker
// @Produce     json
// @Success     200 {object} dto.Response
// @Router      /sw/registrations [delete]
func (h *WorkerHandler) Unregister(c *gin.Context) {
	retired := h.registry.Unregister(c.Request.Context())
	if retired == nil {
		retired = []offline.VersionTag{}
	}
	h.Success(c, gin.H{"retired": retired})
}

// Status handles GET /sw/status
// @ID          workerStatus
// @Summary     Registration slots
// @Tags        worker
// @Produce     json
// @Success     200 {object} dto.Response{data=appoffline.Status}
// @Router      /sw/status [get]
func (h *WorkerHandler) Status(c *gin.Context) {
	h.Success(c, h.registry.Status())
}

// Promote handles POST /sw/promote
// @ID          promoteWorker
// @Summary     Activate the waiting worker
// @Tags        worker
// @Produce     json
// @Success     202 {object} dto.Response{data=appoffline.Status}
// @Failure     409 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /sw/promote [post]
func (h *WorkerHandler) Promote(c *gin.Context) {
	if err := h.registry.Promote(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, h.registry.Status())
}

// PostMessage handles POST /sw/messages
// @ID          postWorkerMessage
// @Summary     Send a message to the workers
// @Tags        worker
// @Accept      json
// @Produce     json
// @Param       request body offline.Message true "Message"
// @Success     202 {object} dto.Response{data=appoffline.Status}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     429 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /sw/messages [post]
func (h *WorkerHandler) PostMessage(c *gin.Context) {
	var msg offline.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		h.BindError(c, err)
		return
	}
	if err := h.validate.Struct(msg); err != nil {
		h.BindError(c, err)
		return
	}
	if err := h.registry.PostMessage(c.Request.Context(), msg); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, h.registry.Status())
}

// ListCaches handles GET /sw/caches
// @ID          listCaches
// @Summary     List cache buckets
// @Tags        worker
// @Produce     json
// @Success     200 {object} dto.Response
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /sw/caches [get]
func (h *WorkerHandler) ListCaches(c *gin.Context) {
	names, err := h.registry.Storage().Keys(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	h.Success(c, gin.H{"prefix": h.registry.Prefix(), "buckets": names})
}

// PurgeCaches handles DELETE /sw/caches?prefix=. Every bucket under the
// prefix is deleted; the prefix defaults to the configured one.
// @ID          purgeCaches
// @Summary     Delete cache buckets under a prefix
// @Tags        worker
// @Produce     json
// @Param       prefix query string false "Bucket prefix"
// @Success     200 {object} dto.Response
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /sw/caches [delete]
func (h *WorkerHandler) PurgeCaches(c *gin.Context) {
	prefix := c.DefaultQuery("prefix", h.registry.Prefix())
	if prefix == "" {
		h.BadRequest(c, "prefix is required")
		return
	}
	deleted, err := appoffline.PurgePrefix(c.Request.Context(), h.registry.Storage(), prefix)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	h.logger.Info("caches purged", zap.String("prefix", prefix), zap.Int("count", len(deleted)))
	h.Success(c, gin.H{"deleted": deleted})
}
