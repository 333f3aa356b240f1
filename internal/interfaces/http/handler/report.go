package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Erickgiber/debts-my-clients/internal/application/report"
	"github.com/gin-gonic/gin"
)

// ReportService renders downloadable reports
type ReportService interface {
	PendingHTML(ctx context.Context) (*report.Document, error)
	PendingPDF(ctx context.Context) (*report.Document, error)
}

// ReportHandler serves the pending payments report
type ReportHandler struct {
	BaseHandler
	service ReportService
}

// NewReportHandler creates a ReportHandler
func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// PendingHTML handles GET /reports/pending.html. The page is shown inline.
// @ID          pendingReportHTML
// @Summary     Pending payments report
// @Tags        reports
// @Produce     html
// @Success     200 {string} string "HTML document"
// @Failure     500 {string} string "Render failed"
// @Router      /api/v1/reports/pending.html [get]
func (h *ReportHandler) PendingHTML(c *gin.Context) {
	h.serve(c, h.service.PendingHTML, "inline")
}

// PendingPDF handles GET /reports/pending.pdf
// @ID          pendingReportPDF
// @Summary     Pending payments report as PDF
// @Tags        reports
// @Produce     application/pdf
// @Success     200 {file} file
// @Failure     503 {string} string "PDF printing disabled"
// @Router      /api/v1/reports/pending.pdf [get]
func (h *ReportHandler) PendingPDF(c *gin.Context) {
	h.serve(c, h.service.PendingPDF, "attachment")
}

func (h *ReportHandler) serve(c *gin.Context, render func(context.Context) (*report.Document, error), disposition string) {
	doc, err := render(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
