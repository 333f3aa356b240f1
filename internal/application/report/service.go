package report

import (
	"context"
	"errors"
	"fmt"

	appledger "github.com/Erickgiber/debts-my-clients/internal/application/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/printing"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrPDFUnavailable is returned when no PDF renderer is configured
var ErrPDFUnavailable = errors.New("pdf rendering is not configured")

const pendingFooter = `<div style="font-size:8px;color:#787878;width:100%;padding:0 14mm;">` +
	`<span>Gestor de ventas • ` + PendingTitle + `</span>` +
	`<span style="float:right">Página <span class="pageNumber"></span></span></div>`

// PendingSource supplies the pending sales snapshot
type PendingSource interface {
	PendingSnapshot(ctx context.Context) (*appledger.PendingSnapshot, error)
}

// Document is a rendered report ready for download
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service builds and renders reports
type Service struct {
	source PendingSource
	html   *HTMLRenderer
	pdf    printing.PDFRenderer
	logger *zap.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithPDFRenderer enables PDF output
func WithPDFRenderer(pdf printing.PDFRenderer) ServiceOption {
	return func(s *Service) {
		s.pdf = pdf
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a report Service
func NewService(source PendingSource, html *HTMLRenderer, opts ...ServiceOption) *Service {
	s := &Service{
		source: source,
		html:   html,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pending builds the pending report model
func (s *Service) Pending(ctx context.Context) (*PendingReport, error) {
	snap, err := s.source.PendingSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pending sales: %w", err)
	}
	return BuildPendingReport(snap), nil
}

// PendingHTML renders the pending report as HTML
func (s *Service) PendingHTML(ctx context.Context) (*Document, error) {
	report, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.html.RenderBytes(report)
	if err != nil {
		return nil, fmt.Errorf("render pending report: %w", err)
	}
	return &Document{
		Filename:    report.Filename("html"),
		ContentType: "text/html; charset=utf-8",
		Data:        data,
	}, nil
}

// PendingPDF renders the pending report and converts it to PDF
func (s *Service) PendingPDF(ctx context.Context) (_ *Document, err error) {
	if s.pdf == nil {
		return nil, ErrPDFUnavailable
	}
	ctx, span := telemetry.StartSpan(ctx, "report.pending_pdf")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	report, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("report.debtors", report.DebtorCount),
		attribute.Int("report.sales", report.SaleCount),
	)
	html, err := s.html.RenderBytes(report)
	if err != nil {
		return nil, fmt.Errorf("render pending report: %w", err)
	}

	result, err := s.pdf.Render(ctx, &printing.RenderRequest{
		HTML:       string(html),
		Title:      report.Title,
		PaperSize:  printing.PaperSizeA4,
		Margins:    printing.DefaultMargins(),
		FooterHTML: pendingFooter,
	})
	if err != nil {
		return nil, fmt.Errorf("convert pending report: %w", err)
	}

	s.logger.Info("pending report generated",
		zap.Int("debtors", report.DebtorCount),
		zap.Int("sales", report.SaleCount),
		zap.Int("pages", result.PageCount))
	return &Document{
		Filename:    report.Filename("pdf"),
		ContentType: "application/pdf",
		Data:        result.PDFData,
	}, nil
}
