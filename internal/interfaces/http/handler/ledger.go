package handler

import (
	"context"

	"github.com/Erickgiber/debts-my-clients/internal/application/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/domain/shared"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerService is the ledger application API used by the HTTP surface
type LedgerService interface {
	RecordSale(ctx context.Context, req ledger.RecordSaleRequest) (*ledger.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*ledger.SaleResponse, error)
	ListSales(ctx context.Context, req ledger.ListSalesRequest) (*shared.Paginated[ledger.SaleResponse], error)
	RegisterPayment(ctx context.Context, id uuid.UUID, req ledger.PaymentRequest) (*ledger.SaleResponse, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) (*ledger.SaleResponse, error)
	MarkPending(ctx context.Context, id uuid.UUID) (*ledger.SaleResponse, error)
	DeleteSale(ctx context.Context, id uuid.UUID) error
	SearchDebtors(ctx context.Context, query string) ([]ledger.DebtorResponse, error)
	PendingBalances(ctx context.Context) ([]ledger.DebtorBalance, error)
}

// LedgerHandler handles debtor and sale endpoints
type LedgerHandler struct {
	BaseHandler
	service LedgerService
}

// NewLedgerHandler creates a LedgerHandler
func NewLedgerHandler(service LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// SearchDebtors handles GET /debtors?q=
// @ID          searchDebtors
// @Summary     Search debtors
// @Tags        ledger
// @Produce     json
// @Param       q query string false "Name prefix"
// @Success     200 {object} dto.Response{data=[]ledger.DebtorResponse}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /api/v1/debtors [get]
func (h *LedgerHandler) SearchDebtors(c *gin.Context) {
	debtors, err := h.service.SearchDebtors(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, debtors)
}

// Balances handles GET /balances
// @ID          pendingBalances
// @Summary     Outstanding balance per debtor
// @Tags        ledger
// @Produce     json
// @Success     200 {object} dto.Response{data=[]ledger.DebtorBalance}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /api/v1/balances [get]
func (h *LedgerHandler) Balances(c *gin.Context) {
	balances, err := h.service.PendingBalances(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balances)
}

// RecordSale handles POST /sales
// @ID          recordSale
// @Summary     Record a sale
// @Description Creates the debtor on first use
// @Tags        sales
// @Accept      json
// @Produce     json
// @Param       request body ledger.RecordSaleRequest true "Sale"
// @Success     201 {object} dto.Response{data=ledger.SaleResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /api/v1/sales [post]
func (h *LedgerHandler) RecordSale(c *gin.Context) {
	var req ledger.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	sale, err := h.service.RecordSale(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// ListSales handles GET /sales?debtor_id=&status=&page=&page_size=
// @ID          listSales
// @Summary     List sales
// @Tags        sales
// @Produce     json
// @Param       debtor_id query string false "Debtor ID" format(uuid)
// @Param       status query string false "pending or delivered"
// @Param       page query int false "Page" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Success     200 {object} dto.Response{data=[]ledger.SaleResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /api/v1/sales [get]
func (h *LedgerHandler) ListSales(c *gin.Context) {
	var req ledger.ListSalesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if raw := c.Query("debtor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Invalid debtor_id format")
			return
		}
		req.DebtorID = &id
	}

	page, err := h.service.ListSales(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetSale handles GET /sales/:id
// @ID          getSale
// @Summary     Get a sale
// @Tags        sales
// @Produce     json
// @Param       id path string true "Sale ID" format(uuid)
// @Success     200 {object} dto.Response{data=ledger.SaleResponse}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /api/v1/sales/{id} [get]
func (h *LedgerHandler) GetSale(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	sale, err := h.service.GetSale(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// RegisterPayment handles POST /sales/:id/payments
// @ID          registerPayment
// @Summary     Register a payment
// @Tags        sales
// @Accept      json
// @Produce     json
// @Param       id path string true "Sale ID" format(uuid)
// @Param       request body ledger.PaymentRequest true "Payment"
// @Success     200 {object} dto.Response{data=ledger.SaleResponse}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /api/v1/sales/{id}/payments [post]
func (h *LedgerHandler) RegisterPayment(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ledger.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	sale, err := h.service.RegisterPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// MarkDelivered handles POST /sales/:id/deliver
// @ID          markDelivered
// @Summary     Mark a sale delivered
// @Tags        sales
// @Produce     json
// @Param       id path string true "Sale ID" format(uuid)
// @Success     200 {object} dto.Response{data=ledger.SaleResponse}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /api/v1/sales/{id}/deliver [post]
func (h *LedgerHandler) MarkDelivered(c *gin.Context) {
	h.transition(c, h.service.MarkDelivered)
}

// MarkPending handles POST /sales/:id/pending
// @ID          markPending
// @Summary     Revert a sale to pending
// @Tags        sales
// @Produce     json
// @Param       id path string true "Sale ID" format(uuid)
// @Success     200 {object} dto.Response{data=ledger.SaleResponse}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /api/v1/sales/{id}/pending [post]
func (h *LedgerHandler) MarkPending(c *gin.Context) {
	h.transition(c, h.service.MarkPending)
}

func (h *LedgerHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID) (*ledger.SaleResponse, error)) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	sale, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// DeleteSale handles DELETE /sales/:id
// @ID          deleteSale
// @Summary     Delete a sale
// @Tags        sales
// @Param       id path string true "Sale ID" format(uuid)
// @Success     204
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /api/v1/sales/{id} [delete]
func (h *LedgerHandler) DeleteSale(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteSale(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
