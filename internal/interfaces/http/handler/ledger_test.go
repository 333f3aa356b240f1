package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Erickgiber/debts-my-clients/internal/application/ledger"
	domainledger "github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/domain/shared"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/dto"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger records calls and returns canned results
type fakeLedger struct {
	recorded  *ledger.RecordSaleRequest
	listed    *ledger.ListSalesRequest
	paid      decimal.Decimal
	delivered uuid.UUID
	pending   uuid.UUID
	deleted   uuid.UUID
	query     string
	err       error
}

func (f *fakeLedger) sale(id uuid.UUID) *ledger.SaleResponse {
	return &ledger.SaleResponse{ID: id, Status: "pending", Total: decimal.NewFromInt(10)}
}

func (f *fakeLedger) RecordSale(_ context.Context, req ledger.RecordSaleRequest) (*ledger.SaleResponse, error) {
	f.recorded = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.sale(uuid.New()), nil
}

func (f *fakeLedger) GetSale(_ context.Context, id uuid.UUID) (*ledger.SaleResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sale(id), nil
}

func (f *fakeLedger) ListSales(_ context.Context, req ledger.ListSalesRequest) (*shared.Paginated[ledger.SaleResponse], error) {
	f.listed = &req
	page := shared.NewPaginated([]ledger.SaleResponse{*f.sale(uuid.New())}, 21, 2, 10)
	return &page, nil
}

func (f *fakeLedger) RegisterPayment(_ context.Context, id uuid.UUID, req ledger.PaymentRequest) (*ledger.SaleResponse, error) {
	f.paid = req.Amount
	if f.err != nil {
		return nil, f.err
	}
	return f.sale(id), nil
}

func (f *fakeLedger) MarkDelivered(_ context.Context, id uuid.UUID) (*ledger.SaleResponse, error) {
	f.delivered = id
	return f.sale(id), nil
}

func (f *fakeLedger) MarkPending(_ context.Context, id uuid.UUID) (*ledger.SaleResponse, error) {
	f.pending = id
	return f.sale(id), nil
}

func (f *fakeLedger) DeleteSale(_ context.Context, id uuid.UUID) error {
	f.deleted = id
	return f.err
}

func (f *fakeLedger) SearchDebtors(_ context.Context, query string) ([]ledger.DebtorResponse, error) {
	f.query = query
	return []ledger.DebtorResponse{{ID: uuid.New(), Name: "Ana"}}, nil
}

func (f *fakeLedger) PendingBalances(context.Context) ([]ledger.DebtorBalance, error) {
	return []ledger.DebtorBalance{{Debtor: ledger.DebtorResponse{Name: "Ana"}, PendingSales: 2}}, nil
}

func newLedgerEngine(svc LedgerService) *gin.Engine {
	middleware.SetupValidator()
	h := NewLedgerHandler(svc)
	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/debtors", h.SearchDebtors)
	api.GET("/balances", h.Balances)
	api.POST("/sales", h.RecordSale)
	api.GET("/sales", h.ListSales)
	api.GET("/sales/:id", h.GetSale)
	api.DELETE("/sales/:id", h.DeleteSale)
	api.POST("/sales/:id/payments", h.RegisterPayment)
	api.POST("/sales/:id/deliver", h.MarkDelivered)
	api.POST("/sales/:id/pending", h.MarkPending)
	return r
}

func TestLedgerHandler_RecordSale(t *testing.T) {
	svc := &fakeLedger{}
	r := newLedgerEngine(svc)

	body := `{"debtor_name":"Ana","items":[{"product":"Queso","quantity":"2","unit_price":"3.50"}]}`
	w := doRequest(r, http.MethodPost, "/api/v1/sales", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, svc.recorded)
	assert.Equal(t, "Ana", svc.recorded.DebtorName)
	assert.True(t, decimal.RequireFromString("3.5").Equal(svc.recorded.Items[0].UnitPrice))
}

func TestLedgerHandler_RecordSaleValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing debtor", `{"items":[{"product":"Queso","quantity":"1"}]}`, "debtor_name"},
		{"no items", `{"debtor_name":"Ana","items":[]}`, "items"},
		{"bad currency", `{"debtor_name":"Ana","currency":"EUR","items":[{"product":"Queso","quantity":"1"}]}`, "currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLedger{}
			w := doRequest(newLedgerEngine(svc), http.MethodPost, "/api/v1/sales", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Details)
			assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			assert.Nil(t, svc.recorded)
		})
	}
}

func TestLedgerHandler_ListSales(t *testing.T) {
	svc := &fakeLedger{}
	r := newLedgerEngine(svc)
	debtor := uuid.New()

	w := doRequest(r, http.MethodGet, "/api/v1/sales?status=pending&page=2&page_size=10&debtor_id="+debtor.String(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, svc.listed)
	assert.Equal(t, "pending", svc.listed.Status)
	require.NotNil(t, svc.listed.DebtorID)
	assert.Equal(t, debtor, *svc.listed.DebtorID)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(21), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	w = doRequest(r, http.MethodGet, "/api/v1/sales?debtor_id=nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/sales?status=lost", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerHandler_SaleLifecycle(t *testing.T) {
	svc := &fakeLedger{}
	r := newLedgerEngine(svc)
	id := uuid.New()
	base := "/api/v1/sales/" + id.String()

	w := doRequest(r, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, base+"/payments", `{"amount":"4.25"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decimal.RequireFromString("4.25").Equal(svc.paid))

	w = doRequest(r, http.MethodPost, base+"/payments", `{"amount":"0"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "zero amount fails required")

	require.Equal(t, http.StatusOK, doRequest(r, http.MethodPost, base+"/deliver", "").Code)
	assert.Equal(t, id, svc.delivered)
	require.Equal(t, http.StatusOK, doRequest(r, http.MethodPost, base+"/pending", "").Code)
	assert.Equal(t, id, svc.pending)

	w = doRequest(r, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, id, svc.deleted)

	w = doRequest(r, http.MethodGet, "/api/v1/sales/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"overpayment", domainledger.ErrOverpayment, http.StatusUnprocessableEntity, dto.ErrCodeOverpayment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newLedgerEngine(&fakeLedger{err: tt.err})
			w := doRequest(r, http.MethodPost, "/api/v1/sales/"+uuid.NewString()+"/payments", `{"amount":"1"}`)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestLedgerHandler_DebtorsAndBalances(t *testing.T) {
	svc := &fakeLedger{}
	r := newLedgerEngine(svc)

	w := doRequest(r, http.MethodGet, "/api/v1/debtors?q=an", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "an", svc.query)

	w = doRequest(r, http.MethodGet, "/api/v1/balances", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []ledger.DebtorBalance `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Data[0].PendingSales)
}
