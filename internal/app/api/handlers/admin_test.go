package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/postback/internal/app/service/commerce"
	"github.com/fatflowers/postback/internal/app/service/postback_log"
	"github.com/fatflowers/postback/internal/app/service/refund"
	"github.com/fatflowers/postback/internal/app/service/statistics"
	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/pkg/apperr"
	"github.com/fatflowers/postback/pkg/response"
	"github.com/fatflowers/postback/pkg/types"
)

type fakeAdmin struct {
	scanReq     *types.ScanRequest
	refundReq   *refund.Request
	reconcileTx string
	err         error
}

func (f *fakeAdmin) ScanPayments(_ context.Context, req *types.ScanRequest) (*commerce.ScanPaymentsResponse, error) {
	f.scanReq = req
	return &commerce.ScanPaymentsResponse{Items: []*models.Payment{{ID: "p1"}}, Total: 1}, f.err
}

func (f *fakeAdmin) Scan(_ context.Context, req *types.ScanRequest) (*postback_log.ScanResponse, error) {
	f.scanReq = req
	return &postback_log.ScanResponse{Total: 0}, f.err
}

func (f *fakeAdmin) Request(_ context.Context, req *refund.Request) (*models.Refund, error) {
	f.refundReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Refund{ID: "r1", PaymentID: req.PaymentID, Amount: req.Amount}, nil
}

func (f *fakeAdmin) ReconcileRefunds(_ context.Context, transactionID string) (*refund.ReconcileResult, error) {
	f.reconcileTx = transactionID
	return &refund.ReconcileResult{Pending: 1, Settled: 1}, f.err
}

func (f *fakeAdmin) GetDailyStatistic(_ context.Context, _ *statistics.Request) (*statistics.Response, error) {
	return &statistics.Response{DataItems: map[statistics.StatisticType][]statistics.ResponseDataItem{}}, f.err
}

func newAdminRouter(f *fakeAdmin) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterAdminRoutes(r.Group("/api/v1/admin"), &Admin{
		Payments:   f,
		Logs:       f,
		Refunds:    f,
		Reconciler: f,
		Stats:      f,
		Log:        zap.NewNop().Sugar(),
	})
	return r
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdmin_RegistersEndpoints(t *testing.T) {
	r := newAdminRouter(&fakeAdmin{})
	var paths []string
	for _, rt := range r.Routes() {
		paths = append(paths, rt.Method+" "+rt.Path)
	}
	require.ElementsMatch(t, []string{
		"POST /api/v1/admin/list_payments",
		"POST /api/v1/admin/list_postback_logs",
		"POST /api/v1/admin/request_refund",
		"POST /api/v1/admin/reconcile_refunds",
		"POST /api/v1/admin/get_postback_statistic",
	}, paths)
}

func TestAdmin_ListPayments(t *testing.T) {
	f := &fakeAdmin{}
	w := postJSON(newAdminRouter(f), "/api/v1/admin/list_payments", map[string]any{"size": 5, "sort_by": "amount"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.APIResponseCodeOK, decodeCode(t, w))
	require.Equal(t, 5, f.scanReq.Size)
	require.Equal(t, "amount", f.scanReq.SortBy)

	var env response.APIResponse[commerce.ScanPaymentsResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.EqualValues(t, 1, env.Data.Total)
}

func TestAdmin_ErrorCodes(t *testing.T) {
	f := &fakeAdmin{err: apperr.IllegalOperation("boleto")}
	w := postJSON(newAdminRouter(f), "/api/v1/admin/request_refund", map[string]any{"payment_id": "p1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.APIResponseCodeConflict, decodeCode(t, w))

	f.err = apperr.NotFound("payment p1")
	w = postJSON(newAdminRouter(f), "/api/v1/admin/reconcile_refunds", map[string]any{"transaction_id": "tx-1"})
	require.Equal(t, response.APIResponseCodeNotFound, decodeCode(t, w))

	f.err = apperr.GatewayCall("find refunds", context.DeadlineExceeded)
	w = postJSON(newAdminRouter(f), "/api/v1/admin/reconcile_refunds", map[string]any{"transaction_id": "tx-1"})
	require.Equal(t, response.APIResponseCodeError, decodeCode(t, w))
}

func TestAdmin_BindingErrors(t *testing.T) {
	f := &fakeAdmin{}
	r := newAdminRouter(f)

	w := postJSON(r, "/api/v1/admin/request_refund", map[string]any{"amount": 10})
	require.Equal(t, response.APIResponseCodeBadRequest, decodeCode(t, w))
	require.Nil(t, f.refundReq)

	w = postJSON(r, "/api/v1/admin/reconcile_refunds", map[string]any{})
	require.Equal(t, response.APIResponseCodeBadRequest, decodeCode(t, w))
	require.Empty(t, f.reconcileTx)
}

func TestAdmin_RequestRefundAndReconcile(t *testing.T) {
	f := &fakeAdmin{}
	r := newAdminRouter(f)

	w := postJSON(r, "/api/v1/admin/request_refund", map[string]any{"payment_id": "p1", "amount": 300, "reason": "customer"})
	require.Equal(t, response.APIResponseCodeOK, decodeCode(t, w))
	require.Equal(t, &refund.Request{PaymentID: "p1", Amount: 300, Reason: "customer"}, f.refundReq)

	w = postJSON(r, "/api/v1/admin/reconcile_refunds", map[string]any{"transaction_id": "tx-1"})
	require.Equal(t, response.APIResponseCodeOK, decodeCode(t, w))
	require.Equal(t, "tx-1", f.reconcileTx)

	w = postJSON(r, "/api/v1/admin/get_postback_statistic", map[string]any{"data_items": []map[string]string{{"id": "daily_postback_count"}}})
	require.Equal(t, response.APIResponseCodeOK, decodeCode(t, w))
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterHealthRoutes(r, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
