package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/postback/internal/app/api/middleware"
	"github.com/fatflowers/postback/internal/app/service/commerce"
	"github.com/fatflowers/postback/internal/app/service/postback_log"
	"github.com/fatflowers/postback/internal/app/service/refund"
	"github.com/fatflowers/postback/internal/app/service/statistics"
	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/pkg/logctx"
	"github.com/fatflowers/postback/pkg/response"
	"github.com/fatflowers/postback/pkg/types"
)

type PaymentScanner interface {
	ScanPayments(ctx context.Context, req *types.ScanRequest) (*commerce.ScanPaymentsResponse, error)
}

type PostbackLogScanner interface {
	Scan(ctx context.Context, req *types.ScanRequest) (*postback_log.ScanResponse, error)
}

type RefundRequester interface {
	Request(ctx context.Context, req *refund.Request) (*models.Refund, error)
}

type RefundReconciler interface {
	ReconcileRefunds(ctx context.Context, transactionID string) (*refund.ReconcileResult, error)
}

type StatisticService interface {
	GetDailyStatistic(ctx context.Context, req *statistics.Request) (*statistics.Response, error)
}

// Admin groups the admin API dependencies.
type Admin struct {
	Payments   PaymentScanner
	Logs       PostbackLogScanner
	Refunds    RefundRequester
	Reconciler RefundReconciler
	Stats      StatisticService
	Log        *zap.SugaredLogger
}

// @Summary      List Payments (Admin)
// @Description  Retrieves a paginated and filterable list of payments with their refunds.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body types.ScanRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespListPayments
// @Router       /api/v1/admin/list_payments [post]
func ApiListPayments(svc PaymentScanner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanPayments(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](codeFor(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Postback Logs (Admin)
// @Description  Retrieves received postbacks and how each one was handled.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body types.ScanRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespListPostbackLogs
// @Router       /api/v1/admin/list_postback_logs [post]
func ApiListPostbackLogs(svc PostbackLogScanner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.Scan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](codeFor(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Request Refund (Admin)
// @Description  Asks the gateway to refund a payment. Boleto payments are rejected.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body refund.Request true "Payment id and amount in cents (0 refunds the full amount)"
// @Success      200  {object}  handlers.RespRefund
// @Router       /api/v1/admin/request_refund [post]
func ApiRequestRefund(svc RefundRequester, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refund.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		lg := logctx.FromGin(c, log).With("operator", c.GetString(middleware.OperatorKey), "payment_id", req.PaymentID)
		res, err := svc.Request(c.Request.Context(), &req)
		if err != nil {
			lg.Warnw("admin_refund_failed", "err", err)
			c.JSON(http.StatusOK, response.ErrorT[any](codeFor(err), err.Error()))
			return
		}
		lg.Infow("admin_refund_requested", "refund_id", res.ID, "amount", res.Amount, "state", res.State)
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type ReconcileRefundsRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

// @Summary      Reconcile Refunds (Admin)
// @Description  Fetches the gateway refunds of a transaction and settles matching pending refunds.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ReconcileRefundsRequest true "Gateway transaction id"
// @Success      200  {object}  handlers.RespReconcile
// @Router       /api/v1/admin/reconcile_refunds [post]
func ApiReconcileRefunds(svc RefundReconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReconcileRefundsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ReconcileRefunds(c.Request.Context(), req.TransactionID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](codeFor(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Postback Statistics (Admin)
// @Description  Retrieves daily postback, transition and refund statistics.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body statistics.Request true "Statistic request parameters"
// @Success      200  {object}  handlers.RespPostbackStatistic
// @Router       /api/v1/admin/get_postback_statistic [post]
func ApiGetPostbackStatistic(svc StatisticService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetDailyStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](codeFor(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, a *Admin) {
	r.POST("/list_payments", ApiListPayments(a.Payments))
	r.POST("/list_postback_logs", ApiListPostbackLogs(a.Logs))
	r.POST("/request_refund", ApiRequestRefund(a.Refunds, a.Log))
	r.POST("/reconcile_refunds", ApiReconcileRefunds(a.Reconciler))
	r.POST("/get_postback_statistic", ApiGetPostbackStatistic(a.Stats))
}
