package refund

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/internal/platform/pagarme"
	"github.com/fatflowers/postback/pkg/apperr"
	cfgpkg "github.com/fatflowers/postback/pkg/config"
	"github.com/fatflowers/postback/pkg/logctx"
	"github.com/fatflowers/postback/pkg/types"
)

type PaymentStore interface {
	FindPayment(ctx context.Context, id string) (*models.Payment, error)
	CreateRefund(ctx context.Context, r *models.Refund) error
}

type SecretStore interface {
	GetConfiguredSecret(ctx context.Context, methodCode string) (string, error)
}

type Request struct {
	PaymentID string `json:"payment_id" binding:"required"`
	// Amount in cents; zero refunds the full payment amount.
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// Requester asks the gateway to refund a payment and records the refund
// locally. Later postbacks settle it through the Reconciler.
type Requester struct {
	store      PaymentStore
	sm         StateMachine
	secrets    SecretStore
	gateway    Gateway
	hook       SettlementHook
	methodCode string
	timeout    time.Duration
	log        *zap.SugaredLogger
}

func NewRequester(store PaymentStore, sm StateMachine, secrets SecretStore, gateway Gateway, hook SettlementHook, cfg *cfgpkg.Config, log *zap.SugaredLogger) *Requester {
	if hook == nil {
		hook = noopSettlementHook{}
	}
	return &Requester{
		store:      store,
		sm:         sm,
		secrets:    secrets,
		gateway:    gateway,
		hook:       hook,
		methodCode: cfg.Pagarme.MethodCode,
		timeout:    cfg.Pagarme.Timeout,
		log:        log,
	}
}

// Request refunds req.Amount of the payment. Boleto payments cannot be
// refunded through the gateway and fail with ErrIllegalOperation. A gateway
// failure still records the refund, in state Failed.
func (r *Requester) Request(ctx context.Context, req *Request) (*models.Refund, error) {
	payment, err := r.store.FindPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	lg := logctx.FromCtx(ctx, r.log).With("payment_id", payment.ID, "transaction_id", payment.TransactionID)

	if payment.IsBoleto() {
		return nil, apperr.IllegalOperation("boleto payment %s cannot be refunded by the gateway", payment.ID)
	}
	if payment.State != types.PaymentStateSettled && payment.State != types.PaymentStateAuthorized {
		return nil, apperr.IllegalOperation("payment %s in state %s cannot be refunded", payment.ID, payment.State)
	}
	amount := req.Amount
	if amount <= 0 {
		amount = payment.Amount
	}
	if amount > payment.Amount {
		return nil, apperr.Protocol("refund amount %d exceeds payment amount %d", amount, payment.Amount)
	}

	apiKey, err := r.secrets.GetConfiguredSecret(ctx, r.methodCode)
	if err != nil {
		return nil, err
	}

	current, err := withTimeout(ctx, r.timeout, func(ctx context.Context) (*pagarme.Transaction, error) {
		return r.gateway.LookupTransaction(ctx, apiKey, payment.TransactionID)
	})
	if err == nil && current == nil {
		err = fmt.Errorf("transaction %s: empty response", payment.TransactionID)
	}
	if err != nil {
		lg.Warnw("gateway lookup failed", "err", err)
		return nil, apperr.GatewayCall("lookup transaction", err)
	}
	if current.PaymentMethod == string(models.GatewayPaymentMethodBoleto) {
		return nil, apperr.IllegalOperation("boleto transaction %s cannot be refunded by the gateway", payment.TransactionID)
	}
	if current.Amount > 0 && amount > current.Amount-current.RefundedAmount {
		return nil, apperr.Protocol("refund amount %d exceeds refundable %d", amount, current.Amount-current.RefundedAmount)
	}

	refund := &models.Refund{
		PaymentID: payment.ID,
		Amount:    amount,
		Reason:    req.Reason,
		State:     types.RefundStatePending,
	}

	tx, callErr := withTimeout(ctx, r.timeout, func(ctx context.Context) (*pagarme.Transaction, error) {
		return r.gateway.RefundTransaction(ctx, apiKey, payment.TransactionID, amount, false)
	})
	if callErr != nil {
		refund.State = types.RefundStateFailed
		refund.Metadata = datatypes.JSONMap{"error": callErr.Error()}
		if err := r.store.CreateRefund(ctx, refund); err != nil {
			lg.Errorw("failed to record failed refund", "err", err)
		}
		lg.Warnw("gateway refund failed", "amount", amount, "err", callErr)
		return refund, apperr.GatewayCall("refund transaction", callErr)
	}

	var gatewayRefund *pagarme.Refund
	if tx != nil {
		gatewayRefund = pickNewRefund(tx.Refunds, payment.Refunds)
	}
	if gatewayRefund != nil {
		refund.TransactionID = gatewayRefund.ID
	}
	if err := r.store.CreateRefund(ctx, refund); err != nil {
		return nil, fmt.Errorf("record refund of payment %s: %w", payment.ID, err)
	}
	lg.Infow("refund_requested", "refund_id", refund.ID, "amount", amount, "gateway_refund_id", refund.TransactionID)

	if gatewayRefund == nil {
		return refund, nil
	}
	switch pagarme.TranslateRefundStatus(gatewayRefund.Status) {
	case types.RefundStateSettled:
		if err := r.sm.TransitionRefund(ctx, refund, types.RefundStateSettled); err != nil {
			return refund, fmt.Errorf("settle refund %s: %w", refund.ID, err)
		}
		if err := r.hook.OnRefundSettled(ctx, payment, refund); err != nil {
			return refund, fmt.Errorf("settlement hook for refund %s: %w", refund.ID, err)
		}
	case types.RefundStateFailed:
		if err := r.sm.TransitionRefund(ctx, refund, types.RefundStateFailed); err != nil {
			return refund, fmt.Errorf("fail refund %s: %w", refund.ID, err)
		}
	}
	return refund, nil
}

func withTimeout[T any](ctx context.Context, d time.Duration, call func(context.Context) (T, error)) (T, error) {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return call(ctx)
}

// pickNewRefund returns the gateway refund not yet known locally, or nil when
// every id already belongs to a local refund.
func pickNewRefund(gateway []pagarme.Refund, local []*models.Refund) *pagarme.Refund {
	if len(gateway) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(local))
	for _, l := range local {
		if l.TransactionID != "" {
			known[l.TransactionID] = struct{}{}
		}
	}
	for i := range gateway {
		if _, ok := known[gateway[i].ID]; !ok {
			return &gateway[i]
		}
	}
	return nil
}
