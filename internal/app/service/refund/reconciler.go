// Package refund keeps local refunds in step with the gateway's refund
// records and issues new refunds on behalf of operators.
package refund

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/internal/platform/pagarme"
	"github.com/fatflowers/postback/pkg/apperr"
	cfgpkg "github.com/fatflowers/postback/pkg/config"
	"github.com/fatflowers/postback/pkg/logctx"
	"github.com/fatflowers/postback/pkg/metrics"
	"github.com/fatflowers/postback/pkg/types"
)

type Repository interface {
	PendingRefunds(ctx context.Context, paymentID string) ([]*models.Refund, error)
	SettledRefunds(ctx context.Context, paymentID string) ([]*models.Refund, error)
}

type StateMachine interface {
	TransitionRefund(ctx context.Context, r *models.Refund, to types.RefundState) error
}

// Gateway is the part of the gateway API used for refunds.
type Gateway interface {
	LookupTransaction(ctx context.Context, apiKey, transactionID string) (*pagarme.Transaction, error)
	FindRefunds(ctx context.Context, apiKey, transactionID string) ([]pagarme.Refund, error)
	RefundTransaction(ctx context.Context, apiKey, transactionID string, amount int64, async bool) (*pagarme.Transaction, error)
}

// SettlementHook runs after a refund is settled, e.g. to book ledger entries.
// OnRefundSettled must be idempotent: settled refunds the hook reports as
// unbooked are handed to it again on the next reconciliation.
type SettlementHook interface {
	OnRefundSettled(ctx context.Context, payment *models.Payment, refund *models.Refund) error
	UnbookedRefunds(ctx context.Context, refunds []*models.Refund) ([]*models.Refund, error)
}

type noopSettlementHook struct{}

func (noopSettlementHook) OnRefundSettled(context.Context, *models.Payment, *models.Refund) error {
	return nil
}

func (noopSettlementHook) UnbookedRefunds(context.Context, []*models.Refund) ([]*models.Refund, error) {
	return nil, nil
}

// ShouldReconcile reports whether a postback with status may carry refund
// progress worth fetching.
func ShouldReconcile(status pagarme.TransactionStatus) bool {
	return status == pagarme.TransactionStatusPaid || status == pagarme.TransactionStatusRefunded
}

type ReconcileResult struct {
	Pending   int `json:"pending"`
	Settled   int `json:"settled"`
	Failed    int `json:"failed"`
	Unchanged int `json:"unchanged"`
	// Rebooked counts settled refunds whose settlement hook had failed before.
	Rebooked int `json:"rebooked"`
	// UnmatchedLocal counts pending refunds the gateway does not report.
	UnmatchedLocal int `json:"unmatched_local"`
	// UnmatchedGateway counts gateway refunds with no pending local refund.
	UnmatchedGateway int `json:"unmatched_gateway"`
}

type Reconciler struct {
	repo    Repository
	sm      StateMachine
	gateway Gateway
	hook    SettlementHook
	timeout time.Duration
	metrics *metrics.BusinessMetrics
	log     *zap.SugaredLogger
}

func NewReconciler(repo Repository, sm StateMachine, gateway Gateway, hook SettlementHook, cfg *cfgpkg.Config, m *metrics.BusinessMetrics, log *zap.SugaredLogger) *Reconciler {
	if hook == nil {
		hook = noopSettlementHook{}
	}
	return &Reconciler{
		repo:    repo,
		sm:      sm,
		gateway: gateway,
		hook:    hook,
		timeout: cfg.Pagarme.Timeout,
		metrics: m,
		log:     log,
	}
}

// Reconcile fetches the gateway refunds of payment's transaction and moves
// each matching pending refund to the translated state. Refunds on either
// side without a counterpart are left alone and counted. Settled refunds
// whose settlement hook failed earlier are handed to the hook again first.
func (r *Reconciler) Reconcile(ctx context.Context, apiKey string, payment *models.Payment) (*ReconcileResult, error) {
	lg := logctx.FromCtx(ctx, r.log).With("payment_id", payment.ID, "transaction_id", payment.TransactionID)
	res := &ReconcileResult{}

	errs := r.rebook(ctx, payment, res)

	pending, err := r.repo.PendingRefunds(ctx, payment.ID)
	if err != nil {
		errs = append(errs, fmt.Errorf("load pending refunds of payment %s: %w", payment.ID, err))
		return res, errors.Join(errs...)
	}
	res.Pending = len(pending)
	if len(pending) == 0 {
		return res, errors.Join(errs...)
	}

	gatewayRefunds, err := r.findRefunds(ctx, apiKey, payment.TransactionID)
	if err != nil {
		r.metrics.ObserveReconcile("gateway_error")
		lg.Warnw("refund reconciliation skipped", "err", err)
		errs = append(errs, apperr.GatewayCall("find refunds", err))
		return res, errors.Join(errs...)
	}

	byID := make(map[string]pagarme.Refund, len(gatewayRefunds))
	for _, g := range gatewayRefunds {
		byID[g.ID] = g
	}

	matched := 0
	for _, refund := range pending {
		g, ok := byID[refund.TransactionID]
		if !ok || refund.TransactionID == "" {
			res.UnmatchedLocal++
			r.metrics.ObserveReconcile("unmatched")
			continue
		}
		matched++
		if err := r.apply(ctx, payment, refund, g, res); err != nil {
			errs = append(errs, err)
		}
	}
	res.UnmatchedGateway = len(gatewayRefunds) - matched

	lg.Infow("refund_reconciliation_done",
		"pending", res.Pending,
		"settled", res.Settled,
		"failed", res.Failed,
		"unmatched_local", res.UnmatchedLocal,
		"unmatched_gateway", res.UnmatchedGateway,
	)
	return res, errors.Join(errs...)
}

func (r *Reconciler) rebook(ctx context.Context, payment *models.Payment, res *ReconcileResult) []error {
	settled, err := r.repo.SettledRefunds(ctx, payment.ID)
	if err != nil {
		return []error{fmt.Errorf("load settled refunds of payment %s: %w", payment.ID, err)}
	}
	if len(settled) == 0 {
		return nil
	}
	unbooked, err := r.hook.UnbookedRefunds(ctx, settled)
	if err != nil {
		return []error{fmt.Errorf("check settled refunds of payment %s: %w", payment.ID, err)}
	}
	var errs []error
	for _, refund := range unbooked {
		if err := r.hook.OnRefundSettled(ctx, payment, refund); err != nil {
			errs = append(errs, fmt.Errorf("settlement hook for refund %s: %w", refund.ID, err))
			continue
		}
		res.Rebooked++
		r.metrics.ObserveReconcile("rebooked")
		logctx.FromCtx(ctx, r.log).Infow("refund_rebooked", "refund_id", refund.ID)
	}
	return errs
}

func (r *Reconciler) findRefunds(ctx context.Context, apiKey, transactionID string) ([]pagarme.Refund, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.gateway.FindRefunds(ctx, apiKey, transactionID)
}

func (r *Reconciler) apply(ctx context.Context, payment *models.Payment, refund *models.Refund, g pagarme.Refund, res *ReconcileResult) error {
	target := pagarme.TranslateRefundStatus(g.Status)
	if pagarme.RequiresProductDecision(pagarme.TransactionStatus(g.Status)) {
		logctx.FromCtx(ctx, r.log).Warnw("gateway refund needs a product decision", "refund_id", refund.ID, "status", g.Status)
	}
	switch target {
	case types.RefundStateSettled:
		if err := r.sm.TransitionRefund(ctx, refund, types.RefundStateSettled); err != nil {
			return fmt.Errorf("settle refund %s: %w", refund.ID, err)
		}
		res.Settled++
		r.metrics.ObserveReconcile("settled")
		if err := r.hook.OnRefundSettled(ctx, payment, refund); err != nil {
			return fmt.Errorf("settlement hook for refund %s: %w", refund.ID, err)
		}
	case types.RefundStateFailed:
		if err := r.sm.TransitionRefund(ctx, refund, types.RefundStateFailed); err != nil {
			return fmt.Errorf("fail refund %s: %w", refund.ID, err)
		}
		res.Failed++
		r.metrics.ObserveReconcile("failed")
	default:
		res.Unchanged++
		r.metrics.ObserveReconcile("pending")
	}
	return nil
}
