// Package payment applies gateway status changes to payments and advances
// the order once its payments cover the total.
package payment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/internal/platform/pagarme"
	"github.com/fatflowers/postback/pkg/apperr"
	"github.com/fatflowers/postback/pkg/logctx"
	"github.com/fatflowers/postback/pkg/metrics"
	"github.com/fatflowers/postback/pkg/types"
)

type Repository interface {
	FindOrder(ctx context.Context, orderID string) (*models.Order, error)
	// FindOrderPayments returns every payment of the order, not only the
	// one a postback refers to.
	FindOrderPayments(ctx context.Context, orderID string) ([]*models.Payment, error)
}

// StateMachine owns transition legality; the orchestrator never writes
// states directly.
type StateMachine interface {
	TransitionPayment(ctx context.Context, p *models.Payment, to types.PaymentState) error
	TransitionOrder(ctx context.Context, o *models.Order, to types.OrderState) error
}

// DeclineHandler runs after a payment is declined, e.g. to cancel sibling
// payments of the order.
type DeclineHandler interface {
	OnDeclined(ctx context.Context, p *models.Payment) error
}

type noopDeclineHandler struct{}

func (noopDeclineHandler) OnDeclined(context.Context, *models.Payment) error { return nil }

type TransitionResult struct {
	From         types.PaymentState `json:"from"`
	To           types.PaymentState `json:"to"`
	Transitioned bool               `json:"transitioned"`
	// Covered is the sum of payments in To; set only for milestone states.
	Covered           int64            `json:"covered,omitempty"`
	OrderTotal        int64            `json:"order_total,omitempty"`
	OrderState        types.OrderState `json:"order_state,omitempty"`
	OrderTransitioned bool             `json:"order_transitioned"`
}

type Orchestrator struct {
	repo      Repository
	sm        StateMachine
	onDecline DeclineHandler
	metrics   *metrics.BusinessMetrics
	log       *zap.SugaredLogger
}

func NewOrchestrator(repo Repository, sm StateMachine, m *metrics.BusinessMetrics, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{repo: repo, sm: sm, onDecline: noopDeclineHandler{}, metrics: m, log: log}
}

// SetDeclineHandler replaces the default no-op handler.
func (o *Orchestrator) SetDeclineHandler(h DeclineHandler) {
	if h == nil {
		h = noopDeclineHandler{}
	}
	o.onDecline = h
}

// Apply translates status and moves payment to the resulting state. A
// payment already in that state is not transitioned again, but order coverage
// is still checked so a redelivery completes an earlier failed attempt.
// Rejected transitions return an ErrIllegalTransition error with the result.
func (o *Orchestrator) Apply(ctx context.Context, payment *models.Payment, status pagarme.TransactionStatus) (*TransitionResult, error) {
	target := pagarme.TranslateTransactionStatus(status)
	res := &TransitionResult{From: payment.State, To: target}
	lg := logctx.FromCtx(ctx, o.log).With("payment_id", payment.ID, "from", payment.State, "to", target)

	if target == payment.State {
		lg.Debugw("payment already in target state")
		if milestone, ok := target.OrderMilestone(); ok {
			return res, o.advanceOrder(ctx, payment, milestone, res)
		}
		return res, nil
	}

	if err := o.sm.TransitionPayment(ctx, payment, target); err != nil {
		if errors.Is(err, apperr.ErrIllegalTransition) {
			o.metrics.ObserveTransition(string(res.From), string(target), "illegal")
			lg.Warnw("payment transition rejected", "gateway_status", status, "err", err)
			return res, err
		}
		o.metrics.ObserveTransition(string(res.From), string(target), "error")
		return res, fmt.Errorf("transition payment %s: %w", payment.ID, err)
	}
	res.Transitioned = true
	o.metrics.ObserveTransition(string(res.From), string(target), "ok")
	lg.Infow("payment_transition_applied", "gateway_status", status)

	if milestone, ok := target.OrderMilestone(); ok {
		return res, o.advanceOrder(ctx, payment, milestone, res)
	}
	if target == types.PaymentStateDeclined {
		if err := o.onDecline.OnDeclined(ctx, payment); err != nil {
			lg.Warnw("decline handler failed", "err", err)
		}
	}
	return res, nil
}

// advanceOrder moves the order to milestone when the payments in the
// milestone's payment state add up exactly to the order total.
func (o *Orchestrator) advanceOrder(ctx context.Context, payment *models.Payment, milestone types.OrderState, res *TransitionResult) error {
	order, err := o.repo.FindOrder(ctx, payment.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", payment.OrderID, err)
	}
	payments, err := o.repo.FindOrderPayments(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("load payments of order %s: %w", order.ID, err)
	}

	res.Covered = coveredAmount(payments, res.To)
	res.OrderTotal = order.Total
	res.OrderState = order.State

	lg := logctx.FromCtx(ctx, o.log).With("order_id", order.ID, "covered", res.Covered, "total", order.Total)
	if res.Covered != order.Total {
		lg.Infow("order not yet covered", "milestone", milestone)
		return nil
	}
	if order.State == milestone {
		return nil
	}
	if !res.Transitioned && !order.State.CanTransitionTo(milestone) {
		// Redelivery for an order that has moved on, e.g. cancelled.
		lg.Infow("order past milestone", "state", order.State, "milestone", milestone)
		return nil
	}
	if err := o.sm.TransitionOrder(ctx, order, milestone); err != nil {
		if errors.Is(err, apperr.ErrIllegalTransition) {
			// Another payment of the same order may have completed it first.
			if current, ferr := o.repo.FindOrder(ctx, order.ID); ferr == nil && current.State == milestone {
				res.OrderState = milestone
				lg.Infow("order reached milestone concurrently", "milestone", milestone)
				return nil
			}
			lg.Warnw("order transition rejected", "state", order.State, "milestone", milestone, "err", err)
			return err
		}
		return fmt.Errorf("transition order %s: %w", order.ID, err)
	}
	res.OrderState = milestone
	res.OrderTransitioned = true
	lg.Infow("order_transition_applied", "to", milestone)
	return nil
}

func coveredAmount(payments []*models.Payment, state types.PaymentState) int64 {
	var sum int64
	for _, p := range payments {
		if p.State == state {
			sum += p.Amount
		}
	}
	return sum
}
