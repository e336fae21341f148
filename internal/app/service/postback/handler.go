// Package postback ingests gateway postbacks: it authenticates them, drops
// no-op deliveries and drives payment and refund state under a
// per-transaction lock.
package postback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/postback/internal/app/service/payment"
	"github.com/fatflowers/postback/internal/app/service/refund"
	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/internal/platform/locker"
	"github.com/fatflowers/postback/internal/platform/pagarme"
	"github.com/fatflowers/postback/internal/platform/telemetry"
	"github.com/fatflowers/postback/pkg/apperr"
	"github.com/fatflowers/postback/pkg/logctx"
	"github.com/fatflowers/postback/pkg/metrics"
)

type Outcome string

const (
	OutcomeDuplicate         Outcome = "duplicate"
	OutcomeUnchanged         Outcome = "unchanged"
	OutcomeTransitioned      Outcome = "transitioned"
	OutcomeIllegalTransition Outcome = "illegal_transition"
)

type PaymentFinder interface {
	FindPaymentByGatewayTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
}

type SecretStore interface {
	GetConfiguredSecret(ctx context.Context, methodCode string) (string, error)
}

type Orchestrator interface {
	Apply(ctx context.Context, p *models.Payment, status pagarme.TransactionStatus) (*payment.TransitionResult, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, apiKey string, p *models.Payment) (*refund.ReconcileResult, error)
}

type LogSink interface {
	Save(ctx context.Context, log *models.PostbackLog)
}

// Request is one inbound delivery as received over HTTP.
type Request struct {
	Body        []byte
	ContentType string
	Signature   string
	TraceID     string
	ReceivedAt  time.Time
}

type Result struct {
	Outcome       Outcome                  `json:"outcome"`
	TransactionID string                   `json:"transaction_id"`
	PaymentID     string                   `json:"payment_id,omitempty"`
	Transition    *payment.TransitionResult `json:"transition,omitempty"`
	Reconcile     *refund.ReconcileResult   `json:"reconcile,omitempty"`
	// ReconcileError is set when reconciliation failed after the transition
	// was applied. The delivery is still accepted.
	ReconcileError string `json:"reconcile_error,omitempty"`
}

type Handler struct {
	opts         Options
	payments     PaymentFinder
	secrets      SecretStore
	orchestrator Orchestrator
	reconciler   Reconciler
	locker       locker.Locker
	logs         LogSink
	metrics      *metrics.BusinessMetrics
	tracer       trace.Tracer
	log          *zap.SugaredLogger
}

type Deps struct {
	Payments     PaymentFinder
	Secrets      SecretStore
	Orchestrator Orchestrator
	Reconciler   Reconciler
	Locker       locker.Locker
	Logs         LogSink
	Metrics      *metrics.BusinessMetrics
}

func NewHandler(opts Options, deps Deps, log *zap.SugaredLogger) *Handler {
	lk := deps.Locker
	if lk == nil {
		lk = locker.NewKeyedMutex()
	}
	logs := deps.Logs
	if logs == nil {
		logs = discardLogs{}
	}
	return &Handler{
		opts:         opts,
		payments:     deps.Payments,
		secrets:      deps.Secrets,
		orchestrator: deps.Orchestrator,
		reconciler:   deps.Reconciler,
		locker:       lk,
		logs:         logs,
		metrics:      deps.Metrics,
		tracer:       telemetry.Tracer(),
		log:          log,
	}
}

type discardLogs struct{}

func (discardLogs) Save(context.Context, *models.PostbackLog) {}

func lockKey(transactionID string) string {
	return gatewayName + ":tx:" + transactionID
}

// Ingest processes one delivery. Accepted deliveries return a Result; any
// returned error is classified by apperr.KindOf. The work is detached from
// ctx cancellation so a disconnecting client cannot interrupt it midway.
func (h *Handler) Ingest(ctx context.Context, req Request) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = start
	}
	if req.TraceID != "" && logctx.TraceID(ctx) == "" {
		ctx = context.WithValue(ctx, logctx.TraceIDKey, req.TraceID)
	}
	ctx, span := h.tracer.Start(ctx, "postback.ingest")
	defer span.End()

	entry := &models.PostbackLog{
		Gateway:    gatewayName,
		TraceID:    req.TraceID,
		ReceivedAt: req.ReceivedAt,
		Data:       rawData(req),
		Status:     models.PostbackLogStatusReceived,
	}
	h.logs.Save(ctx, entry)

	res, err := h.ingest(ctx, req, entry)
	h.finish(ctx, span, entry, start, res, err)
	return res, err
}

func (h *Handler) ingest(ctx context.Context, req Request, entry *models.PostbackLog) (*Result, error) {
	var pb *pagarme.Postback
	err := h.step(ctx, "postback.parse", func(context.Context) error {
		var err error
		pb, err = pagarme.ParsePostback(req.Body, req.ContentType)
		return err
	})
	if err != nil {
		return nil, err
	}
	entry.TransactionID = pb.TransactionID
	entry.Event = pb.Event
	entry.OldStatus = string(pb.OldStatus)
	entry.CurrentStatus = string(pb.CurrentStatus)

	ctx = logctx.WithTransactionID(ctx, pb.TransactionID)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("pagarme.transaction_id", pb.TransactionID),
		attribute.String("pagarme.current_status", string(pb.CurrentStatus)),
	)
	logctx.FromCtx(ctx, h.log).Infow("postback_received",
		"event", pb.Event,
		"old_status", pb.OldStatus,
		"current_status", pb.CurrentStatus,
	)

	var secret string
	err = h.step(ctx, "postback.verify", func(ctx context.Context) error {
		var err error
		if secret, err = h.secrets.GetConfiguredSecret(ctx, h.opts.MethodCode); err != nil {
			return err
		}
		if !pb.Verify(secret, req.Body, req.Signature) {
			return apperr.Authentication("postback signature mismatch")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{TransactionID: pb.TransactionID}
	if h.opts.DedupEnabled && IsNoOp(pb) {
		res.Outcome = OutcomeDuplicate
		return res, nil
	}
	if pagarme.RequiresProductDecision(pb.CurrentStatus) {
		h.metrics.ObserveProductDecision(string(pb.CurrentStatus))
		logctx.FromCtx(ctx, h.log).Warnw("postback status needs a product decision", "current_status", pb.CurrentStatus)
	}

	unlock, err := h.lock(ctx, pb.TransactionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return res, h.process(ctx, pb, secret, res)
}

// process runs under the transaction lock.
func (h *Handler) process(ctx context.Context, pb *pagarme.Postback, secret string, res *Result) error {
	var p *models.Payment
	err := h.step(ctx, "postback.load_payment", func(ctx context.Context) error {
		ctx, cancel := h.storeContext(ctx)
		defer cancel()
		var err error
		p, err = h.payments.FindPaymentByGatewayTransactionID(ctx, pb.TransactionID)
		return err
	})
	if err != nil {
		return err
	}
	res.PaymentID = p.ID

	err = h.step(ctx, "postback.transition", func(ctx context.Context) error {
		ctx, cancel := h.storeContext(ctx)
		defer cancel()
		var err error
		res.Transition, err = h.orchestrator.Apply(ctx, p, pb.CurrentStatus)
		return err
	})
	switch {
	case errors.Is(err, apperr.ErrIllegalTransition):
		res.Outcome = OutcomeIllegalTransition
		return nil
	case err != nil:
		return err
	case res.Transition.Transitioned:
		res.Outcome = OutcomeTransitioned
	default:
		res.Outcome = OutcomeUnchanged
	}

	if !h.opts.RefundReconciliationEnabled || !refund.ShouldReconcile(pb.CurrentStatus) {
		return nil
	}
	// A reconciliation failure leaves refunds pending for the next delivery
	// and does not undo the transition.
	err = h.step(ctx, "postback.reconcile", func(ctx context.Context) error {
		var err error
		res.Reconcile, err = h.reconciler.Reconcile(ctx, secret, p)
		return err
	})
	if err != nil {
		res.ReconcileError = err.Error()
		logctx.FromCtx(ctx, h.log).Warnw("refund reconciliation failed", "payment_id", p.ID, "retryable", apperr.Retryable(err), "err", err)
	}
	return nil
}

// ReconcileRefunds runs refund reconciliation for one gateway transaction
// outside of a postback, under the same lock postbacks take.
func (h *Handler) ReconcileRefunds(ctx context.Context, transactionID string) (*refund.ReconcileResult, error) {
	if transactionID == "" {
		return nil, apperr.Protocol("transaction id is required")
	}
	ctx = logctx.WithTransactionID(ctx, transactionID)
	ctx, span := h.tracer.Start(ctx, "postback.reconcile_refunds", trace.WithAttributes(attribute.String("pagarme.transaction_id", transactionID)))
	defer span.End()

	secret, err := h.secrets.GetConfiguredSecret(ctx, h.opts.MethodCode)
	if err != nil {
		return nil, err
	}
	unlock, err := h.lock(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sctx, cancel := h.storeContext(ctx)
	p, err := h.payments.FindPaymentByGatewayTransactionID(sctx, transactionID)
	cancel()
	if err != nil {
		return nil, err
	}
	res, err := h.reconciler.Reconcile(ctx, secret, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (h *Handler) lock(ctx context.Context, transactionID string) (locker.Unlock, error) {
	var unlock locker.Unlock
	err := h.step(ctx, "postback.lock", func(ctx context.Context) error {
		if h.opts.LockTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.opts.LockTimeout)
			defer cancel()
		}
		var err error
		if unlock, err = h.locker.Lock(ctx, lockKey(transactionID)); err != nil {
			return fmt.Errorf("acquire lock for transaction %s: %w", transactionID, err)
		}
		return nil
	})
	return unlock, err
}

func (h *Handler) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.opts.StoreTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.opts.StoreTimeout)
}

// step runs fn in a child span and marks the span failed when fn fails.
func (h *Handler) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := h.tracer.Start(ctx, name)
	defer span.End()
	err := fn(ctx)
	if err != nil && !errors.Is(err, apperr.ErrIllegalTransition) {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
	}
	return err
}

func (h *Handler) finish(ctx context.Context, span trace.Span, entry *models.PostbackLog, start time.Time, res *Result, err error) {
	if entry.TransactionID != "" {
		ctx = logctx.WithTransactionID(ctx, entry.TransactionID)
	}
	lg := logctx.FromCtx(ctx, h.log).With("dur_ms", metrics.MillisecondsSince(start))

	var outcome string
	if err != nil {
		kind := apperr.KindOf(err)
		outcome = string(kind)
		entry.Status = models.PostbackLogStatusHandleFailed
		entry.Result = resultData(map[string]string{"error": err.Error(), "kind": outcome})
		span.SetStatus(codes.Error, outcome)
		switch kind {
		case apperr.KindAuthentication:
			lg.Warnw("postback_rejected", "security_event", true, "err", err)
		case apperr.KindNotFound:
			lg.Infow("postback_rejected", "err", err)
		case apperr.KindProtocol:
			lg.Warnw("postback_rejected", "err", err)
		default:
			lg.Errorw("postback_failed", "kind", kind, "err", err)
		}
	} else {
		outcome = string(res.Outcome)
		entry.Status = models.PostbackLogStatusHandled
		entry.Result = resultData(res)
		span.SetAttributes(attribute.String("postback.outcome", outcome))
		if res.Outcome == OutcomeIllegalTransition {
			lg.Warnw("postback_handled", "outcome", outcome)
		} else {
			lg.Infow("postback_handled", "outcome", outcome)
		}
	}
	entry.Outcome = outcome
	h.logs.Save(ctx, entry)
	h.metrics.ObservePostback(outcome, start)
}

func rawData(req Request) datatypes.JSON {
	b, _ := json.Marshal(map[string]string{
		"content_type": req.ContentType,
		"signature":    req.Signature,
		"body":         string(req.Body),
	})
	return b
}

func resultData(v any) *datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	j := datatypes.JSON(b)
	return &j
}
