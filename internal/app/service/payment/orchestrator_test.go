package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/internal/platform/pagarme"
	"github.com/fatflowers/postback/internal/testutil"
	"github.com/fatflowers/postback/pkg/apperr"
	"github.com/fatflowers/postback/pkg/metrics"
	"github.com/fatflowers/postback/pkg/types"
)

func newOrchestrator(t *testing.T, store *testutil.MemStore) *Orchestrator {
	t.Helper()
	m, err := metrics.NewBusinessMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return NewOrchestrator(store, store, m, zap.NewNop().Sugar())
}

func TestApply_SinglePaymentSettlesOrder(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStateArrangingPayment))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateCreated))

	res, err := newOrchestrator(t, store).Apply(context.Background(), pay, pagarme.TransactionStatusPaid)
	require.NoError(t, err)
	require.True(t, res.Transitioned)
	require.True(t, res.OrderTransitioned)
	require.Equal(t, types.PaymentStateSettled, store.Payment(pay.ID).State)
	require.Equal(t, types.OrderStatePaymentSettled, store.Order(order.ID).State)
}

func TestApply_Idempotent(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStateArrangingPayment))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateCreated))
	o := newOrchestrator(t, store)
	ctx := context.Background()

	_, err := o.Apply(ctx, pay, pagarme.TransactionStatusPaid)
	require.NoError(t, err)
	require.Len(t, store.PaymentTransitions, 1)

	reloaded := store.Payment(pay.ID)
	res, err := o.Apply(ctx, reloaded, pagarme.TransactionStatusPaid)
	require.NoError(t, err)
	require.False(t, res.Transitioned)
	require.Len(t, store.PaymentTransitions, 1)
	require.Len(t, store.OrderTransitions, 1)
}

func TestApply_CoverageAcrossPayments(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStateArrangingPayment))
	p1 := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 600, types.PaymentStateCreated))
	p2 := store.AddPayment(testutil.NewPayment(order.ID, "tx-2", 400, types.PaymentStateCreated))
	o := newOrchestrator(t, store)
	ctx := context.Background()

	res, err := o.Apply(ctx, p1, pagarme.TransactionStatusAuthorized)
	require.NoError(t, err)
	require.EqualValues(t, 600, res.Covered)
	require.False(t, res.OrderTransitioned)
	require.Equal(t, types.OrderStateArrangingPayment, store.Order(order.ID).State)

	res, err = o.Apply(ctx, p2, pagarme.TransactionStatusAuthorized)
	require.NoError(t, err)
	require.EqualValues(t, 1000, res.Covered)
	require.True(t, res.OrderTransitioned)
	require.Equal(t, types.OrderStatePaymentAuthorized, store.Order(order.ID).State)
}

func TestApply_OverCoverageDoesNotAdvance(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStateArrangingPayment))
	store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 600, types.PaymentStateSettled))
	p2 := store.AddPayment(testutil.NewPayment(order.ID, "tx-2", 600, types.PaymentStateCreated))

	res, err := newOrchestrator(t, store).Apply(context.Background(), p2, pagarme.TransactionStatusPaid)
	require.NoError(t, err)
	require.EqualValues(t, 1200, res.Covered)
	require.False(t, res.OrderTransitioned)
	require.Empty(t, store.OrderTransitions)
}

func TestApply_OrderAlreadyAtMilestone(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStatePaymentSettled))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateAuthorized))

	res, err := newOrchestrator(t, store).Apply(context.Background(), pay, pagarme.TransactionStatusPaid)
	require.NoError(t, err)
	require.True(t, res.Transitioned)
	require.False(t, res.OrderTransitioned)
	require.Empty(t, store.OrderTransitions)
}

func TestApply_IllegalTransition(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStateArrangingPayment))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateSettled))

	res, err := newOrchestrator(t, store).Apply(context.Background(), pay, pagarme.TransactionStatusAuthorized)
	require.ErrorIs(t, err, apperr.ErrIllegalTransition)
	require.False(t, res.Transitioned)
	require.Equal(t, types.PaymentStateSettled, store.Payment(pay.ID).State)
}

func TestApply_RefundedOnSettledPaymentIsNoop(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStatePaymentSettled))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateSettled))

	res, err := newOrchestrator(t, store).Apply(context.Background(), pay, pagarme.TransactionStatusRefunded)
	require.NoError(t, err)
	require.False(t, res.Transitioned)
	require.Empty(t, store.PaymentTransitions)
}

type recordingDecline struct{ seen []string }

func (r *recordingDecline) OnDeclined(_ context.Context, p *models.Payment) error {
	r.seen = append(r.seen, p.ID)
	return errors.New("ignored")
}

func TestApply_DeclineSkipsCoverageAndCallsHandler(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStateArrangingPayment))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateCreated))
	o := newOrchestrator(t, store)
	h := &recordingDecline{}
	o.SetDeclineHandler(h)

	res, err := o.Apply(context.Background(), pay, pagarme.TransactionStatusRefused)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStateDeclined, res.To)
	require.Zero(t, res.OrderTotal)
	require.Equal(t, []string{pay.ID}, h.seen)
	require.Empty(t, store.OrderTransitions)
}

func TestApply_PersistenceErrorIsNotIllegal(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStateArrangingPayment))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateCreated))
	store.TransitionErr = errors.New("db down")

	_, err := newOrchestrator(t, store).Apply(context.Background(), pay, pagarme.TransactionStatusPaid)
	require.Error(t, err)
	require.NotErrorIs(t, err, apperr.ErrIllegalTransition)
	require.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

// failingOnce fails the first FindOrder call.
type failingOnce struct {
	*testutil.MemStore
	failed bool
}

func (f *failingOnce) FindOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if !f.failed {
		f.failed = true
		return nil, errors.New("db: connection reset")
	}
	return f.MemStore.FindOrder(ctx, orderID)
}

func TestApply_RedeliveryCompletesOrderAfterFailure(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStateArrangingPayment))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateCreated))
	m, err := metrics.NewBusinessMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	o := NewOrchestrator(&failingOnce{MemStore: store}, store, m, zap.NewNop().Sugar())
	ctx := context.Background()

	_, err = o.Apply(ctx, pay, pagarme.TransactionStatusPaid)
	require.Error(t, err)
	require.Equal(t, types.PaymentStateSettled, store.Payment(pay.ID).State)
	require.Equal(t, types.OrderStateArrangingPayment, store.Order(order.ID).State)

	res, err := o.Apply(ctx, store.Payment(pay.ID), pagarme.TransactionStatusPaid)
	require.NoError(t, err)
	require.False(t, res.Transitioned)
	require.True(t, res.OrderTransitioned)
	require.Equal(t, types.OrderStatePaymentSettled, store.Order(order.ID).State)
	require.Len(t, store.PaymentTransitions, 1)
}

func TestApply_RedeliveryForCancelledOrder(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStateCancelled))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateSettled))

	res, err := newOrchestrator(t, store).Apply(context.Background(), pay, pagarme.TransactionStatusPaid)
	require.NoError(t, err)
	require.False(t, res.OrderTransitioned)
	require.Empty(t, store.OrderTransitions)
}

// racingOrders lets another writer complete the order just before the
// orchestrator's own order transition lands.
type racingOrders struct {
	*testutil.MemStore
	t *testing.T
}

func (r *racingOrders) TransitionOrder(ctx context.Context, o *models.Order, to types.OrderState) error {
	winner := r.MemStore.Order(o.ID)
	require.NoError(r.t, r.MemStore.TransitionOrder(ctx, winner, to))
	return r.MemStore.TransitionOrder(ctx, o, to)
}

func TestApply_OrderCompletedConcurrently(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStateArrangingPayment))
	store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 600, types.PaymentStateSettled))
	p2 := store.AddPayment(testutil.NewPayment(order.ID, "tx-2", 400, types.PaymentStateCreated))
	m, err := metrics.NewBusinessMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	o := NewOrchestrator(store, &racingOrders{MemStore: store, t: t}, m, zap.NewNop().Sugar())

	res, err := o.Apply(context.Background(), p2, pagarme.TransactionStatusPaid)
	require.NoError(t, err)
	require.True(t, res.Transitioned)
	require.False(t, res.OrderTransitioned)
	require.Equal(t, types.OrderStatePaymentSettled, res.OrderState)
	require.Len(t, store.OrderTransitions, 2)
}
