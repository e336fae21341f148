package refund

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/internal/platform/pagarme"
	"github.com/fatflowers/postback/internal/testutil"
	"github.com/fatflowers/postback/pkg/apperr"
	"github.com/fatflowers/postback/pkg/types"
)

func newRequester(store *testutil.MemStore, gw Gateway, hook SettlementHook) *Requester {
	secrets := testutil.StaticSecrets{"pagarme": "ak_test"}
	return NewRequester(store, store, secrets, gw, hook, testConfig(), zap.NewNop().Sugar())
}

func TestRequest_SettledImmediately(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStatePaymentSettled))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateSettled))

	gw := &mockGateway{}
	gw.expectLookup("tx-1", 1000, 0)
	gw.On("RefundTransaction", mock.Anything, "ak_test", "tx-1", int64(1000), false).Return(&pagarme.Transaction{
		ID:      1,
		Status:  pagarme.TransactionStatusRefunded,
		Refunds: []pagarme.Refund{{ID: "re_1", Amount: 1000, Status: pagarme.RefundStatusRefunded}},
	}, nil)
	hook := &recordingHook{}

	refund, err := newRequester(store, gw, hook).Request(context.Background(), &Request{PaymentID: pay.ID})
	require.NoError(t, err)
	require.Equal(t, "re_1", refund.TransactionID)
	require.EqualValues(t, 1000, refund.Amount)
	require.Equal(t, types.RefundStateSettled, store.Refund(refund.ID).State)
	require.Equal(t, []string{refund.ID}, hook.settled)
	gw.AssertExpectations(t)
}

func TestRequest_PendingPicksUnknownGatewayRefund(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStatePaymentSettled))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateSettled))
	old := testutil.NewRefund(pay.ID, "re_1", 300)
	old.State = types.RefundStateSettled
	store.AddRefund(old)

	gw := &mockGateway{}
	gw.expectLookup("tx-1", 1000, 300)
	gw.On("RefundTransaction", mock.Anything, "ak_test", "tx-1", int64(200), false).Return(&pagarme.Transaction{
		Refunds: []pagarme.Refund{
			{ID: "re_1", Status: pagarme.RefundStatusRefunded},
			{ID: "re_2", Status: pagarme.RefundStatusPendingRefund},
		},
	}, nil)

	refund, err := newRequester(store, gw, nil).Request(context.Background(), &Request{PaymentID: pay.ID, Amount: 200, Reason: "customer"})
	require.NoError(t, err)
	require.Equal(t, "re_2", refund.TransactionID)
	require.Equal(t, types.RefundStatePending, store.Refund(refund.ID).State)
	require.Empty(t, store.RefundTransitions)
}

func TestRequest_BoletoIsIllegalOperation(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStatePaymentSettled))
	p := testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateSettled)
	p.GatewayMethod = models.GatewayPaymentMethodBoleto
	store.AddPayment(p)

	gw := &mockGateway{}
	_, err := newRequester(store, gw, nil).Request(context.Background(), &Request{PaymentID: p.ID})
	require.ErrorIs(t, err, apperr.ErrIllegalOperation)
	gw.AssertNotCalled(t, "RefundTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequest_Validation(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStateArrangingPayment))
	created := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateCreated))
	settled := store.AddPayment(testutil.NewPayment(order.ID, "tx-2", 1000, types.PaymentStateSettled))
	r := newRequester(store, &mockGateway{}, nil)
	ctx := context.Background()

	_, err := r.Request(ctx, &Request{PaymentID: created.ID})
	require.ErrorIs(t, err, apperr.ErrIllegalOperation)

	_, err = r.Request(ctx, &Request{PaymentID: settled.ID, Amount: 1001})
	require.ErrorIs(t, err, apperr.ErrProtocol)

	_, err = r.Request(ctx, &Request{PaymentID: "missing"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRequest_MissingSecret(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStatePaymentSettled))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateSettled))
	r := NewRequester(store, store, testutil.StaticSecrets{}, &mockGateway{}, nil, testConfig(), zap.NewNop().Sugar())

	_, err := r.Request(context.Background(), &Request{PaymentID: pay.ID})
	require.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestRequest_GatewayFailureRecordsFailedRefund(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStatePaymentSettled))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateSettled))

	gw := &mockGateway{}
	gw.expectLookup("tx-1", 1000, 0)
	gw.On("RefundTransaction", mock.Anything, "ak_test", "tx-1", int64(1000), false).
		Return(nil, &pagarme.APIError{StatusCode: 400, Body: "invalid"})

	refund, err := newRequester(store, gw, nil).Request(context.Background(), &Request{PaymentID: pay.ID})
	require.ErrorIs(t, err, apperr.ErrGatewayCall)
	var apiErr *pagarme.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, types.RefundStateFailed, store.Refund(refund.ID).State)
}

func TestRequest_GatewayTransactionChecks(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStatePaymentSettled))
	boleto := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateSettled))
	partly := store.AddPayment(testutil.NewPayment(order.ID, "tx-2", 1000, types.PaymentStateSettled))
	lost := store.AddPayment(testutil.NewPayment(order.ID, "tx-3", 1000, types.PaymentStateSettled))

	gw := &mockGateway{}
	gw.On("LookupTransaction", mock.Anything, "ak_test", "tx-1").Return(&pagarme.Transaction{Amount: 1000, PaymentMethod: "boleto"}, nil)
	gw.expectLookup("tx-2", 1000, 800)
	gw.On("LookupTransaction", mock.Anything, "ak_test", "tx-3").Return(nil, &pagarme.APIError{StatusCode: 404, Body: "not found"})
	r := newRequester(store, gw, nil)
	ctx := context.Background()

	_, err := r.Request(ctx, &Request{PaymentID: boleto.ID})
	require.ErrorIs(t, err, apperr.ErrIllegalOperation)

	_, err = r.Request(ctx, &Request{PaymentID: partly.ID, Amount: 300})
	require.ErrorIs(t, err, apperr.ErrProtocol)

	_, err = r.Request(ctx, &Request{PaymentID: lost.ID})
	require.ErrorIs(t, err, apperr.ErrGatewayCall)

	gw.AssertNotCalled(t, "RefundTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Empty(t, store.RefundTransitions)
}

func TestRequest_KnownGatewayRefundsAreNotReused(t *testing.T) {
	store := testutil.NewMemStore()
	order := store.AddOrder(testutil.NewOrder(1000, types.OrderStatePaymentSettled))
	pay := store.AddPayment(testutil.NewPayment(order.ID, "tx-1", 1000, types.PaymentStateSettled))
	old := testutil.NewRefund(pay.ID, "re_1", 300)
	old.State = types.RefundStateSettled
	store.AddRefund(old)

	gw := &mockGateway{}
	gw.expectLookup("tx-1", 1000, 300)
	gw.On("RefundTransaction", mock.Anything, "ak_test", "tx-1", int64(100), false).Return(&pagarme.Transaction{
		Refunds: []pagarme.Refund{{ID: "re_1", Status: pagarme.RefundStatusRefunded}},
	}, nil)

	refund, err := newRequester(store, gw, nil).Request(context.Background(), &Request{PaymentID: pay.ID, Amount: 100})
	require.NoError(t, err)
	require.Empty(t, refund.TransactionID)
	require.Equal(t, types.RefundStatePending, store.Refund(refund.ID).State)
	require.Empty(t, store.RefundTransitions)
}
