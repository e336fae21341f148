package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaymentState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to PaymentState
		want     bool
	}{
		{PaymentStateCreated, PaymentStateAuthorized, true},
		{PaymentStateCreated, PaymentStateSettled, true},
		{PaymentStateAuthorized, PaymentStateSettled, true},
		{PaymentStateAuthorized, PaymentStateDeclined, true},
		{PaymentStateCreated, PaymentStateError, true},
		{PaymentStateSettled, PaymentStateAuthorized, false},
		{PaymentStateSettled, PaymentStateDeclined, false},
		{PaymentStateDeclined, PaymentStateSettled, false},
		{PaymentStateAuthorized, PaymentStateCreated, false},
		{PaymentStateAuthorized, PaymentStateAuthorized, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestPaymentState_TerminalStatesHaveNoTransitions(t *testing.T) {
	for _, s := range []PaymentState{PaymentStateSettled, PaymentStateDeclined, PaymentStateError} {
		require.True(t, s.IsTerminal())
		require.Empty(t, paymentTransitions[s])
	}
	require.False(t, PaymentStateCreated.IsTerminal())
}

func TestPaymentState_OrderMilestone(t *testing.T) {
	m, ok := PaymentStateAuthorized.OrderMilestone()
	require.True(t, ok)
	require.Equal(t, OrderStatePaymentAuthorized, m)

	m, ok = PaymentStateSettled.OrderMilestone()
	require.True(t, ok)
	require.Equal(t, OrderStatePaymentSettled, m)

	_, ok = PaymentStateDeclined.OrderMilestone()
	require.False(t, ok)
}

func TestRefundState_CanTransitionTo(t *testing.T) {
	require.True(t, RefundStatePending.CanTransitionTo(RefundStateSettled))
	require.True(t, RefundStatePending.CanTransitionTo(RefundStateFailed))
	require.False(t, RefundStateSettled.CanTransitionTo(RefundStatePending))
	require.False(t, RefundStateFailed.CanTransitionTo(RefundStateSettled))
}

func TestOrderState_CanTransitionTo(t *testing.T) {
	require.True(t, OrderStateArrangingPayment.CanTransitionTo(OrderStatePaymentAuthorized))
	require.True(t, OrderStatePaymentAuthorized.CanTransitionTo(OrderStatePaymentSettled))
	require.False(t, OrderStatePaymentSettled.CanTransitionTo(OrderStatePaymentAuthorized))
}
