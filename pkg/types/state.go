package types

// PaymentState is the platform-side state of a payment.
type PaymentState string

const (
	PaymentStateCreated    PaymentState = "Created"
	PaymentStateAuthorized PaymentState = "Authorized"
	PaymentStateSettled    PaymentState = "Settled"
	PaymentStateDeclined   PaymentState = "Declined"
	PaymentStateError      PaymentState = "Error"
)

var paymentTransitions = map[PaymentState][]PaymentState{
	PaymentStateCreated:    {PaymentStateAuthorized, PaymentStateSettled, PaymentStateDeclined, PaymentStateError},
	PaymentStateAuthorized: {PaymentStateSettled, PaymentStateDeclined, PaymentStateError},
}

// IsTerminal reports whether no further payment transition is allowed.
// Refund activity is tracked on refunds and never reopens a payment.
func (s PaymentState) IsTerminal() bool {
	return s == PaymentStateSettled || s == PaymentStateDeclined || s == PaymentStateError
}

func (s PaymentState) CanTransitionTo(target PaymentState) bool {
	for _, t := range paymentTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// OrderMilestone returns the order state reached once payments in s cover the order total.
func (s PaymentState) OrderMilestone() (OrderState, bool) {
	switch s {
	case PaymentStateAuthorized:
		return OrderStatePaymentAuthorized, true
	case PaymentStateSettled:
		return OrderStatePaymentSettled, true
	default:
		return "", false
	}
}

// RefundState is the platform-side state of a refund.
type RefundState string

const (
	RefundStatePending RefundState = "Pending"
	RefundStateSettled RefundState = "Settled"
	RefundStateFailed  RefundState = "Failed"
)

func (s RefundState) CanTransitionTo(target RefundState) bool {
	return s == RefundStatePending && (target == RefundStateSettled || target == RefundStateFailed)
}

// OrderState is the platform-side state of an order. Only the payment
// milestones are driven by postbacks.
type OrderState string

const (
	OrderStateAddingItems       OrderState = "AddingItems"
	OrderStateArrangingPayment  OrderState = "ArrangingPayment"
	OrderStatePaymentAuthorized OrderState = "PaymentAuthorized"
	OrderStatePaymentSettled    OrderState = "PaymentSettled"
	OrderStateCancelled         OrderState = "Cancelled"
)

var orderTransitions = map[OrderState][]OrderState{
	OrderStateAddingItems:       {OrderStateArrangingPayment, OrderStateCancelled},
	OrderStateArrangingPayment:  {OrderStatePaymentAuthorized, OrderStatePaymentSettled, OrderStateAddingItems, OrderStateCancelled},
	OrderStatePaymentAuthorized: {OrderStatePaymentSettled, OrderStateCancelled},
	OrderStatePaymentSettled:    {OrderStateCancelled},
}

func (s OrderState) CanTransitionTo(target OrderState) bool {
	for _, t := range orderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// EntityType names the aggregate a state transition applies to.
type EntityType string

const (
	EntityTypePayment EntityType = "payment"
	EntityTypeOrder   EntityType = "order"
	EntityTypeRefund  EntityType = "refund"
)
