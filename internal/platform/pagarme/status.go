package pagarme

import "github.com/fatflowers/postback/pkg/types"

// TransactionStatus is the gateway's transaction status vocabulary.
type TransactionStatus string

const (
	TransactionStatusProcessing     TransactionStatus = "processing"
	TransactionStatusAuthorized     TransactionStatus = "authorized"
	TransactionStatusPaid           TransactionStatus = "paid"
	TransactionStatusRefunded       TransactionStatus = "refunded"
	TransactionStatusWaitingPayment TransactionStatus = "waiting_payment"
	TransactionStatusPendingRefund  TransactionStatus = "pending_refund"
	TransactionStatusRefused        TransactionStatus = "refused"
	TransactionStatusChargedback    TransactionStatus = "chargedback"
	TransactionStatusAnalyzing      TransactionStatus = "analyzing"
	TransactionStatusPendingReview  TransactionStatus = "pending_review"
)

// RefundStatus is the status of a refund record as reported by the gateway.
type RefundStatus string

const (
	RefundStatusRefunded      RefundStatus = "refunded"
	RefundStatusPendingRefund RefundStatus = "pending_refund"
	RefundStatusRefused       RefundStatus = "refused"
	// RefundStatusChargedback has no refund-dimension state; it is left to
	// the Pending fallback and flagged by RequiresProductDecision.
	RefundStatusChargedback RefundStatus = "chargedback"
)

// A settled payment stays Settled through refund and chargeback; those are
// tracked on the refund dimension.
var transactionStates = map[TransactionStatus]types.PaymentState{
	TransactionStatusProcessing:     types.PaymentStateCreated,
	TransactionStatusWaitingPayment: types.PaymentStateCreated,
	TransactionStatusAnalyzing:      types.PaymentStateCreated,
	TransactionStatusPendingReview:  types.PaymentStateCreated,
	TransactionStatusAuthorized:     types.PaymentStateAuthorized,
	TransactionStatusPaid:           types.PaymentStateSettled,
	TransactionStatusRefunded:       types.PaymentStateSettled,
	TransactionStatusPendingRefund:  types.PaymentStateSettled,
	TransactionStatusChargedback:    types.PaymentStateSettled,
	TransactionStatusRefused:        types.PaymentStateDeclined,
}

var refundStates = map[RefundStatus]types.RefundState{
	RefundStatusRefunded:      types.RefundStateSettled,
	RefundStatusPendingRefund: types.RefundStatePending,
	RefundStatusRefused:       types.RefundStateFailed,
}

// KnownTransactionStatuses lists every documented gateway transaction status.
var KnownTransactionStatuses = []TransactionStatus{
	TransactionStatusProcessing,
	TransactionStatusAuthorized,
	TransactionStatusPaid,
	TransactionStatusRefunded,
	TransactionStatusWaitingPayment,
	TransactionStatusPendingRefund,
	TransactionStatusRefused,
	TransactionStatusChargedback,
	TransactionStatusAnalyzing,
	TransactionStatusPendingReview,
}

// TranslateTransactionStatus maps a gateway status to a payment state.
// Unknown values map to Created.
func TranslateTransactionStatus(status TransactionStatus) types.PaymentState {
	if s, ok := transactionStates[status]; ok {
		return s
	}
	return types.PaymentStateCreated
}

// TranslateRefundStatus maps a gateway refund status to a refund state.
// Unknown values, chargedback included, map to Pending.
func TranslateRefundStatus(status RefundStatus) types.RefundState {
	if s, ok := refundStates[status]; ok {
		return s
	}
	return types.RefundStatePending
}

// RequiresProductDecision reports statuses whose handling is undecided and
// must only be logged.
func RequiresProductDecision(status TransactionStatus) bool {
	return status == TransactionStatusChargedback
}
