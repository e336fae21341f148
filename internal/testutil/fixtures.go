package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/pkg/tool"
	"github.com/fatflowers/postback/pkg/types"
)

func NewOrder(total int64, state types.OrderState) *models.Order {
	id := tool.GenerateUUIDV7()
	return &models.Order{ID: id, Code: "ORD-" + id[len(id)-8:], State: state, Total: total, Currency: "BRL"}
}

func NewPayment(orderID, transactionID string, amount int64, state types.PaymentState) *models.Payment {
	return &models.Payment{
		ID:            tool.GenerateUUIDV7(),
		OrderID:       orderID,
		Method:        "pagarme",
		GatewayMethod: models.GatewayPaymentMethodCreditCard,
		Amount:        amount,
		State:         state,
		TransactionID: transactionID,
	}
}

func NewRefund(paymentID, gatewayRefundID string, amount int64) *models.Refund {
	return &models.Refund{
		ID:            tool.GenerateUUIDV7(),
		PaymentID:     paymentID,
		Amount:        amount,
		State:         types.RefundStatePending,
		TransactionID: gatewayRefundID,
	}
}

// Seed inserts rows in order.
func Seed(t testing.TB, db *gorm.DB, rows ...any) {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, db.Create(r).Error)
	}
}
