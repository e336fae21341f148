package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/postback/pkg/types"
)

// GatewayPaymentMethod is the gateway's own payment-method vocabulary.
type GatewayPaymentMethod string

const (
	GatewayPaymentMethodCreditCard GatewayPaymentMethod = "credit_card"
	GatewayPaymentMethodBoleto     GatewayPaymentMethod = "boleto"
)

// Payment 订单下的一笔支付，只通过状态机迁移修改，不删除
type Payment struct {
	ID      string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	OrderID string `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	// Method 平台侧支付方式编码，如 pagarme
	Method        string               `gorm:"column:method;type:varchar(64);not null" json:"method"`
	GatewayMethod GatewayPaymentMethod `gorm:"column:gateway_method;type:varchar(32);not null;default:'credit_card'" json:"gateway_method"`
	Amount        int64                `gorm:"column:amount;type:bigint;not null" json:"amount"`
	State         types.PaymentState   `gorm:"column:state;type:varchar(32);not null" json:"state"`
	// TransactionID 网关交易ID
	TransactionID string            `gorm:"column:transaction_id;type:varchar(64);not null;uniqueIndex" json:"transaction_id"`
	ErrorMessage  *string           `gorm:"column:error_message;type:text" json:"error_message"`
	Metadata      datatypes.JSONMap `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`

	Refunds   []*Refund `gorm:"foreignKey:PaymentID" json:"refunds,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string { return "payment" }

func (p *Payment) IsBoleto() bool {
	return p != nil && p.GatewayMethod == GatewayPaymentMethodBoleto
}
