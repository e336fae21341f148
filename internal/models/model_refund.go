package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/postback/pkg/types"
)

type Refund struct {
	ID        string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	PaymentID string            `gorm:"column:payment_id;type:uuid;not null;index:idx_payment_id_state,priority:1" json:"payment_id"`
	Amount    int64             `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Reason    string            `gorm:"column:reason;type:varchar(255)" json:"reason"`
	State     types.RefundState `gorm:"column:state;type:varchar(32);not null;index:idx_payment_id_state,priority:2" json:"state"`
	// TransactionID 网关退款ID，请求失败时为空
	TransactionID string            `gorm:"column:transaction_id;type:varchar(64)" json:"transaction_id"`
	SettledAt     *time.Time        `gorm:"column:settled_at;default:null" json:"settled_at"`
	Metadata      datatypes.JSONMap `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (Refund) TableName() string { return "refund" }
