package models

import (
	"time"

	"github.com/fatflowers/postback/pkg/types"
)

// Order 订单，只读取支付里程碑相关字段
type Order struct {
	ID       string           `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Code     string           `gorm:"column:code;type:varchar(64);not null;uniqueIndex" json:"code"`
	State    types.OrderState `gorm:"column:state;type:varchar(64);not null" json:"state"`
	Total    int64            `gorm:"column:total;type:bigint;not null" json:"total"`
	Currency string           `gorm:"column:currency;type:varchar(8);not null;default:'BRL'" json:"currency"`

	Payments  []*Payment `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Order) TableName() string { return "order" }
