package models

import (
	"time"

	"gorm.io/datatypes"
)

type ConfigArg struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PaymentMethod 支付方式配置，启动时由配置文件写入
type PaymentMethod struct {
	Code       string                          `gorm:"column:code;type:varchar(64);primary_key" json:"code"`
	Handler    string                          `gorm:"column:handler;type:varchar(64);not null" json:"handler"`
	Enabled    bool                            `gorm:"column:enabled;not null" json:"enabled"`
	ConfigArgs datatypes.JSONType[[]ConfigArg] `gorm:"column:config_args;type:jsonb" json:"config_args"`
	CreatedAt  time.Time                       `json:"created_at"`
	UpdatedAt  time.Time                       `json:"updated_at"`
}

func (PaymentMethod) TableName() string { return "payment_method" }

// Arg returns the value of the named config argument.
func (m *PaymentMethod) Arg(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, a := range m.ConfigArgs.Data() {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
