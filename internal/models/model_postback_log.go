package models

import (
	"time"

	"gorm.io/datatypes"
)

type PostbackLogStatus string

const (
	PostbackLogStatusReceived     PostbackLogStatus = "received"
	PostbackLogStatusHandled      PostbackLogStatus = "handled"
	PostbackLogStatusHandleFailed PostbackLogStatus = "handle_failed"
)

type PostbackLog struct {
	ID            string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Gateway       string            `gorm:"column:gateway;type:varchar(64);not null" json:"gateway"`
	TraceID       string            `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	TransactionID string            `gorm:"column:transaction_id;type:varchar(128);index" json:"transaction_id"`
	Event         string            `gorm:"column:event;type:varchar(64)" json:"event"`
	OldStatus     string            `gorm:"column:old_status;type:varchar(64)" json:"old_status"`
	CurrentStatus string            `gorm:"column:current_status;type:varchar(64)" json:"current_status"`
	ReceivedAt    time.Time         `gorm:"column:received_at;index" json:"received_at"`
	Data          datatypes.JSON    `gorm:"column:data;type:jsonb" json:"data"`
	Result        *datatypes.JSON   `gorm:"column:result;type:jsonb" json:"result"`
	Status        PostbackLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	// Outcome duplicate/unchanged/transitioned/illegal_transition，失败时为错误分类
	Outcome   string    `gorm:"column:outcome;type:varchar(64)" json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PostbackLog) TableName() string { return "postback_log" }
