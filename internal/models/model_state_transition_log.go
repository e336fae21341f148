package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/postback/pkg/types"
)

// StateTransitionLog 状态迁移日志，用于问题排查
type StateTransitionLog struct {
	ID         string           `gorm:"column:id;primary_key;type:uuid;index:idx_entity_id_id,priority:2,sort:desc"`
	EntityType types.EntityType `gorm:"column:entity_type;type:varchar(32);not null"`
	EntityID   string           `gorm:"column:entity_id;type:varchar(64);not null;index:idx_entity_id_id,priority:1"`
	FromState  string           `gorm:"column:from_state;type:varchar(64);not null"`
	ToState    string           `gorm:"column:to_state;type:varchar(64);not null"`
	// TransactionID 触发迁移的网关交易ID
	TransactionID string            `gorm:"column:transaction_id;type:varchar(64)"`
	TraceID       string            `gorm:"column:trace_id;type:varchar(128)"`
	Extra         datatypes.JSONMap `gorm:"column:extra;type:jsonb;default:'{}'"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (StateTransitionLog) TableName() string {
	return "state_transition_log"
}
