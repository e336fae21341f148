package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntryType string

const (
	LedgerEntryTypeDebit  LedgerEntryType = "debit"
	LedgerEntryTypeCredit LedgerEntryType = "credit"
)

// LedgerEntry 复式记账分录，每笔退款每个账户每个方向只记一次
type LedgerEntry struct {
	ID        string          `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Account   string          `gorm:"column:account;type:varchar(64);not null;uniqueIndex:unique_refund_account_type,priority:2" json:"account"`
	OrderID   string          `gorm:"column:order_id;type:uuid;not null" json:"order_id"`
	PaymentID string          `gorm:"column:payment_id;type:uuid;not null" json:"payment_id"`
	RefundID  string          `gorm:"column:refund_id;type:uuid;not null;uniqueIndex:unique_refund_account_type,priority:1" json:"refund_id"`
	Type      LedgerEntryType `gorm:"column:type;type:varchar(16);not null;uniqueIndex:unique_refund_account_type,priority:3" json:"type"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null" json:"amount"`
	Currency  string          `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
}

func (LedgerEntry) TableName() string { return "ledger_entry" }
