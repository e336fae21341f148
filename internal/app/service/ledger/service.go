// Package ledger books refund settlements as double entries.
package ledger

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/pkg/logctx"
	"github.com/fatflowers/postback/pkg/tool"
)

const (
	AccountMerchantCash    = "merchant_cash"
	AccountCustomerRefunds = "customer_refunds"

	defaultCurrency = "BRL"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// CentsToDecimal converts an integer amount in cents.
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// OnRefundSettled debits customer refunds and credits merchant cash. Booking
// the same refund twice is a no-op.
func (s *Service) OnRefundSettled(ctx context.Context, payment *models.Payment, refund *models.Refund) error {
	amount := CentsToDecimal(refund.Amount)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currency string
		if err := tx.Model(&models.Order{}).Where("id = ?", payment.OrderID).Limit(1).Pluck("currency", &currency).Error; err != nil {
			return fmt.Errorf("failed to read order currency: %w", err)
		}
		if currency == "" {
			currency = defaultCurrency
		}
		entries := []*models.LedgerEntry{
			s.entry(payment, refund, AccountCustomerRefunds, models.LedgerEntryTypeDebit, amount, currency),
			s.entry(payment, refund, AccountMerchantCash, models.LedgerEntryTypeCredit, amount, currency),
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entries).Error
	})
	if err != nil {
		return fmt.Errorf("failed to book refund %s: %w", refund.ID, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("refund_booked", "refund_id", refund.ID, "amount", amount.StringFixed(2))
	return nil
}

func (s *Service) entry(p *models.Payment, r *models.Refund, account string, typ models.LedgerEntryType, amount decimal.Decimal, currency string) *models.LedgerEntry {
	return &models.LedgerEntry{
		ID:        tool.GenerateUUIDV7(),
		Account:   account,
		OrderID:   p.OrderID,
		PaymentID: p.ID,
		RefundID:  r.ID,
		Type:      typ,
		Amount:    amount,
		Currency:  currency,
	}
}

// UnbookedRefunds returns the refunds that have no ledger entries yet.
func (s *Service) UnbookedRefunds(ctx context.Context, refunds []*models.Refund) ([]*models.Refund, error) {
	if len(refunds) == 0 {
		return nil, nil
	}
	ids := lo.Map(refunds, func(r *models.Refund, _ int) string { return r.ID })
	var booked []string
	err := s.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("refund_id IN ?", ids).
		Distinct().
		Pluck("refund_id", &booked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger entries: %w", err)
	}
	return lo.Filter(refunds, func(r *models.Refund, _ int) bool {
		return !lo.Contains(booked, r.ID)
	}), nil
}

// Balance is debits minus credits on account. Both accounts booked here are
// debit-normal: a settled refund raises customer_refunds and lowers
// merchant_cash.
func (s *Service) Balance(ctx context.Context, account string) (decimal.Decimal, error) {
	var rows []*models.LedgerEntry
	if err := s.db.WithContext(ctx).Where("account = ?", account).Find(&rows).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to load ledger of %s: %w", account, err)
	}
	balance := decimal.Zero
	for _, e := range rows {
		if e.Type == models.LedgerEntryTypeDebit {
			balance = balance.Add(e.Amount)
		} else {
			balance = balance.Sub(e.Amount)
		}
	}
	return balance, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
