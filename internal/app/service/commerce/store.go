// Package commerce persists orders, payments and refunds and is the only
// place their states change.
package commerce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/internal/platform/events"
	"github.com/fatflowers/postback/pkg/apperr"
	"github.com/fatflowers/postback/pkg/logctx"
	"github.com/fatflowers/postback/pkg/tool"
	"github.com/fatflowers/postback/pkg/types"
)

// PaymentScanFields are the columns admin scans may filter and sort on.
var PaymentScanFields = []string{"id", "order_id", "state", "transaction_id", "method", "gateway_method", "amount", "created_at", "updated_at"}

type Store struct {
	db        *gorm.DB
	publisher events.Publisher
	log       *zap.SugaredLogger
}

func NewStore(db *gorm.DB, publisher events.Publisher, log *zap.SugaredLogger) *Store {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Store{db: db, publisher: publisher, log: log}
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// FindPaymentByGatewayTransactionID loads the payment with its refunds.
func (s *Store) FindPaymentByGatewayTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).Preload("Refunds").Where("transaction_id = ?", transactionID).First(&p).Error
	if err != nil {
		return nil, notFound(err, "payment with transaction id %s", transactionID)
	}
	return &p, nil
}

func (s *Store) FindPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).Preload("Refunds").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "payment %s", id)
	}
	return &p, nil
}

func (s *Store) FindOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error; err != nil {
		return nil, notFound(err, "order %s", orderID)
	}
	return &o, nil
}

// FindOrderPayments returns every payment of the order, whatever its state.
func (s *Store) FindOrderPayments(ctx context.Context, orderID string) ([]*models.Payment, error) {
	var rows []*models.Payment
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments of order %s: %w", orderID, err)
	}
	return rows, nil
}

func (s *Store) PendingRefunds(ctx context.Context, paymentID string) ([]*models.Refund, error) {
	var rows []*models.Refund
	err := s.db.WithContext(ctx).
		Where("payment_id = ? AND state = ?", paymentID, types.RefundStatePending).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending refunds of payment %s: %w", paymentID, err)
	}
	return rows, nil
}

func (s *Store) SettledRefunds(ctx context.Context, paymentID string) ([]*models.Refund, error) {
	var rows []*models.Refund
	err := s.db.WithContext(ctx).
		Where("payment_id = ? AND state = ?", paymentID, types.RefundStateSettled).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list settled refunds of payment %s: %w", paymentID, err)
	}
	return rows, nil
}

func (s *Store) CreateRefund(ctx context.Context, r *models.Refund) error {
	if r.ID == "" {
		r.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}
	return nil
}

type ScanPaymentsResponse struct {
	Items []*models.Payment `json:"items"`
	Total int64             `json:"total"`
}

func (s *Store) ScanPayments(ctx context.Context, req *types.ScanRequest) (*ScanPaymentsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := req.Normalize(PaymentScanFields); err != nil {
		return nil, apperr.Protocol("%v", err)
	}
	tx := req.Where(s.db.WithContext(ctx).Model(&models.Payment{})).Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}
	var rows []*models.Payment
	if err := req.Page(tx).Preload("Refunds").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return &ScanPaymentsResponse{Items: rows, Total: total}, nil
}

func (s *Store) TransitionPayment(ctx context.Context, p *models.Payment, to types.PaymentState) error {
	if !p.State.CanTransitionTo(to) {
		return apperr.IllegalTransition("payment %s: %s -> %s", p.ID, p.State, to)
	}
	if err := s.transition(ctx, &models.Payment{}, types.EntityTypePayment, p.ID, string(p.State), string(to), nil); err != nil {
		return err
	}
	p.State = to
	return nil
}

func (s *Store) TransitionOrder(ctx context.Context, o *models.Order, to types.OrderState) error {
	if !o.State.CanTransitionTo(to) {
		return apperr.IllegalTransition("order %s: %s -> %s", o.ID, o.State, to)
	}
	if err := s.transition(ctx, &models.Order{}, types.EntityTypeOrder, o.ID, string(o.State), string(to), nil); err != nil {
		return err
	}
	o.State = to
	return nil
}

func (s *Store) TransitionRefund(ctx context.Context, r *models.Refund, to types.RefundState) error {
	if !r.State.CanTransitionTo(to) {
		return apperr.IllegalTransition("refund %s: %s -> %s", r.ID, r.State, to)
	}
	var extra map[string]any
	var settledAt time.Time
	if to == types.RefundStateSettled {
		settledAt = time.Now().UTC()
		extra = map[string]any{"settled_at": settledAt}
	}
	if err := s.transition(ctx, &models.Refund{}, types.EntityTypeRefund, r.ID, string(r.State), string(to), extra); err != nil {
		return err
	}
	r.State = to
	if !settledAt.IsZero() {
		r.SettledAt = &settledAt
	}
	return nil
}

// transition moves one row from -> to only if it is still in from, writes
// the transition log in the same transaction and publishes after commit.
func (s *Store) transition(ctx context.Context, model any, entity types.EntityType, id, from, to string, extra map[string]any) error {
	updates := map[string]any{"state": to}
	for k, v := range extra {
		updates[k] = v
	}
	row := &models.StateTransitionLog{
		ID:            tool.GenerateUUIDV7(),
		EntityType:    entity,
		EntityID:      id,
		FromState:     from,
		ToState:       to,
		TransactionID: logctx.TransactionID(ctx),
		TraceID:       logctx.TraceID(ctx),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(model).Where("id = ? AND state = ?", id, from).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update %s %s: %w", entity, id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.IllegalTransition("%s %s is no longer %s", entity, id, from)
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to write transition log: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	lg := logctx.FromCtx(ctx, s.log)
	lg.Infow("state_transition_applied", "entity", entity, "id", id, "from", from, "to", to)
	e := events.Event{
		Type:          events.TypeFor(entity),
		EntityType:    entity,
		EntityID:      id,
		From:          from,
		To:            to,
		TransactionID: row.TransactionID,
		TraceID:       row.TraceID,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		lg.Warnw("publish state change failed", "event", e.Type, "id", id, "err", err)
	}
	return nil
}
