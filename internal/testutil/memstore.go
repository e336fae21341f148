package testutil

import (
	"context"
	"sync"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/pkg/apperr"
	"github.com/fatflowers/postback/pkg/tool"
	"github.com/fatflowers/postback/pkg/types"
)

// Transition records one state machine call.
type Transition struct {
	ID   string
	From string
	To   string
}

// MemStore is an in-memory stand-in for the commerce store. Reads return
// copies so callers see fresh rows the way a database reload would.
type MemStore struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	payments map[string]*models.Payment
	refunds  map[string]*models.Refund

	PaymentTransitions []Transition
	OrderTransitions   []Transition
	RefundTransitions  []Transition

	// TransitionErr, when set, fails every transition.
	TransitionErr error
	// FindErr, when set, fails every read.
	FindErr error
}

func NewMemStore() *MemStore {
	return &MemStore{
		orders:   make(map[string]*models.Order),
		payments: make(map[string]*models.Payment),
		refunds:  make(map[string]*models.Refund),
	}
}

func (s *MemStore) AddOrder(o *models.Order) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *o
	s.orders[o.ID] = &c
	return o
}

func (s *MemStore) AddPayment(p *models.Payment) *models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	c.Refunds = nil
	s.payments[p.ID] = &c
	return p
}

func (s *MemStore) AddRefund(r *models.Refund) *models.Refund {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *r
	s.refunds[r.ID] = &c
	return r
}

func (s *MemStore) Order(id string) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		c := *o
		return &c
	}
	return nil
}

func (s *MemStore) Payment(id string) *models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payments[id]; ok {
		c := *p
		return &c
	}
	return nil
}

func (s *MemStore) Refund(id string) *models.Refund {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.refunds[id]; ok {
		c := *r
		return &c
	}
	return nil
}

func (s *MemStore) paymentWithRefunds(p *models.Payment) *models.Payment {
	c := *p
	c.Refunds = nil
	for _, r := range s.refunds {
		if r.PaymentID == p.ID {
			rc := *r
			c.Refunds = append(c.Refunds, &rc)
		}
	}
	return &c
}

func (s *MemStore) FindPaymentByGatewayTransactionID(_ context.Context, transactionID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	for _, p := range s.payments {
		if p.TransactionID == transactionID {
			return s.paymentWithRefunds(p), nil
		}
	}
	return nil, apperr.NotFound("payment with transaction id %s", transactionID)
}

func (s *MemStore) FindPayment(_ context.Context, id string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	p, ok := s.payments[id]
	if !ok {
		return nil, apperr.NotFound("payment %s", id)
	}
	return s.paymentWithRefunds(p), nil
}

func (s *MemStore) FindOrder(_ context.Context, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	o, ok := s.orders[orderID]
	if !ok {
		return nil, apperr.NotFound("order %s", orderID)
	}
	c := *o
	return &c, nil
}

func (s *MemStore) FindOrderPayments(_ context.Context, orderID string) ([]*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	var out []*models.Payment
	for _, p := range s.payments {
		if p.OrderID == orderID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MemStore) PendingRefunds(_ context.Context, paymentID string) ([]*models.Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	var out []*models.Refund
	for _, r := range s.refunds {
		if r.PaymentID == paymentID && r.State == types.RefundStatePending {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MemStore) SettledRefunds(_ context.Context, paymentID string) ([]*models.Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	var out []*models.Refund
	for _, r := range s.refunds {
		if r.PaymentID == paymentID && r.State == types.RefundStateSettled {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MemStore) CreateRefund(_ context.Context, r *models.Refund) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = tool.GenerateUUIDV7()
	}
	c := *r
	s.refunds[r.ID] = &c
	return nil
}

func (s *MemStore) TransitionPayment(_ context.Context, p *models.Payment, to types.PaymentState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PaymentTransitions = append(s.PaymentTransitions, Transition{ID: p.ID, From: string(p.State), To: string(to)})
	if s.TransitionErr != nil {
		return s.TransitionErr
	}
	stored, ok := s.payments[p.ID]
	if !ok {
		return apperr.NotFound("payment %s", p.ID)
	}
	if stored.State != p.State || !p.State.CanTransitionTo(to) {
		return apperr.IllegalTransition("payment %s: %s -> %s", p.ID, stored.State, to)
	}
	stored.State = to
	p.State = to
	return nil
}

func (s *MemStore) TransitionOrder(_ context.Context, o *models.Order, to types.OrderState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.OrderTransitions = append(s.OrderTransitions, Transition{ID: o.ID, From: string(o.State), To: string(to)})
	if s.TransitionErr != nil {
		return s.TransitionErr
	}
	stored, ok := s.orders[o.ID]
	if !ok {
		return apperr.NotFound("order %s", o.ID)
	}
	if stored.State != o.State || !o.State.CanTransitionTo(to) {
		return apperr.IllegalTransition("order %s: %s -> %s", o.ID, stored.State, to)
	}
	stored.State = to
	o.State = to
	return nil
}

func (s *MemStore) TransitionRefund(_ context.Context, r *models.Refund, to types.RefundState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RefundTransitions = append(s.RefundTransitions, Transition{ID: r.ID, From: string(r.State), To: string(to)})
	if s.TransitionErr != nil {
		return s.TransitionErr
	}
	stored, ok := s.refunds[r.ID]
	if !ok {
		return apperr.NotFound("refund %s", r.ID)
	}
	if stored.State != r.State || !r.State.CanTransitionTo(to) {
		return apperr.IllegalTransition("refund %s: %s -> %s", r.ID, stored.State, to)
	}
	stored.State = to
	r.State = to
	return nil
}

// StaticSecrets serves method secrets from a map.
type StaticSecrets map[string]string

func (s StaticSecrets) GetConfiguredSecret(_ context.Context, code string) (string, error) {
	v, ok := s[code]
	if !ok || v == "" {
		return "", apperr.Configuration("payment method %s is not configured", code)
	}
	return v, nil
}
