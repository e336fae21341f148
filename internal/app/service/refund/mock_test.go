package refund

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/internal/platform/pagarme"
	"github.com/fatflowers/postback/internal/testutil"
	cfgpkg "github.com/fatflowers/postback/pkg/config"
	"github.com/fatflowers/postback/pkg/metrics"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) LookupTransaction(ctx context.Context, apiKey, transactionID string) (*pagarme.Transaction, error) {
	args := m.Called(ctx, apiKey, transactionID)
	tx, _ := args.Get(0).(*pagarme.Transaction)
	return tx, args.Error(1)
}

func (m *mockGateway) FindRefunds(ctx context.Context, apiKey, transactionID string) ([]pagarme.Refund, error) {
	args := m.Called(ctx, apiKey, transactionID)
	refunds, _ := args.Get(0).([]pagarme.Refund)
	return refunds, args.Error(1)
}

func (m *mockGateway) RefundTransaction(ctx context.Context, apiKey, transactionID string, amount int64, async bool) (*pagarme.Transaction, error) {
	args := m.Called(ctx, apiKey, transactionID, amount, async)
	tx, _ := args.Get(0).(*pagarme.Transaction)
	return tx, args.Error(1)
}

func (m *mockGateway) expectLookup(transactionID string, amount, refunded int64) {
	m.On("LookupTransaction", mock.Anything, "ak_test", transactionID).Return(&pagarme.Transaction{
		Status:         pagarme.TransactionStatusPaid,
		Amount:         amount,
		RefundedAmount: refunded,
		PaymentMethod:  "credit_card",
	}, nil)
}

type recordingHook struct {
	settled []string
	booked  map[string]bool
	err     error
}

func (h *recordingHook) OnRefundSettled(_ context.Context, _ *models.Payment, r *models.Refund) error {
	h.settled = append(h.settled, r.ID)
	if h.err != nil {
		return h.err
	}
	if h.booked == nil {
		h.booked = make(map[string]bool)
	}
	h.booked[r.ID] = true
	return nil
}

func (h *recordingHook) UnbookedRefunds(_ context.Context, refunds []*models.Refund) ([]*models.Refund, error) {
	var out []*models.Refund
	for _, r := range refunds {
		if !h.booked[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func testConfig() *cfgpkg.Config {
	return &cfgpkg.Config{Pagarme: cfgpkg.PagarmeConfig{MethodCode: "pagarme", Timeout: time.Second}}
}

func testMetrics(t *testing.T) *metrics.BusinessMetrics {
	t.Helper()
	m, err := metrics.NewBusinessMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func newReconciler(t *testing.T, store *testutil.MemStore, gw Gateway, hook SettlementHook) *Reconciler {
	t.Helper()
	return NewReconciler(store, store, gw, hook, testConfig(), testMetrics(t), zap.NewNop().Sugar())
}
