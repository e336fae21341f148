package paymentmethod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/postback/internal/testutil"
	"github.com/fatflowers/postback/pkg/apperr"
	cfgpkg "github.com/fatflowers/postback/pkg/config"
)

func newStore(t *testing.T) *Store {
	cfg := &cfgpkg.Config{Pagarme: cfgpkg.PagarmeConfig{APIKeyArg: "apiKey"}}
	return NewStore(testutil.NewDB(t), cfg, zap.NewNop().Sugar())
}

func TestGetConfiguredSecret(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Seed(ctx, []*cfgpkg.PaymentMethodSeed{
		{Code: "pagarme", Enabled: true, Args: []cfgpkg.ConfigArg{{Name: "apiKey", Value: "ak_test"}}},
		{Code: "nokey", Enabled: true, Args: []cfgpkg.ConfigArg{{Name: "encryptionKey", Value: "ek"}}},
		{Code: "off", Enabled: false, Args: []cfgpkg.ConfigArg{{Name: "apiKey", Value: "ak"}}},
	}))

	secret, err := s.GetConfiguredSecret(ctx, "pagarme")
	require.NoError(t, err)
	require.Equal(t, "ak_test", secret)

	for _, code := range []string{"missing", "nokey", "off"} {
		_, err := s.GetConfiguredSecret(ctx, code)
		require.ErrorIs(t, err, apperr.ErrConfiguration, code)
		require.NotErrorIs(t, err, apperr.ErrAuthentication)
	}
}

func TestSeed_Upserts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seed := &cfgpkg.PaymentMethodSeed{Code: "pagarme", Enabled: true, Args: []cfgpkg.ConfigArg{{Name: "apiKey", Value: "old"}}}
	require.NoError(t, s.Seed(ctx, []*cfgpkg.PaymentMethodSeed{seed}))

	seed.Args[0].Value = "new"
	require.NoError(t, s.Seed(ctx, []*cfgpkg.PaymentMethodSeed{seed}))

	m, err := s.Get(ctx, "pagarme")
	require.NoError(t, err)
	require.Equal(t, "pagarme", m.Handler)
	v, _ := m.Arg("apiKey")
	require.Equal(t, "new", v)

	require.NoError(t, s.Seed(ctx, nil))
}
