package app

import (
	"go.uber.org/fx"

	"github.com/fatflowers/postback/internal/app/service/commerce"
	"github.com/fatflowers/postback/internal/app/service/ledger"
	"github.com/fatflowers/postback/internal/app/service/payment"
	"github.com/fatflowers/postback/internal/app/service/paymentmethod"
	"github.com/fatflowers/postback/internal/app/service/refund"
	"github.com/fatflowers/postback/internal/platform/pagarme"
)

// bindings expose the concrete stores and clients under the narrow
// interfaces the services depend on.
var bindings = fx.Options(
	fx.Provide(
		func(s *commerce.Store) payment.Repository { return s },
		func(s *commerce.Store) payment.StateMachine { return s },
		func(s *commerce.Store) refund.Repository { return s },
		func(s *commerce.Store) refund.StateMachine { return s },
		func(s *commerce.Store) refund.PaymentStore { return s },
		func(s *paymentmethod.Store) refund.SecretStore { return s },
		func(c *pagarme.Client) refund.Gateway { return c },
		func(l *ledger.Service) refund.SettlementHook { return l },
	),
)
