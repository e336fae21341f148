package postback

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/postback/internal/app/service/commerce"
	"github.com/fatflowers/postback/internal/app/service/payment"
	"github.com/fatflowers/postback/internal/app/service/paymentmethod"
	"github.com/fatflowers/postback/internal/app/service/postback_log"
	"github.com/fatflowers/postback/internal/app/service/refund"
	"github.com/fatflowers/postback/internal/platform/locker"
	cfgpkg "github.com/fatflowers/postback/pkg/config"
	"github.com/fatflowers/postback/pkg/metrics"
)

type params struct {
	fx.In

	Config       *cfgpkg.Config
	Store        *commerce.Store
	Methods      *paymentmethod.Store
	Orchestrator *payment.Orchestrator
	Reconciler   *refund.Reconciler
	Locker       locker.Locker
	Logs         *postback_log.Service
	Metrics      *metrics.BusinessMetrics
	Log          *zap.SugaredLogger
}

func newHandler(p params) *Handler {
	return NewHandler(OptionsFromConfig(p.Config), Deps{
		Payments:     p.Store,
		Secrets:      p.Methods,
		Orchestrator: p.Orchestrator,
		Reconciler:   p.Reconciler,
		Locker:       p.Locker,
		Logs:         p.Logs,
		Metrics:      p.Metrics,
	}, p.Log)
}

var Module = fx.Options(
	fx.Provide(newHandler),
)
