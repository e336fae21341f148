package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/postback/internal/app/api/server"
	"github.com/fatflowers/postback/internal/app/service/commerce"
	"github.com/fatflowers/postback/internal/app/service/ledger"
	"github.com/fatflowers/postback/internal/app/service/payment"
	"github.com/fatflowers/postback/internal/app/service/paymentmethod"
	"github.com/fatflowers/postback/internal/app/service/postback"
	postbacklog "github.com/fatflowers/postback/internal/app/service/postback_log"
	"github.com/fatflowers/postback/internal/app/service/refund"
	"github.com/fatflowers/postback/internal/app/service/statistics"
	"github.com/fatflowers/postback/internal/platform/db"
	"github.com/fatflowers/postback/internal/platform/events"
	"github.com/fatflowers/postback/internal/platform/locker"
	"github.com/fatflowers/postback/internal/platform/pagarme"
	"github.com/fatflowers/postback/internal/platform/telemetry"
	"github.com/fatflowers/postback/pkg/config"
	"github.com/fatflowers/postback/pkg/logger"
	"github.com/fatflowers/postback/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	telemetry.Module,
	db.Module,
	events.Module,
	locker.Module,
	pagarme.Module,
	bindings,
	commerce.Module,
	paymentmethod.Module,
	ledger.Module,
	payment.Module,
	refund.Module,
	postbacklog.Module,
	statistics.Module,
	postback.Module,
	server.Module,
)
