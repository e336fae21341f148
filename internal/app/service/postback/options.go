package postback

import (
	"time"

	cfgpkg "github.com/fatflowers/postback/pkg/config"
)

const gatewayName = "pagarme"

// Options selects the optional ingestion stages and their bounds.
type Options struct {
	MethodCode                  string
	DedupEnabled                bool
	RefundReconciliationEnabled bool
	// StoreTimeout bounds each persistence step.
	StoreTimeout time.Duration
	// LockTimeout bounds waiting for the per-transaction lock.
	LockTimeout time.Duration
}

func OptionsFromConfig(cfg *cfgpkg.Config) Options {
	return Options{
		MethodCode:                  cfg.Pagarme.MethodCode,
		DedupEnabled:                cfg.Postback.DedupEnabled,
		RefundReconciliationEnabled: cfg.Postback.RefundReconciliationEnabled,
		StoreTimeout:                cfg.Postback.StoreTimeout,
		LockTimeout:                 cfg.Postback.LockTimeout,
	}
}
