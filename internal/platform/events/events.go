// Package events publishes entity state changes to Kafka or NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/fatflowers/postback/pkg/config"
	"github.com/fatflowers/postback/pkg/types"
)

const (
	TypePaymentStateChanged = "payment.state_changed"
	TypeOrderStateChanged   = "order.state_changed"
	TypeRefundStateChanged  = "refund.state_changed"
)

// Event describes one committed state transition.
type Event struct {
	Type          string           `json:"type"`
	EntityType    types.EntityType `json:"entity_type"`
	EntityID      string           `json:"entity_id"`
	From          string           `json:"from"`
	To            string           `json:"to"`
	TransactionID string           `json:"transaction_id,omitempty"`
	TraceID       string           `json:"trace_id,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// TypeFor returns the event type emitted for entity transitions.
func TypeFor(entity types.EntityType) string {
	switch entity {
	case types.EntityTypeOrder:
		return TypeOrderStateChanged
	case types.EntityTypeRefund:
		return TypeRefundStateChanged
	default:
		return TypePaymentStateChanged
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

func encode(e Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	return b, nil
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// New selects the publisher from events.driver and closes it on stop.
func New(lc fx.Lifecycle, cfg *cfgpkg.Config, log *zap.SugaredLogger) (Publisher, error) {
	var (
		p   Publisher
		err error
	)
	switch cfg.Events.Driver {
	case cfgpkg.EventsDriverKafka:
		p, err = NewKafka(cfg.Events.Brokers, cfg.Events.Topic)
	case cfgpkg.EventsDriverNATS:
		p, err = NewNATS(cfg.Events.NATSURL, cfg.Events.Subject)
	case cfgpkg.EventsDriverNone, "":
		p = Noop{}
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Events.Driver)
	}
	if err != nil {
		return nil, err
	}
	log.Infow("event publisher ready", "driver", cfg.Events.Driver)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return p.Close()
		},
	})
	return p, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
