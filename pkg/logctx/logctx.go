package logctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ctxKey string

const (
	// LoggerKey and TraceIDKey are shared with the gin middlewares, which
	// store values under the same plain string names.
	LoggerKey  = "logger"
	TraceIDKey = "traceID"

	transactionKey ctxKey = "transaction_id"
)

// FromGin returns a request-scoped logger from gin.Context if present,
// otherwise returns the provided base logger.
func FromGin(c *gin.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return base
	}
	if l, ok := c.Get(LoggerKey); ok {
		if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
			return lg
		}
	}
	return FromCtx(c.Request.Context(), base)
}

// FromCtx returns a logger from context if set, otherwise attempts to enrich
// base with trace_id/transaction_id from context values.
func FromCtx(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return base
	}
	if lg, ok := ctx.Value(LoggerKey).(*zap.SugaredLogger); ok && lg != nil {
		return withTransaction(ctx, lg)
	}
	var fields []interface{}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok && tid != "" {
		fields = append(fields, "trace_id", tid)
	}
	if len(fields) > 0 {
		base = base.With(fields...)
	}
	return withTransaction(ctx, base)
}

// WithTransactionID tags ctx so loggers derived from it carry the gateway
// transaction id.
func WithTransactionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, transactionKey, id)
}

func TransactionID(ctx context.Context) string {
	id, _ := ctx.Value(transactionKey).(string)
	return id
}

// TraceID returns the request trace id stored by the trace middleware.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(TraceIDKey).(string)
	return id
}

func withTransaction(ctx context.Context, lg *zap.SugaredLogger) *zap.SugaredLogger {
	if id := TransactionID(ctx); id != "" {
		return lg.With("transaction_id", id)
	}
	return lg
}
