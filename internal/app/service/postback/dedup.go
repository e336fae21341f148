package postback

import "github.com/fatflowers/postback/internal/platform/pagarme"

// IsNoOp reports a postback whose status did not change. The gateway sends
// these on retries and for events unrelated to the transaction status.
func IsNoOp(pb *pagarme.Postback) bool {
	return pb.OldStatus == pb.CurrentStatus
}
