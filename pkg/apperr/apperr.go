// Package apperr holds the error taxonomy shared by the postback pipeline.
// Errors are wrapped with fmt.Errorf("%w: ...") and matched with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means the payment method or its secret is missing.
	// Not retryable without operator intervention.
	ErrConfiguration = errors.New("configuration error")
	// ErrAuthentication means the postback signature is absent or does not match.
	ErrAuthentication = errors.New("authentication error")
	// ErrNotFound means no payment matches the postback transaction id.
	ErrNotFound = errors.New("not found")
	// ErrIllegalTransition means a state machine rejected a transition.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrGatewayCall means a call to the payment gateway failed or timed out.
	ErrGatewayCall = errors.New("gateway call failed")
	// ErrIllegalOperation means the gateway can never perform the request,
	// e.g. refunding a boleto.
	ErrIllegalOperation = errors.New("illegal operation")
	// ErrProtocol means the inbound request is malformed.
	ErrProtocol = errors.New("protocol error")
)

type Kind string

const (
	KindNone              Kind = ""
	KindConfiguration     Kind = "configuration"
	KindAuthentication    Kind = "authentication"
	KindNotFound          Kind = "not_found"
	KindIllegalTransition Kind = "illegal_transition"
	KindGatewayCall       Kind = "gateway_call"
	KindIllegalOperation  Kind = "illegal_operation"
	KindProtocol          Kind = "protocol"
	KindInternal          Kind = "internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrConfiguration, KindConfiguration},
	{ErrAuthentication, KindAuthentication},
	{ErrNotFound, KindNotFound},
	{ErrIllegalTransition, KindIllegalTransition},
	{ErrGatewayCall, KindGatewayCall},
	{ErrIllegalOperation, KindIllegalOperation},
	{ErrProtocol, KindProtocol},
}

// KindOf classifies err. Unclassified non-nil errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Retryable reports whether a later attempt may succeed without intervention.
func Retryable(err error) bool {
	return errors.Is(err, ErrGatewayCall)
}

func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func Authentication(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuthentication, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func IllegalTransition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalTransition, fmt.Sprintf(format, args...))
}

func IllegalOperation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalOperation, fmt.Sprintf(format, args...))
}

func Protocol(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

// GatewayCall wraps cause so that both ErrGatewayCall and cause match errors.Is.
func GatewayCall(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrGatewayCall, op, cause)
}
