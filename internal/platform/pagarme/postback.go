package pagarme

import (
	"mime"
	"strings"

	"github.com/fatflowers/postback/pkg/apperr"
)

// Postback is one parsed gateway notification. It is immutable once parsed.
type Postback struct {
	TransactionID string
	Event         string
	Fingerprint   string
	Object        string
	OldStatus     TransactionStatus
	CurrentStatus TransactionStatus
	DesiredStatus TransactionStatus
	PaymentMethod string
	Values        Values
}

// ParsePostback decodes a form or JSON body. The transaction id and the
// current status are mandatory.
func ParsePostback(body []byte, contentType string) (*Postback, error) {
	if len(body) == 0 {
		return nil, apperr.Protocol("empty postback body")
	}
	var (
		vals Values
		err  error
	)
	if isJSON(contentType, body) {
		vals, err = ParseJSON(body)
	} else {
		vals, err = ParseForm(body)
	}
	if err != nil {
		return nil, err
	}

	pb := &Postback{
		TransactionID: vals.Get("id"),
		Event:         vals.Get("event"),
		Fingerprint:   vals.Get("fingerprint"),
		Object:        vals.Get("object"),
		OldStatus:     TransactionStatus(vals.Get("old_status")),
		CurrentStatus: TransactionStatus(vals.Get("current_status")),
		DesiredStatus: TransactionStatus(vals.Get("desired_status")),
		PaymentMethod: vals.Get("transaction[payment_method]"),
		Values:        vals,
	}
	if pb.TransactionID == "" {
		pb.TransactionID = vals.Get("transaction[id]")
	}
	if pb.TransactionID == "" {
		return nil, apperr.Protocol("postback without transaction id")
	}
	if pb.CurrentStatus == "" {
		return nil, apperr.Protocol("postback %s without current_status", pb.TransactionID)
	}
	return pb, nil
}

// Canonical is the byte string the gateway signs.
func (p *Postback) Canonical() []byte {
	return []byte(p.Values.Encode())
}

// Verify checks the canonical serialization first and the raw body second.
func (p *Postback) Verify(secret string, raw []byte, header string) bool {
	if VerifySignature(secret, p.Canonical(), header) {
		return true
	}
	return len(raw) > 0 && VerifySignature(secret, raw, header)
}

func isJSON(contentType string, body []byte) bool {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			return mt == "application/json" || strings.HasSuffix(mt, "+json")
		}
	}
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "{")
}
