package handlers

import (
	"net/http"

	"github.com/fatflowers/postback/pkg/apperr"
	"github.com/fatflowers/postback/pkg/response"
)

// codeFor maps an error to the envelope code admin endpoints return.
func codeFor(err error) response.APIResponseCode {
	switch apperr.KindOf(err) {
	case apperr.KindProtocol:
		return response.APIResponseCodeBadRequest
	case apperr.KindNotFound:
		return response.APIResponseCodeNotFound
	case apperr.KindIllegalOperation, apperr.KindIllegalTransition:
		return response.APIResponseCodeConflict
	case apperr.KindAuthentication:
		return response.APIResponseCodeUnauthorized
	default:
		return response.APIResponseCodeError
	}
}

// postbackStatus maps an ingestion error to the HTTP status the gateway
// sees. 5xx makes the gateway redeliver; an unknown transaction is
// acknowledged so it does not.
func postbackStatus(err error) (int, response.APIResponseCode) {
	switch apperr.KindOf(err) {
	case apperr.KindNone:
		return http.StatusOK, response.APIResponseCodeOK
	case apperr.KindNotFound:
		return http.StatusOK, response.APIResponseCodeRejected
	case apperr.KindAuthentication:
		return http.StatusUnauthorized, response.APIResponseCodeUnauthorized
	case apperr.KindProtocol:
		return http.StatusBadRequest, response.APIResponseCodeBadRequest
	default:
		return http.StatusInternalServerError, response.APIResponseCodeError
	}
}
