package handlers

import (
	"github.com/fatflowers/postback/internal/app/service/commerce"
	"github.com/fatflowers/postback/internal/app/service/postback"
	"github.com/fatflowers/postback/internal/app/service/postback_log"
	"github.com/fatflowers/postback/internal/app/service/refund"
	"github.com/fatflowers/postback/internal/app/service/statistics"
	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespPostback wraps postback.Result in the standard envelope.
type RespPostback struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    postback.Result          `json:"data"`
}

type RespListPayments struct {
	Code    response.APIResponseCode      `json:"code"`
	Message string                        `json:"message"`
	Data    commerce.ScanPaymentsResponse `json:"data"`
}

type RespListPostbackLogs struct {
	Code    response.APIResponseCode  `json:"code"`
	Message string                    `json:"message"`
	Data    postback_log.ScanResponse `json:"data"`
}

type RespRefund struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Refund            `json:"data"`
}

type RespReconcile struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    refund.ReconcileResult   `json:"data"`
}

// RespPostbackStatistic wraps statistics.Response in the standard envelope.
type RespPostbackStatistic struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    statistics.Response      `json:"data"`
}
