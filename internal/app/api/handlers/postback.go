package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/postback/internal/app/service/postback"
	"github.com/fatflowers/postback/pkg/apperr"
	"github.com/fatflowers/postback/pkg/logctx"
	"github.com/fatflowers/postback/pkg/response"
)

const maxPostbackBody = 1 << 20

type PostbackIngester interface {
	Ingest(ctx context.Context, req postback.Request) (*postback.Result, error)
}

// @Summary      Pagar.me postback
// @Description  Receives a Pagar.me transaction postback (form or JSON body) signed with the X-Hub-Signature header.
// @Tags         Webhook
// @Accept       x-www-form-urlencoded
// @Accept       json
// @Produce      json
// @Param        X-Hub-Signature header string true "sha1=<hex HMAC of the payload>"
// @Success      200  {object}  handlers.RespPostback
// @Failure      400  {object}  handlers.RespOK
// @Failure      401  {object}  handlers.RespOK
// @Failure      500  {object}  handlers.RespOK
// @Router       /api/v1/pagarme/postback [post]
func ApiPagarmePostback(h PostbackIngester, signatureHeader string, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPostbackBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, response.ErrorT[any](response.APIResponseCodeBadRequest, "postback body too large"))
				return
			}
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		res, err := h.Ingest(c.Request.Context(), postback.Request{
			Body:        body,
			ContentType: c.ContentType(),
			Signature:   c.GetHeader(signatureHeader),
			TraceID:     c.GetString(logctx.TraceIDKey),
			ReceivedAt:  time.Now(),
		})
		status, code := postbackStatus(err)
		if err != nil {
			logctx.FromGin(c, log).Debugw("postback_response", "status", status, "kind", apperr.KindOf(err))
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(status, response.OKT(res))
	}
}

func RegisterPostbackRoutes(r gin.IRouter, h PostbackIngester, signatureHeader string, log *zap.SugaredLogger) {
	r.POST("/pagarme/postback", ApiPagarmePostback(h, signatureHeader, log))
}

// RegisterLegacyPostbackRoute mounts the path the gateway dashboards of the
// previous deployment point at.
func RegisterLegacyPostbackRoute(r gin.IRouter, h PostbackIngester, signatureHeader string, log *zap.SugaredLogger) {
	r.POST("/pagarme-postback", ApiPagarmePostback(h, signatureHeader, log))
}
