package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/fatflowers/postback/pkg/logctx"
	"github.com/fatflowers/postback/pkg/response"
)

// OperatorKey holds the authenticated admin subject in gin.Context.
const OperatorKey = "operator"

// AdminAuthMiddleware requires an HS256 bearer token signed with secret.
// The token subject becomes the operator of the request. An empty secret
// rejects every request.
func AdminAuthMiddleware(secret string, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, err := parseAdminToken(secret, c.GetHeader("Authorization"))
		if err != nil {
			logctx.FromGin(c, base).Warnw("admin_auth_failed", "security_event", true, "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "unauthorized"))
			return
		}
		c.Set(OperatorKey, operator)
		c.Next()
	}
}

func parseAdminToken(secret, header string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("admin jwt secret is not configured")
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", fmt.Errorf("missing bearer token")
	}
	claims := &jwt.StandardClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token without subject")
	}
	return claims.Subject, nil
}

// SignAdminToken issues a token for operator valid for ttl.
func SignAdminToken(secret, operator string, ttl time.Duration) (string, error) {
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   operator,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}).SignedString([]byte(secret))
}
