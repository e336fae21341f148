package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AdminAuthMiddleware(secret, zap.NewNop().Sugar()))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(OperatorKey))
	})
	return r
}

func doAuth(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminAuth_ValidToken(t *testing.T) {
	r := newAuthRouter("s3cret")
	token, err := SignAdminToken("s3cret", "alice", time.Minute)
	require.NoError(t, err)

	w := doAuth(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "alice", w.Body.String())
}

func TestAdminAuth_Rejections(t *testing.T) {
	r := newAuthRouter("s3cret")
	wrongKey, err := SignAdminToken("other", "alice", time.Minute)
	require.NoError(t, err)
	expired, err := SignAdminToken("s3cret", "alice", -time.Minute)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Minute).Unix()}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.StandardClaims{Subject: "alice"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":    "",
		"not bearer": "Basic abc",
		"garbage":    "Bearer abc.def.ghi",
		"wrong key":  "Bearer " + wrongKey,
		"expired":    "Bearer " + expired,
		"no subject": "Bearer " + noSubject,
		"hs512":      "Bearer " + hs512,
	} {
		w := doAuth(r, header)
		require.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}

func TestAdminAuth_EmptySecretRejects(t *testing.T) {
	r := newAuthRouter("")
	token, err := SignAdminToken("", "alice", time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, doAuth(r, "Bearer "+token).Code)
}

func TestTraceAndRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware(), SpanMiddleware(), RequestLoggerMiddleware(zap.NewNop().Sugar()), AccessLogMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		id, _ := c.Get("traceID")
		c.String(http.StatusOK, id.(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "req-42", w.Body.String())
	require.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NotEmpty(t, w.Body.String())
}
