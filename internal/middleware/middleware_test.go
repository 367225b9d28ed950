package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/utils"
)

const testSecret = "test-secret"

func protected(e *echo.Echo, mws ...echo.MiddlewareFunc) {
	e.GET("/admin/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user": UserID(c), "role": c.Get(CtxRole)})
	}, mws...)
}

func do(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	e := echo.New()
	protected(e, JWTAuth(testSecret), RequireRole("authenticated"))

	good, err := utils.NewAccessToken(testSecret, "planner-1", "authenticated", 5)
	require.NoError(t, err)
	rec := do(e, good.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"planner-1","role":"authenticated"}`, rec.Body.String())

	anon, err := utils.NewAccessToken(testSecret, "x", "anon", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(e, anon.Token).Code)

	other, err := utils.NewAccessToken("other-secret", "planner-1", "authenticated", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, other.Token).Code)

	assert.Equal(t, http.StatusUnauthorized, do(e, "").Code)
}

func TestJWTAuth_RejectsExpiredAndNoneAlg(t *testing.T) {
	e := echo.New()
	protected(e, JWTAuth(testSecret))

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "p", "role": "authenticated", "exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, expired).Code)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "p"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, none).Code)
}

func TestUserID_Anonymous(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, "anon", UserID(c))
	c.Set(CtxUserID, "u1")
	assert.Equal(t, "u1", UserID(c))
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0, 0})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 0, 99})
	assert.False(t, ok)
}

func TestCacheKeyFrom(t *testing.T) {
	e := echo.New()
	mk := func(target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/admin/guests/unassigned")
		return c
	}
	cfg := config.CacheConfig{Prefix: "seating:cache", KeyStrategy: "route_query"}

	a := cacheKeyFrom(cfg, mk("/v1/admin/guests/unassigned?search=ana"))
	b := cacheKeyFrom(cfg, mk("/v1/admin/guests/unassigned?search=luis"))
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "seating:cache:")

	cfg.KeyStrategy = "route"
	assert.Equal(t, cacheKeyFrom(cfg, mk("/x?search=ana")), cacheKeyFrom(cfg, mk("/x?search=luis")))
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("defg"))
	assert.Equal(t, "abcd", cw.buf.String())
	assert.Equal(t, int64(7), cw.size)
	assert.Equal(t, "abcdefg", rec.Body.String())
}

func TestMiddlewareWithoutRedisPassesThrough(t *testing.T) {
	e := echo.New()
	cacheCfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, Prefix: "p"}
	rlCfg := config.RateLimitConfig{Enabled: true, Capacity: 1}
	protected(e, NewTokenBucket(rlCfg, nil, nil), NewRedisCache(cacheCfg, nil), InvalidateCache(cacheCfg, nil, nil))

	for i := 0; i < 3; i++ {
		rec := do(e, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/rsvp/abc", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/rsvp/:token")

	cfg := config.RateLimitConfig{Prefix: "seating:rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "seating:rl:ip:10.0.0.7:route:POST /v1/rsvp/:token", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "seating:rl:user:anon", buildRateKey(cfg, c))
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 0, retryAfterSeconds(-5))
	assert.Equal(t, 1, retryAfterSeconds(1))
	assert.Equal(t, 3, retryAfterSeconds(2001))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slogJSON(&buf)
	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "down") })
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	out := buf.String()
	assert.Contains(t, out, `"uri":"/ok"`)
	assert.Contains(t, out, `"status":204`)
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"status":502`)
}

func slogJSON(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}
