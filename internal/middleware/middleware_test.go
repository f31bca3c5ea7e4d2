package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"avenue/internal/auth"
	"avenue/internal/logger"
	"avenue/internal/metrics"
	"avenue/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func issue(t *testing.T, tokens *auth.Tokens, role string) (string, primitive.ObjectID) {
	t.Helper()
	id := primitive.NewObjectID()
	token, _, err := tokens.Issue(&models.User{ID: id, Role: role, Email: "x@avenue.test"})
	require.NoError(t, err)
	return token, id
}

func TestAdminOnly(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Minute)
	reached := false
	r := gin.New()
	r.POST("/admin", AdminOnly(tokens, logger.Nop()), func(c *gin.Context) {
		reached = true
		claims, ok := Claims(c)
		require.True(t, ok)
		assert.True(t, claims.IsAdmin())
		c.Status(http.StatusCreated)
	})

	adminToken, _ := issue(t, tokens, models.RoleAdmin)
	userToken, _ := issue(t, tokens, models.RoleUser)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusForbidden},
		{"malformed", "Token abc", http.StatusForbidden},
		{"invalid", "Bearer not.a.jwt", http.StatusForbidden},
		{"user role", "Bearer " + userToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusForbidden {
				assert.False(t, reached)
				assert.JSONEq(t, `{"message":"Forbidden"}`, w.Body.String())
			}
		})
	}
}

func TestUserAuthSetsUserID(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Minute)
	token, id := issue(t, tokens, models.RoleUser)

	r := gin.New()
	r.GET("/me", UserAuth(tokens, nil), func(c *gin.Context) {
		got, ok := UserID(c)
		require.True(t, ok)
		c.String(http.StatusOK, got.Hex())
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.Hex(), w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(logger.Nop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestLoggingRecordsRoutePattern(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	reg := prometheus.NewRegistry()
	m := metrics.NewHTTPMetrics(reg)

	r := gin.New()
	r.Use(RequestID(logg), Logging(logg, m))
	r.GET("/api/geo/countries/:id/counties", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/geo/countries/"+primitive.NewObjectID().Hex()+"/counties", nil))
	}

	series, err := testutil.GatherAndCount(reg, "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
	assert.Contains(t, buf.String(), "request.complete")
	assert.Contains(t, buf.String(), `"route":"/api/geo/countries/:id/counties"`)
	assert.Contains(t, buf.String(), "request_id")
}

func TestRecovererReturns500(t *testing.T) {
	r := gin.New()
	r.Use(Recoverer(logger.Nop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, w.Body.String())
}
