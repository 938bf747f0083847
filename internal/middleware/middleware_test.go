package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/carritos-api/internal/models"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
	"github.com/noah-isme/carritos-api/pkg/logger"
)

type stubValidator struct {
	claims map[string]*models.JWTClaims
}

func (s stubValidator) ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error) {
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
}

func newProtectedRouter(roles ...models.AdminRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator := stubValidator{claims: map[string]*models.JWTClaims{
		"admin-token": {AdminID: "a1", Username: "ana", Role: models.RoleAdmin},
		"super-token": {AdminID: "a2", Username: "root", Role: models.RoleSuperAdmin},
	}}
	r := gin.New()
	r.GET("/protected", JWT(validator), RBAC(roles...), func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.AdminID)
	})
	return r
}

func doGet(r http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	r := newProtectedRouter(models.RoleAdmin, models.RoleSuperAdmin)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Bearer ").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Bearer forged").Code)

	rec := doGet(r, "bearer admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a1", rec.Body.String())
}

func TestRBACRestrictsRoles(t *testing.T) {
	r := newProtectedRouter(models.RoleSuperAdmin)

	rec := doGet(r, "Bearer admin-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")

	assert.Equal(t, http.StatusOK, doGet(r, "Bearer super-token").Code)
}

func TestRBACWithoutJWTIsUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RBAC(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
}

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(logger.GinMiddleware(zap.New(core)))
	r.Use(func(c *gin.Context) {
		c.Set(ContextAdminKey, &models.JWTClaims{AdminID: "a1", Username: "ana"})
		c.Next()
	}, Audit())
	r.POST("/carros/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PUT("/carros/:id", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/carros/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodGet} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, "/carros/c1", nil))
	}

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "c1", fields["resource_id"])
	assert.Equal(t, "a1", fields["admin_id"])
}

type recordingObserver struct {
	paths []string
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.paths = append(r.paths, method+" "+path)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obs := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/carros/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/carros/123", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	assert.Equal(t, []string{"GET /carros/:id", "GET unmatched"}, obs.paths)
}

func TestResponseMetaIncludesProcessingTime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/x", func(c *gin.Context) {
		SetMeta(c, "total", 3)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	require.NotNil(t, meta)
	assert.Equal(t, 3, meta["total"])
	_, ok := meta["processing_time_ms"]
	assert.True(t, ok)
	_, leaked := meta["started_at"]
	assert.False(t, leaked)
}
