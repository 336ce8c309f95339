package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heilen-retreats/backend/internal/auth"
)

func newAuthRouter(t *testing.T, jwtService *auth.JWTService, roles ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{JWT(jwtService)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.MustGet(ContextUserID)})
	})
	r.GET("/secret", handlers...)
	return r
}

func get(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAcceptsValidToken(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	r := newAuthRouter(t, svc)

	token, err := svc.Generate(uuid.New(), "admin@example.com", "admin")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(r, "Bearer "+token).Code)
	// Scheme comparison is case-insensitive.
	assert.Equal(t, http.StatusOK, get(r, "bearer "+token).Code)
}

func TestJWTRejectsBadHeaders(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	r := newAuthRouter(t, svc)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "garbage"} {
		assert.Equal(t, http.StatusUnauthorized, get(r, header).Code, "header %q", header)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	other := auth.NewJWTService("other-secret", 1)
	token, err := other.Generate(uuid.New(), "a@example.com", "admin")
	require.NoError(t, err)

	r := newAuthRouter(t, auth.NewJWTService("test-secret", 1))
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+token).Code)
}

func TestJWTRejectsNilSubject(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	token, err := svc.Generate(uuid.Nil, "a@example.com", "admin")
	require.NoError(t, err)

	r := newAuthRouter(t, svc)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+token).Code)
}

func TestRequireRole(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	r := newAuthRouter(t, svc, "admin")

	adminToken, err := svc.Generate(uuid.New(), "a@example.com", "admin")
	require.NoError(t, err)
	businessToken, err := svc.Generate(uuid.New(), "b@example.com", "business")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(r, "Bearer "+adminToken).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "Bearer "+businessToken).Code)
}

func TestRequireRoleWithoutAuthContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secret", RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
}
