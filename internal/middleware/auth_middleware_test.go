package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fitness_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	chain := append([]gin.HandlerFunc{AuthMiddleware()}, extra...)
	chain = append(chain, func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "role": CurrentUserRole(c)})
	})
	engine.GET("/protected", chain...)
	return engine
}

func doRequest(engine *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	rec := doRequest(newProtectedRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	rec := doRequest(newProtectedRouter(), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	rec := doRequest(newProtectedRouter(), "Bearer not.a.token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	token, err := utils.GenerateAccessToken(7, "lena@example.com", utils.RoleMember)
	require.NoError(t, err)

	rec := doRequest(newProtectedRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
	assert.Contains(t, rec.Body.String(), utils.RoleMember)
}

func TestRoleAuthMiddlewareBlocksMembers(t *testing.T) {
	token, err := utils.GenerateAccessToken(7, "lena@example.com", utils.RoleMember)
	require.NoError(t, err)

	rec := doRequest(newProtectedRouter(RoleAuthMiddleware(utils.RoleAdmin)), "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoleAuthMiddlewareAllowsAdmins(t *testing.T) {
	token, err := utils.GenerateAccessToken(1, "admin@example.com", utils.RoleAdmin)
	require.NoError(t, err)

	rec := doRequest(newProtectedRouter(RoleAuthMiddleware(utils.RoleAdmin)), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
}
