package middlewares

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/eliotaldersonfsociety/texasstore-api/storage"
	"github.com/eliotaldersonfsociety/texasstore-api/storefront"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) (*gin.Engine, *storefront.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := storefront.NewRegistry(storefront.Deps{
		Storage: storage.NewMemoryStore(),
		Search:  func(context.Context, string, int) []models.Product { return nil },
	}, log.New(io.Discard, "", 0))

	engine := gin.New()
	engine.Use(ClientIdentity(registry, false))
	engine.GET("/whoami", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, CurrentClient(ctx).ID)
	})
	engine.GET("/private", RequireSession(), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	engine.GET("/admin", RequireAdmin(), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	return engine, registry
}

func get(engine *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestClientIdentityIssuesCookie(t *testing.T) {
	engine, _ := newEngine(t)

	rec := get(engine, "/whoami", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ClientCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, cookies[0].Value, rec.Body.String())
}

func TestClientIdentityReusesValidCookie(t *testing.T) {
	engine, registry := newEngine(t)
	id := uuid.NewString()

	rec := get(engine, "/whoami", &http.Cookie{Name: ClientCookie, Value: id})
	assert.Equal(t, id, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 1, registry.Len())
}

func TestClientIdentityReplacesMalformedCookie(t *testing.T) {
	engine, _ := newEngine(t)

	rec := get(engine, "/whoami", &http.Cookie{Name: ClientCookie, Value: "../../etc"})
	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "../../etc", rec.Body.String())
	_, err := uuid.Parse(rec.Body.String())
	assert.NoError(t, err)
}

func TestRequireSessionAndAdmin(t *testing.T) {
	engine, registry := newEngine(t)
	cookie := &http.Cookie{Name: ClientCookie, Value: uuid.NewString()}

	assert.Equal(t, http.StatusUnauthorized, get(engine, "/private", cookie).Code)
	assert.Equal(t, http.StatusUnauthorized, get(engine, "/admin", cookie).Code)

	client := registry.Get(context.Background(), cookie.Value)
	user := models.UserSession{ID: "1", Email: "a@example.com"}
	require.NoError(t, client.Session.SetSession(context.Background(), user, "opaque"))

	assert.Equal(t, http.StatusNoContent, get(engine, "/private", cookie).Code)
	assert.Equal(t, http.StatusForbidden, get(engine, "/admin", cookie).Code)

	user.IsAdmin = true
	require.NoError(t, client.Session.SetSession(context.Background(), user, "opaque"))
	assert.Equal(t, http.StatusNoContent, get(engine, "/admin", cookie).Code)
}
