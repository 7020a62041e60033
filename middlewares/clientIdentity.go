package middlewares

import (
	"net/http"

	"github.com/eliotaldersonfsociety/texasstore-api/storefront"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ClientCookie = "sid"
	clientKey    = "client"
	// Matches the longest lived value kept for a client, the avatar.
	clientCookieMaxAge = 10 * 365 * 24 * 60 * 60
)

// ClientIdentity attaches the storefront client named by the sid cookie,
// issuing a fresh id when the cookie is missing or malformed. Secure
// cookies are sent SameSite=None so a frontend on another origin keeps
// them.
func ClientIdentity(registry *storefront.Registry, secure bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, err := ctx.Cookie(ClientCookie)
		if err != nil || !validClientID(id) {
			id = uuid.NewString()
			if secure {
				ctx.SetSameSite(http.SameSiteNoneMode)
			} else {
				ctx.SetSameSite(http.SameSiteLaxMode)
			}
			ctx.SetCookie(ClientCookie, id, clientCookieMaxAge, "/", "", secure, true)
		}

		ctx.Set(clientKey, registry.Get(ctx.Request.Context(), id))
		ctx.Next()
	}
}

func validClientID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// CurrentClient returns the client set by ClientIdentity.
func CurrentClient(ctx *gin.Context) *storefront.Client {
	client, _ := ctx.MustGet(clientKey).(*storefront.Client)
	return client
}
