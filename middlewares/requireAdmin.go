package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RequireSession() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		client := CurrentClient(ctx)
		if client == nil || !client.Session.LoggedIn() {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Login required"})
			return
		}

		ctx.Next()
	}
}

// RequireAdmin trusts the session flag or the token's role claim. The
// backend still enforces the role on every admin call.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		client := CurrentClient(ctx)
		if client == nil || !client.Session.LoggedIn() {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
			return
		}

		if !client.Session.IsAdmin() {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}

		ctx.Next()
	}
}
