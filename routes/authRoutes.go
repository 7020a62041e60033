package routes

import (
	"github.com/eliotaldersonfsociety/texasstore-api/controllers"
	"github.com/eliotaldersonfsociety/texasstore-api/middlewares"
	"github.com/gin-gonic/gin"
)

func AuthRoutes(server *gin.Engine, c *controllers.Controller) {
	auth := server.Group("/auth")
	{
		auth.POST("/login", c.Login)
		auth.POST("/register", c.Register)
		auth.POST("/logout", c.Logout)
		auth.GET("/session", c.GetSession)
		auth.GET("/avatars", c.GetAvatars)
		auth.PUT("/avatar", middlewares.RequireSession(), c.SetAvatar)
		auth.POST("/avatar/upload", middlewares.RequireSession(), c.UploadAvatar)
	}
}
