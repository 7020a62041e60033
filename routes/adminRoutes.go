package routes

import (
	"github.com/eliotaldersonfsociety/texasstore-api/controllers"
	"github.com/eliotaldersonfsociety/texasstore-api/middlewares"
	"github.com/gin-gonic/gin"
)

func AdminRoutes(server *gin.Engine, c *controllers.Controller) {
	admin := server.Group("/admin", middlewares.RequireAdmin())
	{
		admin.GET("/users", c.GetUsers)
		admin.PUT("/users/balance", c.UpdateUserBalance)
		admin.GET("/purchases", c.GetPurchases)
	}
}
