package routes

import (
	"github.com/eliotaldersonfsociety/texasstore-api/controllers"
	"github.com/gin-gonic/gin"
)

func CartRoutes(server *gin.Engine, c *controllers.Controller) {
	server.GET("/cart", c.GetCart)
	server.POST("/cart", c.CreateCartItem)
	server.DELETE("/cart", c.ClearCart)
	server.PUT("/cart/preview", c.SetCartPreview)
	server.PATCH("/cart/:id", c.UpdateCartItem)
	server.POST("/cart/:id/increase", c.IncreaseCartItem)
	server.POST("/cart/:id/decrease", c.DecreaseCartItem)
	server.DELETE("/cart/:id", c.DeleteCartItem)
}
