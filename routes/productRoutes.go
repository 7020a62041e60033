package routes

import (
	"github.com/eliotaldersonfsociety/texasstore-api/controllers"
	"github.com/gin-gonic/gin"
)

func ProductRoutes(server *gin.Engine, c *controllers.Controller) {
	server.GET("/products", c.GetProducts)
	server.GET("/products/search", c.SearchProducts)
	server.GET("/products/:id", c.GetProduct)
	server.GET("/categories/:category/products", c.GetCategoryProducts)
}
