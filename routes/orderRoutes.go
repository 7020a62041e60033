package routes

import (
	"github.com/eliotaldersonfsociety/texasstore-api/controllers"
	"github.com/eliotaldersonfsociety/texasstore-api/middlewares"
	"github.com/gin-gonic/gin"
)

func OrderRoutes(server *gin.Engine, c *controllers.Controller) {
	checkout := server.Group("/checkout")
	{
		checkout.POST("", c.BeginCheckout)
		checkout.GET("", c.GetCheckout)
		checkout.POST("/login", c.CheckoutLogin)
		checkout.POST("/register", c.CheckoutRegister)
		checkout.GET("/balance", middlewares.RequireSession(), c.GetBalance)
		checkout.POST("/balance", middlewares.RequireSession(), c.PayWithBalance)
		checkout.POST("/paypal/orders", middlewares.RequireSession(), c.CreatePayPalOrder)
		checkout.POST("/paypal/orders/:orderId/capture", middlewares.RequireSession(), c.CapturePayPalOrder)
		checkout.POST("/paypal/error", c.PayPalError)
		checkout.GET("/confirmation", c.GetConfirmation)
	}
	server.GET("/purchases", middlewares.RequireSession(), c.GetPurchases)
}
