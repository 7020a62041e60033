package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to Texas Store API. Enjoy seamless interaction with this API.

The following are the endpoints for this API:

AUTH
- POST "/auth/login" - Access user account
- POST "/auth/register" - Create user account
- POST "/auth/logout" - Log out and empty the cart
- GET "/auth/session" - Current session
- GET "/auth/avatars" - Preset avatars
- PUT "/auth/avatar" - Choose a preset avatar
- POST "/auth/avatar/upload" - Upload an avatar image

PRODUCT
- GET "/products" - List products (category, search, per_page, page)
- GET "/products/search?q=" - Type-ahead search
- GET "/products/:id" - Get product by ID
- GET "/categories/:category/products" - Products in a category

CART
- GET "/cart" - Current cart
- POST "/cart" - Add a product
- PATCH "/cart/:id" - Set quantity
- POST "/cart/:id/increase" - Add one
- POST "/cart/:id/decrease" - Remove one
- DELETE "/cart/:id" - Remove a product
- DELETE "/cart" - Empty the cart
- PUT "/cart/preview" - Open or close the preview

CHECKOUT
- POST "/checkout" - Start checkout
- GET "/checkout" - Checkout state
- POST "/checkout/login" - Log in during checkout
- POST "/checkout/register" - Register during checkout
- GET "/checkout/balance" - Current balance
- POST "/checkout/balance" - Pay with balance
- POST "/checkout/paypal/orders" - Create a PayPal order
- POST "/checkout/paypal/orders/:orderId/capture" - Capture an approved PayPal order
- POST "/checkout/paypal/error" - Report a PayPal error
- GET "/checkout/confirmation" - Purchase confirmation (read once)
- GET "/purchases" - Purchase history

ADMIN
- GET "/admin/users" - Users and balances
- PUT "/admin/users/balance" - Set a user's balance
- GET "/admin/purchases" - Purchases`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
