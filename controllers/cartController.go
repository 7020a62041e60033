package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/eliotaldersonfsociety/texasstore-api/cart"
	"github.com/eliotaldersonfsociety/texasstore-api/middlewares"
	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/eliotaldersonfsociety/texasstore-api/storefront"
	"github.com/gin-gonic/gin"
)

const msgCartUpdateFailed = "Unable to update cart"

func cartBody(client *storefront.Client) gin.H {
	return gin.H{
		"items": client.Cart.Items(),
		"count": client.Cart.Count(),
		"total": client.Cart.Total(),
		"open":  client.Cart.IsOpen(),
	}
}

func (c *Controller) GetCart(ctx *gin.Context) {
	sendJSONResponse(ctx, http.StatusOK, gin.H{"cart": cartBody(middlewares.CurrentClient(ctx))})
}

// CreateCartItem adds a product by id. Name, price and image come from the
// catalog, never from the request.
func (c *Controller) CreateCartItem(ctx *gin.Context) {
	var body struct {
		ProductID int64 `json:"id" binding:"required"`
		Quantity  int   `json:"quantity"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid input")
		return
	}

	product := c.Catalog.GetProduct(ctx.Request.Context(), body.ProductID)
	if product == nil {
		sendErrorResponse(ctx, http.StatusNotFound, "Product not found")
		return
	}

	price, _ := product.UnitPrice()
	item := models.CartItem{
		ID:       product.ID,
		Name:     product.Name,
		Price:    price,
		Quantity: body.Quantity,
		Image:    product.MainImage(),
	}

	client := middlewares.CurrentClient(ctx)
	if err := client.Cart.AddItem(ctx.Request.Context(), item); err != nil {
		c.cartError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{
		"message": item.Name + " added to cart",
		"cart":    cartBody(client),
	})
}

func (c *Controller) UpdateCartItem(ctx *gin.Context) {
	id, ok := cartItemID(ctx)
	if !ok {
		return
	}
	var body struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid input")
		return
	}

	client := middlewares.CurrentClient(ctx)
	if err := client.Cart.SetQuantity(ctx.Request.Context(), id, *body.Quantity); err != nil {
		c.cartError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"cart": cartBody(client)})
}

func (c *Controller) IncreaseCartItem(ctx *gin.Context) {
	c.stepCartItem(ctx, (*cart.Store).IncreaseQuantity)
}

func (c *Controller) DecreaseCartItem(ctx *gin.Context) {
	c.stepCartItem(ctx, (*cart.Store).DecreaseQuantity)
}

func (c *Controller) stepCartItem(ctx *gin.Context, step func(*cart.Store, context.Context, int64) error) {
	id, ok := cartItemID(ctx)
	if !ok {
		return
	}

	client := middlewares.CurrentClient(ctx)
	if err := step(client.Cart, ctx.Request.Context(), id); err != nil {
		c.cartError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"cart": cartBody(client)})
}

func (c *Controller) DeleteCartItem(ctx *gin.Context) {
	id, ok := cartItemID(ctx)
	if !ok {
		return
	}

	client := middlewares.CurrentClient(ctx)
	if err := client.Cart.RemoveItem(ctx.Request.Context(), id); err != nil {
		c.cartError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Product removed from cart", "cart": cartBody(client)})
}

func (c *Controller) ClearCart(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)
	if err := client.Cart.Clear(ctx.Request.Context()); err != nil {
		c.cartError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Cart emptied", "cart": cartBody(client)})
}

// SetCartPreview opens or closes the cart preview.
func (c *Controller) SetCartPreview(ctx *gin.Context) {
	var body struct {
		Open bool `json:"open"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid input")
		return
	}

	client := middlewares.CurrentClient(ctx)
	client.Cart.SetOpen(body.Open)
	sendJSONResponse(ctx, http.StatusOK, gin.H{"cart": cartBody(client)})
}

func cartItemID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse product id")
		return 0, false
	}
	return id, true
}

func (c *Controller) cartError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrMaxQuantity):
		respondWithError(ctx, http.StatusConflict, "Maximum quantity reached", err)
	case errors.Is(err, cart.ErrInvalidPrice):
		respondWithError(ctx, http.StatusBadRequest, "Product has no valid price", err)
	default:
		c.Logger.Println("Cart storage error:", err)
		respondWithError(ctx, http.StatusInternalServerError, msgCartUpdateFailed, err)
	}
}
