package controllers

import (
	"errors"
	"math"
	"net/http"
	"sort"
	"strconv"

	"github.com/eliotaldersonfsociety/texasstore-api/middlewares"
	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const purchasesPerPage = 10

func (c *Controller) BeginCheckout(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)

	state, err := client.Checkout.Begin(ctx.Request.Context())
	if err != nil {
		c.handleError(ctx, client, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"state": state.String(), "total": client.Cart.Total()})
}

func (c *Controller) GetCheckout(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)

	lastError := ""
	if err := client.Checkout.LastError(); err != nil {
		lastError = err.Error()
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"state":     client.Checkout.State().String(),
		"lastError": lastError,
		"cart":      cartBody(client),
	})
}

func (c *Controller) CheckoutLogin(ctx *gin.Context) {
	var loginData models.LoginData
	if err := ctx.ShouldBindJSON(&loginData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	client := middlewares.CurrentClient(ctx)
	if err := client.Checkout.Login(ctx.Request.Context(), loginData.Email, loginData.Password); err != nil {
		c.handleError(ctx, client, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": msgLoginSuccess, "state": client.Checkout.State().String()})
}

// CheckoutRegister leaves field validation to the orchestrator, which
// reports incomplete data and password mismatch itself.
func (c *Controller) CheckoutRegister(ctx *gin.Context) {
	var registerData models.RegisterData
	if err := ctx.ShouldBindJSON(&registerData); err != nil && !isValidationError(err) {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	client := middlewares.CurrentClient(ctx)
	if err := client.Checkout.Register(ctx.Request.Context(), registerData); err != nil {
		c.handleError(ctx, client, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"message": msgRegisterSuccess, "state": client.Checkout.State().String()})
}

func (c *Controller) GetBalance(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)

	saldo, err := client.Checkout.Balance(ctx.Request.Context())
	if err != nil {
		c.handleError(ctx, client, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"saldo": saldo, "total": client.Cart.Total()})
}

func (c *Controller) PayWithBalance(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)

	purchase, err := client.Checkout.PayWithBalance(ctx.Request.Context())
	if err != nil {
		c.handleError(ctx, client, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Payment completed", "purchase": purchase})
}

func (c *Controller) CreatePayPalOrder(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)

	orderID, err := client.Checkout.CreatePayPalOrder(ctx.Request.Context())
	if err != nil {
		c.handleError(ctx, client, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"id": orderID})
}

func (c *Controller) CapturePayPalOrder(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)

	purchase, err := client.Checkout.ApprovePayPal(ctx.Request.Context(), ctx.Param("orderId"))
	if err != nil {
		c.handleError(ctx, client, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Payment completed", "purchase": purchase})
}

// PayPalError lets the browser report a failure raised inside the PayPal
// buttons.
func (c *Controller) PayPalError(ctx *gin.Context) {
	var body struct {
		Message string `json:"message"`
	}
	_ = ctx.ShouldBindJSON(&body)

	client := middlewares.CurrentClient(ctx)
	var reported error
	if body.Message != "" {
		reported = errors.New(body.Message)
	}
	client.Checkout.PayPalFailed(ctx.Request.Context(), reported)
	sendJSONResponse(ctx, http.StatusOK, gin.H{"state": client.Checkout.State().String()})
}

// GetConfirmation returns the finished purchase once; the second call is 404.
func (c *Controller) GetConfirmation(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)

	purchase, err := client.Checkout.Confirmation(ctx.Request.Context())
	if err != nil {
		c.handleError(ctx, client, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"purchase": purchase})
}

// GetPurchases is the caller's purchase history, newest first.
func (c *Controller) GetPurchases(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)

	purchases, err := c.Accounts.Purchases(ctx.Request.Context(), client.Session.Token())
	if err != nil {
		c.handleError(ctx, client, err)
		return
	}

	sort.SliceStable(purchases, func(i, j int) bool {
		return purchases[i].CreatedAt.After(purchases[j].CreatedAt)
	})

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageItems, metadata := paginate(len(purchases), page, purchasesPerPage)

	var mostRecent *models.PurchaseRecord
	if len(purchases) > 0 {
		mostRecent = &purchases[0]
	}

	ctx.JSON(http.StatusOK, gin.H{
		"purchases":  purchases[pageItems.start:pageItems.end],
		"mostRecent": mostRecent,
		"metadata":   metadata,
	})
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

type pageBounds struct{ start, end int }

func paginate(count, page, limit int) (pageBounds, gin.H) {
	totalPages := int(math.Ceil(float64(count) / float64(limit)))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * limit
	end := min(start+limit, count)

	previousPage := page - 1
	nextPage := page + 1
	return pageBounds{start: start, end: end}, gin.H{
		"total":        count,
		"currentPage":  page,
		"limit":        limit,
		"totalPages":   totalPages,
		"hasPrevPage":  previousPage > 0,
		"hasNextPage":  totalPages > page,
		"previousPage": previousPage,
		"nextPage":     nextPage,
	}
}
