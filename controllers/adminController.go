package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/eliotaldersonfsociety/texasstore-api/middlewares"
	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const usersPerPage = 10

// GetUsers lists accounts and balances, optionally filtered by e-mail.
func (c *Controller) GetUsers(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)

	users, err := c.Accounts.Users(ctx.Request.Context(), client.Session.Token())
	if err != nil {
		c.handleError(ctx, client, err)
		return
	}

	if search := strings.ToLower(strings.TrimSpace(ctx.Query("search"))); search != "" {
		filtered := make([]models.UserBalance, 0, len(users))
		for _, u := range users {
			if strings.Contains(strings.ToLower(u.Email), search) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	bounds, metadata := paginate(len(users), page, usersPerPage)

	ctx.JSON(http.StatusOK, gin.H{
		"users":    users[bounds.start:bounds.end],
		"metadata": metadata,
	})
}

// UpdateUserBalance sets a user's balance to an absolute amount.
func (c *Controller) UpdateUserBalance(ctx *gin.Context) {
	var body struct {
		Email string           `json:"email" binding:"required,email"`
		Saldo *decimal.Decimal `json:"saldo" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.Saldo.IsNegative() {
		sendErrorResponse(ctx, http.StatusBadRequest, "saldo must not be negative")
		return
	}

	client := middlewares.CurrentClient(ctx)
	if err := c.Accounts.SetUserBalance(ctx.Request.Context(), client.Session.Token(), body.Email, *body.Saldo); err != nil {
		c.handleError(ctx, client, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message": "Saldo updated successfully.",
		"user":    models.UserBalance{Email: body.Email, Saldo: *body.Saldo},
	})
}
