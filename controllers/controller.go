package controllers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/eliotaldersonfsociety/texasstore-api/backend"
	"github.com/eliotaldersonfsociety/texasstore-api/checkout"
	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/eliotaldersonfsociety/texasstore-api/storefront"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Catalog interface {
	ListProducts(ctx context.Context, filters models.ProductFilters) []models.Product
	ProductsByCategory(ctx context.Context, category string, limit int) []models.Product
	GetProduct(ctx context.Context, id int64) *models.Product
}

type Accounts interface {
	Login(ctx context.Context, email, password string) (*backend.AuthResult, error)
	Register(ctx context.Context, data models.RegisterData) (*backend.AuthResult, error)
	Purchases(ctx context.Context, token string) ([]models.PurchaseRecord, error)
	Users(ctx context.Context, token string) ([]models.UserBalance, error)
	SetUserBalance(ctx context.Context, token, email string, saldo decimal.Decimal) error
}

type AvatarUploader interface {
	UploadAvatar(ctx context.Context, clientID, filename, contentType string, body io.Reader) (string, error)
}

// Controller holds what the HTTP handlers need. Uploader may be nil when
// no bucket is configured.
type Controller struct {
	Catalog  Catalog
	Accounts Accounts
	Uploader AvatarUploader
	Logger   *log.Logger
}

func New(catalog Catalog, accounts Accounts, uploader AvatarUploader, logger *log.Logger) *Controller {
	return &Controller{Catalog: catalog, Accounts: accounts, Uploader: uploader, Logger: logger}
}

// handleError maps domain and upstream failures to a response. A rejected
// token logs the client out before answering 401; when the money already
// moved the 401 says so.
func (c *Controller) handleError(ctx *gin.Context, client *storefront.Client, err error) {
	var apiErr *backend.APIError

	switch {
	case errors.Is(err, checkout.ErrRecordAfterPayment) && errors.Is(err, backend.ErrUnauthorized):
		c.clearSession(ctx, client)
		respondWithError(ctx, http.StatusUnauthorized, msgRecordAfterExpiry, err)

	case errors.Is(err, checkout.ErrRecordAfterPayment):
		respondWithError(ctx, http.StatusBadGateway, msgRecordAfterPayment, err)

	case errors.Is(err, backend.ErrUnauthorized):
		c.clearSession(ctx, client)
		sendErrorResponse(ctx, http.StatusUnauthorized, msgSessionExpired)

	case errors.Is(err, checkout.ErrInsufficientBalance),
		errors.Is(err, checkout.ErrInvalidAmount),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrPasswordMismatch),
		errors.Is(err, checkout.ErrInvalidRegistration):
		respondWithError(ctx, http.StatusBadRequest, "Request could not be completed", err)

	case errors.Is(err, checkout.ErrNotLoggedIn):
		sendErrorResponse(ctx, http.StatusUnauthorized, "Login required")

	case errors.Is(err, checkout.ErrWrongState),
		errors.Is(err, checkout.ErrUnknownOrder):
		respondWithError(ctx, http.StatusConflict, "Request conflicts with current state", err)

	case errors.Is(err, checkout.ErrNoPurchaseDetails):
		sendErrorResponse(ctx, http.StatusNotFound, "No purchase details found")

	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		respondWithError(ctx, http.StatusBadRequest, apiErr.Message, err)

	case errors.Is(err, backend.ErrMissingAuth), errors.As(err, &apiErr):
		respondWithError(ctx, http.StatusBadGateway, msgUpstreamUnavailable, err)

	default:
		c.Logger.Printf("Request failed: %v", err)
		respondWithError(ctx, http.StatusBadGateway, msgUpstreamUnavailable, err)
	}
}

func (c *Controller) clearSession(ctx *gin.Context, client *storefront.Client) {
	if err := client.Session.ClearSession(ctx.Request.Context()); err != nil {
		c.Logger.Printf("Failed to clear rejected session: %v", err)
	}
}
