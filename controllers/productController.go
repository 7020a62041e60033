package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/eliotaldersonfsociety/texasstore-api/catalog"
	"github.com/eliotaldersonfsociety/texasstore-api/middlewares"
	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/gin-gonic/gin"
)

// Common error response helper
func respondWithError(ctx *gin.Context, statusCode int, message string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	ctx.JSON(statusCode, gin.H{
		"message": message,
		"error":   errMsg,
	})
}

// GetProducts lists the catalog. An upstream failure shows up as an empty
// list, never as an error.
func (c *Controller) GetProducts(ctx *gin.Context) {
	var filters models.ProductFilters
	if err := ctx.ShouldBindQuery(&filters); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	if filters.PerPage <= 0 {
		filters.PerPage = catalog.DefaultPerPage
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}

	products := c.Catalog.ListProducts(ctx.Request.Context(), filters)

	ctx.JSON(http.StatusOK, gin.H{
		"products": products,
		"metadata": gin.H{
			"page":  filters.Page,
			"limit": filters.PerPage,
		},
	})
}

func (c *Controller) GetProduct(ctx *gin.Context) {
	productId, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid product ID", err)
		return
	}

	product := c.Catalog.GetProduct(ctx.Request.Context(), productId)
	if product == nil {
		respondWithError(ctx, http.StatusNotFound, "Product not found", nil)
		return
	}

	ctx.JSON(http.StatusOK, product)
}

func (c *Controller) GetCategoryProducts(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(catalog.DefaultPerPage)))
	products := c.Catalog.ProductsByCategory(ctx.Request.Context(), ctx.Param("category"), limit)

	ctx.JSON(http.StatusOK, gin.H{"products": products})
}

// SearchProducts serves the type-ahead. A query superseded by a newer one
// from the same client answers with stale=true and no products.
func (c *Controller) SearchProducts(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)

	products, err := client.Searcher.Search(ctx.Request.Context(), ctx.Query("q"))
	if errors.Is(err, catalog.ErrStale) {
		ctx.JSON(http.StatusOK, gin.H{"products": []models.Product{}, "stale": true})
		return
	}
	if err != nil {
		respondWithError(ctx, http.StatusRequestTimeout, "Search cancelled", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"products": products, "stale": false})
}
