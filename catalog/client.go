// Package catalog reads products from the WooCommerce-style catalog API.
//
// Every failure is logged and reported as an empty result, so an empty
// list may mean either "no matches" or "upstream error".
package catalog

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/go-resty/resty/v2"
)

const DefaultPerPage = 20

type Client struct {
	http   *resty.Client
	logger *log.Logger
}

func NewClient(baseURL, consumerKey, consumerSecret string, timeout time.Duration, logger *log.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(consumerKey, consumerSecret).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{http: http, logger: logger}
}

func (c *Client) ListProducts(ctx context.Context, filters models.ProductFilters) []models.Product {
	params := map[string]string{}
	if filters.Category != "" {
		params["category"] = filters.Category
	}
	if filters.Search != "" {
		params["search"] = filters.Search
	}
	if filters.PerPage > 0 {
		params["per_page"] = strconv.Itoa(filters.PerPage)
	}
	if filters.Page > 0 {
		params["page"] = strconv.Itoa(filters.Page)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/products")
	if err != nil {
		c.logger.Printf("catalog: error fetching products: %v", err)
		return []models.Product{}
	}
	if resp.IsError() {
		c.logger.Printf("catalog: error fetching products: status %d: %s", resp.StatusCode(), resp.Status())
		return []models.Product{}
	}

	var products []models.Product
	if err := json.Unmarshal(resp.Body(), &products); err != nil {
		c.logger.Printf("catalog: failed to parse products response: %v", err)
		return []models.Product{}
	}
	return products
}

func (c *Client) SearchProducts(ctx context.Context, query string, limit int) []models.Product {
	if query == "" {
		return []models.Product{}
	}
	return c.ListProducts(ctx, models.ProductFilters{Search: query, PerPage: limit})
}

func (c *Client) ProductsByCategory(ctx context.Context, category string, limit int) []models.Product {
	if limit <= 0 {
		limit = DefaultPerPage
	}
	return c.ListProducts(ctx, models.ProductFilters{Category: category, PerPage: limit})
}

// GetProduct returns nil when the product cannot be fetched.
func (c *Client) GetProduct(ctx context.Context, id int64) *models.Product {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		Get("/products/{id}")
	if err != nil {
		c.logger.Printf("catalog: error fetching product %d: %v", id, err)
		return nil
	}
	if resp.IsError() {
		c.logger.Printf("catalog: error fetching product %d: status %d", id, resp.StatusCode())
		return nil
	}

	var product models.Product
	if err := json.Unmarshal(resp.Body(), &product); err != nil {
		c.logger.Printf("catalog: failed to parse product %d: %v", id, err)
		return nil
	}
	return &product
}
