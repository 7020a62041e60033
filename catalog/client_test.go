package catalog

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsJSON = `[
  {"id": 11, "name": "Brake pads", "price": "24.50", "regular_price": "30.00", "sale_price": "24.50",
   "images": [{"src": "https://img/1.png"}], "categories": [{"id": 18, "name": "Automotriz", "slug": "automotriz"}],
   "attributes": [{"name": "Size", "options": ["S", "M"]}], "average_rating": "4.50", "rating_count": 8},
  {"id": 12, "name": "Oil", "price": "", "regular_price": "9.99", "sale_price": ""}
]`

func newCatalog(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "ck_test", "cs_test", 5*time.Second, log.New(io.Discard, "", 0))
}

func TestListProductsSendsAuthAndFilters(t *testing.T) {
	var gotQuery map[string]string
	client := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck_test" || pass != "cs_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/products", r.URL.Path)
		gotQuery = map[string]string{
			"category": r.URL.Query().Get("category"),
			"per_page": r.URL.Query().Get("per_page"),
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, productsJSON)
	})

	products := client.ProductsByCategory(context.Background(), "18", 0)
	require.Len(t, products, 2)
	assert.Equal(t, map[string]string{"category": "18", "per_page": "20"}, gotQuery)

	price, ok := products[0].UnitPrice()
	assert.True(t, ok)
	assert.Equal(t, "24.5", price.String())
	assert.Equal(t, "https://img/1.png", products[0].MainImage())
	assert.Equal(t, []string{"S", "M"}, products[0].Attributes[0].Options)

	price, ok = products[1].UnitPrice()
	assert.True(t, ok, "falls back to regular price")
	assert.Equal(t, "9.99", price.String())
}

func TestListProductsUpstreamErrorIsEmpty(t *testing.T) {
	client := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	products := client.ListProducts(context.Background(), models.ProductFilters{})
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.Nil(t, client.GetProduct(context.Background(), 11))
}

func TestSearchProducts(t *testing.T) {
	client := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "brake", r.URL.Query().Get("search"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		io.WriteString(w, `[{"id": 11, "name": "Brake pads", "price": "24.50"}]`)
	})

	products := client.SearchProducts(context.Background(), "brake", 5)
	require.Len(t, products, 1)
	assert.Empty(t, client.SearchProducts(context.Background(), "", 5))
}

func TestGetProduct(t *testing.T) {
	client := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/11" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `{"id": 11, "name": "Brake pads", "price": "24.50", "description": "<p>Front</p>"}`)
	})

	p := client.GetProduct(context.Background(), 11)
	require.NotNil(t, p)
	assert.Equal(t, "Brake pads", p.Name)
	assert.Nil(t, client.GetProduct(context.Background(), 99))
}

func TestSearcherCoalescesAndDropsStale(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	search := func(_ context.Context, query string, _ int) []models.Product {
		mu.Lock()
		calls = append(calls, query)
		mu.Unlock()
		return []models.Product{{Name: query}}
	}
	s := NewSearcher(search, 50*time.Millisecond, 5)
	ctx := context.Background()

	type result struct {
		products []models.Product
		err      error
	}
	first := make(chan result, 1)
	go func() {
		p, err := s.Search(ctx, "bra")
		first <- result{p, err}
	}()
	time.Sleep(10 * time.Millisecond)

	products, err := s.Search(ctx, "brake")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "brake", products[0].Name)

	r := <-first
	assert.ErrorIs(t, r.err, ErrStale)

	mu.Lock()
	assert.Equal(t, []string{"brake"}, calls)
	mu.Unlock()
}

func TestSearcherDropsResponseForChangedQuery(t *testing.T) {
	var s *Searcher
	search := func(_ context.Context, query string, _ int) []models.Product {
		// The user keeps typing while the request is in flight.
		s.mu.Lock()
		s.current = query + "s"
		s.mu.Unlock()
		return []models.Product{{Name: query}}
	}
	s = NewSearcher(search, time.Millisecond, 5)

	_, err := s.Search(context.Background(), "pad")
	assert.ErrorIs(t, err, ErrStale)
}

func TestSearcherHonoursContext(t *testing.T) {
	s := NewSearcher(func(context.Context, string, int) []models.Product { return nil }, time.Second, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Search(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
