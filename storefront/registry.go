// Package storefront keeps the live state of every browser client: its
// session, cart, checkout and type-ahead search.
package storefront

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/eliotaldersonfsociety/texasstore-api/cart"
	"github.com/eliotaldersonfsociety/texasstore-api/catalog"
	"github.com/eliotaldersonfsociety/texasstore-api/checkout"
	"github.com/eliotaldersonfsociety/texasstore-api/session"
	"github.com/eliotaldersonfsociety/texasstore-api/storage"
)

const DefaultSearchLimit = 5

type Deps struct {
	Storage     storage.Storage
	Backend     checkout.Backend
	Gateway     checkout.Gateway
	Search      catalog.SearchFunc
	Checkout    checkout.Config
	SearchDelay time.Duration
	SearchLimit int
}

type Client struct {
	ID       string
	Session  *session.Store
	Cart     *cart.Store
	Checkout *checkout.Orchestrator
	Searcher *catalog.Searcher

	load     sync.Once
	lastSeen time.Time
}

type Registry struct {
	deps   Deps
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*Client
}

func NewRegistry(deps Deps, logger *log.Logger) *Registry {
	if deps.SearchLimit <= 0 {
		deps.SearchLimit = DefaultSearchLimit
	}
	return &Registry{
		deps:    deps,
		logger:  logger,
		now:     time.Now,
		clients: make(map[string]*Client),
	}
}

// Get returns the client for id, building it and loading its persisted
// state on first use. Concurrent callers for a new id wait for the load,
// which outlives a cancelled first request.
func (r *Registry) Get(ctx context.Context, id string) *Client {
	r.mu.Lock()
	c, ok := r.clients[id]
	if !ok {
		c = r.build(id)
		r.clients[id] = c
	}
	c.lastSeen = r.now()
	r.mu.Unlock()

	c.load.Do(func() {
		loadCtx := context.WithoutCancel(ctx)
		c.Session.Load(loadCtx)
		c.Cart.Load(loadCtx)
		c.Checkout.Load(loadCtx)
	})
	return c
}

func (r *Registry) build(id string) *Client {
	scoped := storage.Namespace(r.deps.Storage, id)

	sess := session.NewStore(scoped, r.logger)
	c := cart.NewStore(scoped, r.logger)
	c.Subscribe(func(n cart.Notice) {
		r.logger.Printf("cart %s: %s item=%d %s", id, n.Kind, n.ItemID, n.Message)
	})

	return &Client{
		ID:       id,
		Session:  sess,
		Cart:     c,
		Checkout: checkout.NewOrchestrator(sess, c, scoped, r.deps.Backend, r.deps.Gateway, r.deps.Checkout, r.logger),
		Searcher: catalog.NewSearcher(r.deps.Search, r.deps.SearchDelay, r.deps.SearchLimit),
	}
}

// Sweep drops clients idle for longer than maxIdle. Their state stays in
// storage and is reloaded on the next request.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	dropped := 0
	for id, c := range r.clients {
		if c.lastSeen.Before(cutoff) {
			delete(r.clients, id)
			dropped++
		}
	}
	return dropped
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
