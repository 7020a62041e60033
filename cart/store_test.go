package cart

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/eliotaldersonfsociety/texasstore-api/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	return NewStore(mem, log.New(io.Discard, "", 0)), mem
}

func item(id int64, price string, qty int) models.CartItem {
	return models.CartItem{ID: id, Name: "item", Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestAddItemMergesUpToMax(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		adds []int
		want int
	}{
		{"single", []int{3}, 3},
		{"merged", []int{3, 4}, 7},
		{"capped", []int{6, 6}, 10},
		{"many", []int{2, 2, 2, 2, 2, 2}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, _ := newTestStore(t)
			for _, q := range tc.adds {
				err := store.AddItem(ctx, item(1, "9.99", q))
				if err != nil {
					require.ErrorIs(t, err, ErrMaxQuantity)
				}
			}
			items := store.Items()
			require.Len(t, items, 1)
			assert.Equal(t, tc.want, items[0].Quantity)
		})
	}
}

func TestAddItemAtMaxSignalsAndKeepsState(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	var notices []Notice
	store.Subscribe(func(n Notice) { notices = append(notices, n) })

	require.NoError(t, store.AddItem(ctx, item(1, "5", 10)))
	err := store.AddItem(ctx, item(1, "5", 1))
	assert.ErrorIs(t, err, ErrMaxQuantity)
	assert.Equal(t, 10, store.Items()[0].Quantity)

	require.Len(t, notices, 2)
	assert.Equal(t, Added, notices[0].Kind)
	assert.Equal(t, MaxQuantity, notices[1].Kind)
	assert.False(t, notices[1].Success())
}

func TestAddItemRejectsInvalidPrice(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()
	var got []Notice
	store.Subscribe(func(n Notice) { got = append(got, n) })

	err := store.AddItem(ctx, models.CartItem{ID: 4, Name: "no price", Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.Empty(t, store.Items())
	assert.False(t, store.IsOpen())

	_, err = mem.Get(ctx, keyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.Len(t, got, 1)
	assert.Equal(t, InvalidPrice, got[0].Kind)
}

func TestAddItemOpensPreview(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.AddItem(context.Background(), item(1, "1", 1)))
	assert.True(t, store.IsOpen())
	store.SetOpen(false)
	assert.False(t, store.IsOpen())
}

func TestQuantityBounds(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddItem(ctx, item(1, "2", 1)))

	require.NoError(t, store.DecreaseQuantity(ctx, 1))
	assert.Equal(t, 1, store.Items()[0].Quantity)

	for i := 0; i < 15; i++ {
		require.NoError(t, store.IncreaseQuantity(ctx, 1))
	}
	assert.Equal(t, 10, store.Items()[0].Quantity)

	require.NoError(t, store.SetQuantity(ctx, 1, 0))
	assert.Equal(t, 1, store.Items()[0].Quantity)
	require.NoError(t, store.SetQuantity(ctx, 1, 42))
	assert.Equal(t, 10, store.Items()[0].Quantity)
	require.NoError(t, store.SetQuantity(ctx, 1, 4))
	assert.Equal(t, 4, store.Items()[0].Quantity)

	require.NoError(t, store.IncreaseQuantity(ctx, 99))
	assert.Len(t, store.Items(), 1)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	var removed int
	store.Subscribe(func(n Notice) {
		if n.Kind == Removed {
			removed++
		}
	})

	require.NoError(t, store.AddItem(ctx, item(1, "2", 1)))
	require.NoError(t, store.RemoveItem(ctx, 1))
	require.NoError(t, store.RemoveItem(ctx, 1))
	assert.Empty(t, store.Items())
	assert.Equal(t, 2, removed)
}

func TestTotal(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	assert.True(t, store.Total().IsZero())

	require.NoError(t, store.AddItem(ctx, item(1, "10", 2)))
	require.NoError(t, store.AddItem(ctx, item(2, "5", 1)))
	assert.True(t, decimal.NewFromInt(25).Equal(store.Total()), store.Total().String())
	assert.Equal(t, 3, store.Count())
}

func TestPersistenceRoundTrip(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, item(1, "10", 2)))
	require.NoError(t, store.AddItem(ctx, item(2, "5", 1)))

	reloaded := NewStore(mem, log.New(io.Discard, "", 0))
	reloaded.Load(ctx)
	got := reloaded.Items()
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, 2, got[0].Quantity)
	assert.Equal(t, int64(2), got[1].ID)
	assert.True(t, store.Total().Equal(reloaded.Total()))

	require.NoError(t, store.Clear(ctx))
	reloaded.Load(ctx)
	assert.Empty(t, reloaded.Items())
}

func TestLoadDiscardsMalformed(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, keyCart, "definitely not json", 0))
	store.Load(ctx)
	assert.Empty(t, store.Items())

	_, err := mem.Get(ctx, keyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoadSanitizesEntries(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	raw := `[{"id":1,"name":"a","price":3,"quantity":40},{"id":2,"name":"b","price":0,"quantity":1},{"id":1,"name":"dup","price":3,"quantity":1}]`
	require.NoError(t, mem.Set(ctx, keyCart, raw, 0))
	store.Load(ctx)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, 10, items[0].Quantity)
}

func TestSubtractKeepsUnpaidLines(t *testing.T) {
	ctx := context.Background()
	store, mem := newTestStore(t)
	require.NoError(t, store.AddItem(ctx, item(1, "10", 2)))
	require.NoError(t, store.AddItem(ctx, item(2, "5", 1)))
	paid := models.SnapshotItems(store.Items())

	require.NoError(t, store.AddItem(ctx, item(1, "10", 1)))
	require.NoError(t, store.AddItem(ctx, item(3, "7", 4)))

	require.NoError(t, store.Subtract(ctx, paid))
	items := store.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, int64(3), items[1].ID)
	assert.Equal(t, 4, items[1].Quantity)

	reloaded := NewStore(mem, log.New(io.Discard, "", 0))
	reloaded.Load(ctx)
	assert.Len(t, reloaded.Items(), 2)
}

func TestSubtractEverythingEmptiesCart(t *testing.T) {
	ctx := context.Background()
	store, mem := newTestStore(t)
	require.NoError(t, store.AddItem(ctx, item(1, "10", 2)))

	var notices []Notice
	store.Subscribe(func(n Notice) { notices = append(notices, n) })

	require.NoError(t, store.Subtract(ctx, models.SnapshotItems(store.Items())))
	assert.Empty(t, store.Items())
	_, err := mem.Get(ctx, keyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.Len(t, notices, 1)
	assert.Equal(t, Cleared, notices[0].Kind)
}
