package dump

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Madhav-Gupta-28/olist-insights/models"
	"github.com/Madhav-Gupta-28/olist-insights/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *store.MemoryStore {
	s := store.NewMemoryStore()
	require.NoError(t, s.Insert(models.CollectionCustomers,
		models.Customer{ID: "c1", CustomerUniqueID: "u1", CustomerCity: "sao paulo", CustomerState: "SP"},
	))
	delivered := time.Date(2017, 10, 10, 21, 25, 13, 0, time.UTC)
	require.NoError(t, s.Insert(models.CollectionOrders, models.Order{
		ID:                    "o1",
		CustomerID:            "c1",
		Status:                models.OrderStatusDelivered,
		PurchaseTimestamp:     time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC),
		DeliveredCustomerDate: &delivered,
		Items:                 []models.OrderItem{{OrderItemID: 1, ProductID: "p1", SellerID: "s1", Price: 40, FreightValue: 8.72}},
		Payments:              []models.Payment{},
	}))
	return s
}

func TestWriteAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := seeded(t)
	require.NoError(t, Write(ctx, src, dir, nil))

	raw, err := os.ReadFile(filepath.Join(dir, "orders.json"))
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "[\n    {\n        \"_id\": \"o1\""), text)
	assert.Contains(t, text, `"$date": "2017-10-10T21:25:13Z"`)
	assert.Contains(t, text, `"price": 40.0`)

	dst := store.NewMemoryStore()
	require.NoError(t, Load(ctx, dir, dst))

	for _, name := range []string{models.CollectionCustomers, models.CollectionOrders} {
		want, err := src.Documents(ctx, name)
		require.NoError(t, err)
		got, err := dst.Documents(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	ctx := context.Background()
	a, b := t.TempDir(), t.TempDir()
	require.NoError(t, Write(ctx, seeded(t), a, nil))
	require.NoError(t, Write(ctx, seeded(t), b, nil))

	first, err := os.ReadFile(filepath.Join(a, "orders.json"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(b, "orders.json"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadEmptyDir(t *testing.T) {
	err := Load(context.Background(), t.TempDir(), store.NewMemoryStore())
	assert.ErrorContains(t, err, "no .json files")
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.json"), []byte(`[{"_id": {"$numberLong": "x"}}]`), 0o644))
	err := Load(context.Background(), dir, store.NewMemoryStore())
	assert.ErrorContains(t, err, "orders document 0")
}
