package reports

import (
	"context"
	"testing"
	"time"

	"github.com/Madhav-Gupta-28/olist-insights/models"
	"github.com/Madhav-Gupta-28/olist-insights/store"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func at(t time.Time) *time.Time { return &t }

func score(n int) *int { return &n }

func nameLen(n int) *int { return &n }

func customer(id, unique, city, state string) models.Customer {
	return models.Customer{ID: id, CustomerUniqueID: unique, CustomerCity: city, CustomerState: state}
}

func product(id, category string, nameLength int) models.Product {
	return models.Product{ID: id, CategoryNameEnglish: category, NameLength: nameLen(nameLength)}
}

func item(productID, sellerID string, price, freight float64) models.OrderItem {
	return models.OrderItem{OrderItemID: 1, ProductID: productID, SellerID: sellerID, Price: price, FreightValue: freight}
}

func order(id, customerID string, purchased time.Time, items ...models.OrderItem) models.Order {
	for i := range items {
		items[i].OrderItemID = i + 1
	}
	return models.Order{
		ID:                id,
		CustomerID:        customerID,
		Status:            models.OrderStatusDelivered,
		PurchaseTimestamp: purchased,
		Items:             items,
	}
}

func insert[T any](t *testing.T, s *store.MemoryStore, collection string, docs ...T) {
	t.Helper()
	vals := make([]interface{}, len(docs))
	for i, d := range docs {
		vals[i] = d
	}
	require.NoError(t, s.InsertMany(context.Background(), collection, vals))
}

func run(t *testing.T, s *store.MemoryStore, id string) *Table {
	t.Helper()
	table, err := NewRunner(s, nil, nil).Run(context.Background(), id)
	require.NoError(t, err)
	return table
}

// column collects the values of one column in row order.
func column(table *Table, name string) []interface{} {
	out := make([]interface{}, len(table.Rows))
	for i, r := range table.Rows {
		out[i] = r[name]
	}
	return out
}

// marketplace is a small but complete data set touching every report.
func marketplace(t *testing.T) *store.MemoryStore {
	s := store.NewMemoryStore()
	insert(t, s, models.CollectionCustomers,
		customer("c1", "u1", "sao paulo", "SP"),
		customer("c2", "u2", "rio de janeiro", "RJ"),
		customer("c3", "u1", "campinas", "SP"),
		customer("c4", "u4", "sao paulo", "SP"),
	)
	insert(t, s, models.CollectionSellers,
		models.Seller{ID: "s1", SellerCity: "curitiba", SellerState: "PR"},
		models.Seller{ID: "s2", SellerCity: "sao paulo", SellerState: "SP"},
	)
	insert(t, s, models.CollectionProducts,
		product("p1", "toys", 40),
		product("p2", "bed_bath_table", 55),
		product("p3", models.UnknownCategory, 12),
	)

	o1 := order("o1", "c1", date(2017, time.November, 24), item("p1", "s1", 10.1, 5), item("p2", "s2", 20.2, 4.9))
	o1.ApprovedAt = at(date(2017, time.November, 24))
	o1.DeliveredCustomerDate = at(date(2017, time.December, 4))
	o1.EstimatedDeliveryDate = at(date(2017, time.December, 1))
	o1.Payments = []models.Payment{{PaymentSequential: 1, PaymentType: "credit_card", PaymentInstallments: 3, PaymentValue: 40.2}}
	o1.Review = &models.Review{ReviewID: "r1", ReviewScore: score(4)}

	o2 := order("o2", "c2", date(2017, time.December, 2), item("p1", "s1", 10, 10))
	o2.ApprovedAt = at(date(2017, time.December, 2))
	o2.DeliveredCustomerDate = at(date(2017, time.December, 8))
	o2.EstimatedDeliveryDate = at(date(2017, time.December, 20))
	o2.Payments = []models.Payment{{PaymentSequential: 1, PaymentType: "boleto", PaymentInstallments: 1, PaymentValue: 20}}
	o2.Review = &models.Review{ReviewID: "r2", ReviewScore: score(5)}

	o3 := order("o3", "c4", date(2018, time.January, 15), item("p3", "s2", 99.9, 15.1))
	o3.Payments = []models.Payment{
		{PaymentSequential: 1, PaymentType: "credit_card", PaymentInstallments: 1, PaymentValue: 100},
		{PaymentSequential: 2, PaymentType: "voucher", PaymentInstallments: 1, PaymentValue: 15},
	}

	insert(t, s, models.CollectionOrders, o1, o2, o3)
	return s
}
