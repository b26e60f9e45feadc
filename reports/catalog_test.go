package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Madhav-Gupta-28/olist-insights/models"
	"github.com/Madhav-Gupta-28/olist-insights/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCatalogFind(t *testing.T) {
	c := DefaultCatalog()
	require.Len(t, c, 10)

	q, err := c.Find("4")
	require.NoError(t, err)
	assert.Equal(t, "average-delivery-time-per-seller", q.Slug)

	q, err = c.Find(" Top-Cities-By-Customers ")
	require.NoError(t, err)
	assert.Equal(t, 8, q.Number)

	_, err = c.Find("11")
	assert.ErrorIs(t, err, ErrUnknownQuery)
	_, err = c.Find("best-customers")
	assert.ErrorIs(t, err, ErrUnknownQuery)
}

func TestCatalogIsWellFormed(t *testing.T) {
	slugs := map[string]bool{}
	for i, q := range DefaultCatalog() {
		assert.Equal(t, i+1, q.Number)
		assert.False(t, slugs[q.Slug], "duplicate slug %s", q.Slug)
		slugs[q.Slug] = true
		assert.NotEmpty(t, q.Title)
		assert.NotEmpty(t, q.Columns)
		assert.NotEmpty(t, q.Charts)
		assert.Contains(t, []string{models.CollectionOrders, models.CollectionCustomers}, q.Collection)
		assert.NotEmpty(t, q.Pipeline.Mongo())
	}
}

func TestMonthlySalesTrends(t *testing.T) {
	table := run(t, marketplace(t), "1")

	assert.Equal(t, []string{"year", "month", "total_sales", "date"}, table.Columns)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, Row{
		"year":        int64(2017),
		"month":       int64(11),
		"total_sales": 30.3,
		"date":        time.Date(2017, time.November, 1, 0, 0, 0, 0, time.UTC),
	}, table.Rows[0])
	assert.Equal(t, 10.0, table.Rows[1]["total_sales"])
	assert.Equal(t, []interface{}{int64(2017), int64(2017), int64(2018)}, column(table, "year"))
	assert.Equal(t, 99.9, table.Rows[2]["total_sales"])
}

func TestAverageOrderValueSingleState(t *testing.T) {
	s := store.NewMemoryStore()
	insert(t, s, models.CollectionCustomers, customer("c1", "u1", "sao paulo", "SP"))
	insert(t, s, models.CollectionOrders,
		order("o1", "c1", date(2018, time.May, 1), item("p1", "s1", 10, 5), item("p2", "s1", 20, 5)))

	table := run(t, s, "average-order-value-by-state")
	assert.Equal(t, []Row{{"customer_state": "SP", "average_order_value": 40.0}}, table.Rows)
}

func TestAverageOrderValueByState(t *testing.T) {
	table := run(t, marketplace(t), "2")

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "SP", table.Rows[0]["customer_state"])
	assert.InDelta(t, (40.2+115)/2, table.Rows[0]["average_order_value"], 1e-9)
	assert.Equal(t, "RJ", table.Rows[1]["customer_state"])
	assert.InDelta(t, 20.0, table.Rows[1]["average_order_value"], 1e-9)
}

func TestMostPopularProducts(t *testing.T) {
	table := run(t, marketplace(t), "3")

	assert.Equal(t, []interface{}{"p1", "p2", "p3"}, column(table, "product_id"))
	assert.Equal(t, Row{
		"product_id":          "p1",
		"purchase_count":      int64(2),
		"product_category":    "toys",
		"product_name_length": int64(40),
	}, table.Rows[0])
	assert.Equal(t, models.UnknownCategory, table.Rows[2]["product_category"])
}

func TestMostPopularProductsKeepsTopTen(t *testing.T) {
	s := store.NewMemoryStore()
	insert(t, s, models.CollectionCustomers, customer("c1", "u1", "sao paulo", "SP"))
	var orders []models.Order
	for p := 1; p <= 12; p++ {
		id := fmt.Sprintf("p%02d", p)
		insert(t, s, models.CollectionProducts, product(id, "toys", p))
		for n := 0; n < p; n++ {
			orders = append(orders, order(fmt.Sprintf("o-%s-%d", id, n), "c1", date(2018, 1, 1), item(id, "s1", 1, 1)))
		}
	}
	insert(t, s, models.CollectionOrders, orders...)

	table := run(t, s, "most-popular-products")
	require.Len(t, table.Rows, TopN)
	assert.Equal(t, "p12", table.Rows[0]["product_id"])
	assert.Equal(t, int64(12), table.Rows[0]["purchase_count"])
	assert.Equal(t, "p03", table.Rows[9]["product_id"])
}

func TestAverageDeliveryTimeThreshold(t *testing.T) {
	s := store.NewMemoryStore()
	insert(t, s, models.CollectionCustomers, customer("c1", "u1", "sao paulo", "SP"))

	var orders []models.Order
	deliver := func(seller string, n int, took time.Duration) {
		for i := 0; i < n; i++ {
			o := order(fmt.Sprintf("%s-%d", seller, i), "c1", date(2018, 3, 1), item("p1", seller, 10, 1))
			o.ApprovedAt = at(date(2018, 3, 1))
			o.DeliveredCustomerDate = at(date(2018, 3, 1).Add(took))
			orders = append(orders, o)
		}
	}
	deliver("s1", MinSellerDeliveries, 48*time.Hour)
	deliver("s2", MinSellerDeliveries-1, time.Hour)
	deliver("s3", MinSellerDeliveries, 36*time.Hour)

	undelivered := order("s2-pending", "c1", date(2018, 3, 1), item("p1", "s2", 10, 1))
	undelivered.ApprovedAt = at(date(2018, 3, 1))
	orders = append(orders, undelivered)
	insert(t, s, models.CollectionOrders, orders...)

	table := run(t, s, "4")
	assert.Equal(t, []Row{
		{"seller_id": "s3", "average_delivery_time_in_days": 1.5, "delivery_count": int64(10)},
		{"seller_id": "s1", "average_delivery_time_in_days": 2.0, "delivery_count": int64(10)},
	}, table.Rows)
}

func TestTopRatedProductsThreshold(t *testing.T) {
	s := store.NewMemoryStore()
	insert(t, s, models.CollectionCustomers, customer("c1", "u1", "sao paulo", "SP"))
	insert(t, s, models.CollectionProducts,
		product("p1", "toys", 10),
		product("p2", "toys", 20),
		product("p3", "toys", 30),
		product("p4", "toys", 40),
	)

	var orders []models.Order
	review := func(productID string, n int, scoreOf func(i int) int) {
		for i := 0; i < n; i++ {
			o := order(fmt.Sprintf("%s-%d", productID, i), "c1", date(2018, 4, 1), item(productID, "s1", 10, 1))
			o.Review = &models.Review{ReviewID: o.ID, ReviewScore: score(scoreOf(i))}
			orders = append(orders, o)
		}
	}
	five := func(int) int { return 5 }
	review("p1", MinProductReviews, five)
	review("p2", MinProductReviews, func(i int) int { return 4 + i%2 })
	review("p3", MinProductReviews-1, five)
	review("p4", MinProductReviews+1, five)

	// orders without a review do not count towards the threshold
	orders = append(orders, order("p3-unreviewed", "c1", date(2018, 4, 1), item("p3", "s1", 10, 1)))
	insert(t, s, models.CollectionOrders, orders...)

	table := run(t, s, "top-rated-products")
	assert.Equal(t, []interface{}{"p4", "p1", "p2"}, column(table, "product_id"))
	assert.Equal(t, []interface{}{5.0, 5.0, 4.5}, column(table, "average_review_score"))
	assert.Equal(t, []interface{}{int64(101), int64(100), int64(100)}, column(table, "review_count"))
	assert.Equal(t, int64(40), table.Rows[0]["product_name_length"])
}

func TestMostCommonPaymentTypes(t *testing.T) {
	table := run(t, marketplace(t), "6")

	assert.Equal(t, []interface{}{"credit_card", "boleto", "voucher"}, column(table, "payment_type"))
	assert.Equal(t, []interface{}{int64(2), int64(1), int64(1)}, column(table, "count"))
	assert.InDelta(t, 140.2, table.Rows[0]["total_amount"], 1e-9)
}

func TestSalesByProductCategory(t *testing.T) {
	table := run(t, marketplace(t), "7")

	assert.Equal(t, []interface{}{models.UnknownCategory, "bed_bath_table", "toys"}, column(table, "product_category"))
	assert.Equal(t, []interface{}{int64(1), int64(1), int64(2)}, column(table, "total_orders"))
	assert.InDelta(t, 20.1, table.Rows[2]["total_sales"], 1e-9)
}

func TestSalesByProductCategoryMissingTranslation(t *testing.T) {
	s := store.NewMemoryStore()
	insert(t, s, models.CollectionCustomers, customer("c1", "u1", "sao paulo", "SP"))
	insert(t, s, models.CollectionProducts, bson.M{"_id": "p1", "product_category_name": "brinquedos"})
	insert(t, s, models.CollectionOrders,
		order("o1", "c1", date(2018, 1, 1), item("p1", "s1", 7, 1)),
		order("o2", "c1", date(2018, 1, 1), item("unlisted", "s1", 100, 1)),
	)

	table := run(t, s, "sales-by-product-category")
	assert.Equal(t, []Row{{"product_category": models.UnknownCategory, "total_sales": 7.0, "total_orders": int64(1)}}, table.Rows)
}

func TestTopCitiesCountsPeopleOnce(t *testing.T) {
	table := run(t, marketplace(t), "8")

	assert.Equal(t, []Row{
		{"customer_city": "sao paulo", "customer_count": int64(2)},
		{"customer_city": "rio de janeiro", "customer_count": int64(1)},
	}, table.Rows)
}

func TestTopCitiesIgnoresInsertionOrder(t *testing.T) {
	customers := []models.Customer{
		customer("c5", "u3", "recife", "PE"),
		customer("c1", "u1", "sao paulo", "SP"),
		customer("c3", "u1", "campinas", "SP"),
		customer("c2", "u2", "campinas", "SP"),
		customer("c4", "u3", "sao paulo", "SP"),
	}
	forward := store.NewMemoryStore()
	insert(t, forward, models.CollectionCustomers, customers...)

	backward := store.NewMemoryStore()
	for i := len(customers) - 1; i >= 0; i-- {
		insert(t, backward, models.CollectionCustomers, customers[i])
	}

	want := []Row{
		{"customer_city": "sao paulo", "customer_count": int64(2)},
		{"customer_city": "campinas", "customer_count": int64(1)},
	}
	assert.Equal(t, want, run(t, forward, "8").Rows)
	assert.Equal(t, want, run(t, backward, "8").Rows)
}

func TestAverageFreightValueByState(t *testing.T) {
	table := run(t, marketplace(t), "9")

	require.Len(t, table.Rows, 2)
	assert.Equal(t, Row{"customer_state": "RJ", "average_freight_value": 10.0, "total_orders": int64(1)}, table.Rows[0])
	assert.Equal(t, "SP", table.Rows[1]["customer_state"])
	assert.InDelta(t, 25.0/3, table.Rows[1]["average_freight_value"], 1e-9)
	assert.Equal(t, int64(3), table.Rows[1]["total_orders"])
}

func TestDelayedDeliveries(t *testing.T) {
	s := store.NewMemoryStore()
	insert(t, s, models.CollectionCustomers, customer("c1", "u1", "sao paulo", "SP"))

	late := order("late", "c1", date(2018, 1, 1))
	late.DeliveredCustomerDate = at(date(2018, 1, 15))
	late.EstimatedDeliveryDate = at(date(2018, 1, 10))

	onTime := order("on-time", "c1", date(2018, 1, 1))
	onTime.DeliveredCustomerDate = at(date(2018, 1, 10))
	onTime.EstimatedDeliveryDate = at(date(2018, 1, 10))

	early := order("early", "c1", date(2018, 1, 1))
	early.DeliveredCustomerDate = at(date(2018, 1, 3))
	early.EstimatedDeliveryDate = at(date(2018, 1, 10))

	pending := order("pending", "c1", date(2018, 1, 1))
	pending.EstimatedDeliveryDate = at(date(2018, 1, 10))

	slightly := order("slightly-late", "c1", date(2018, 1, 1))
	slightly.DeliveredCustomerDate = at(date(2018, 1, 10).Add(6 * time.Hour))
	slightly.EstimatedDeliveryDate = at(date(2018, 1, 10))

	insert(t, s, models.CollectionOrders, late, onTime, early, pending, slightly)

	table := run(t, s, "orders-with-delayed-delivery")
	require.Len(t, table.Rows, 2)
	assert.Equal(t, Row{
		"order_id":                      "late",
		"customer_id":                   "c1",
		"customer_state":                "SP",
		"order_purchase_timestamp":      date(2018, 1, 1),
		"order_delivered_customer_date": date(2018, 1, 15),
		"order_estimated_delivery_date": date(2018, 1, 10),
		"delay_in_days":                 5.0,
	}, table.Rows[0])
	assert.Equal(t, "slightly-late", table.Rows[1]["order_id"])
	assert.Equal(t, 0.25, table.Rows[1]["delay_in_days"])
}

func TestGroupKeysAreUnique(t *testing.T) {
	keys := map[string]string{
		"monthly-sales-trends":             "date",
		"average-order-value-by-state":     "customer_state",
		"most-popular-products":            "product_id",
		"average-delivery-time-per-seller": "seller_id",
		"top-rated-products":               "product_id",
		"most-common-payment-types":        "payment_type",
		"sales-by-product-category":        "product_category",
		"top-cities-by-customers":          "customer_city",
		"average-freight-value-by-state":   "customer_state",
		"orders-with-delayed-delivery":     "order_id",
	}
	s := marketplace(t)
	for _, q := range DefaultCatalog() {
		key, ok := keys[q.Slug]
		require.True(t, ok, q.Slug)
		seen := map[interface{}]bool{}
		for _, v := range column(run(t, s, q.Slug), key) {
			assert.False(t, seen[v], "%s: duplicate %s %v", q.Slug, key, v)
			seen[v] = true
		}
	}
}

func TestEmptyStoreYieldsEmptyTables(t *testing.T) {
	s := store.NewMemoryStore()
	for _, q := range DefaultCatalog() {
		table := run(t, s, q.Slug)
		assert.Equal(t, q.Slug, table.Query)
		assert.Equal(t, q.Columns, table.Columns)
		assert.NotNil(t, table.Rows)
		assert.Empty(t, table.Rows)
	}
}

func TestRunUnknownQuery(t *testing.T) {
	_, err := NewRunner(store.NewMemoryStore(), nil, nil).Run(context.Background(), "42")
	assert.ErrorIs(t, err, ErrUnknownQuery)
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(marketplace(t), nil, nil).Run(ctx, "1")
	assert.ErrorIs(t, err, context.Canceled)
}
