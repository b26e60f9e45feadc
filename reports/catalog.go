package reports

import (
	"github.com/Madhav-Gupta-28/olist-insights/models"
	p "github.com/Madhav-Gupta-28/olist-insights/pipeline"
)

const (
	// MinSellerDeliveries drops sellers whose average rests on too few deliveries.
	MinSellerDeliveries = 10
	// MinProductReviews drops products whose rating rests on too few reviews.
	MinProductReviews = 100
	// TopN bounds the "most/top" reports.
	TopN = 10
)

var (
	joinCustomer = []p.Stage{
		p.LookupFrom(models.CollectionCustomers, "customer_id", "_id", "customer_info"),
		p.Unwind("customer_info"),
	}

	categoryOrUnknown = p.IfNull(p.Field("product_info.product_category_name_english"), p.Lit(models.UnknownCategory))

	// productDetails joins a product-keyed group to the product catalog.
	productDetails = []p.Stage{
		p.LookupFrom(models.CollectionProducts, "_id", "_id", "product_info"),
		p.Unwind("product_info"),
	}
)

func stages(parts ...interface{}) p.Pipeline {
	var out p.Pipeline
	for _, part := range parts {
		switch s := part.(type) {
		case p.Stage:
			out = append(out, s)
		case []p.Stage:
			out = append(out, s...)
		}
	}
	return out
}

// DefaultCatalog returns the ten reports in menu order.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			Number:      1,
			Slug:        "monthly-sales-trends",
			Title:       "Monthly sales trends",
			Description: "Total item sales per purchase month.",
			Collection:  models.CollectionOrders,
			Pipeline: stages(
				p.Unwind("order_items"),
				p.AddFields(
					p.As("order_year", p.Year(p.Field("order_purchase_timestamp"))),
					p.As("order_month", p.Month(p.Field("order_purchase_timestamp"))),
				),
				p.Group(
					p.Doc(p.As("year", p.Field("order_year")), p.As("month", p.Field("order_month"))),
					p.Sum("total_sales", p.Field("order_items.price")),
				),
				p.Sort(p.Asc("_id.year"), p.Asc("_id.month")),
				p.Project(
					p.As("year", p.Field("_id.year")),
					p.As("month", p.Field("_id.month")),
					p.As("total_sales", p.Round(p.Field("total_sales"), 2)),
				),
			),
			Shape:   []Step{MonthStart("year", "month", "date")},
			Columns: []string{"year", "month", "total_sales", "date"},
			Charts: []Chart{
				{Kind: "line", Title: "Monthly sales trend", X: "date", Y: "total_sales", Color: "indigo"},
				{Kind: "area", Title: "Cumulative monthly sales", X: "date", Y: "total_sales", Color: "lightseagreen", Cumulative: true},
			},
		},
		{
			Number:      2,
			Slug:        "average-order-value-by-state",
			Title:       "Average order value by customer state",
			Description: "Average of per-order price plus freight, by customer state.",
			Collection:  models.CollectionOrders,
			Pipeline: stages(
				p.Unwind("order_items"),
				p.Group(p.Field("_id"),
					p.First("customer_id", p.Field("customer_id")),
					p.Sum("total_order_value", p.Add(p.Field("order_items.price"), p.Field("order_items.freight_value"))),
				),
				joinCustomer,
				p.Group(p.Field("customer_info.customer_state"),
					p.Avg("average_order_value", p.Field("total_order_value")),
				),
				p.Sort(p.Desc("average_order_value"), p.Asc("_id")),
			),
			Shape:   []Step{Rename("_id", "customer_state")},
			Columns: []string{"customer_state", "average_order_value"},
			Charts: []Chart{
				{Kind: "bar", Title: "Average order value by customer state", X: "customer_state", Y: "average_order_value", Color: "Greens"},
				{Kind: "choropleth", Title: "Average order value by customer state", X: "customer_state", Y: "average_order_value", Color: "Viridis"},
			},
		},
		{
			Number:      3,
			Slug:        "most-popular-products",
			Title:       "Most popular products",
			Description: "Products bought most often.",
			Note:        "Results limited to the top 10 products.",
			Collection:  models.CollectionOrders,
			Pipeline: stages(
				p.Unwind("order_items"),
				p.Group(p.Field("order_items.product_id"), p.Count("purchase_count")),
				p.Sort(p.Desc("purchase_count"), p.Asc("_id")),
				p.Limit(TopN),
				productDetails,
				p.Project(
					p.As("product_id", p.Field("_id")),
					p.As("purchase_count", p.Field("purchase_count")),
					p.As("product_category", categoryOrUnknown),
					p.As("product_name_length", p.Field("product_info.product_name_lenght")),
				),
			),
			Columns: []string{"product_id", "purchase_count", "product_category", "product_name_length"},
			Charts: []Chart{
				{Kind: "bar", Title: "Most popular products", X: "product_id", Y: "purchase_count", Color: "Purples"},
				{Kind: "treemap", Title: "Treemap of most popular products by category", Path: []string{"product_category", "product_id"}, Y: "purchase_count", Color: "Purples"},
			},
		},
		{
			Number:      4,
			Slug:        "average-delivery-time-per-seller",
			Title:       "Average delivery time per seller",
			Description: "Average time from approval to delivery, fastest sellers first.",
			Note:        "For better data quality, only sellers with 10 or more deliveries are considered.",
			Collection:  models.CollectionOrders,
			Pipeline: stages(
				p.Match(p.NotNull("order_approved_at"), p.NotNull("order_delivered_customer_date")),
				p.Unwind("order_items"),
				p.Project(
					p.As("seller_id", p.Field("order_items.seller_id")),
					p.As("delivery_time_in_ms", p.Subtract(p.Field("order_delivered_customer_date"), p.Field("order_approved_at"))),
				),
				p.Group(p.Field("seller_id"),
					p.Count("delivery_count"),
					p.Avg("average_delivery_time_in_ms", p.Field("delivery_time_in_ms")),
				),
				p.Match(p.Gte("delivery_count", MinSellerDeliveries)),
				p.Sort(p.Asc("average_delivery_time_in_ms"), p.Asc("_id")),
			),
			Shape: []Step{
				Rename("_id", "seller_id"),
				MillisToDays("average_delivery_time_in_ms", "average_delivery_time_in_days"),
			},
			Columns: []string{"seller_id", "average_delivery_time_in_days", "delivery_count"},
			Charts: []Chart{
				{Kind: "bar", Title: "Average delivery time per seller", X: "seller_id", Y: "average_delivery_time_in_days", Color: "Oranges", Limit: 10},
				{Kind: "histogram", Title: "Average delivery time histogram", X: "average_delivery_time_in_days", Color: "crimson", Bins: 100},
			},
		},
		{
			Number:      5,
			Slug:        "top-rated-products",
			Title:       "Top rated products",
			Description: "Highest average review score, ties broken by review count.",
			Note:        "Results limited to the top 10 products with at least 100 reviews.",
			Collection:  models.CollectionOrders,
			Pipeline: stages(
				p.Unwind("order_items"),
				p.Match(p.NotNull("review.review_score")),
				p.Group(p.Field("order_items.product_id"),
					p.Avg("average_review_score", p.Field("review.review_score")),
					p.Count("review_count"),
				),
				p.Match(p.Gte("review_count", MinProductReviews)),
				p.Sort(p.Desc("average_review_score"), p.Desc("review_count"), p.Asc("_id")),
				p.Limit(TopN),
				productDetails,
				p.Project(
					p.As("product_id", p.Field("_id")),
					p.As("average_review_score", p.Field("average_review_score")),
					p.As("review_count", p.Field("review_count")),
					p.As("product_category", categoryOrUnknown),
					p.As("product_name_length", p.Field("product_info.product_name_lenght")),
				),
			),
			Columns: []string{"product_id", "average_review_score", "review_count", "product_category", "product_name_length"},
			Charts: []Chart{
				{Kind: "bar", Title: "Top rated products", X: "product_id", Y: "average_review_score", Color: "Reds"},
				{Kind: "scatter", Title: "Review score vs. review count", X: "average_review_score", Y: "review_count", Size: "review_count", Color: "Reds"},
			},
		},
		{
			Number:      6,
			Slug:        "most-common-payment-types",
			Title:       "Most common payment types",
			Description: "Number of payments and total paid per payment type.",
			Collection:  models.CollectionOrders,
			Pipeline: stages(
				p.Unwind("payment"),
				p.Group(p.Field("payment.payment_type"),
					p.Count("count"),
					p.Sum("total_amount", p.Field("payment.payment_value")),
				),
				p.Sort(p.Desc("count"), p.Asc("_id")),
			),
			Shape:   []Step{Rename("_id", "payment_type")},
			Columns: []string{"payment_type", "count", "total_amount"},
			Charts: []Chart{
				{Kind: "donut", Title: "Most common payment types", X: "payment_type", Y: "count"},
				{Kind: "bar", Title: "Number of payments by type", X: "payment_type", Y: "count", Color: "Blues"},
			},
		},
		{
			Number:      7,
			Slug:        "sales-by-product-category",
			Title:       "Sales by product category",
			Description: "Item sales and item count per English category name.",
			Collection:  models.CollectionOrders,
			Pipeline: stages(
				p.Unwind("order_items"),
				p.LookupFrom(models.CollectionProducts, "order_items.product_id", "_id", "product_info"),
				p.Unwind("product_info"),
				p.Group(categoryOrUnknown,
					p.Sum("total_sales", p.Field("order_items.price")),
					p.Count("total_orders"),
				),
				p.Sort(p.Desc("total_sales"), p.Asc("_id")),
			),
			Shape:   []Step{Rename("_id", "product_category")},
			Columns: []string{"product_category", "total_sales", "total_orders"},
			Charts: []Chart{
				{Kind: "bar", Title: "Total sales by product category", X: "product_category", Y: "total_sales", Color: "Greens", Limit: 10},
				{Kind: "bar", Title: "Number of orders by product category", X: "product_category", Y: "total_orders", Color: "Greens", Limit: 10},
			},
		},
		{
			Number:      8,
			Slug:        "top-cities-by-customers",
			Title:       "Cities with highest number of customers",
			Description: "Distinct customers per city, counting each person once.",
			Note:        "Results limited to the top 10 cities.",
			Collection:  models.CollectionCustomers,
			Pipeline: stages(
				// A person is counted in the city of their lowest customer id.
				p.Sort(p.Asc("_id")),
				p.Group(p.Field("customer_unique_id"), p.First("customer_city", p.Field("customer_city"))),
				p.Group(p.Field("customer_city"), p.Count("customer_count")),
				p.Sort(p.Desc("customer_count"), p.Asc("_id")),
				p.Limit(TopN),
			),
			Shape:   []Step{Rename("_id", "customer_city")},
			Columns: []string{"customer_city", "customer_count"},
			Charts: []Chart{
				{Kind: "bar", Title: "Top 10 cities by number of customers", X: "customer_count", Y: "customer_city", Orientation: "h", Color: "Blues"},
			},
		},
		{
			Number:      9,
			Slug:        "average-freight-value-by-state",
			Title:       "Average freight value by state",
			Description: "Average item freight value charged per customer state.",
			Collection:  models.CollectionOrders,
			Pipeline: stages(
				joinCustomer,
				p.Unwind("order_items"),
				p.Group(p.Field("customer_info.customer_state"),
					p.Avg("average_freight_value", p.Field("order_items.freight_value")),
					p.Count("total_orders"),
				),
				p.Sort(p.Desc("average_freight_value"), p.Asc("_id")),
			),
			Shape:   []Step{Rename("_id", "customer_state")},
			Columns: []string{"customer_state", "average_freight_value", "total_orders"},
			Charts: []Chart{
				{Kind: "bar", Title: "Average freight value by customer state", X: "customer_state", Y: "average_freight_value", Color: "Oranges"},
			},
		},
		{
			Number:      10,
			Slug:        "orders-with-delayed-delivery",
			Title:       "Orders with delayed delivery",
			Description: "Orders delivered after their estimated date, most delayed first.",
			Collection:  models.CollectionOrders,
			Pipeline: stages(
				p.Match(p.NotNull("order_delivered_customer_date"), p.NotNull("order_estimated_delivery_date")),
				p.AddFields(p.As("delay_in_ms", p.Subtract(p.Field("order_delivered_customer_date"), p.Field("order_estimated_delivery_date")))),
				p.Match(p.Gt("delay_in_ms", 0)),
				joinCustomer,
				p.Project(
					p.As("order_id", p.Field("_id")),
					p.As("customer_id", p.Field("customer_id")),
					p.As("customer_state", p.Field("customer_info.customer_state")),
					p.As("order_purchase_timestamp", p.Field("order_purchase_timestamp")),
					p.As("order_delivered_customer_date", p.Field("order_delivered_customer_date")),
					p.As("order_estimated_delivery_date", p.Field("order_estimated_delivery_date")),
					p.As("delay_in_ms", p.Field("delay_in_ms")),
				),
				p.Sort(p.Desc("delay_in_ms"), p.Asc("order_id")),
			),
			Shape: []Step{MillisToDays("delay_in_ms", "delay_in_days")},
			Columns: []string{
				"order_id", "customer_id", "customer_state", "order_purchase_timestamp",
				"order_delivered_customer_date", "order_estimated_delivery_date", "delay_in_days",
			},
			Charts: []Chart{
				{Kind: "histogram", Title: "Distribution of delivery delays", X: "delay_in_days", Color: "crimson", Bins: 100},
			},
		},
	}
}
