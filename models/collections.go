package models

const (
	CollectionCustomers = "customers"
	CollectionProducts  = "products"
	CollectionSellers   = "sellers"
	CollectionOrders    = "orders"
)

// Collections lists the collections the reports read, in load order.
var Collections = []string{
	CollectionCustomers,
	CollectionSellers,
	CollectionProducts,
	CollectionOrders,
}
