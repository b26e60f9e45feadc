package models

// Customer is an order-time customer record. Several records can share one
// CustomerUniqueID when the same person placed orders from different accounts.
type Customer struct {
	ID                    string `bson:"_id" json:"customer_id"`
	CustomerUniqueID      string `bson:"customer_unique_id" json:"customer_unique_id"`
	CustomerZipCodePrefix string `bson:"customer_zip_code_prefix" json:"customer_zip_code_prefix"`
	CustomerCity          string `bson:"customer_city" json:"customer_city"`
	CustomerState         string `bson:"customer_state" json:"customer_state"`
}

type Seller struct {
	ID                  string `bson:"_id" json:"seller_id"`
	SellerZipCodePrefix string `bson:"seller_zip_code_prefix" json:"seller_zip_code_prefix"`
	SellerCity          string `bson:"seller_city" json:"seller_city"`
	SellerState         string `bson:"seller_state" json:"seller_state"`
}
