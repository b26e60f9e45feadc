package models

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusApproved   OrderStatus = "approved"
	OrderStatusInvoiced   OrderStatus = "invoiced"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCanceled   OrderStatus = "canceled"
	OrderStatusUnknown    OrderStatus = "unavailable"
)

// OrderItem is one line of an order. Items only exist embedded in their order.
type OrderItem struct {
	OrderItemID       int        `bson:"order_item_id" json:"order_item_id"`
	ProductID         string     `bson:"product_id" json:"product_id"`
	SellerID          string     `bson:"seller_id" json:"seller_id"`
	ShippingLimitDate *time.Time `bson:"shipping_limit_date" json:"shipping_limit_date"`
	Price             float64    `bson:"price" json:"price"`
	FreightValue      float64    `bson:"freight_value" json:"freight_value"`
}

type Payment struct {
	PaymentSequential   int     `bson:"payment_sequential" json:"payment_sequential"`
	PaymentType         string  `bson:"payment_type" json:"payment_type"`
	PaymentInstallments int     `bson:"payment_installments" json:"payment_installments"`
	PaymentValue        float64 `bson:"payment_value" json:"payment_value"`
}

type Review struct {
	ReviewID              string     `bson:"review_id" json:"review_id"`
	ReviewScore           *int       `bson:"review_score" json:"review_score"`
	ReviewCommentTitle    *string    `bson:"review_comment_title" json:"review_comment_title"`
	ReviewCommentMessage  *string    `bson:"review_comment_message" json:"review_comment_message"`
	ReviewCreationDate    *time.Time `bson:"review_creation_date" json:"review_creation_date"`
	ReviewAnswerTimestamp *time.Time `bson:"review_answer_timestamp" json:"review_answer_timestamp"`
}

// Order embeds its items, payments and at most one review. Optional
// timestamps stay nil until the corresponding event happened.
type Order struct {
	ID                    string      `bson:"_id" json:"order_id"`
	CustomerID            string      `bson:"customer_id" json:"customer_id"`
	Status                OrderStatus `bson:"order_status" json:"order_status"`
	PurchaseTimestamp     time.Time   `bson:"order_purchase_timestamp" json:"order_purchase_timestamp"`
	ApprovedAt            *time.Time  `bson:"order_approved_at" json:"order_approved_at"`
	DeliveredCarrierDate  *time.Time  `bson:"order_delivered_carrier_date" json:"order_delivered_carrier_date"`
	DeliveredCustomerDate *time.Time  `bson:"order_delivered_customer_date" json:"order_delivered_customer_date"`
	EstimatedDeliveryDate *time.Time  `bson:"order_estimated_delivery_date" json:"order_estimated_delivery_date"`
	Items                 []OrderItem `bson:"order_items" json:"order_items"`
	Payments              []Payment   `bson:"payment" json:"payment"`
	Review                *Review     `bson:"review,omitempty" json:"review,omitempty"`
}
