package domain

import "time"

type OrderStatus string

// Orders are created pending; payment is not processed here.
const OrderStatusPending OrderStatus = "pending"

type OrderItem struct {
	ProductID string `bson:"product_id" json:"id"`
	Name      string `bson:"name" json:"name"`
	UnitPrice Money  `bson:"unit_price" json:"price"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

type Customer struct {
	Name  string `bson:"name" json:"name"`
	Phone string `bson:"phone" json:"phone"`
}

type Order struct {
	ID        string      `bson:"_id" json:"id"`
	UserID    string      `bson:"user_id,omitempty" json:"userId,omitempty"`
	Items     []OrderItem `bson:"items" json:"items"`
	Total     Money       `bson:"total" json:"total"`
	Customer  Customer    `bson:"customer" json:"customerInfo"`
	Status    OrderStatus `bson:"status" json:"status"`
	CreatedAt time.Time   `bson:"created_at" json:"createdAt"`
}

// NewOrderFromSnapshot copies the cart lines into order lines.
func NewOrderFromSnapshot(userID string, snapshot CartSnapshot, customer Customer) *Order {
	items := make([]OrderItem, 0, len(snapshot.Items))
	for _, li := range snapshot.Items {
		items = append(items, OrderItem{
			ProductID: li.ProductID,
			Name:      li.Name,
			UnitPrice: li.UnitPrice,
			Quantity:  li.Quantity,
		})
	}
	return &Order{
		UserID:   userID,
		Items:    items,
		Total:    snapshot.Total,
		Customer: customer,
		Status:   OrderStatusPending,
	}
}
