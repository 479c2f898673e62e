package domain

// LineItem is one product selected for purchase. Name and UnitPrice are
// copied from the product when the item is first added.
type LineItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

func (li LineItem) Subtotal() Money {
	return li.UnitPrice.Mul(li.Quantity)
}

// CartSnapshot is the read-only view of a cart handed to checkout.
type CartSnapshot struct {
	Items []LineItem `json:"items"`
	Total Money      `json:"total"`
	Count int        `json:"count"`
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}
