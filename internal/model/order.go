package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDone      OrderStatus = "done"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusDone:
		return true
	}
	return false
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Size      string          `json:"size"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Order struct {
	ID           string          `json:"id"`
	OrderNumber  string          `json:"orderNumber"`
	CreatedAt    time.Time       `json:"createdAt"`
	Status       OrderStatus     `json:"status"`
	Finalizado   bool            `json:"finalizado"`
	CustomerName string          `json:"name"`
	Table        string          `json:"table"`
	Items        []OrderItem     `json:"items"`
	Total        decimal.Decimal `json:"total"`
}

// NewOrderItem copies the line's values so later catalog edits never reach the order.
func NewOrderItem(line CartLine) OrderItem {
	return OrderItem{
		ProductID: line.Product.ID,
		Name:      line.Product.Name,
		Category:  line.Product.Category,
		Size:      line.Size,
		UnitPrice: line.Price,
		Quantity:  line.Quantity,
		Subtotal:  line.Subtotal(),
	}
}

// SetStatus is the only way status changes; Finalizado always mirrors StatusDone.
func (o *Order) SetStatus(s OrderStatus) {
	o.Status = s
	o.Finalizado = s == StatusDone
}

func (o Order) Closed() bool {
	return o.Status == StatusDone
}

func (o Order) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Consistent reports whether every subtotal and the total match their recomputation
// and the finalizado mirror agrees with status.
func (o Order) Consistent() bool {
	for _, it := range o.Items {
		if !it.Subtotal.Equal(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))) {
			return false
		}
	}
	return o.Total.Equal(o.ComputedTotal()) && o.Finalizado == (o.Status == StatusDone)
}

func (o Order) Clone() Order {
	o.Items = append([]OrderItem(nil), o.Items...)
	return o
}
