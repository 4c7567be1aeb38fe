package model

import "github.com/shopspring/decimal"

type CartLine struct {
	Product  Product         `json:"product"`
	Size     string          `json:"size"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l CartLine) Matches(productID, size string) bool {
	return l.Product.ID == productID && l.Size == size
}
