package dto

import "github.com/fekuna/omnipos-menu-service/internal/model"

type CheckoutInput struct {
	CustomerName string
	Table        string
	Lines        []model.CartLine
}

type CheckoutRequest struct {
	Name  string `json:"name"`
	Table string `json:"table"`
}

type StatusRequest struct {
	Status model.OrderStatus `json:"status"`
}
