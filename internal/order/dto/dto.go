package dto

import (
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/model"
)

type OrderFilters struct {
	Search     string // customer name, id, order number or table; case-insensitive
	From       *time.Time
	To         *time.Time
	Status     model.OrderStatus
	Finalizado *bool
}
