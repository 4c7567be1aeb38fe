package model_test

import (
	"testing"

	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	for in, want := range map[string]string{
		"8,00":  "8.00",
		"8.5":   "8.50",
		" 12 ":  "12.00",
		"0":     "0.00",
		"8.500": "8.50",
	} {
		d, err := model.ParsePrice(in)
		require.NoError(t, err, in)
		require.Equal(t, want, model.FormatPrice(d), in)
	}

	for _, in := range []string{"", "abc", "-1", "1,2,3", "8.005", "3,999", "1e3", "1E-2"} {
		_, err := model.ParsePrice(in)
		require.ErrorIs(t, err, model.ErrInvalidPrice, in)
	}
}

func TestProductNormalize(t *testing.T) {
	p := model.Product{
		ID:       "p1",
		Name:     "  Latte ",
		Category: " Cafes",
		Sizes:    []model.PriceOption{{Size: " P ", Price: "6,5"}},
	}
	require.NoError(t, p.Normalize())
	require.Equal(t, "Latte", p.Name)
	require.Equal(t, "Cafes", p.Category)
	require.Equal(t, model.PriceOption{Size: "P", Price: "6.50"}, p.Sizes[0])

	price, err := p.PriceFor("P")
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.RequireFromString("6.5")))
	_, err = p.PriceFor("G")
	require.ErrorIs(t, err, model.ErrUnknownSize)

	blank := model.Product{Name: "X", Category: "Cafes", Sizes: []model.PriceOption{{Size: " ", Price: "1"}}}
	require.ErrorIs(t, blank.Normalize(), model.ErrProductSizeRequired)
}

func TestOrderConsistency(t *testing.T) {
	line := model.CartLine{
		Product:  model.Product{ID: "p1", Name: "Latte", Category: "Cafes"},
		Size:     "M",
		Price:    decimal.RequireFromString("8.00"),
		Quantity: 3,
	}
	item := model.NewOrderItem(line)
	require.True(t, item.Subtotal.Equal(decimal.RequireFromString("24")))

	o := model.Order{Items: []model.OrderItem{item}, Total: item.Subtotal}
	o.SetStatus(model.StatusPending)
	require.True(t, o.Consistent())
	require.False(t, o.Closed())

	o.SetStatus(model.StatusDone)
	require.True(t, o.Finalizado)
	require.True(t, o.Closed())

	o.Finalizado = false
	require.False(t, o.Consistent(), "finalizado must mirror done")

	o.SetStatus(model.StatusReady)
	o.Total = decimal.RequireFromString("23.99")
	require.False(t, o.Consistent())

	require.False(t, model.OrderStatus("cancelled").Valid())
}

func TestErrorClasses(t *testing.T) {
	require.ErrorIs(t, model.ErrCategoryInUse, model.ErrIntegrity)
	require.ErrorIs(t, model.ErrProductExists, model.ErrConflict)
	require.ErrorIs(t, model.ErrCartLineNotFound, model.ErrNotFound)
	require.ErrorIs(t, model.Validationf("bad %s", "thing"), model.ErrValidation)
	require.NotErrorIs(t, model.ErrEmptyCart, model.ErrConflict)
}
