package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type PriceOption struct {
	Size  string `json:"size"`
	Price string `json:"price"` // decimal formatted, e.g. "8.00"
}

type Product struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Sizes    []PriceOption `json:"sizes"`
}

// Normalize trims text fields and rewrites every price to two decimals.
// It does not check the category against the catalog.
func (p *Product) Normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = NormalizeCategoryName(p.Category)
	if p.Name == "" {
		return ErrProductNameRequired
	}
	if p.Category == "" {
		return ErrProductCategoryRequired
	}
	if len(p.Sizes) == 0 {
		return ErrProductSizesRequired
	}

	seen := make(map[string]struct{}, len(p.Sizes))
	sizes := make([]PriceOption, len(p.Sizes))
	for i, opt := range p.Sizes {
		label := strings.TrimSpace(opt.Size)
		if label == "" {
			return ErrProductSizeRequired
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%w: %q", ErrProductSizeDuplicate, label)
		}
		seen[label] = struct{}{}

		price, err := ParsePrice(opt.Price)
		if err != nil {
			return err
		}
		sizes[i] = PriceOption{Size: label, Price: FormatPrice(price)}
	}
	p.Sizes = sizes
	return nil
}

func (p *Product) PriceFor(size string) (decimal.Decimal, error) {
	for _, opt := range p.Sizes {
		if opt.Size == size {
			return ParsePrice(opt.Price)
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownSize, size)
}

func (p Product) Clone() Product {
	p.Sizes = append([]PriceOption(nil), p.Sizes...)
	return p
}

// ParsePrice accepts both "8.50" and the comma form "8,50". Prices are plain
// decimals with at most two significant decimal places; nothing is rounded.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q is negative", ErrInvalidPrice, s)
	}
	if !d.Equal(d.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("%w: %q has more than two decimal places", ErrInvalidPrice, s)
	}
	return d, nil
}

func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}
