package dto

import "github.com/fekuna/omnipos-menu-service/internal/model"

type PriceOptionInput struct {
	Size  string `json:"size"`
	Price string `json:"price"`
}

type ProductInput struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Category string             `json:"category"`
	Sizes    []PriceOptionInput `json:"sizes"`
}

func (in *ProductInput) ToModel() model.Product {
	sizes := make([]model.PriceOption, len(in.Sizes))
	for i, s := range in.Sizes {
		sizes[i] = model.PriceOption{Size: s.Size, Price: s.Price}
	}
	return model.Product{
		ID:       in.ID,
		Name:     in.Name,
		Category: in.Category,
		Sizes:    sizes,
	}
}

type CategoryInput struct {
	Name string `json:"name"`
}

type MoveProductInput struct {
	Category string `json:"category"`
}
