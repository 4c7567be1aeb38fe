package dto

type ProductFilters struct {
	Category    string
	SearchQuery string // case-insensitive match on name
}
