package model

import (
	"slices"
	"strings"
)

// Categories are plain names; a product references one by exact, case-sensitive match.

func NormalizeCategoryName(name string) string {
	return strings.TrimSpace(name)
}

func HasCategory(categories []string, name string) bool {
	return slices.Contains(categories, name)
}
