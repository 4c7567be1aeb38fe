package usecase

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultOrderNumberDigits = 6
	MinOrderNumberDigits     = 4
	DefaultMaxIDAttempts     = 1000
)

// IDSource produces candidate identifiers; uniqueness is checked by the ledger.
type IDSource interface {
	OrderID() string
	OrderNumber(digits int) string
}

type randomIDs struct{}

func (randomIDs) OrderID() string {
	return uuid.New().String()
}

func (randomIDs) OrderNumber(digits int) string {
	var b strings.Builder
	b.Grow(digits)
	for range digits {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}
