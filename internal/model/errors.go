package model

import (
	"errors"
	"fmt"
)

// Error classes. Every specific error below wraps exactly one of them so callers
// can branch with errors.Is on the class.
var (
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrIntegrity     = errors.New("integrity violation")
	ErrNotFound      = errors.New("not found")
	ErrStorageDecode = errors.New("storage decode error")
)

var (
	ErrProductIDRequired       = classed(ErrValidation, "product id is required")
	ErrProductNameRequired     = classed(ErrValidation, "product name is required")
	ErrProductCategoryRequired = classed(ErrValidation, "product category is required")
	ErrProductSizesRequired    = classed(ErrValidation, "product needs at least one price option")
	ErrProductSizeDuplicate    = classed(ErrValidation, "duplicate size label")
	ErrProductSizeRequired     = classed(ErrValidation, "size label is required")
	ErrInvalidPrice            = classed(ErrValidation, "invalid price")
	ErrCategoryNameRequired    = classed(ErrValidation, "category name is required")
	ErrInvalidQuantity         = classed(ErrValidation, "quantity must be at least 1")
	ErrUnknownSize             = classed(ErrValidation, "size not offered for product")
	ErrCustomerNameRequired    = classed(ErrValidation, "customer name is required")
	ErrTableRequired           = classed(ErrValidation, "table is required")
	ErrEmptyCart               = classed(ErrValidation, "cart is empty")
	ErrInvalidStatus           = classed(ErrValidation, "invalid order status")
	ErrSessionRequired         = classed(ErrValidation, "session id is required")

	ErrProductExists        = classed(ErrConflict, "product id already exists")
	ErrCategoryExists       = classed(ErrConflict, "category already exists")
	ErrOrderNumberExhausted = classed(ErrConflict, "could not generate a unique order number")
	ErrReopenNotConfirmed   = classed(ErrConflict, "reopening a closed order requires confirmation")

	ErrCategoryInUse = classed(ErrIntegrity, "category still has products")
	ErrLastCategory  = classed(ErrIntegrity, "cannot delete the last category")

	ErrProductNotFound  = classed(ErrNotFound, "product not found")
	ErrCategoryNotFound = classed(ErrNotFound, "category not found")
	ErrOrderNotFound    = classed(ErrNotFound, "order not found")
	ErrCartLineNotFound = classed(ErrNotFound, "cart line not found")
)

type classError struct {
	class error
	msg   string
}

func (e *classError) Error() string { return e.msg }
func (e *classError) Unwrap() error { return e.class }

func classed(class error, msg string) error {
	return &classError{class: class, msg: msg}
}

// Validationf builds an ad-hoc validation error that still matches ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
