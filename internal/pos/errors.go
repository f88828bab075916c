package pos

import (
	"errors"
	"fmt"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrStockNotFound   = errors.New("stock not found")
	ErrMenuNotFound    = errors.New("menu not found")
	ErrNotEnoughPoint  = errors.New("not enough point")
)

// RecipeNotFoundError: the cart references a menu id with no recipe behind it.
type RecipeNotFoundError struct {
	MenuID int64
}

func (e *RecipeNotFoundError) Error() string {
	return fmt.Sprintf("recipe not found for menu id %d", e.MenuID)
}

// InsufficientStockError carries the offending ingredient so the caller can
// tell which line killed the sale.
type InsufficientStockError struct {
	IngredientID int64
	Name         string
	Required     float64
	Available    float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for ingredient %d (%s): required %g, available %g",
		e.IngredientID, e.Name, e.Required, e.Available)
}

// ValidationError: bad input, rejected before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
