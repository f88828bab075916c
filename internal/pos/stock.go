package pos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// StockLedger mutates quantity-on-hand. Every method runs inside the caller's
// transaction; the FOR UPDATE lock serializes concurrent consumers of the same
// ingredient so two sales can't both read the pre-decrement amount.
type StockLedger struct{}

// TryConsume deducts required from the ingredient's on-hand amount and returns
// the new amount. On shortage the row is left untouched and the error names
// the ingredient.
func (StockLedger) TryConsume(ctx context.Context, tx pgx.Tx, ingredientID int64, required float64) (float64, error) {
	var name string
	var amount float64
	err := tx.QueryRow(ctx, `SELECT name, amount FROM stocks WHERE id=$1 FOR UPDATE`, ingredientID).
		Scan(&name, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: ingredient id %d", ErrStockNotFound, ingredientID)
	}
	if err != nil {
		return 0, err
	}

	if required > amount {
		return 0, &InsufficientStockError{
			IngredientID: ingredientID, Name: name, Required: required, Available: amount,
		}
	}

	newAmount := amount - required
	if _, err := tx.Exec(ctx,
		`UPDATE stocks SET amount=$2, updated_at=NOW() WHERE id=$1`, ingredientID, newAmount); err != nil {
		return 0, err
	}
	return newAmount, nil
}

// Restore puts amount back on hand (compensation path).
func (StockLedger) Restore(ctx context.Context, tx pgx.Tx, ingredientID int64, amount float64) error {
	ct, err := tx.Exec(ctx,
		`UPDATE stocks SET amount = amount + $2, updated_at=NOW() WHERE id=$1`, ingredientID, amount)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%w: ingredient id %d", ErrStockNotFound, ingredientID)
	}
	return nil
}
