package pos

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// RecipeResolver expands a menu id into ingredient demand. Read-only.
type RecipeResolver struct{}

// Expand returns one demand entry per ingredient of the recipe, each scaled by
// quantitySold. A recipe with no ingredients expands to nothing (sellable
// without stock).
func (RecipeResolver) Expand(ctx context.Context, tx pgx.Tx, menuID int64, quantitySold int) ([]IngredientDemand, error) {
	var recipeID int64
	err := tx.QueryRow(ctx, `SELECT id FROM recipes WHERE id=$1`, menuID).Scan(&recipeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &RecipeNotFoundError{MenuID: menuID}
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT ingredient_id, amount
		FROM recipe_ingredients
		WHERE recipe_id=$1
		ORDER BY id`, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IngredientDemand
	for rows.Next() {
		var d IngredientDemand
		var perUnit float64
		if err := rows.Scan(&d.IngredientID, &perUnit); err != nil {
			return nil, err
		}
		d.Required = perUnit * float64(quantitySold)
		out = append(out, d)
	}
	return out, rows.Err()
}
