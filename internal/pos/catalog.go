package pos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Catalog is the plain CRUD layer for stocks, members and menus. The invoice
// transaction never goes through here.
type Catalog struct {
	DB *pgxpool.Pool
}

type StockInput struct {
	Name   string  `json:"name"`
	Unit   string  `json:"unit"`
	Amount float64 `json:"amount"`
}

func (c *Catalog) ListStocks(ctx context.Context) ([]Stock, error) {
	rows, err := c.DB.Query(ctx,
		`SELECT id, name, unit, amount, created_at, updated_at FROM stocks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stock
	for rows.Next() {
		var s Stock
		if err := rows.Scan(&s.ID, &s.Name, &s.Unit, &s.Amount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *Catalog) GetStock(ctx context.Context, id int64) (*Stock, error) {
	var s Stock
	err := c.DB.QueryRow(ctx,
		`SELECT id, name, unit, amount, created_at, updated_at FROM stocks WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.Unit, &s.Amount, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStockNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Catalog) CreateStock(ctx context.Context, in StockInput) (*Stock, error) {
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if in.Amount < 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	s := Stock{Name: in.Name, Unit: in.Unit, Amount: in.Amount}
	err := c.DB.QueryRow(ctx, `
		INSERT INTO stocks (name, unit, amount) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`, in.Name, in.Unit, in.Amount).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert stock: %w", err)
	}
	return &s, nil
}

func (c *Catalog) UpdateStock(ctx context.Context, id int64, in StockInput) (*Stock, error) {
	if in.Amount < 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	s := Stock{ID: id, Name: in.Name, Unit: in.Unit, Amount: in.Amount}
	err := c.DB.QueryRow(ctx, `
		UPDATE stocks SET name=$2, unit=$3, amount=$4, updated_at=NOW()
		WHERE id=$1
		RETURNING created_at, updated_at`, id, in.Name, in.Unit, in.Amount).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStockNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type MemberInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Point int64  `json:"point"`
}

func (c *Catalog) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := c.DB.Query(ctx,
		`SELECT id, name, phone, point, created_at, updated_at FROM members ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Phone, &m.Point, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *Catalog) GetMember(ctx context.Context, id int64) (*Member, error) {
	var m Member
	err := c.DB.QueryRow(ctx,
		`SELECT id, name, phone, point, created_at, updated_at FROM members WHERE id=$1`, id).
		Scan(&m.ID, &m.Name, &m.Phone, &m.Point, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Catalog) CreateMember(ctx context.Context, in MemberInput) (*Member, error) {
	if in.Name == "" || in.Phone == "" {
		return nil, &ValidationError{Field: "member", Reason: "name and phone are required"}
	}
	if in.Point < 0 {
		return nil, &ValidationError{Field: "point", Reason: "must not be negative"}
	}
	m := Member{Name: in.Name, Phone: in.Phone, Point: in.Point}
	err := c.DB.QueryRow(ctx, `
		INSERT INTO members (name, phone, point) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`, in.Name, in.Phone, in.Point).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return &m, nil
}

func (c *Catalog) UpdateMember(ctx context.Context, id int64, in MemberInput) (*Member, error) {
	if in.Point < 0 {
		return nil, &ValidationError{Field: "point", Reason: "must not be negative"}
	}
	m := Member{ID: id, Name: in.Name, Phone: in.Phone, Point: in.Point}
	err := c.DB.QueryRow(ctx, `
		UPDATE members SET name=$2, phone=$3, point=$4, updated_at=NOW()
		WHERE id=$1
		RETURNING created_at, updated_at`, id, in.Name, in.Phone, in.Point).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Catalog) DeleteMember(ctx context.Context, id int64) error {
	ct, err := c.DB.Exec(ctx, `DELETE FROM members WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

type MenuInput struct {
	Name        string             `json:"name"`
	Price       int64              `json:"price"`
	CategoryID  *int64             `json:"category_id"`
	Ingredients []RecipeIngredient `json:"ingredients"`
}

func (c *Catalog) ListMenus(ctx context.Context) ([]Recipe, error) {
	rows, err := c.DB.Query(ctx,
		`SELECT id, name, price, category_id, created_at, updated_at FROM recipes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recipe
	for rows.Next() {
		var rc Recipe
		if err := rows.Scan(&rc.ID, &rc.Name, &rc.Price, &rc.CategoryID, &rc.CreatedAt, &rc.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (c *Catalog) GetMenu(ctx context.Context, id int64) (*Recipe, error) {
	var rc Recipe
	err := c.DB.QueryRow(ctx,
		`SELECT id, name, price, category_id, created_at, updated_at FROM recipes WHERE id=$1`, id).
		Scan(&rc.ID, &rc.Name, &rc.Price, &rc.CategoryID, &rc.CreatedAt, &rc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMenuNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := c.DB.Query(ctx, `
		SELECT ri.ingredient_id, s.name, ri.amount, ri.unit
		FROM recipe_ingredients ri
		JOIN stocks s ON s.id = ri.ingredient_id
		WHERE ri.recipe_id=$1
		ORDER BY ri.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ing RecipeIngredient
		if err := rows.Scan(&ing.IngredientID, &ing.Name, &ing.Amount, &ing.Unit); err != nil {
			return nil, err
		}
		rc.Ingredients = append(rc.Ingredients, ing)
	}
	return &rc, rows.Err()
}

func (c *Catalog) CreateMenu(ctx context.Context, in MenuInput) (*Recipe, error) {
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}

	tx, err := c.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rc := Recipe{Name: in.Name, Price: in.Price, CategoryID: in.CategoryID, Ingredients: in.Ingredients}
	err = tx.QueryRow(ctx, `
		INSERT INTO recipes (name, price, category_id) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`, in.Name, in.Price, in.CategoryID).
		Scan(&rc.ID, &rc.CreatedAt, &rc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}

	if err := insertIngredients(ctx, tx, rc.ID, in.Ingredients); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &rc, nil
}

// UpdateMenu replaces the recipe row and its full ingredient set.
func (c *Catalog) UpdateMenu(ctx context.Context, id int64, in MenuInput) (*Recipe, error) {
	tx, err := c.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rc := Recipe{ID: id, Name: in.Name, Price: in.Price, CategoryID: in.CategoryID, Ingredients: in.Ingredients}
	err = tx.QueryRow(ctx, `
		UPDATE recipes SET name=$2, price=$3, category_id=$4, updated_at=NOW()
		WHERE id=$1
		RETURNING created_at, updated_at`, id, in.Name, in.Price, in.CategoryID).
		Scan(&rc.CreatedAt, &rc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMenuNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id=$1`, id); err != nil {
		return nil, err
	}
	if err := insertIngredients(ctx, tx, id, in.Ingredients); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &rc, nil
}

func (c *Catalog) DeleteMenu(ctx context.Context, id int64) error {
	ct, err := c.DB.Exec(ctx, `DELETE FROM recipes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrMenuNotFound
	}
	return nil
}

func insertIngredients(ctx context.Context, tx pgx.Tx, recipeID int64, ingredients []RecipeIngredient) error {
	for _, ing := range ingredients {
		if ing.Amount < 0 {
			return &ValidationError{Field: "ingredients", Reason: "amount must not be negative"}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount, unit)
			VALUES ($1, $2, $3, $4)`,
			recipeID, ing.IngredientID, ing.Amount, ing.Unit); err != nil {
			return fmt.Errorf("insert recipe ingredient: %w", err)
		}
	}
	return nil
}
