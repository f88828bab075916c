package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CreateInvoiceInput struct {
	Customer string
	Amount   int64
	Payment  Payment
	MenuIDs  []int64
}

// Repo owns the invoice transaction plus its read projections.
type Repo struct {
	DB  *pgxpool.Pool
	Seq *Sequencer

	stock   StockLedger
	recipes RecipeResolver
	loyalty LoyaltyLedger
}

func NewRepo(db *pgxpool.Pool, seq *Sequencer) *Repo {
	return &Repo{DB: db, Seq: seq}
}

// CreateInvoice commits one sale as a single atomic unit: invoice header,
// lines, membership link, point settlement and stock deduction either all
// land or none do. The invoice code is allocated up front and stays spent
// even when the transaction aborts.
func (r *Repo) CreateInvoice(ctx context.Context, cashier Actor, in CreateInvoiceInput) (*Invoice, error) {
	if cashier.ID <= 0 {
		return nil, &ValidationError{Field: "cashier", Reason: "required"}
	}
	if strings.TrimSpace(in.Customer) == "" {
		return nil, &ValidationError{Field: "customer", Reason: "required"}
	}
	if in.Amount < 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if in.Payment == "" {
		in.Payment = PaymentOther
	}

	code, err := r.Seq.NextCode(ctx, cashier.ID)
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	member, err := r.loyalty.ResolveMember(ctx, tx, in.Customer)
	if err != nil {
		return nil, err
	}
	customer := in.Customer
	if member != nil {
		customer = member.Name
	}

	// Expand every cart line before writing anything so an unknown menu id
	// surfaces as recipe-not-found, not as a constraint violation.
	lines := AggregateCart(in.MenuIDs)
	demands := make([][]IngredientDemand, len(lines))
	for i, ln := range lines {
		if demands[i], err = r.recipes.Expand(ctx, tx, ln.MenuID, ln.Quantity); err != nil {
			return nil, err
		}
	}

	inv := &Invoice{
		Code:     code,
		Customer: customer,
		Amount:   in.Amount,
		Payment:  in.Payment,
		Cashier:  cashier,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (code, customer, amount, payment, cashier_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		code, customer, in.Amount, string(in.Payment), cashier.ID).
		Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	if member != nil {
		if _, err := tx.Exec(ctx,
			`INSERT INTO member_invoices (member_id, invoice_id) VALUES ($1, $2)`,
			member.ID, inv.ID); err != nil {
			return nil, fmt.Errorf("link member: %w", err)
		}
		if _, err := r.loyalty.Settle(ctx, tx, member, in.Payment, in.Amount); err != nil {
			return nil, err
		}
	}

	for _, ln := range lines {
		if _, err := tx.Exec(ctx,
			`INSERT INTO invoice_menus (invoice_id, menu_id, quantity) VALUES ($1, $2, $3)`,
			inv.ID, ln.MenuID, ln.Quantity); err != nil {
			return nil, fmt.Errorf("insert invoice line: %w", err)
		}
	}

	// First shortage aborts the whole sale; the deferred rollback puts every
	// already-locked row back.
	for _, dd := range demands {
		for _, d := range dd {
			if _, err := r.stock.TryConsume(ctx, tx, d.IngredientID, d.Required); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	inv.Lines = lines
	return inv, nil
}

// GetInvoice returns the invoice aggregate: header, cashier (id and name
// only) and lines joined with their menu.
func (r *Repo) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv := &Invoice{}
	var payment string
	var cashierID *int64
	var cashierName *string
	err := r.DB.QueryRow(ctx, `
		SELECT i.id, i.code, i.customer, i.amount, i.payment, i.created_at, u.id, u.name
		FROM invoices i
		LEFT JOIN users u ON u.id = i.cashier_id
		WHERE i.id=$1`, id).
		Scan(&inv.ID, &inv.Code, &inv.Customer, &inv.Amount, &payment, &inv.CreatedAt, &cashierID, &cashierName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	inv.Payment = Payment(payment)
	if cashierID != nil {
		inv.Cashier = Actor{ID: *cashierID}
		if cashierName != nil {
			inv.Cashier.Name = *cashierName
		}
	}

	rows, err := r.DB.Query(ctx, `
		SELECT im.menu_id, rc.name, rc.price, im.quantity
		FROM invoice_menus im
		JOIN recipes rc ON rc.id = im.menu_id
		WHERE im.invoice_id=$1
		ORDER BY im.menu_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ln InvoiceLine
		if err := rows.Scan(&ln.MenuID, &ln.MenuName, &ln.Price, &ln.Quantity); err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, ln)
	}
	return inv, rows.Err()
}

type InvoiceFilter struct {
	Search    string
	CashierID int64
	Customer  string
	Sort      string
	Order     string
	Page      int
	Limit     int
}

type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type InvoicePage struct {
	Data []Invoice `json:"data"`
	Meta PageMeta  `json:"meta"`
}

var invoiceSortColumns = map[string]string{
	"code":      "i.code",
	"cashier":   "u.name",
	"customer":  "i.customer",
	"amount":    "i.amount",
	"createdAt": "i.created_at",
}

// ListInvoices is a plain projection: search over code/customer/cashier name,
// optional cashier and exact customer filters, whitelisted sort, paging.
func (r *Repo) ListInvoices(ctx context.Context, f InvoiceFilter) (*InvoicePage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	where := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		p := fmt.Sprintf("$%d", len(args))
		where = append(where, fmt.Sprintf("(i.code ILIKE %s OR i.customer ILIKE %s OR u.name ILIKE %s)", p, p, p))
	}
	if f.CashierID > 0 {
		args = append(args, f.CashierID)
		where = append(where, fmt.Sprintf("i.cashier_id = $%d", len(args)))
	}
	if f.Customer != "" {
		args = append(args, strings.ToLower(f.Customer))
		where = append(where, fmt.Sprintf("LOWER(i.customer) = $%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices i LEFT JOIN users u ON u.id = i.cashier_id`+cond, args...).
		Scan(&total)
	if err != nil {
		return nil, err
	}

	sortCol, ok := invoiceSortColumns[f.Sort]
	if !ok {
		sortCol = "i.created_at"
	}
	dir := "ASC"
	if strings.EqualFold(f.Order, "desc") {
		dir = "DESC"
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	q := fmt.Sprintf(`
		SELECT i.id, i.code, i.customer, i.amount, i.payment, i.created_at, u.id, u.name
		FROM invoices i
		LEFT JOIN users u ON u.id = i.cashier_id
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`, cond, sortCol, dir, len(args)-1, len(args))

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := &InvoicePage{
		Data: make([]Invoice, 0, f.Limit),
		Meta: PageMeta{
			Total:      total,
			Page:       f.Page,
			Limit:      f.Limit,
			TotalPages: (total + f.Limit - 1) / f.Limit,
		},
	}
	for rows.Next() {
		var inv Invoice
		var payment string
		var cashierID *int64
		var cashierName *string
		if err := rows.Scan(&inv.ID, &inv.Code, &inv.Customer, &inv.Amount, &payment, &inv.CreatedAt, &cashierID, &cashierName); err != nil {
			return nil, err
		}
		inv.Payment = Payment(payment)
		if cashierID != nil {
			inv.Cashier = Actor{ID: *cashierID}
			if cashierName != nil {
				inv.Cashier.Name = *cashierName
			}
		}
		page.Data = append(page.Data, inv)
	}
	return page, rows.Err()
}
