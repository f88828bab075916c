package pos_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-pos-backoffice.git/internal/pos"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/postgres"
)

// Integration tests against a live Postgres. Set TEST_POSTGRES_DSN to run.

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)

	if err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.Exec(ctx, `
		TRUNCATE users, stocks, recipes, recipe_ingredients, members,
		         invoices, invoice_menus, member_invoices, invoice_sequences, logs
		RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func testRepo(db *pgxpool.Pool) *pos.Repo {
	return pos.NewRepo(db, &pos.Sequencer{DB: db, Prefix: "INV", MaxLen: 0})
}

func seedCashier(t *testing.T, db *pgxpool.Pool, name string) pos.Actor {
	t.Helper()
	var id int64
	if err := db.QueryRow(context.Background(),
		`INSERT INTO users (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
		t.Fatalf("seed cashier: %v", err)
	}
	return pos.Actor{ID: id, Name: name}
}

func seedStock(t *testing.T, db *pgxpool.Pool, name string, amount float64) int64 {
	t.Helper()
	var id int64
	if err := db.QueryRow(context.Background(),
		`INSERT INTO stocks (name, unit, amount) VALUES ($1, 'g', $2) RETURNING id`,
		name, amount).Scan(&id); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return id
}

func seedMenu(t *testing.T, db *pgxpool.Pool, name string, price int64, ingredients map[int64]float64) int64 {
	t.Helper()
	ctx := context.Background()
	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO recipes (name, price) VALUES ($1, $2) RETURNING id`, name, price).Scan(&id); err != nil {
		t.Fatalf("seed menu: %v", err)
	}
	for stockID, amount := range ingredients {
		if _, err := db.Exec(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount, unit)
			VALUES ($1, $2, $3, 'g')`, id, stockID, amount); err != nil {
			t.Fatalf("seed ingredient: %v", err)
		}
	}
	return id
}

func seedMember(t *testing.T, db *pgxpool.Pool, name, phone string, point int64) int64 {
	t.Helper()
	var id int64
	if err := db.QueryRow(context.Background(),
		`INSERT INTO members (name, phone, point) VALUES ($1, $2, $3) RETURNING id`,
		name, phone, point).Scan(&id); err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return id
}

func stockAmount(t *testing.T, db *pgxpool.Pool, id int64) float64 {
	t.Helper()
	var amount float64
	if err := db.QueryRow(context.Background(),
		`SELECT amount FROM stocks WHERE id=$1`, id).Scan(&amount); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return amount
}

func memberPoint(t *testing.T, db *pgxpool.Pool, id int64) int64 {
	t.Helper()
	var point int64
	if err := db.QueryRow(context.Background(),
		`SELECT point FROM members WHERE id=$1`, id).Scan(&point); err != nil {
		t.Fatalf("read member: %v", err)
	}
	return point
}

func codeSeq(t *testing.T, code string) int {
	t.Helper()
	i := strings.LastIndex(code, "/")
	n, err := strconv.Atoi(code[i+1:])
	if err != nil {
		t.Fatalf("bad code %q: %v", code, err)
	}
	return n
}

func TestCreateInvoiceCommitsAtomically(t *testing.T) {
	db := testPool(t)
	repo := testRepo(db)
	ctx := context.Background()

	cashier := seedCashier(t, db, "dina")
	ingrA := seedStock(t, db, "espresso beans", 5)
	ingrB := seedStock(t, db, "oat milk", 1)
	menu1 := seedMenu(t, db, "americano", 20, map[int64]float64{ingrA: 2})
	menu2 := seedMenu(t, db, "oat latte", 30, map[int64]float64{ingrB: 1})

	inv, err := repo.CreateInvoice(ctx, cashier, pos.CreateInvoiceInput{
		Customer: "walk-in",
		Amount:   70,
		Payment:  pos.PaymentCash,
		MenuIDs:  []int64{menu1, menu1, menu2},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if !strings.HasPrefix(inv.Code, fmt.Sprintf("INV/%d/", cashier.ID)) || codeSeq(t, inv.Code) != 1 {
		t.Fatalf("unexpected code %q", inv.Code)
	}
	if len(inv.Lines) != 2 || inv.Lines[0].MenuID != menu1 || inv.Lines[0].Quantity != 2 ||
		inv.Lines[1].MenuID != menu2 || inv.Lines[1].Quantity != 1 {
		t.Fatalf("unexpected lines %+v", inv.Lines)
	}

	if got := stockAmount(t, db, ingrA); got != 1 {
		t.Fatalf("stock A = %g, want 5 - 2*2 = 1", got)
	}
	if got := stockAmount(t, db, ingrB); got != 0 {
		t.Fatalf("stock B = %g, want 0", got)
	}

	// round trip
	got, err := repo.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got.Code != inv.Code || got.Customer != "walk-in" || got.Amount != 70 || got.Payment != pos.PaymentCash {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Cashier.ID != cashier.ID || got.Cashier.Name != "dina" {
		t.Fatalf("cashier mismatch: %+v", got.Cashier)
	}
	if len(got.Lines) != 2 || got.Lines[0].Quantity != 2 || got.Lines[1].Quantity != 1 {
		t.Fatalf("line mismatch: %+v", got.Lines)
	}
}

func TestCreateInvoiceRollsBackOnShortage(t *testing.T) {
	db := testPool(t)
	repo := testRepo(db)
	ctx := context.Background()

	cashier := seedCashier(t, db, "dina")
	ingrA := seedStock(t, db, "espresso beans", 5)
	ingrB := seedStock(t, db, "oat milk", 0)
	menu1 := seedMenu(t, db, "americano", 20, map[int64]float64{ingrA: 2})
	menu2 := seedMenu(t, db, "oat latte", 30, map[int64]float64{ingrB: 1})

	_, err := repo.CreateInvoice(ctx, cashier, pos.CreateInvoiceInput{
		Customer: "walk-in",
		Amount:   70,
		Payment:  pos.PaymentCash,
		MenuIDs:  []int64{menu1, menu1, menu2},
	})
	var ins *pos.InsufficientStockError
	if !errors.As(err, &ins) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if ins.IngredientID != ingrB || ins.Required != 1 || ins.Available != 0 {
		t.Fatalf("unexpected error detail: %+v", ins)
	}

	// nothing partially applied
	if got := stockAmount(t, db, ingrA); got != 5 {
		t.Fatalf("stock A = %g after rollback, want 5", got)
	}
	var n int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&n); err != nil || n != 0 {
		t.Fatalf("invoices = %d (err %v), want 0", n, err)
	}

	// the aborted commit spent its sequence number: gap, no reuse
	inv, err := repo.CreateInvoice(ctx, cashier, pos.CreateInvoiceInput{
		Customer: "walk-in", Amount: 20, Payment: pos.PaymentCash, MenuIDs: []int64{menu1},
	})
	if err != nil {
		t.Fatalf("second CreateInvoice: %v", err)
	}
	if codeSeq(t, inv.Code) != 2 {
		t.Fatalf("seq = %d, want 2 (number 1 stays spent)", codeSeq(t, inv.Code))
	}
}

func TestLoyaltySettlement(t *testing.T) {
	db := testPool(t)
	repo := testRepo(db)
	ctx := context.Background()

	cashier := seedCashier(t, db, "dina")
	memberID := seedMember(t, db, "Budi", "0812000111", 50)

	// point payment without balance aborts everything
	_, err := repo.CreateInvoice(ctx, cashier, pos.CreateInvoiceInput{
		Customer: "0812000111", Amount: 100, Payment: pos.PaymentPoint,
	})
	if !errors.Is(err, pos.ErrNotEnoughPoint) {
		t.Fatalf("expected ErrNotEnoughPoint, got %v", err)
	}
	if got := memberPoint(t, db, memberID); got != 50 {
		t.Fatalf("point = %d after rollback, want 50", got)
	}

	// cash credits floor(10%) and canonicalizes the customer to the member name
	inv, err := repo.CreateInvoice(ctx, cashier, pos.CreateInvoiceInput{
		Customer: "0812000111", Amount: 100, Payment: pos.PaymentCash,
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.Customer != "Budi" {
		t.Fatalf("customer = %q, want member name", inv.Customer)
	}
	if got := memberPoint(t, db, memberID); got != 60 {
		t.Fatalf("point = %d, want 60", got)
	}
	var links int
	if err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM member_invoices WHERE member_id=$1 AND invoice_id=$2`,
		memberID, inv.ID).Scan(&links); err != nil || links != 1 {
		t.Fatalf("member link count = %d (err %v), want 1", links, err)
	}

	// point payment with balance deducts
	inv2, err := repo.CreateInvoice(ctx, cashier, pos.CreateInvoiceInput{
		Customer: "Budi", Amount: 60, Payment: pos.PaymentPoint,
	})
	if err != nil {
		t.Fatalf("point payment: %v", err)
	}
	if got := memberPoint(t, db, memberID); got != 0 {
		t.Fatalf("point = %d, want 0", got)
	}
	_ = inv2

	// unknown payment settles without touching points
	if _, err := repo.CreateInvoice(ctx, cashier, pos.CreateInvoiceInput{
		Customer: "Budi", Amount: 40, Payment: pos.ParsePayment("voucher"),
	}); err != nil {
		t.Fatalf("other payment: %v", err)
	}
	if got := memberPoint(t, db, memberID); got != 0 {
		t.Fatalf("point = %d after pass-through payment, want 0", got)
	}
}

func TestNextCodeConcurrentIssuesDenseSequence(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()

	cashier := seedCashier(t, db, "dina")
	seq := &pos.Sequencer{DB: db, Prefix: "INV", MaxLen: 0}

	const n = 20
	codes := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], errs[i] = seq.NextCode(ctx, cashier.ID)
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("NextCode: %v", errs[i])
		}
		s := codeSeq(t, codes[i])
		if seen[s] {
			t.Fatalf("duplicate sequence %d", s)
		}
		seen[s] = true
	}
	for s := 1; s <= n; s++ {
		if !seen[s] {
			t.Fatalf("sequence set has a hole at %d: %v", s, codes)
		}
	}
}

func TestConcurrentCommitsNeverOversell(t *testing.T) {
	db := testPool(t)
	repo := testRepo(db)
	ctx := context.Background()

	cashier := seedCashier(t, db, "dina")
	ingr := seedStock(t, db, "matcha", 3)
	menu := seedMenu(t, db, "matcha latte", 25, map[int64]float64{ingr: 1})

	const n = 10
	results := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = repo.CreateInvoice(ctx, cashier, pos.CreateInvoiceInput{
				Customer: "walk-in", Amount: 25, Payment: pos.PaymentCash, MenuIDs: []int64{menu},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var ins *pos.InsufficientStockError
		if !errors.As(err, &ins) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 3 {
		t.Fatalf("%d commits succeeded, want exactly 3", succeeded)
	}
	if got := stockAmount(t, db, ingr); got != 0 {
		t.Fatalf("final stock = %g, want 0", got)
	}
}

func TestListInvoices(t *testing.T) {
	db := testPool(t)
	repo := testRepo(db)
	ctx := context.Background()

	dina := seedCashier(t, db, "dina")
	eko := seedCashier(t, db, "eko")

	amounts := []int64{30, 10, 20}
	for i, amount := range amounts {
		cashier := dina
		if i == 2 {
			cashier = eko
		}
		if _, err := repo.CreateInvoice(ctx, cashier, pos.CreateInvoiceInput{
			Customer: fmt.Sprintf("guest-%d", i), Amount: amount, Payment: pos.PaymentCash,
		}); err != nil {
			t.Fatalf("seed invoice: %v", err)
		}
	}

	page, err := repo.ListInvoices(ctx, pos.InvoiceFilter{Sort: "amount", Order: "asc"})
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if page.Meta.Total != 3 || len(page.Data) != 3 {
		t.Fatalf("total = %d, len = %d, want 3", page.Meta.Total, len(page.Data))
	}
	if page.Data[0].Amount != 10 || page.Data[2].Amount != 30 {
		t.Fatalf("sort by amount broken: %+v", page.Data)
	}

	page, err = repo.ListInvoices(ctx, pos.InvoiceFilter{CashierID: eko.ID})
	if err != nil {
		t.Fatalf("ListInvoices by cashier: %v", err)
	}
	if page.Meta.Total != 1 || page.Data[0].Cashier.Name != "eko" {
		t.Fatalf("cashier filter broken: %+v", page)
	}

	page, err = repo.ListInvoices(ctx, pos.InvoiceFilter{Search: "guest-1"})
	if err != nil {
		t.Fatalf("ListInvoices search: %v", err)
	}
	if page.Meta.Total != 1 || page.Data[0].Customer != "guest-1" {
		t.Fatalf("search broken: %+v", page)
	}

	page, err = repo.ListInvoices(ctx, pos.InvoiceFilter{Limit: 2, Page: 2})
	if err != nil {
		t.Fatalf("ListInvoices paged: %v", err)
	}
	if len(page.Data) != 1 || page.Meta.TotalPages != 2 {
		t.Fatalf("paging broken: len=%d totalPages=%d", len(page.Data), page.Meta.TotalPages)
	}
}
