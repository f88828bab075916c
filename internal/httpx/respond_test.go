package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariefcatur/go-pos-backoffice.git/internal/pos"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&pos.ValidationError{Field: "amount", Reason: "must not be negative"}, http.StatusBadRequest},
		{&pos.RecipeNotFoundError{MenuID: 9}, http.StatusNotFound},
		{pos.ErrInvoiceNotFound, http.StatusNotFound},
		{fmt.Errorf("get member: %w", pos.ErrMemberNotFound), http.StatusNotFound},
		{&pos.InsufficientStockError{IngredientID: 1, Required: 2, Available: 1}, http.StatusBadRequest},
		{fmt.Errorf("%w: have 50, need 100", pos.ErrNotEnoughPoint), http.StatusBadRequest},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, c.err)
		if rec.Code != c.want {
			t.Errorf("writeError(%v) = %d, want %d", c.err, rec.Code, c.want)
		}
	}
}

func TestActorFrom(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/invoices", nil)
	if _, ok := actorFrom(r); ok {
		t.Fatal("no headers should mean no actor")
	}

	r.Header.Set("X-Cashier-Id", "7")
	r.Header.Set("X-Cashier-Name", "dina")
	actor, ok := actorFrom(r)
	if !ok || actor.ID != 7 || actor.Name != "dina" {
		t.Fatalf("actor = %+v ok=%v", actor, ok)
	}

	r.Header.Set("X-Cashier-Id", "-1")
	if _, ok := actorFrom(r); ok {
		t.Fatal("non-positive id should be rejected")
	}
}

func TestParseInvoiceFilter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/invoices?search=INV&cashier_id=3&customer=Budi&sort=amount&order=desc&page=2&limit=5", nil)
	f := parseInvoiceFilter(r)
	want := pos.InvoiceFilter{
		Search: "INV", CashierID: 3, Customer: "Budi",
		Sort: "amount", Order: "desc", Page: 2, Limit: 5,
	}
	if f != want {
		t.Fatalf("filter = %+v, want %+v", f, want)
	}

	f = parseInvoiceFilter(httptest.NewRequest(http.MethodGet, "/invoices", nil))
	if f.Page != 0 || f.Limit != 0 || f.CashierID != 0 {
		t.Fatalf("empty query should parse to zero values: %+v", f)
	}
}
