package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-pos-backoffice.git/internal/audit"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/pos"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/redisx"
)

type InvoicesHandler struct {
	Repo  *pos.Repo
	Redis *redis.Client
	Audit *audit.Recorder
}

type menuRef struct {
	ID int64 `json:"id"`
}

type createInvoiceReq struct {
	Customer string    `json:"customer"`
	Amount   int64     `json:"amount"`
	Payment  string    `json:"payment"`
	Menus    []menuRef `json:"menus"`
}

func (h *InvoicesHandler) Register(r *chi.Mux) {
	r.Post("/invoices", h.create)
	r.Get("/invoices", h.list)
	r.Get("/invoices/{id}", h.get)
}

func (h *InvoicesHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing cashier identity"})
		return
	}

	var req createInvoiceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Customer == "" || req.Payment == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	menuIDs := make([]int64, 0, len(req.Menus))
	for _, m := range req.Menus {
		menuIDs = append(menuIDs, m.ID)
	}

	inv, err := h.Repo.CreateInvoice(ctx, actor, pos.CreateInvoiceInput{
		Customer: req.Customer,
		Amount:   req.Amount,
		Payment:  pos.ParsePayment(req.Payment),
		MenuIDs:  menuIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheInvoice(ctx, inv)
	h.Audit.Record(actor, audit.ModuleInvoice,
		fmt.Sprintf("User <b>%s</b> add <b>%s</b> as new invoice at <b>%s</b>.",
			actor.Name, inv.Code, audit.FormatDate(time.Now())),
		req)

	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvoicesHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// invoices never change after commit, serve from cache when warm
	key := fmt.Sprintf(redisx.KeyInvoice, id)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	inv, err := h.Repo.GetInvoice(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheInvoice(ctx, inv)
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvoicesHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	page, err := h.Repo.ListInvoices(ctx, parseInvoiceFilter(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *InvoicesHandler) cacheInvoice(ctx context.Context, inv *pos.Invoice) {
	b, err := json.Marshal(inv)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyInvoice, inv.ID)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLInvoiceCache).Err()
}

func parseInvoiceFilter(r *http.Request) pos.InvoiceFilter {
	q := r.URL.Query()
	f := pos.InvoiceFilter{
		Search:   q.Get("search"),
		Customer: q.Get("customer"),
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
	}
	f.CashierID, _ = strconv.ParseInt(q.Get("cashier_id"), 10, 64)
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	return f
}
