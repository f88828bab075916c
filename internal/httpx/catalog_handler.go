package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-pos-backoffice.git/internal/audit"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/pos"
)

// CatalogHandler exposes the plain CRUD surface: stocks, members, menus.
type CatalogHandler struct {
	Catalog *pos.Catalog
	Audit   *audit.Recorder
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/stocks", h.listStocks)
	r.Post("/stocks", h.createStock)
	r.Get("/stocks/{id}", h.getStock)
	r.Put("/stocks/{id}", h.updateStock)

	r.Get("/members", h.listMembers)
	r.Post("/members", h.createMember)
	r.Get("/members/{id}", h.getMember)
	r.Put("/members/{id}", h.updateMember)
	r.Delete("/members/{id}", h.deleteMember)

	r.Get("/menus", h.listMenus)
	r.Post("/menus", h.createMenu)
	r.Get("/menus/{id}", h.getMenu)
	r.Put("/menus/{id}", h.updateMenu)
	r.Delete("/menus/{id}", h.deleteMenu)
}

func (h *CatalogHandler) audit(actor pos.Actor, module, verb, name string, extra any) {
	h.Audit.Record(actor, module,
		fmt.Sprintf("User <b>%s</b> %s <b>%s</b> at <b>%s</b>.",
			actor.Name, verb, name, audit.FormatDate(time.Now())),
		extra)
}

func reqCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 3*time.Second)
}

// ---- stocks ----

func (h *CatalogHandler) listStocks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()
	out, err := h.Catalog.ListStocks(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) getStock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()
	s, err := h.Catalog.GetStock(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *CatalogHandler) createStock(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing cashier identity"})
		return
	}
	var in pos.StockInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()
	s, err := h.Catalog.CreateStock(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.audit(actor, audit.ModuleStock, "add", s.Name, in)
	writeJSON(w, http.StatusCreated, s)
}

func (h *CatalogHandler) updateStock(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing cashier identity"})
		return
	}
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var in pos.StockInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()
	s, err := h.Catalog.UpdateStock(ctx, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.audit(actor, audit.ModuleStock, "update", s.Name, in)
	writeJSON(w, http.StatusOK, s)
}

// ---- members ----

func (h *CatalogHandler) listMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()
	out, err := h.Catalog.ListMembers(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) getMember(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()
	m, err := h.Catalog.GetMember(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *CatalogHandler) createMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing cashier identity"})
		return
	}
	var in pos.MemberInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()
	m, err := h.Catalog.CreateMember(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.audit(actor, audit.ModuleMember, "add", m.Name, in)
	writeJSON(w, http.StatusCreated, m)
}

func (h *CatalogHandler) updateMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing cashier identity"})
		return
	}
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var in pos.MemberInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()
	m, err := h.Catalog.UpdateMember(ctx, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.audit(actor, audit.ModuleMember, "update", m.Name, in)
	writeJSON(w, http.StatusOK, m)
}

func (h *CatalogHandler) deleteMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing cashier identity"})
		return
	}
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()
	if err := h.Catalog.DeleteMember(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	h.audit(actor, audit.ModuleMember, "delete member id", chi.URLParam(r, "id"), nil)
	w.WriteHeader(http.StatusNoContent)
}

// ---- menus ----

func (h *CatalogHandler) listMenus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()
	out, err := h.Catalog.ListMenus(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) getMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()
	rc, err := h.Catalog.GetMenu(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (h *CatalogHandler) createMenu(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing cashier identity"})
		return
	}
	var in pos.MenuInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()
	rc, err := h.Catalog.CreateMenu(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.audit(actor, audit.ModuleMenu, "add", rc.Name, in)
	writeJSON(w, http.StatusCreated, rc)
}

func (h *CatalogHandler) updateMenu(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing cashier identity"})
		return
	}
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var in pos.MenuInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()
	rc, err := h.Catalog.UpdateMenu(ctx, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.audit(actor, audit.ModuleMenu, "update", rc.Name, in)
	writeJSON(w, http.StatusOK, rc)
}

func (h *CatalogHandler) deleteMenu(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing cashier identity"})
		return
	}
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()
	if err := h.Catalog.DeleteMenu(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	h.audit(actor, audit.ModuleMenu, "delete menu id", chi.URLParam(r, "id"), nil)
	w.WriteHeader(http.StatusNoContent)
}
