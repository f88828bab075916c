package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-pos-backoffice.git/internal/pos"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var ve *pos.ValidationError
	var rnf *pos.RecipeNotFoundError
	var ins *pos.InsufficientStockError

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error()})
	case errors.As(err, &rnf):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": rnf.Error()})
	case errors.Is(err, pos.ErrInvoiceNotFound),
		errors.Is(err, pos.ErrMemberNotFound),
		errors.Is(err, pos.ErrStockNotFound),
		errors.Is(err, pos.ErrMenuNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &ins), errors.Is(err, pos.ErrNotEnoughPoint):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// actorFrom reads the cashier identity the auth layer in front of this
// service injects. No identity, no mutation.
func actorFrom(r *http.Request) (pos.Actor, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-Cashier-Id"), 10, 64)
	if err != nil || id <= 0 {
		return pos.Actor{}, false
	}
	return pos.Actor{ID: id, Name: r.Header.Get("X-Cashier-Name")}, true
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
