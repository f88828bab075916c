package pos

import (
	"strings"
	"time"
)

// Payment is a closed set; anything the client sends outside of it parses to
// PaymentOther, which settles without touching points.
type Payment string

const (
	PaymentCash  Payment = "cash"
	PaymentQRIS  Payment = "qris"
	PaymentCard  Payment = "card"
	PaymentPoint Payment = "point"
	PaymentOther Payment = "other"
)

func ParsePayment(s string) Payment {
	switch Payment(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentCash:
		return PaymentCash
	case PaymentQRIS:
		return PaymentQRIS
	case PaymentCard:
		return PaymentCard
	case PaymentPoint:
		return PaymentPoint
	default:
		return PaymentOther
	}
}

// Actor identifies the authenticated cashier. Auth itself lives outside this
// service; handlers receive the identity explicitly and pass it down.
type Actor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Stock struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RecipeIngredient struct {
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name,omitempty"`
	Amount       float64 `json:"amount"` // consumed per single unit sold
	Unit         string  `json:"unit"`
}

type Recipe struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Price       int64              `json:"price"`
	CategoryID  *int64             `json:"category_id,omitempty"`
	Ingredients []RecipeIngredient `json:"ingredients,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type Member struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Point     int64     `json:"point"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type InvoiceLine struct {
	MenuID   int64  `json:"menu_id"`
	MenuName string `json:"menu_name,omitempty"`
	Price    int64  `json:"price,omitempty"`
	Quantity int    `json:"quantity"`
}

type Invoice struct {
	ID        int64         `json:"id"`
	Code      string        `json:"code"`
	Customer  string        `json:"customer"`
	Amount    int64         `json:"amount"`
	Payment   Payment       `json:"payment"`
	Cashier   Actor         `json:"cashier"`
	Lines     []InvoiceLine `json:"lines"`
	CreatedAt time.Time     `json:"created_at"`
}

// IngredientDemand is one expanded recipe line: how much of one ingredient a
// sale requires.
type IngredientDemand struct {
	IngredientID int64
	Required     float64
}

// AggregateCart collapses duplicate menu ids into per-menu quantities. The
// returned slice keeps first-seen order so line inserts stay deterministic.
func AggregateCart(menuIDs []int64) []InvoiceLine {
	idx := make(map[int64]int, len(menuIDs))
	lines := make([]InvoiceLine, 0, len(menuIDs))
	for _, id := range menuIDs {
		if i, ok := idx[id]; ok {
			lines[i].Quantity++
			continue
		}
		idx[id] = len(lines)
		lines = append(lines, InvoiceLine{MenuID: id, Quantity: 1})
	}
	return lines
}
