package pos

import (
	"testing"
	"time"
)

func TestAggregateCart(t *testing.T) {
	lines := AggregateCart([]int64{1, 1, 2})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].MenuID != 1 || lines[0].Quantity != 2 {
		t.Fatalf("line 0 = %+v, want menu 1 qty 2", lines[0])
	}
	if lines[1].MenuID != 2 || lines[1].Quantity != 1 {
		t.Fatalf("line 1 = %+v, want menu 2 qty 1", lines[1])
	}

	if got := AggregateCart(nil); len(got) != 0 {
		t.Fatalf("empty cart should aggregate to nothing, got %v", got)
	}

	// first-seen order survives interleaving
	lines = AggregateCart([]int64{3, 1, 3, 1, 3})
	if lines[0].MenuID != 3 || lines[0].Quantity != 3 || lines[1].MenuID != 1 || lines[1].Quantity != 2 {
		t.Fatalf("unexpected aggregation: %+v", lines)
	}
}

func TestParsePayment(t *testing.T) {
	cases := []struct {
		in   string
		want Payment
	}{
		{"cash", PaymentCash},
		{"QRIS", PaymentQRIS},
		{" card ", PaymentCard},
		{"point", PaymentPoint},
		{"gopay", PaymentOther},
		{"", PaymentOther},
	}
	for _, c := range cases {
		if got := ParsePayment(c.in); got != c.want {
			t.Errorf("ParsePayment(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPointDelta(t *testing.T) {
	cases := []struct {
		payment Payment
		amount  int64
		want    int64
	}{
		{PaymentPoint, 100, -100},
		{PaymentCash, 100, 10},
		{PaymentQRIS, 105, 10}, // floor, not round
		{PaymentCard, 9, 0},
		{PaymentOther, 100, 0},
	}
	for _, c := range cases {
		if got := PointDelta(c.payment, c.amount); got != c.want {
			t.Errorf("PointDelta(%q, %d) = %d, want %d", c.payment, c.amount, got, c.want)
		}
	}
}

func TestFormatCode(t *testing.T) {
	day := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	if got := FormatCode("INV", 7, day, 1, 20); got != "INV/7/20260901/0001" {
		t.Fatalf("got %q", got)
	}
	if got := FormatCode("INV", 7, day, 123, 20); got != "INV/7/20260901/0123" {
		t.Fatalf("got %q", got)
	}

	// truncation happens after formatting, preserved for downstream compat
	if got := FormatCode("INV", 7, day, 1, 10); got != "INV/7/2026" {
		t.Fatalf("truncated code = %q", got)
	}

	// maxLen 0 disables truncation
	long := FormatCode("INVOICE", 123456, day, 9999, 0)
	if long != "INVOICE/123456/20260901/9999" {
		t.Fatalf("got %q", long)
	}
}
