package pos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// LoyaltyLedger resolves members and settles their point balance inside the
// order transaction.
type LoyaltyLedger struct{}

// ResolveMember matches the free-form customer field against members, phone
// first, then name. The matched row is locked so concurrent sales settle the
// balance one at a time. Nothing matching is not an error: walk-in customer.
func (LoyaltyLedger) ResolveMember(ctx context.Context, tx pgx.Tx, customer string) (*Member, error) {
	m := &Member{}
	scan := func(row pgx.Row) error {
		return row.Scan(&m.ID, &m.Name, &m.Phone, &m.Point)
	}

	err := scan(tx.QueryRow(ctx, `SELECT id, name, phone, point FROM members WHERE phone=$1 FOR UPDATE`, customer))
	if errors.Is(err, pgx.ErrNoRows) {
		err = scan(tx.QueryRow(ctx, `SELECT id, name, phone, point FROM members WHERE name=$1 FOR UPDATE`, customer))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// PointDelta is the point movement one sale causes: paying with points spends
// the amount, the money methods earn 10% cashback rounded down, anything else
// leaves the balance alone.
func PointDelta(payment Payment, amount int64) int64 {
	switch payment {
	case PaymentPoint:
		return -amount
	case PaymentCash, PaymentQRIS, PaymentCard:
		return amount / 10
	case PaymentOther:
		return 0
	}
	return 0
}

// Settle applies the point movement for one sale and returns the delta. A nil
// member is a no-op.
func (LoyaltyLedger) Settle(ctx context.Context, tx pgx.Tx, m *Member, payment Payment, amount int64) (int64, error) {
	if m == nil {
		return 0, nil
	}

	if payment == PaymentPoint && m.Point < amount {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughPoint, m.Point, amount)
	}

	delta := PointDelta(payment, amount)
	if delta == 0 {
		return 0, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE members SET point = point + $2, updated_at=NOW() WHERE id=$1`, m.ID, delta); err != nil {
		return 0, err
	}
	m.Point += delta
	return delta, nil
}
