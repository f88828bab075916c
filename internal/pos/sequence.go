package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sequencer hands out per-cashier daily invoice codes. The counter row is
// bumped in its own autocommit statement, outside the order transaction:
// acquire-then-commit. A sale that later rolls back leaves a gap in that day's
// sequence, it never reuses a number. Counting today's invoice rows instead
// would let two concurrent sales read the same count and collide.
type Sequencer struct {
	DB     *pgxpool.Pool
	Prefix string
	MaxLen int
}

// NextCode allocates the next sequence number for (cashier, today) and formats
// it. The date comes back from the database so the code and the counter key
// share one clock.
func (s *Sequencer) NextCode(ctx context.Context, cashierID int64) (string, error) {
	if cashierID <= 0 {
		return "", &ValidationError{Field: "cashier", Reason: "cashier id is required to generate the invoice code"}
	}

	var seq int
	var day time.Time
	err := s.DB.QueryRow(ctx, `
		INSERT INTO invoice_sequences (cashier_id, seq_date, last_value)
		VALUES ($1, CURRENT_DATE, 1)
		ON CONFLICT (cashier_id, seq_date)
		DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value, seq_date`, cashierID).Scan(&seq, &day)
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}

	return FormatCode(s.Prefix, cashierID, day, seq, s.MaxLen), nil
}

// FormatCode renders {prefix}/{cashier}/{YYYYMMDD}/{seq:04d}. Codes longer
// than maxLen get clipped after formatting; receipt printers downstream expect
// this exact shape, so it stays.
func FormatCode(prefix string, cashierID int64, day time.Time, seq, maxLen int) string {
	code := fmt.Sprintf("%s/%d/%s/%04d", prefix, cashierID, day.Format("20060102"), seq)
	if maxLen > 0 && len(code) > maxLen {
		code = code[:maxLen]
	}
	return code
}
