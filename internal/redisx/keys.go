package redisx

import "time"

const (
	// Cache of the invoice aggregate: invoice:{id} -> JSON. Invoices are
	// immutable after commit, so the cache can't go stale, only cold.
	KeyInvoice = "invoice:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLInvoiceCache = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)
