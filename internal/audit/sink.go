package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-pos-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/redisx"
)

// Sink consumes recorded events and persists them into the logs table.
type Sink struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

// HandleRecorded is the consumer handler. Redis dedup by event id keeps
// redelivered messages from producing duplicate log rows.
func (s *Sink) HandleRecorded(ctx context.Context, m kafkago.Message) error {
	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != EventRecorded {
		return nil // ignore
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "audit", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[RecordedPayload](env.Payload)
	if err != nil {
		return err
	}

	var userID *int64
	if p.ActorID > 0 {
		userID = &p.ActorID
	}
	if _, err := s.DB.Exec(ctx, `
		INSERT INTO logs (user_id, user_name, module, detail, additional_info, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, p.ActorName, p.Module, p.Detail, p.Extra, env.OccurredAt); err != nil {
		return err
	}

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return nil
}
