package outbox

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
}

// Dispatcher polls the outbox table and publishes unpublished events. Rows in
// a failed batch stay unpublished and are retried on the next poll.
type Dispatcher struct {
	pool         *pgxpool.Pool
	producer     messageWriter
	pollInterval time.Duration
	batchSize    int
	done         chan struct{}
}

func NewDispatcher(pool *pgxpool.Pool, producer messageWriter, pollInterval time.Duration, batchSize int) *Dispatcher {
	return &Dispatcher{
		pool:         pool,
		producer:     producer,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		done:         make(chan struct{}),
	}
}

// Start runs the polling loop until ctx is cancelled. Call it in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		close(d.done)
	}()

	for {
		if err := d.processBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("outbox dispatcher: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until the dispatcher has stopped.
func (d *Dispatcher) Wait() {
	<-d.done
}

func (d *Dispatcher) processBatch(ctx context.Context) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
	SELECT event_id, event_type, payload, created_at
	FROM outbox
	WHERE published_at IS NULL
	ORDER BY created_at
	LIMIT $1
	FOR UPDATE SKIP LOCKED
	`

	rows, err := tx.Query(ctx, query, d.batchSize)
	if err != nil {
		return err
	}

	var batch []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.EventID, &msg.EventType, &msg.Payload, &msg.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		batch = append(batch, msg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return tx.Commit(ctx)
	}

	kafkaMsgs := make([]kafka.Message, 0, len(batch))
	eventIDs := make([]string, 0, len(batch))
	for _, msg := range batch {
		kafkaMsgs = append(kafkaMsgs, kafka.Message{
			Key:   []byte(msg.EventID.String()),
			Value: msg.Payload,
			Time:  msg.CreatedAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(msg.EventType)},
			},
		})
		eventIDs = append(eventIDs, msg.EventID.String())
	}

	if err := d.producer.WriteMessages(ctx, kafkaMsgs...); err != nil {
		// Leave the rows unpublished; the next poll retries them.
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE outbox SET published_at = NOW() WHERE event_id = ANY($1)`, eventIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("outbox dispatcher: published %d event(s)", len(batch))
	return nil
}
