package outbox

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProducer struct {
	fail    bool
	written []kafka.Message
}

func (p *stubProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.written = append(p.written, msgs...)
	return nil
}

// Integration tests run only when TEST_DATABASE_URL points at a database
// with the schema applied.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	t.Cleanup(pool.Close)
	return pool
}

func seedOutboxEvent(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	eventID := uuid.New()
	_, err := pool.Exec(ctx, `
	INSERT INTO outbox (event_id, event_type, payload, created_at)
	VALUES ($1, $2, $3, NOW())`,
		eventID, "activity.recorded", []byte(`{"userId": 7, "activityScore": 50}`))
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM outbox WHERE event_id = $1`, eventID)
	})
	return eventID
}

func publishedAt(t *testing.T, pool *pgxpool.Pool, eventID uuid.UUID) *time.Time {
	t.Helper()

	var published *time.Time
	err := pool.QueryRow(context.Background(),
		`SELECT published_at FROM outbox WHERE event_id = $1`, eventID).Scan(&published)
	require.NoError(t, err)
	return published
}

func TestDispatcherRetriesFailedBatch(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	eventID := seedOutboxEvent(t, pool)
	producer := &stubProducer{fail: true}
	d := NewDispatcher(pool, producer, time.Second, 10)

	// A failed publish leaves the row unpublished for the next poll.
	require.Error(t, d.processBatch(ctx))
	assert.Nil(t, publishedAt(t, pool, eventID))

	producer.fail = false
	require.NoError(t, d.processBatch(ctx))
	assert.NotNil(t, publishedAt(t, pool, eventID))

	keys := make([]string, 0, len(producer.written))
	for _, msg := range producer.written {
		keys = append(keys, string(msg.Key))
	}
	assert.Contains(t, keys, eventID.String())
}

func TestDispatcherSkipsPublishedEvents(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	eventID := seedOutboxEvent(t, pool)
	producer := &stubProducer{}
	d := NewDispatcher(pool, producer, time.Second, 10)

	require.NoError(t, d.processBatch(ctx))
	require.NotNil(t, publishedAt(t, pool, eventID))

	// A second pass finds nothing new for this event.
	before := len(producer.written)
	require.NoError(t, d.processBatch(ctx))
	for _, msg := range producer.written[before:] {
		assert.NotEqual(t, eventID.String(), string(msg.Key))
	}
}
