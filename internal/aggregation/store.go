package aggregation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rvelasq/eval360/internal/domain"
)

// ErrAggregationNotFound indicates no stored aggregation exists for the
// session.
var ErrAggregationNotFound = errors.New("aggregation not found")

// StoredAggregation is the persisted form of one session's aggregation.
type StoredAggregation struct {
	// SessionID identifies the evaluation session.
	SessionID string `json:"session_id"`

	// Fingerprint is the deterministic identity of the inputs that
	// produced Result. Duplicate triggers deduplicate on it.
	Fingerprint string `json:"fingerprint"`

	// Result is the aggregation record.
	Result *domain.AggregationResult `json:"result"`

	// ComputedAt records when the record was written.
	ComputedAt time.Time `json:"computed_at"`
}

// AggregationStore holds derived aggregation records keyed by session.
// The store is the coordination point the engine itself refuses to be:
// Compute is referentially transparent and runs concurrently without locks,
// so correctness under at-least-once triggers only needs writes
// deduplicated by a single consistency-bearing operation here.
type AggregationStore interface {
	// Get returns the stored aggregation for a session, or
	// ErrAggregationNotFound.
	Get(ctx context.Context, sessionID string) (*StoredAggregation, error)

	// PutIfAbsent writes the record unless one already exists for the
	// session. It returns the record that ended up stored and whether this
	// call wrote it. With overwrite set, the write is unconditional.
	PutIfAbsent(ctx context.Context, record StoredAggregation, overwrite bool) (*StoredAggregation, bool, error)
}

// MemoryStore is an in-process AggregationStore for tests and local
// development.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]StoredAggregation
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]StoredAggregation)}
}

// Get implements AggregationStore.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*StoredAggregation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[sessionID]
	if !ok {
		return nil, ErrAggregationNotFound
	}
	return &record, nil
}

// PutIfAbsent implements AggregationStore.
func (s *MemoryStore) PutIfAbsent(_ context.Context, record StoredAggregation, overwrite bool) (*StoredAggregation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.SessionID]; ok && !overwrite {
		return &existing, false, nil
	}
	s.records[record.SessionID] = record
	return &record, true, nil
}

// RedisStore is a Redis-backed AggregationStore. SET NX gives PutIfAbsent
// the atomic happens-before the dedup contract requires: concurrent workers
// that computed the same session race on one write, and the losers adopt
// the winner's record.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// DefaultAggregationTTL bounds how long a derived record lives before the
// next trigger recomputes it. Aggregations are fully reproducible, so
// expiry costs a recomputation, not data.
const DefaultAggregationTTL = 30 * 24 * time.Hour

// NewRedisStore creates a Redis-backed store. A non-positive ttl selects
// DefaultAggregationTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultAggregationTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// aggregationKey namespaces session records in the shared keyspace.
func aggregationKey(sessionID string) string {
	return "eval360:aggregation:" + sessionID
}

// Get implements AggregationStore.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*StoredAggregation, error) {
	raw, err := s.client.Get(ctx, aggregationKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrAggregationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed for session %s: %w", sessionID, err)
	}

	var record StoredAggregation
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("corrupt aggregation record for session %s: %w", sessionID, err)
	}
	return &record, nil
}

// PutIfAbsent implements AggregationStore.
func (s *RedisStore) PutIfAbsent(ctx context.Context, record StoredAggregation, overwrite bool) (*StoredAggregation, bool, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal aggregation record: %w", err)
	}

	key := aggregationKey(record.SessionID)

	if overwrite {
		if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			return nil, false, fmt.Errorf("redis set failed for session %s: %w", record.SessionID, err)
		}
		return &record, true, nil
	}

	wrote, err := s.client.SetNX(ctx, key, payload, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx failed for session %s: %w", record.SessionID, err)
	}
	if wrote {
		return &record, true, nil
	}

	existing, err := s.Get(ctx, record.SessionID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
