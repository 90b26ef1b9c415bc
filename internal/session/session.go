// Package session holds admin drafts between requests. Values are stored
// JSON-encoded so every driver observes the same copy semantics.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Driver names.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// DefaultTTL is how long an untouched draft survives.
const DefaultTTL = 2 * time.Hour

var sessionOps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_draft_session_operations_total",
		Help: "Draft session store operations by kind, operation and result.",
	},
	[]string{"kind", "op", "result"},
)

// Store keeps values of type T under generated IDs. Every write refreshes
// the TTL. Missing or expired IDs yield a NotFound AppError.
type Store[T any] interface {
	Create(ctx context.Context, v T) (string, error)
	Get(ctx context.Context, id string) (T, error)
	// Update loads the value, applies fn and stores the result. Nothing is
	// written when fn returns an error; that error is returned unchanged.
	Update(ctx context.Context, id string, fn func(*T) error) (T, error)
	Delete(ctx context.Context, id string) error
}

func newID() string {
	return uuid.New().String()
}

func encode[T any](v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

func decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode session: %w", err)
	}
	return v, nil
}

func observe(kind, op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	sessionOps.WithLabelValues(kind, op, result).Inc()
}
