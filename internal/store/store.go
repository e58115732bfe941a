// Package store persists issue and chat snapshots in a key-value backend.
//
// Writes never fail the caller: the in-memory state stays authoritative and a
// failed save is only logged. Reads fall back to a default on absence or on
// any read or decode error.
package store

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"github.com/pageza/issuedesk/backend/internal/models"
)

// Fixed keys of the two persisted collections.
const (
	IssuesKey   = "issue-tracker-issues"
	MessagesKey = "issue-tracker-chat-messages"
)

// KV is a raw key-value backend.
type KV interface {
	// Get returns the stored bytes and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Codec binds a key to the JSON encoding of one stored entity.
type Codec[T any] struct {
	Key string
}

// NewCodec returns a codec for an arbitrary key.
func NewCodec[T any](key string) Codec[T] {
	return Codec[T]{Key: key}
}

func (c Codec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

// Decode parses data. Timestamps are RFC 3339 strings on disk and come back as time.Time.
func (c Codec[T]) Decode(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

var (
	IssuesCodec   = NewCodec[[]models.Issue](IssuesKey)
	MessagesCodec = NewCodec[models.MessageMap](MessagesKey)
)

// Store wraps a KV backend with the save/load policy.
type Store struct {
	kv     KV
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store over kv.
func New(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the backend when it holds resources.
func (s *Store) Close() error {
	if c, ok := s.kv.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Save encodes v and writes it under the codec's key. Failures are logged, not returned.
func Save[T any](ctx context.Context, s *Store, c Codec[T], v T) {
	data, err := c.Encode(v)
	if err != nil {
		s.logger.Printf("[Store] Failed to encode %s: %v", c.Key, err)
		return
	}
	if err := s.kv.Set(ctx, c.Key, data); err != nil {
		s.logger.Printf("[Store] Failed to save %s: %v", c.Key, err)
	}
}

// Load reads the codec's key, returning def when the key is absent or unreadable.
func Load[T any](ctx context.Context, s *Store, c Codec[T], def T) T {
	data, ok, err := s.kv.Get(ctx, c.Key)
	if err != nil {
		s.logger.Printf("[Store] Failed to read %s: %v", c.Key, err)
		return def
	}
	if !ok {
		return def
	}
	v, err := c.Decode(data)
	if err != nil {
		s.logger.Printf("[Store] Failed to parse %s: %v", c.Key, err)
		return def
	}
	return v
}
