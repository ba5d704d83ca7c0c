package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/formtree/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.FormStore using Redis.
// Documents are stored as JSON strings; a sorted set indexes form IDs by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for stored forms.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for forms.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "formtree:form:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(formID string) string {
	return s.prefix + formID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the document to Redis.
func (s *Store) Save(ctx context.Context, formID string, doc domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal form: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(formID), data, s.ttl)

	// Score = Now + TTL, or far future when forms never expire.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: formID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the document from Redis.
func (s *Store) Load(ctx context.Context, formID string) (domain.Document, error) {
	val, err := s.client.Get(ctx, s.key(formID)).Bytes()
	if err != nil {
		if err == backend.Nil {
			return domain.Document{}, domain.ErrFormNotFound
		}
		return domain.Document{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	doc, err := domain.ParseDocument(val)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to unmarshal form: %w", err)
	}
	return doc, nil
}

// Delete removes the form.
func (s *Store) Delete(ctx context.Context, formID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(formID))
	pipe.ZRem(ctx, s.indexKey(), formID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the stored forms, pruning index entries whose key expired.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired forms: %w", err)
	}

	forms, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	return forms, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
