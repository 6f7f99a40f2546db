// Package redis keeps OAuth code verifiers in Redis so several server
// replicas can share in-flight sign-in flows.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/store"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "learn:pkce:"

// Verifiers implements store.Verifiers. Entries carry a Redis TTL matching
// their expiry, so there is nothing for housekeeping to purge.
type Verifiers struct {
	client *goredis.Client
	now    func() time.Time
}

var _ store.Verifiers = (*Verifiers)(nil)

// NewVerifiers parses url (redis://...) and connects.
func NewVerifiers(ctx context.Context, url string) (*Verifiers, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Verifiers{client: client, now: time.Now}, nil
}

type entry struct {
	Value       string    `json:"v"`
	CallbackURL string    `json:"cb,omitempty"`
	CreatedAt   time.Time `json:"c"`
	ExpiresAt   time.Time `json:"e"`
}

func (s *Verifiers) CreateVerifier(ctx context.Context, v domain.CodeVerifier) error {
	ttl := v.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("redis: verifier already expired")
	}

	raw, err := json.Marshal(entry{
		Value:       v.Value,
		CallbackURL: v.CallbackURL,
		CreatedAt:   v.CreatedAt.UTC(),
		ExpiresAt:   v.ExpiresAt.UTC(),
	})
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+v.FlowID, raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *Verifiers) TakeVerifier(ctx context.Context, flowID string) (domain.CodeVerifier, error) {
	raw, err := s.client.GetDel(ctx, keyPrefix+flowID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.CodeVerifier{}, store.ErrNotFound
	}
	if err != nil {
		return domain.CodeVerifier{}, err
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.CodeVerifier{}, fmt.Errorf("redis: decode verifier: %w", err)
	}

	v := domain.CodeVerifier{
		FlowID:      flowID,
		Value:       e.Value,
		CallbackURL: e.CallbackURL,
		CreatedAt:   e.CreatedAt,
		ExpiresAt:   e.ExpiresAt,
	}
	if v.Expired(s.now()) {
		return domain.CodeVerifier{}, store.ErrNotFound
	}
	return v, nil
}

// DeleteExpiredVerifiers does nothing; Redis expires keys itself.
func (s *Verifiers) DeleteExpiredVerifiers(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s *Verifiers) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *Verifiers) Close() error { return s.client.Close() }
