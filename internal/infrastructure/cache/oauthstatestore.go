package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"atrium/internal/shared/biztime"
	"atrium/internal/shared/constants"
)

// ErrStateNotFound is returned when a state token is unknown, expired, or
// already consumed.
var ErrStateNotFound = errors.New("oauth state not found or expired")

// OAuthStateInfo carries the per-flow data bound to a state token.
type OAuthStateInfo struct {
	Provider     constants.Provider `json:"provider"`
	CodeVerifier string             `json:"code_verifier"`
	RedirectURI  string             `json:"redirect_uri"`
	CreatedAt    time.Time          `json:"created_at"`
}

// OAuthStateStore persists OAuth state tokens in Redis with one-time-use
// semantics. Consumption uses GETDEL so a state can never authorize two
// callbacks, which blocks replay.
type OAuthStateStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewOAuthStateStore(client *redis.Client, ttl time.Duration) *OAuthStateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OAuthStateStore{
		client: client,
		prefix: "oauth:state:",
		ttl:    ttl,
	}
}

// Save binds the flow data to the state token for the store's TTL.
func (s *OAuthStateStore) Save(ctx context.Context, state string, info OAuthStateInfo) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	info.CreatedAt = biztime.NowUTC()
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal state info: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+state, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store state in redis: %w", err)
	}
	return nil
}

// Consume atomically retrieves and deletes the state token.
func (s *OAuthStateStore) Consume(ctx context.Context, state string) (*OAuthStateInfo, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	data, err := s.client.GetDel(ctx, s.prefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to retrieve state from redis: %w", err)
	}

	var info OAuthStateInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state info: %w", err)
	}
	return &info, nil
}
