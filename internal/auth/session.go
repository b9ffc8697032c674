// AngelaMos | 2026
// session.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

type SessionStore interface {
	Create(ctx context.Context, rec *SessionRecord) error
	Get(ctx context.Context, id string) (*SessionRecord, error)
	Delete(ctx context.Context, accountID int64, id string) error
	DeleteAllForAccount(ctx context.Context, accountID int64) error
	ListForAccount(ctx context.Context, accountID int64) ([]SessionRecord, error)
}

type redisSessionStore struct {
	redis *core.Redis
}

func NewSessionStore(r *core.Redis) SessionStore {
	return &redisSessionStore{redis: r}
}

func (s *redisSessionStore) sessionKey(id string) string {
	return s.redis.Key("session", id)
}

func (s *redisSessionStore) indexKey(accountID int64) string {
	return s.redis.Key("account_sessions", strconv.FormatInt(accountID, 10))
}

func (s *redisSessionStore) Create(ctx context.Context, rec *SessionRecord) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("create session: %w", core.ErrTokenExpired)
	}

	key := s.sessionKey(rec.ID)
	_, err := s.redis.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"account_id": rec.AccountID,
			"user_agent": rec.UserAgent,
			"ip_address": rec.IPAddress,
			"created_at": rec.CreatedAt.Unix(),
			"expires_at": rec.ExpiresAt.Unix(),
		})
		pipe.Expire(ctx, key, ttl)
		pipe.SAdd(ctx, s.indexKey(rec.AccountID), rec.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*SessionRecord, error) {
	fields, err := s.redis.Client.HGetAll(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("get session: %w", core.ErrNotFound)
	}

	rec, err := decodeSession(id, fields)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	return rec, nil
}

func (s *redisSessionStore) Delete(
	ctx context.Context,
	accountID int64,
	id string,
) error {
	_, err := s.redis.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(id))
		pipe.SRem(ctx, s.indexKey(accountID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

func (s *redisSessionStore) DeleteAllForAccount(
	ctx context.Context,
	accountID int64,
) error {
	index := s.indexKey(accountID)

	ids, err := s.redis.Client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("list account sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.sessionKey(id))
	}
	keys = append(keys, index)

	if err := s.redis.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke account sessions: %w", err)
	}

	return nil
}

// ListForAccount returns live sessions newest first and drops index entries
// whose record has already expired.
func (s *redisSessionStore) ListForAccount(
	ctx context.Context,
	accountID int64,
) ([]SessionRecord, error) {
	index := s.indexKey(accountID)

	ids, err := s.redis.Client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, fmt.Errorf("list account sessions: %w", err)
	}

	records := make([]SessionRecord, 0, len(ids))
	var stale []any

	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if len(stale) > 0 {
		//nolint:errcheck // best-effort index pruning
		_ = s.redis.Client.SRem(ctx, index, stale...).Err()
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return records, nil
}

func decodeSession(id string, fields map[string]string) (*SessionRecord, error) {
	accountID, err := strconv.ParseInt(fields["account_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode account id: %w", core.ErrTokenInvalid)
	}

	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	expiresAt, _ := strconv.ParseInt(fields["expires_at"], 10, 64)

	return &SessionRecord{
		ID:        id,
		AccountID: accountID,
		UserAgent: fields["user_agent"],
		IPAddress: fields["ip_address"],
		CreatedAt: time.Unix(createdAt, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
	}, nil
}
