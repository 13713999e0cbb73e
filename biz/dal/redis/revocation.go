package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:"

// Revocations 已注销的 token id，过期时间与 token 一致
// rdb 为空时退化为进程内记录（单节点开发环境）
type Revocations struct {
	rdb   *redis.Client
	mu    sync.Mutex
	local map[string]time.Time
}

func NewRevocations(rdb *redis.Client) *Revocations {
	return &Revocations{rdb: rdb, local: make(map[string]time.Time)}
}

// Revoke 记录 jti 直到 until
func (r *Revocations) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if r.rdb != nil {
		return r.rdb.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, exp := range r.local {
		if now.After(exp) {
			delete(r.local, id)
		}
	}
	r.local[jti] = until
	return nil
}

func (r *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r.rdb != nil {
		n, err := r.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.local[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(r.local, jti)
		return false, nil
	}
	return true, nil
}
