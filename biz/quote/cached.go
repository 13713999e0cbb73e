package quote

import (
	"context"
	"encoding/json"
	"time"

	"finance-hertz/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "quote:"

// CachedProvider 在 Redis 中缓存成功的报价，Redis 故障时直接回源
type CachedProvider struct {
	next Provider
	rdb  *redis.Client
	ttl  time.Duration
}

// NewCachedProvider rdb 为空或 ttl<=0 时不缓存，直接返回 next
func NewCachedProvider(next Provider, rdb *redis.Client, ttl time.Duration) Provider {
	if rdb == nil || ttl <= 0 {
		return next
	}
	return &CachedProvider{next: next, rdb: rdb, ttl: ttl}
}

func (p *CachedProvider) Lookup(ctx context.Context, symbol string) (model.Quote, error) {
	symbol = NormalizeSymbol(symbol)
	key := cacheKeyPrefix + symbol

	if raw, err := p.rdb.Get(ctx, key).Bytes(); err == nil {
		var q model.Quote
		if err := json.Unmarshal(raw, &q); err == nil {
			return q, nil
		}
	} else if err != redis.Nil {
		hlog.CtxWarnf(ctx, "[quote] cache get failed, symbol=%s, err=%v", symbol, err)
	}

	q, err := p.next.Lookup(ctx, symbol)
	if err != nil {
		return q, err
	}
	if b, err := json.Marshal(q); err == nil {
		if err := p.rdb.Set(ctx, key, b, p.ttl).Err(); err != nil {
			hlog.CtxWarnf(ctx, "[quote] cache set failed, symbol=%s, err=%v", symbol, err)
		}
	}
	return q, nil
}
