package redis

import (
	"context"
	"fmt"

	"finance-hertz/conf"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"
)

// Client 未配置 address 时为 nil，调用方需判空
var Client *redis.Client

func Init() {
	cli, err := NewClient(context.Background(), conf.GetConf().Redis)
	if err != nil {
		panic(err)
	}
	Client = cli
}

// NewClient 按配置创建客户端并 ping，address 为空返回 nil
func NewClient(ctx context.Context, c conf.Redis) (*redis.Client, error) {
	if c.Address == "" {
		hlog.Infof("redis disabled, quote cache and token revocation fall back to local")
		return nil, nil
	}
	cli := redis.NewClient(&redis.Options{
		Addr:     c.Address,
		Username: c.Username,
		Password: c.Password,
		DB:       c.DB,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("ping redis %s: %w", c.Address, err)
	}
	return cli, nil
}

func Close() {
	if Client != nil {
		_ = Client.Close()
	}
}
