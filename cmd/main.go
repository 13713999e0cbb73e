package main

import (
	"context"
	"os"
	"time"

	"finance-hertz/biz/dal"
	"finance-hertz/biz/dal/pg"
	"finance-hertz/biz/dal/redis"
	"finance-hertz/biz/engine"
	"finance-hertz/biz/handler"
	"finance-hertz/biz/logger"
	"finance-hertz/biz/quote"
	"finance-hertz/biz/service"
	"finance-hertz/conf"
	"finance-hertz/server"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
)

func newQuoteProvider(c conf.Quote, rdb *goredis.Client) (quote.Provider, error) {
	var p quote.Provider
	switch c.Provider {
	case "static":
		p = quote.NewStaticProvider(c.Static)
	default:
		httpProvider, err := quote.NewHTTPProvider(c.BaseURL, os.Getenv(c.TokenEnv), time.Duration(c.TimeoutMS)*time.Millisecond)
		if err != nil {
			return nil, err
		}
		p = httpProvider
	}
	return quote.NewCachedProvider(p, rdb, time.Duration(c.CacheTTLSec)*time.Second), nil
}

func main() {
	_ = godotenv.Load()
	cfg := conf.GetConf()
	logger.Init(cfg.Hertz)
	defer logger.Sync()

	tradeWriter := dal.Init()
	defer dal.Close()

	ctx := context.Background()
	store := pg.NewStore(pg.GormDB)

	pool, err := engine.NewPool(cfg.Trading.ValuationWorkers)
	if err != nil {
		hlog.Fatalf("init worker pool: %v", err)
	}
	defer pool.Release()

	quotes, err := newQuoteProvider(cfg.Quote, redis.Client)
	if err != nil {
		hlog.Fatalf("init quote provider: %v", err)
	}

	index := service.NewSymbolIndex()
	if err := index.Load(ctx, store); err != nil {
		hlog.Fatalf("load symbol index: %v", err)
	}

	hub := server.NewHub(pool)
	hub.SetAllowedOrigins(cfg.Hertz.CorsOrigins)
	publishers := service.Publishers{hub}
	if tradeWriter != nil {
		publishers = append(publishers, tradeWriter)
		defer tradeWriter.Close()
	}

	auth, err := service.NewAuthService(store, redis.NewRevocations(redis.Client), cfg.Auth, cfg.Trading)
	if err != nil {
		hlog.Fatalf("init auth service: %v", err)
	}
	valuation := service.NewValuation(store, quotes, pool, cfg.Trading.IndicatorPrecision, cfg.Trading.Currency)
	h := &handler.Handler{
		Auth:      auth,
		Trade:     service.NewTradeService(store, quotes, valuation, index, publishers, cfg.Trading.Currency),
		Valuation: valuation,
		History:   service.NewHistoryService(store),
		Index:     index,
		Quotes:    quotes,
		Currency:  cfg.Trading.Currency,
		Ping:      pg.Ping,
	}

	srv := server.New(cfg.Hertz, h, hub)

	// 注册到 Consul，停机时注销
	if len(cfg.Registry.RegistryAddress) > 0 {
		consul, err := service.NewConsulHelperWithAddrs(cfg.Registry.RegistryAddress)
		if err != nil {
			hlog.Fatalf("connect consul: %v", err)
		}
		reg, err := service.ServiceRegistration(cfg.Registry.NodeID, cfg.Registry.ServiceName, cfg.Hertz.Address)
		if err != nil {
			hlog.Fatalf("build consul registration: %v", err)
		}
		if err := consul.Register(reg); err != nil {
			hlog.Fatalf("register consul service: %v", err)
		}
		srv.OnShutdown = append(srv.OnShutdown, func(ctx context.Context) {
			if err := consul.Deregister(reg.ID); err != nil {
				hlog.Warnf("deregister consul service: %v", err)
			}
		})
	}

	hlog.Infof("%s listening on %s, env=%s", cfg.Hertz.Service, cfg.Hertz.Address, cfg.Env)
	srv.Spin()
}
