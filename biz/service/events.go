package service

import (
	"context"

	"finance-hertz/biz/model"
)

// Publisher 成交事件下游（Kafka、WebSocket），实现方不得阻塞调用方
type Publisher interface {
	PublishTrade(ctx context.Context, ev model.TradeEvent)
}

// Publishers 依次投递到每个下游
type Publishers []Publisher

func (ps Publishers) PublishTrade(ctx context.Context, ev model.TradeEvent) {
	for _, p := range ps {
		p.PublishTrade(ctx, ev)
	}
}

type noopPublisher struct{}

func (noopPublisher) PublishTrade(context.Context, model.TradeEvent) {}
