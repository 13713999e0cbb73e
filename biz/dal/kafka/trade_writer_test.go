package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"finance-hertz/biz/model"

	"github.com/cloudwego/hertz/pkg/common/test/assert"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestTradeWriterFlushesOnClose(t *testing.T) {
	fw := &fakeWriter{}
	tw := NewTradeWriter(fw, "finance_trades")
	for i := 0; i < 250; i++ {
		tw.PublishTrade(context.Background(), model.TradeEvent{
			EventID: "e",
			UserID:  uint(i%3 + 1),
			Side:    model.SideBuy,
			Symbol:  "AAPL",
		})
	}
	tw.Close()
	// 重复关闭无副作用
	tw.Close()

	fw.mu.Lock()
	defer fw.mu.Unlock()
	assert.DeepEqual(t, 250, len(fw.msgs))
	var ev model.TradeEvent
	assert.Nil(t, json.Unmarshal(fw.msgs[0].Value, &ev))
	assert.DeepEqual(t, "AAPL", ev.Symbol)
	assert.DeepEqual(t, "1", string(fw.msgs[0].Key))
}

func TestTradeWriterDropsAfterClose(t *testing.T) {
	fw := &fakeWriter{}
	tw := NewTradeWriter(fw, "finance_trades")
	tw.Close()
	tw.PublishTrade(context.Background(), model.TradeEvent{EventID: "late"})
	assert.DeepEqual(t, 0, len(fw.msgs))
}
