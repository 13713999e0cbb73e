package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"finance-hertz/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/segmentio/kafka-go"
)

const (
	batchSize     = 100
	flushInterval = 10 * time.Millisecond
	queueSize     = 4096
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// TradeWriter 成交事件批量写入 Kafka，key 为 user id 保证同一用户有序
type TradeWriter struct {
	w      messageWriter
	topic  string
	events chan model.TradeEvent
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewTradeWriter(w messageWriter, topic string) *TradeWriter {
	tw := &TradeWriter{
		w:      w,
		topic:  topic,
		events: make(chan model.TradeEvent, queueSize),
		done:   make(chan struct{}),
	}
	tw.wg.Add(1)
	go tw.loop()
	return tw
}

// PublishTrade 非阻塞，队列满时丢弃并记录日志
func (tw *TradeWriter) PublishTrade(_ context.Context, ev model.TradeEvent) {
	select {
	case <-tw.done:
		hlog.Warnf("[TradeKafka] writer closed, drop event=%s", ev.EventID)
		return
	default:
	}
	select {
	case tw.events <- ev:
	default:
		hlog.Errorf("[TradeKafka] queue full, drop event=%s", ev.EventID)
	}
}

func (tw *TradeWriter) loop() {
	defer tw.wg.Done()
	batch := make([]kafka.Message, 0, batchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case ev := <-tw.events:
			batch = tw.appendEvent(batch, ev)
			if len(batch) >= batchSize {
				tw.flush(&batch)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				tw.flush(&batch)
			}
		case <-tw.done:
			// 写完剩余数据再退出
			for {
				select {
				case ev := <-tw.events:
					batch = tw.appendEvent(batch, ev)
				default:
					tw.flush(&batch)
					return
				}
			}
		}
	}
}

func (tw *TradeWriter) appendEvent(batch []kafka.Message, ev model.TradeEvent) []kafka.Message {
	b, err := json.Marshal(ev)
	if err != nil {
		hlog.Errorf("[TradeKafka] marshal event=%s failed: %v", ev.EventID, err)
		return batch
	}
	return append(batch, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(ev.UserID), 10)),
		Value: b,
	})
}

func (tw *TradeWriter) flush(batch *[]kafka.Message) {
	if len(*batch) == 0 {
		return
	}
	if err := tw.w.WriteMessages(context.Background(), (*batch)...); err != nil {
		hlog.Errorf("[TradeKafka] write failed, topic=%v, count=%d, err=%v", tw.topic, len(*batch), err)
	} else {
		hlog.Debugf("[TradeKafka] write ok, topic=%v, count=%d", tw.topic, len(*batch))
	}
	*batch = (*batch)[:0]
}

// Close 停止接收并刷出剩余事件
func (tw *TradeWriter) Close() {
	tw.once.Do(func() {
		close(tw.done)
		tw.wg.Wait()
	})
}
