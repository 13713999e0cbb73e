package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finance-hertz/conf"

	"github.com/segmentio/kafka-go"
)

var writers sync.Map // map[string]*kafka.Writer

// GetWriter 获取指定 topic 的 kafka.Writer，自动复用
func GetWriter(brokers []string, topic string) *kafka.Writer {
	if val, ok := writers.Load(topic); ok {
		return val.(*kafka.Writer)
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	actual, _ := writers.LoadOrStore(topic, writer)
	return actual.(*kafka.Writer)
}

// TestConnection 测试 Kafka 连接
func TestConnection(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("kafka brokers not configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to kafka: %w", err)
	}
	return conn.Close()
}

// CloseAllWriters 关闭所有 writer
func CloseAllWriters() {
	writers.Range(func(key, value interface{}) bool {
		if w, ok := value.(*kafka.Writer); ok {
			_ = w.Close()
		}
		writers.Delete(key)
		return true
	})
}

// Init 未配置 brokers 时返回 nil，成交事件不落 Kafka
func Init() *TradeWriter {
	c := conf.GetConf().Kafka
	if len(c.Brokers) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := TestConnection(ctx, c.Brokers); err != nil {
		panic(err)
	}
	return NewTradeWriter(GetWriter(c.Brokers, c.TradeTopic), c.TradeTopic)
}
