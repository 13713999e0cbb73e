package dal

import (
	"finance-hertz/biz/dal/kafka"
	"finance-hertz/biz/dal/pg"
	"finance-hertz/biz/dal/redis"
)

// Init 初始化数据库、Redis 与 Kafka，返回成交事件 writer（未配置时为 nil）
func Init() *kafka.TradeWriter {
	pg.Init()
	redis.Init()
	return kafka.Init()
}

func Close() {
	kafka.CloseAllWriters()
	redis.Close()
	pg.Close()
}
