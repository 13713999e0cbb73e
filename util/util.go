package util

import (
	"errors"
	"os"
	"strconv"
	"sync"

	"github.com/sony/sonyflake"
)

var (
	sonyFlake *sonyflake.Sonyflake
	once      sync.Once
)

// InitSonyFlake 初始化 Snowflake 实例
// 容器内拿不到私网 IP 时用进程号作为机器号
func InitSonyFlake() {
	once.Do(func() {
		sonyFlake = sonyflake.NewSonyflake(sonyflake.Settings{})
		if sonyFlake == nil {
			sonyFlake = sonyflake.NewSonyflake(sonyflake.Settings{
				MachineID: func() (uint16, error) {
					return uint16(os.Getpid()), nil
				},
			})
		}
	})
}

// GenerateEventID 生成唯一事件ID
func GenerateEventID() (string, error) {
	InitSonyFlake()
	if sonyFlake == nil {
		return "", errors.New("sonyflake not initialized")
	}
	id, err := sonyFlake.NextID()
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(id, 10), nil
}
