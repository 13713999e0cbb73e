package engine

import (
	"bytes"
	"sync"

	"github.com/panjf2000/ants/v2"
)

var BufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// Pool 估值拉取报价与 WebSocket 推送共用的协程池
type Pool struct {
	p *ants.Pool
}

func NewPool(size int) (*Pool, error) {
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Pool{p: p}, nil
}

// Go 提交任务；池为空或已关闭时在当前协程执行
func (p *Pool) Go(task func()) {
	if p == nil || p.p == nil {
		task()
		return
	}
	if err := p.p.Submit(task); err != nil {
		task()
	}
}

func (p *Pool) Running() int {
	if p == nil || p.p == nil {
		return 0
	}
	return p.p.Running()
}

func (p *Pool) Release() {
	if p != nil && p.p != nil {
		p.p.Release()
	}
}

// Unicaster 单播回调类型
type Unicaster func(userID uint, msg []byte)
