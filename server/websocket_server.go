package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"finance-hertz/biz/engine"
	"finance-hertz/biz/model"
	"finance-hertz/middleware"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/websocket"
)

const maxRetries = 3

// wsConn 便于测试替换
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// lockedConn websocket 连接不支持并发写
type lockedConn struct {
	mu   sync.Mutex
	conn wsConn
}

func (l *lockedConn) WriteMessage(messageType int, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteMessage(messageType, data)
}

func (l *lockedConn) Close() error {
	return l.conn.Close()
}

// Hub 用户账户推送：一个用户可有多个连接，成交事件单播给本人
type Hub struct {
	mu       sync.RWMutex
	conns    map[uint]map[wsConn]struct{}
	pool     *engine.Pool
	origins  map[string]struct{}
	upgrader websocket.HertzUpgrader
}

func NewHub(pool *engine.Pool) *Hub {
	h := &Hub{
		conns:   make(map[uint]map[wsConn]struct{}),
		pool:    pool,
		origins: make(map[string]struct{}),
	}
	h.upgrader = websocket.HertzUpgrader{CheckOrigin: h.checkOrigin}
	return h
}

// SetAllowedOrigins 跨域允许的来源，与 CORS 配置一致，启动时设置
func (h *Hub) SetAllowedOrigins(origins []string) {
	for _, o := range origins {
		h.origins[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
}

// checkOrigin 会话走 cookie，浏览器跨站请求只放行同源和配置的来源
// 没有 Origin 头的非浏览器客户端直接放行
func (h *Hub) checkOrigin(c *app.RequestContext) bool {
	origin := string(c.GetHeader("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, string(c.Host())) {
		return true
	}
	_, ok := h.origins[strings.ToLower(u.Scheme+"://"+u.Host)]
	return ok
}

// RegisterUserConn 注册用户和连接的关系（鉴权后调用）
func (h *Hub) RegisterUserConn(userID uint, conn wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[wsConn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
}

// UnregisterUserConn 断开连接时清理
func (h *Hub) UnregisterUserConn(userID uint, conn wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.conns[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.conns, userID)
		}
	}
}

func (h *Hub) ConnCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Unicast 单播消息到指定用户的所有连接，写失败重试后断开
func (h *Hub) Unicast(userID uint, msg []byte) {
	h.mu.RLock()
	conns := make([]wsConn, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn := conn
		h.pool.Go(func() {
			for i := 0; i < maxRetries; i++ {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					hlog.Warnf("[WS] unicast error: %v, user=%d, retry %d", err, userID, i+1)
					continue
				}
				return
			}
			hlog.Warnf("[WS] conn write failed after retries, user=%d", userID)
			h.UnregisterUserConn(userID, conn)
			_ = conn.Close()
		})
	}
}

// PublishTrade 成交事件推送给下单用户
func (h *Hub) PublishTrade(_ context.Context, ev model.TradeEvent) {
	if h.ConnCount(ev.UserID) == 0 {
		return
	}
	buf := engine.BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer engine.BufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(map[string]interface{}{
		"type": "trade",
		"data": ev,
	}); err != nil {
		hlog.Errorf("[WS] encode trade event failed: %v", err)
		return
	}
	msg := bytes.TrimRight(buf.Bytes(), "\n")
	// buf 归还后会被复用，需拷贝
	h.Unicast(ev.UserID, append([]byte(nil), msg...))
}

// Serve /ws：读循环只处理 ping，连接断开即注销
func (h *Hub) Serve(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatus(401)
		return
	}
	err := h.upgrader.Upgrade(c, func(conn *websocket.Conn) {
		lc := &lockedConn{conn: conn}
		h.RegisterUserConn(userID, lc)
		hlog.Infof("[WS] connection upgraded, user=%d, remote=%v", userID, conn.RemoteAddr())
		defer func() {
			h.UnregisterUserConn(userID, lc)
			_ = conn.Close()
			hlog.Infof("[WS] connection closed, user=%d", userID)
		}()
		_ = lc.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscription_ack","channel":"account"}`))
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(msg) == "ping" {
				_ = lc.WriteMessage(websocket.TextMessage, []byte("pong"))
			}
		}
	})
	if err != nil {
		hlog.CtxWarnf(ctx, "[WS] upgrade error: %v", err)
	}
}
