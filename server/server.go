package server

import (
	"time"

	"finance-hertz/biz/handler"
	"finance-hertz/conf"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/middlewares/server/recovery"
	hzserver "github.com/cloudwego/hertz/pkg/app/server"
	"github.com/hertz-contrib/cors"
	"github.com/hertz-contrib/gzip"
	"github.com/hertz-contrib/logger/accesslog"
	"github.com/hertz-contrib/pprof"
)

// New 按配置装配中间件与路由
func New(c conf.Hertz, h *handler.Handler, hub *Hub) *hzserver.Hertz {
	srv := hzserver.New(hzserver.WithHostPorts(c.Address))
	// websocket 升级需要
	srv.NoHijackConnPool = true

	srv.Use(recovery.Recovery())
	if c.EnableAccessLog {
		srv.Use(accesslog.New())
	}
	if c.EnableCors {
		srv.Use(newCors(c.CorsOrigins))
	}
	if c.EnableGzip {
		srv.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))
	}
	if c.EnablePprof {
		pprof.Register(srv)
	}
	Register(srv.Engine, h, hub)
	return srv
}

// newCors 配置了来源时允许携带 cookie
func newCors(origins []string) app.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
