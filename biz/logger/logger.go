package logger

import (
	"io"
	"os"

	"finance-hertz/conf"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 结构化审计日志（成交、注册），请求日志仍走 hlog
var Log = zap.NewNop()

// Init 将 hlog 与 zap 的输出统一到 stdout + 按大小滚动的日志文件
func Init(c conf.Hertz) {
	var out io.Writer = os.Stdout
	if c.LogFileName != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   c.LogFileName,
			MaxSize:    c.LogMaxSize,
			MaxBackups: c.LogMaxBackups,
			MaxAge:     c.LogMaxAge,
		})
	}
	hlog.SetOutput(out)
	hlog.SetLevel(conf.ParseLevel(c.LogLevel))

	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(out), level)
	Log = zap.New(core, zap.AddCaller()).With(zap.String("service", c.Service))
}

func Sync() {
	_ = Log.Sync()
}
