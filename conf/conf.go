package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/kr/pretty"
	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"
)

var (
	conf *Config
	once sync.Once
)

type Config struct {
	Env      string
	Hertz    Hertz    `yaml:"hertz"`
	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Registry Registry `yaml:"registry"`
	Quote    Quote    `yaml:"quote"`
	Auth     Auth     `yaml:"auth"`
	Trading  Trading  `yaml:"trading"`
}

// Database driver 取值 postgres / sqlite
type Database struct {
	Driver       string `yaml:"driver" validate:"nonzero,regexp=^(postgres|sqlite)$"`
	DSN          string `yaml:"dsn" validate:"nonzero"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	LogMode      bool   `yaml:"log_mode"`
}

// Redis address 为空时不启用报价缓存与 token 吊销
type Redis struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Username string `yaml:"username"`
	DB       int    `yaml:"db"`
}

// Kafka brokers 为空时成交事件不落 Kafka
type Kafka struct {
	Brokers    []string `yaml:"brokers"`
	TradeTopic string   `yaml:"trade_topic"`
}

type Registry struct {
	RegistryAddress []string `yaml:"registry_address"`
	ServiceName     string   `yaml:"service_name"`
	NodeID          string   `yaml:"node_id"`
}

type Quote struct {
	Provider    string `yaml:"provider" validate:"regexp=^(http|static)?$"`
	BaseURL     string `yaml:"base_url"`
	TokenEnv    string `yaml:"token_env"`
	TimeoutMS   int    `yaml:"timeout_ms"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"`
	// static provider 的价格表，symbol -> price
	Static map[string]StaticQuote `yaml:"static"`
}

type StaticQuote struct {
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

type Auth struct {
	JWTSecret   string `yaml:"jwt_secret" validate:"min=16"`
	ExpireHours int    `yaml:"expire_hours"`
	CookieName  string `yaml:"cookie_name"`
	BcryptCost  int    `yaml:"bcrypt_cost"`
}

type Trading struct {
	StartingCash         string `yaml:"starting_cash"`
	Currency             string `yaml:"currency"`
	IndicatorPrecision   int32  `yaml:"indicator_precision"`
	RecordOpeningDeposit bool   `yaml:"record_opening_deposit"`
	MinUsernameLength    int    `yaml:"min_username_length"`
	ValuationWorkers     int    `yaml:"valuation_workers"`
}

type Hertz struct {
	Service         string `yaml:"service"`
	Address         string `yaml:"address" validate:"nonzero"`
	EnablePprof     bool   `yaml:"enable_pprof"`
	EnableGzip      bool   `yaml:"enable_gzip"`
	EnableAccessLog bool   `yaml:"enable_access_log"`
	EnableCors      bool   `yaml:"enable_cors"`
	LogLevel        string `yaml:"log_level"`
	LogFileName     string `yaml:"log_file_name"`
	LogMaxSize      int    `yaml:"log_max_size"`
	LogMaxBackups   int    `yaml:"log_max_backups"`
	LogMaxAge       int    `yaml:"log_max_age"`

	// 为空时 CORS 放行任意来源且不带凭证，websocket 只接受同源
	CorsOrigins []string `yaml:"cors_origins"`
}

// GetConf gets configuration instance
func GetConf() *Config {
	once.Do(initConf)
	return conf
}

func initConf() {
	prefix := "conf"
	confFileRelPath := filepath.Join(prefix, filepath.Join(GetEnv(), "conf.yaml"))
	c, err := LoadFile(confFileRelPath)
	if err != nil {
		hlog.Errorf("load config error - %v", err)
		panic(err)
	}
	conf = c
	conf.Env = GetEnv()

	pretty.Printf("%+v\n", conf)
}

// LoadFile 读取并校验指定配置文件，缺省字段补默认值
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// 支持 ${VAR} 形式引用环境变量，密钥不落盘
	content = []byte(os.ExpandEnv(string(content)))
	c := new(Config)
	if err := yaml.Unmarshal(content, c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	c.applyDefaults()
	if err := validator.Validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Hertz.Service == "" {
		c.Hertz.Service = "finance-hertz"
	}
	if c.Quote.Provider == "" {
		c.Quote.Provider = "http"
	}
	if c.Quote.TimeoutMS <= 0 {
		c.Quote.TimeoutMS = 3000
	}
	if c.Auth.ExpireHours <= 0 {
		c.Auth.ExpireHours = 24
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "session"
	}
	if c.Auth.BcryptCost <= 0 {
		c.Auth.BcryptCost = 10
	}
	if c.Trading.StartingCash == "" {
		c.Trading.StartingCash = "10000.00"
	}
	if c.Trading.Currency == "" {
		c.Trading.Currency = "usd"
	}
	if c.Trading.IndicatorPrecision <= 0 {
		c.Trading.IndicatorPrecision = 2
	}
	if c.Trading.MinUsernameLength <= 0 {
		c.Trading.MinUsernameLength = 3
	}
	if c.Trading.ValuationWorkers <= 0 {
		c.Trading.ValuationWorkers = 16
	}
	if c.Kafka.TradeTopic == "" {
		c.Kafka.TradeTopic = "finance_trades"
	}
	if c.Registry.ServiceName == "" {
		c.Registry.ServiceName = c.Hertz.Service
	}
}

func GetEnv() string {
	e := os.Getenv("GO_ENV")
	if len(e) == 0 {
		return "test"
	}
	return e
}

func LogLevel() hlog.Level {
	return ParseLevel(GetConf().Hertz.LogLevel)
}

func ParseLevel(level string) hlog.Level {
	switch level {
	case "trace":
		return hlog.LevelTrace
	case "debug":
		return hlog.LevelDebug
	case "info":
		return hlog.LevelInfo
	case "notice":
		return hlog.LevelNotice
	case "warn":
		return hlog.LevelWarn
	case "error":
		return hlog.LevelError
	case "fatal":
		return hlog.LevelFatal
	default:
		return hlog.LevelInfo
	}
}
