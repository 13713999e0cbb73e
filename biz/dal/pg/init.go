package pg

import (
	"context"
	"fmt"
	"time"

	"finance-hertz/biz/model"
	"finance-hertz/conf"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var PostgresClient *pgxpool.Pool
var GormDB *gorm.DB

// Init 按配置打开数据库并迁移表结构，失败直接 panic
func Init() {
	dbConf := conf.GetConf().Database
	db, err := Open(dbConf)
	if err != nil {
		panic(fmt.Sprintf("failed to open database: %v", err))
	}
	GormDB = db

	// postgres 额外保留一个原生连接池，用于健康检查
	if dbConf.Driver == "postgres" {
		pool, err := pgxpool.New(context.Background(), dbConf.DSN)
		if err != nil {
			panic(fmt.Sprintf("failed to connect to postgres: %v", err))
		}
		if err := pool.Ping(context.Background()); err != nil {
			panic(fmt.Sprintf("failed to ping postgres: %v", err))
		}
		PostgresClient = pool
	}

	if err := AutoMigrate(GormDB); err != nil {
		panic(fmt.Sprintf("failed to auto migrate: %v", err))
	}
	hlog.Infof("database ready, driver=%s", dbConf.Driver)
}

// Open 创建 GORM 连接，postgres 用于线上，sqlite 用于本地与测试
func Open(c conf.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch c.Driver {
	case "postgres":
		dialector = postgres.Open(c.DSN)
	case "sqlite":
		dialector = sqlite.Open(c.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}

	gormLogger := logger.Default
	if !c.LogMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if c.Driver == "sqlite" {
		_, _ = sqlDB.Exec("PRAGMA foreign_keys = ON;")
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}
	return db.AutoMigrate(&model.User{}, &model.Stock{}, &model.Transaction{})
}

// Ping 健康检查，优先使用 pgx 原生连接池
func Ping(ctx context.Context) error {
	if PostgresClient != nil {
		return PostgresClient.Ping(ctx)
	}
	if GormDB == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭所有连接
func Close() {
	if PostgresClient != nil {
		PostgresClient.Close()
	}
	if GormDB != nil {
		if sqlDB, err := GormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
