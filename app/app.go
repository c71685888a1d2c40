package app

import (
	"context"
	"time"

	"equipment_lending/cache"
	"equipment_lending/config"
	"equipment_lending/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Log    *zap.Logger
	Config config.Config

	equipmentCache cache.EquipmentCache
}

func (a *App) EquipmentCache() cache.EquipmentCache { return a.equipmentCache }

func MustNew() *App {
	cfg := config.Load()

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	// --- DB: Postgres ---
	dbConn, err := db.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	logger.Info("database connected")

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	// --- Gin ---
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger), gin.Recovery())
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router: r, DB: dbConn, RDB: rdb, Log: logger, Config: cfg,
		equipmentCache: cache.NewRedisEquipmentCache(rdb, cfg.CacheTTL),
	}
}

func (a *App) Close() {
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.Log.Sync()
}
