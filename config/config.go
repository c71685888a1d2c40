package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv 读取 .env（不存在则忽略，直接用进程环境变量）
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}
}

// Config 从环境变量读取；GIN_MODE 不在这里，由 gin 自己读取
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string
	RedisPwd    string
	WebOrigin   string
	CacheTTL    time.Duration
	LogLevel    string
}

func Load() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	ttl := 30 * time.Second
	if n, err := strconv.Atoi(get("CACHE_TTL_SECONDS", "30")); err == nil && n >= 0 {
		ttl = time.Duration(n) * time.Second
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			get("DB_HOST", "127.0.0.1"),
			get("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			get("DB_NAME", "equipment"),
			get("DB_PORT", "5432"),
		)
	}
	return Config{
		Port:        get("PORT", "3001"),
		DatabaseURL: dsn,
		RedisAddr:   get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:    os.Getenv("REDIS_PASSWORD"),
		WebOrigin:   get("WEB_ORIGIN", "http://localhost:3000"),
		CacheTTL:    ttl,
		LogLevel:    get("LOG_LEVEL", "info"),
	}
}
