package cache

import (
	"context"
	"errors"
	"time"

	"equipment_lending/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrMiss 缓存未命中
	ErrMiss = errors.New("cache miss")
	// ErrStale 读库期间发生过失效，本次回填作废
	ErrStale = errors.New("cache fill is stale")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	equipmentListKey = "equipment:list"
	equipmentGenKey  = "equipment:list:gen"
)

// EquipmentCache 设备列表的读缓存；任何库存变更后都要 Invalidate。
// 回填流程：先取 Generation，再读库，最后 SetList(gen, items)；
// 期间若有 Invalidate，SetList 返回 ErrStale 且不写入。
type EquipmentCache interface {
	GetList(ctx context.Context) ([]models.Equipment, error)
	Generation(ctx context.Context) (int64, error)
	SetList(ctx context.Context, gen int64, items []models.Equipment) error
	Invalidate(ctx context.Context) error
}

type RedisEquipmentCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisEquipmentCache(rdb *redis.Client, ttl time.Duration) *RedisEquipmentCache {
	return &RedisEquipmentCache{rdb: rdb, ttl: ttl}
}

func (c *RedisEquipmentCache) GetList(ctx context.Context) ([]models.Equipment, error) {
	b, err := c.rdb.Get(ctx, equipmentListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var items []models.Equipment
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *RedisEquipmentCache) Generation(ctx context.Context) (int64, error) {
	return generation(ctx, c.rdb)
}

// SetList 只有当代数仍等于 gen 时才写入（WATCH 代数键）
func (c *RedisEquipmentCache) SetList(ctx context.Context, gen int64, items []models.Equipment) error {
	if c.ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := generation(ctx, tx)
		if err != nil {
			return err
		}
		if cur != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, equipmentListKey, b, c.ttl)
			return nil
		})
		return err
	}, equipmentGenKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// Invalidate 先推进代数再删列表，二者在同一个 MULTI 里
func (c *RedisEquipmentCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, equipmentGenKey)
		p.Del(ctx, equipmentListKey)
		return nil
	})
	return err
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, g getter) (int64, error) {
	n, err := g.Get(ctx, equipmentGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Nop 不缓存，始终未命中
type Nop struct{}

func (Nop) GetList(context.Context) ([]models.Equipment, error)      { return nil, ErrMiss }
func (Nop) Generation(context.Context) (int64, error)                { return 0, nil }
func (Nop) SetList(context.Context, int64, []models.Equipment) error { return nil }
func (Nop) Invalidate(context.Context) error                         { return nil }
