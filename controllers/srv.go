// controllers/srv.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"equipment_lending/app"
	"equipment_lending/cache"
	"equipment_lending/db"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Srv struct {
	Repo  *db.Repo
	Cache cache.EquipmentCache
	Log   *zap.Logger
}

func NewSrv(repo *db.Repo, c cache.EquipmentCache, log *zap.Logger) *Srv {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Srv{Repo: repo, Cache: c, Log: log}
}

func GetSrv(a *app.App) *Srv {
	return NewSrv(db.NewRepo(a.DB), a.EquipmentCache(), a.Log)
}

// --- helpers ---

func paramID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "missing " + name})
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// writeError 领域错误映射为 4xx；其余一律 500，不把存储层细节透出
func (s *Srv) writeError(c *gin.Context, err error) {
	var te *db.TransitionError
	switch {
	case errors.As(err, &te):
		c.JSON(http.StatusConflict, app.H{"error": te.Error(), "status": te.From})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrUnavailable):
		c.JSON(http.StatusConflict, app.H{"error": "Equipment not available"})
	case errors.Is(err, db.ErrConflict):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrNoFields),
		errors.Is(err, db.ErrMissingParam),
		errors.Is(err, db.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		s.Log.Error("internal error",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("requestID")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
	}
}

// 库存变化后让列表缓存失效；失败只记日志（缓存有 TTL 兜底）
func (s *Srv) invalidateEquipment(c *gin.Context) {
	if err := s.Cache.Invalidate(c.Request.Context()); err != nil {
		s.Log.Warn("invalidate equipment cache", zap.Error(err))
	}
}
