package db

import (
	"time"

	"gorm.io/gorm"
)

// Repo 每次调用都在自己的事务里取连接，不持有跨调用的状态
type Repo struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock 替换时间源（测试用）
func (r *Repo) WithClock(now func() time.Time) *Repo {
	r.now = now
	return r
}
