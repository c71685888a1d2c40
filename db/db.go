package db

import (
	"equipment_lending/models"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDB 打开 Postgres 连接并执行迁移
func ConnectDB(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Equipment{}, &models.BorrowRequest{}); err != nil {
		return err
	}

	// 删除保护与预留统计只看 pending/approved
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_active_by_equipment
	  ON %s (equipment_id)
	  WHERE status IN ('pending', 'approved');
	`, models.RequestTable, models.RequestTable)).Error; err != nil {
		return err
	}

	// 列表按 issue_date 倒序
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_issue_date_desc
	  ON %s (issue_date DESC, id DESC);
	`, models.RequestTable, models.RequestTable)).Error; err != nil {
		return err
	}

	return nil
}
