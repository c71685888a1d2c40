package models

import "time"

const UserTable = "users"

// User 只读引用，用于列表中的显示名；用户生命周期不在本服务内
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (User) TableName() string { return UserTable }
