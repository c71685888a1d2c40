// models/request.go
package models

import "time"

const RequestTable = "requests"

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
	StatusReturned RequestStatus = "returned"
)

// 合法状态迁移：pending → approved → returned，pending → rejected
var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusReturned},
}

func CanTransition(from, to RequestStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Outstanding 表示该状态下仍占用一个库存单位
func (s RequestStatus) Outstanding() bool {
	return s == StatusPending || s == StatusApproved
}

func (s RequestStatus) Terminal() bool {
	return s == StatusRejected || s == StatusReturned
}

// ActiveStatuses 用于删除保护与预留统计
var ActiveStatuses = []string{string(StatusPending), string(StatusApproved)}

// BorrowRequest 借用申请；只通过状态迁移修改，从不删除
type BorrowRequest struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      uint          `gorm:"index;not null" json:"user_id"`
	EquipmentID uint          `gorm:"index;not null" json:"equipment_id"`
	Status      RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IssueDate   time.Time     `gorm:"not null" json:"issue_date"`
	ReturnDate  *time.Time    `json:"return_date"`
}

func (BorrowRequest) TableName() string { return RequestTable }

// RequestRow 列表视图：连表得到的显示名可能为空（设备已删或用户不存在）
type RequestRow struct {
	ID            uint          `json:"id"`
	UserID        uint          `json:"user_id"`
	EquipmentID   uint          `json:"equipment_id"`
	Status        RequestStatus `json:"status"`
	IssueDate     time.Time     `json:"issue_date"`
	ReturnDate    *time.Time    `json:"return_date"`
	EquipmentName *string       `json:"equipment_name"`
	UserName      *string       `json:"user_name,omitempty"`
}
