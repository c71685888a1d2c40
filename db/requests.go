// db/requests.go
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equipment_lending/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmitRequest 原子操作 = 锁住设备 → 扣减 available → 新建 pending 申请
func (r *Repo) SubmitRequest(ctx context.Context, userID, equipmentID uint) (*models.BorrowRequest, error) {
	var req *models.BorrowRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reserve(tx, equipmentID); err != nil {
			return err
		}
		br := &models.BorrowRequest{
			UserID:      userID,
			EquipmentID: equipmentID,
			Status:      models.StatusPending,
			IssueDate:   r.now(),
		}
		if err := tx.Create(br).Error; err != nil {
			return fmt.Errorf("insert request: %w", err)
		}
		req = br
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ApproveRequest pending → approved；预留在提交时已发生，这里不动库存
func (r *Repo) ApproveRequest(ctx context.Context, id uint) (*models.BorrowRequest, error) {
	var req models.BorrowRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRequest(tx, id, &req); err != nil {
			return err
		}
		if !models.CanTransition(req.Status, models.StatusApproved) {
			return &TransitionError{Action: "approve", From: req.Status}
		}
		return setStatus(tx, &req, "approve", models.StatusApproved, nil)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// RejectRequest pending → rejected，并释放提交时占用的库存
func (r *Repo) RejectRequest(ctx context.Context, id uint) (*models.BorrowRequest, error) {
	var req models.BorrowRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRequest(tx, id, &req); err != nil {
			return err
		}
		if !models.CanTransition(req.Status, models.StatusRejected) {
			return &TransitionError{Action: "reject", From: req.Status}
		}
		if err := setStatus(tx, &req, "reject", models.StatusRejected, nil); err != nil {
			return err
		}
		return release(tx, req.EquipmentID)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ReturnRequest approved → returned，写 return_date 并释放库存。
// 幂等：已归还直接返回 alreadyReturned = true，不会重复释放
func (r *Repo) ReturnRequest(ctx context.Context, id uint) (req *models.BorrowRequest, alreadyReturned bool, err error) {
	var br models.BorrowRequest
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRequest(tx, id, &br); err != nil {
			return err
		}
		if br.Status == models.StatusReturned {
			alreadyReturned = true
			return nil
		}
		if !models.CanTransition(br.Status, models.StatusReturned) {
			return &TransitionError{Action: "return", From: br.Status}
		}
		now := r.now()
		if err := setStatus(tx, &br, "return", models.StatusReturned, &now); err != nil {
			return err
		}
		return release(tx, br.EquipmentID)
	})
	if err != nil {
		return nil, false, err
	}
	return &br, alreadyReturned, nil
}

// 行锁持有到事务提交，两个并发调用不会同时看到 pending
func lockRequest(tx *gorm.DB, id uint, out *models.BorrowRequest) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("request %d: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

// setStatus 以读到的状态为条件更新；行锁之外再兜一层，条件不成立时按当前状态报错
func setStatus(tx *gorm.DB, req *models.BorrowRequest, action string, to models.RequestStatus, returnDate *time.Time) error {
	cols := map[string]any{"status": string(to)}
	if returnDate != nil {
		cols["return_date"] = *returnDate
	}
	res := tx.Model(&models.BorrowRequest{}).
		Where("id = ? AND status = ?", req.ID, string(req.Status)).
		Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update request %d: %w", req.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		var cur models.BorrowRequest
		if err := tx.Select("status").First(&cur, "id = ?", req.ID).Error; err != nil {
			return fmt.Errorf("reload request %d: %w", req.ID, err)
		}
		return &TransitionError{Action: action, From: cur.Status}
	}
	req.Status = to
	if returnDate != nil {
		req.ReturnDate = returnDate
	}
	return nil
}

// Listing

// ListRequestsForUser 某用户的全部申请，附带设备名（设备不存在时为 null）
func (r *Repo) ListRequestsForUser(ctx context.Context, userID uint) ([]models.RequestRow, error) {
	rows := []models.RequestRow{}
	if err := r.requestRows(ctx, false).
		Where("r.user_id = ?", userID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAllRequests 全部申请，附带设备名与用户名
func (r *Repo) ListAllRequests(ctx context.Context) ([]models.RequestRow, error) {
	rows := []models.RequestRow{}
	if err := r.requestRows(ctx, true).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) GetRequest(ctx context.Context, id uint) (*models.RequestRow, error) {
	var rows []models.RequestRow
	if err := r.requestRows(ctx, true).
		Where("r.id = ?", id).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("request %d: %w", id, ErrNotFound)
	}
	return &rows[0], nil
}

// requestRows 只读连表：issue_date 倒序（空值按当前时间排，不改存储值），id 倒序兜底
func (r *Repo) requestRows(ctx context.Context, withUser bool) *gorm.DB {
	cols := `r.id, r.user_id, r.equipment_id, r.status, r.issue_date, r.return_date,
			e.name AS equipment_name`
	if withUser {
		cols += `, u.name AS user_name`
	}
	q := r.DB.WithContext(ctx).
		Table(models.RequestTable + " r").
		Select(cols).
		Joins("LEFT JOIN " + models.EquipmentTable + " e ON e.id = r.equipment_id")
	if withUser {
		q = q.Joins("LEFT JOIN " + models.UserTable + " u ON u.id = r.user_id")
	}
	return q.Order("COALESCE(r.issue_date, CURRENT_TIMESTAMP) DESC").Order("r.id DESC")
}
