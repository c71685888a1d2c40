// db/ledger.go
package db

import (
	"context"
	"errors"
	"fmt"

	"equipment_lending/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Equipment

func (r *Repo) CreateEquipment(ctx context.Context, e *models.Equipment) error {
	if e.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrInvalidQuantity)
	}
	e.AvailableQuantity = e.Quantity
	if err := r.DB.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("insert equipment: %w", err)
	}
	return nil
}

func (r *Repo) FindEquipment(ctx context.Context, id uint) (*models.Equipment, error) {
	var e models.Equipment
	if err := r.DB.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("equipment %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &e, nil
}

func (r *Repo) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	items := []models.Equipment{}
	err := r.DB.WithContext(ctx).Order("id").Find(&items).Error
	return items, err
}

// UpdateEquipment 直接覆盖提供的字段；只给 quantity 时 available 按差值平移。
// 结果必须满足 0 <= available <= quantity，且 quantity 不能小于未释放的预留数。
func (r *Repo) UpdateEquipment(ctx context.Context, id uint, patch models.EquipmentPatch) (*models.Equipment, error) {
	if patch.Empty() {
		return nil, ErrNoFields
	}
	var out models.Equipment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := lockEquipment(tx, id)
		if err != nil {
			return err
		}
		// 只改 quantity 时 available 同步平移，未释放的预留数不变
		if patch.Quantity != nil && patch.AvailableQuantity == nil {
			shifted := cur.AvailableQuantity + *patch.Quantity - cur.Quantity
			patch.AvailableQuantity = &shifted
		}
		next := patch.Apply(*cur)
		if next.Quantity < 0 {
			return fmt.Errorf("%w: quantity %d must not be negative", ErrInvalidQuantity, next.Quantity)
		}
		if patch.Quantity != nil {
			active, err := countActive(tx, id)
			if err != nil {
				return err
			}
			if int64(next.Quantity) < active {
				return fmt.Errorf("%w: quantity %d is below %d outstanding requests",
					ErrConflict, next.Quantity, active)
			}
		}
		if next.AvailableQuantity < 0 || next.AvailableQuantity > next.Quantity {
			return fmt.Errorf("%w: available_quantity %d must be within [0, %d]",
				ErrInvalidQuantity, next.AvailableQuantity, next.Quantity)
		}
		if err := tx.Model(&models.Equipment{}).
			Where("id = ?", id).
			Updates(patch.Columns()).Error; err != nil {
			return fmt.Errorf("update equipment: %w", err)
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEquipment 仍有 pending/approved 申请时拒绝删除
func (r *Repo) DeleteEquipment(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockEquipment(tx, id); err != nil {
			return err
		}
		active, err := countActive(tx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: cannot delete, %d active requests exist", ErrConflict, active)
		}
		if err := tx.Delete(&models.Equipment{}, id).Error; err != nil {
			return fmt.Errorf("delete equipment: %w", err)
		}
		return nil
	})
}

// Reserve 单独占用一个单位（自带事务）
func (r *Repo) Reserve(ctx context.Context, equipmentID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reserve(tx, equipmentID)
	})
}

// Release 单独释放一个单位（自带事务）
func (r *Repo) Release(ctx context.Context, equipmentID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return release(tx, equipmentID)
	})
}

// reserve 必须和依赖它的写操作在同一个事务里：
// 先锁住设备行，再条件扣减，保证并发下 available 不会小于 0
func reserve(tx *gorm.DB, equipmentID uint) error {
	it, err := lockEquipment(tx, equipmentID)
	if err != nil {
		return err
	}
	if it.AvailableQuantity <= 0 {
		return ErrUnavailable
	}
	res := tx.Model(&models.Equipment{}).
		Where("id = ? AND available_quantity > 0", equipmentID).
		Update("available_quantity", gorm.Expr("available_quantity - 1"))
	if res.Error != nil {
		return fmt.Errorf("reserve equipment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUnavailable
	}
	return nil
}

// release 归还一个单位；已满时不再增加（上限由 quantity 决定）
func release(tx *gorm.DB, equipmentID uint) error {
	res := tx.Model(&models.Equipment{}).
		Where("id = ? AND available_quantity < quantity", equipmentID).
		Update("available_quantity", gorm.Expr("available_quantity + 1"))
	if res.Error != nil {
		return fmt.Errorf("release equipment: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Equipment{}).Where("id = ?", equipmentID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("equipment %d: %w", equipmentID, ErrNotFound)
	}
	return nil
}

func lockEquipment(tx *gorm.DB, id uint) (*models.Equipment, error) {
	var it models.Equipment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&it, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("equipment %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &it, nil
}

// countActive 统计引用该设备的 pending/approved 申请
func countActive(tx *gorm.DB, equipmentID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.BorrowRequest{}).
		Where("equipment_id = ? AND status IN ?", equipmentID, models.ActiveStatuses).
		Count(&n).Error
	return n, err
}
