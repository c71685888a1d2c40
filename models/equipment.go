// models/equipment.go
package models

const EquipmentTable = "equipment"

// Equipment 是一类可借出的实物，Quantity 为总数，AvailableQuantity 为当前可借数量。
// 约束：0 <= available_quantity <= quantity（表级 CHECK 兜底）
type Equipment struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	Name              string `gorm:"size:200;not null" json:"name"`
	Category          string `gorm:"size:120" json:"category"`
	ConditionStatus   string `gorm:"size:60" json:"condition_status"`
	Quantity          int    `gorm:"not null;default:0;check:chk_equipment_quantity,quantity >= 0" json:"quantity"`
	AvailableQuantity int    `gorm:"not null;default:0;check:chk_equipment_available,available_quantity >= 0 AND available_quantity <= quantity" json:"available_quantity"`
}

func (Equipment) TableName() string { return EquipmentTable }

// Outstanding 为尚未释放的预留数量（quantity - available_quantity）
func (e Equipment) Outstanding() int { return e.Quantity - e.AvailableQuantity }

// EquipmentPatch 部分更新：nil 表示未提供
type EquipmentPatch struct {
	Name              *string `json:"name"`
	Category          *string `json:"category"`
	ConditionStatus   *string `json:"condition_status"`
	Quantity          *int    `json:"quantity"`
	AvailableQuantity *int    `json:"available_quantity"`
}

func (p EquipmentPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.ConditionStatus == nil &&
		p.Quantity == nil && p.AvailableQuantity == nil
}

// Columns 把已提供的字段转成 gorm Updates 用的列映射
func (p EquipmentPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.ConditionStatus != nil {
		cols["condition_status"] = *p.ConditionStatus
	}
	if p.Quantity != nil {
		cols["quantity"] = *p.Quantity
	}
	if p.AvailableQuantity != nil {
		cols["available_quantity"] = *p.AvailableQuantity
	}
	return cols
}

// Apply 返回打过补丁后的副本，用于写库前校验
func (p EquipmentPatch) Apply(e Equipment) Equipment {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.ConditionStatus != nil {
		e.ConditionStatus = *p.ConditionStatus
	}
	if p.Quantity != nil {
		e.Quantity = *p.Quantity
	}
	if p.AvailableQuantity != nil {
		e.AvailableQuantity = *p.AvailableQuantity
	}
	return e
}
