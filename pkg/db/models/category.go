package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a flat arena node; ParentID points at the optional parent row.
type Category struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;not null;uniqueIndex"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid;index:categories_parent_id_idx"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
