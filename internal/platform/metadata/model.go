package metadata

import "time"

// Metadata 是快照相关的键值记录，每个键只有一行。
type Metadata struct {
	Key       string `gorm:"primaryKey;type:varchar(255)"`
	Value     string `gorm:"type:varchar(255)"`
	UpdatedAt time.Time
}

// TableName 固定表名，与领域快照表放在同一个库中。
func (Metadata) TableName() string { return "metadata" }
