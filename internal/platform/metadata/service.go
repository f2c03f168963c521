package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Generic Accessors ---

// GetValue retrieves a value for a given key from the metadata table.
func GetValue(db *gorm.DB, key string) (string, error) {
	var meta Metadata
	err := db.Where("key = ?", key).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// If the key doesn't exist, return an empty string, which is a valid default.
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// SetValue creates or updates a value for a given key.
func SetValue(db *gorm.DB, key, value string) error {
	meta := Metadata{
		Key:   key,
		Value: value,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&meta).Error
}

// --- Snapshot bookkeeping ---

// SnapshotRecord describes the last successful snapshot.
type SnapshotRecord struct {
	At       time.Time
	Artifact string
	Reviews  int
}

// RecordSnapshot stores the three snapshot keys in one transaction.
func RecordSnapshot(db *gorm.DB, rec SnapshotRecord) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := SetValue(tx, LastSnapshotAtKey, rec.At.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
		if err := SetValue(tx, LastSnapshotArtifactKey, rec.Artifact); err != nil {
			return err
		}
		return SetValue(tx, SnapshotReviewCountKey, strconv.Itoa(rec.Reviews))
	})
}

// LastSnapshot returns the last recorded snapshot. ok is false when none was recorded.
func LastSnapshot(db *gorm.DB) (rec SnapshotRecord, ok bool, err error) {
	at, err := GetValue(db, LastSnapshotAtKey)
	if err != nil || at == "" {
		return SnapshotRecord{}, false, err
	}
	if rec.At, err = time.Parse(time.RFC3339, at); err != nil {
		return SnapshotRecord{}, false, fmt.Errorf("无法解析元数据 '%s' 的值: %w", LastSnapshotAtKey, err)
	}
	if rec.Artifact, err = GetValue(db, LastSnapshotArtifactKey); err != nil {
		return SnapshotRecord{}, false, err
	}
	count, err := GetValue(db, SnapshotReviewCountKey)
	if err != nil {
		return SnapshotRecord{}, false, err
	}
	if count != "" {
		if rec.Reviews, err = strconv.Atoi(count); err != nil {
			return SnapshotRecord{}, false, fmt.Errorf("无法解析元数据 '%s' 的值: %w", SnapshotReviewCountKey, err)
		}
	}
	return rec, true, nil
}
