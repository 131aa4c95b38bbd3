package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Item is a catalogue product. Items are addressed by OriginID, the id the
// product has in the upstream catalogue; ID is internal.
type Item struct {
	ID       int64 `gorm:"primaryKey" json:"id"`
	OriginID int64 `gorm:"uniqueIndex;not null" json:"origin_id"`

	Season                       string  `json:"season"`
	SupplierName                 string  `json:"supplier_name"`
	SupplierReferenceDescription string  `gorm:"not null" json:"supplier_reference_description"`
	Materials                    *string `json:"materials"`

	Main   *string `gorm:"index" json:"main"`
	Sub    *string `json:"sub"`
	Detail *string `json:"detail"`
	Level4 *string `gorm:"column:level4" json:"level4"`

	// Colors holds the detected detail colors, comma separated.
	Colors *string `json:"colors"`
	HSCode *string `gorm:"column:hs_code" json:"hs_code"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsClassified reports whether the item has a main category.
func (i Item) IsClassified() bool {
	return i.Main != nil && *i.Main != "" && *i.Main != "Unspecified"
}

// LoadItemsByOriginID returns the items with the given origin ids. Unknown
// ids are skipped.
func LoadItemsByOriginID(db *gorm.DB, originIDs []int64) ([]Item, error) {
	var items []Item
	if len(originIDs) == 0 {
		return items, nil
	}

	err := db.Where("origin_id IN ?", originIDs).Order("origin_id").Find(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}

func GetItemByOriginID(db *gorm.DB, originID int64) (*Item, error) {
	var item Item
	err := db.Where("origin_id = ?", originID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &item, nil
}

func ItemExists(db *gorm.DB, originID int64) (bool, error) {
	var count int64
	err := db.Model(&Item{}).Where("origin_id = ?", originID).Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// UpdateItemByOriginID sets fields, keyed by column name, on one item. It
// returns false when no item has originID.
func UpdateItemByOriginID(db *gorm.DB, originID int64, fields map[string]any) (bool, error) {
	res := db.Model(&Item{}).Where("origin_id = ?", originID).Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

// UpsertItems inserts items, overwriting existing rows with the same
// origin id.
func UpsertItems(db *gorm.DB, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "origin_id"}},
		UpdateAll: true,
	}).Create(&items).Error
}

// LoadClassifiedItems pages through items that have a main category.
func LoadClassifiedItems(db *gorm.DB, limit, offset int) ([]Item, error) {
	var items []Item
	err := db.
		Where("main IS NOT NULL AND main <> ?", "Unspecified").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}
