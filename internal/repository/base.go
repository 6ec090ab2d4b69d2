package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// updateRow overwrites every column of model except the primary key and created_at.
// It reports false when no row matched the primary key.
func updateRow(db *gorm.DB, model interface{}) (bool, error) {
	result := db.Model(model).
		Select("*").
		Omit("ID", "CreatedAt", clause.Associations).
		Updates(model)
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// deleteRow deletes a row by primary key and reports whether one existed
func deleteRow(db *gorm.DB, model interface{}, id int64) (bool, error) {
	result := db.Delete(model, id)
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// likePattern builds a case-insensitive LIKE pattern
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
