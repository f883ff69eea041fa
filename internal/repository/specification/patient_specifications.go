package specification

import (
	"strings"

	"gorm.io/gorm"
)

// ByNameInsensitive matches a patient by exact name, case-insensitively.
// Patient resolution from generated documents goes through this spec so
// "JANE DOE" and "Jane Doe" land on the same record.
type ByNameInsensitive struct {
	Name string
}

func (s ByNameInsensitive) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(name) = ?", strings.ToLower(s.Name))
}

// NameSearch matches patients whose name contains the query.
type NameSearch struct {
	Query string
}

func (s NameSearch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name ILIKE ?", "%"+s.Query+"%")
}
