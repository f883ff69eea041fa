package specification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)
	return db
}

func TestOrderByBuildsDirection(t *testing.T) {
	db := newDryRunDB(t)

	var rows []map[string]interface{}

	stmt := OrderBy{Field: "created_at", Desc: true}.
		Apply(db.Table("notifications")).
		Find(&rows).Statement
	assert.Contains(t, stmt.SQL.String(), "ORDER BY created_at DESC")

	stmt = OrderBy{Field: "name"}.
		Apply(db.Table("patients")).
		Find(&rows).Statement
	assert.Contains(t, stmt.SQL.String(), "ORDER BY name ASC")
}

func TestPaginationAppliesLimitAndOffset(t *testing.T) {
	db := newDryRunDB(t)

	var rows []map[string]interface{}
	stmt := Pagination{Limit: 20, Offset: 40}.
		Apply(db.Table("notifications")).
		Find(&rows).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "LIMIT")
	assert.Contains(t, sql, "OFFSET")
}
