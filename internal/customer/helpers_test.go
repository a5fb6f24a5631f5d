package customer

import (
	"context"
	"testing"
	"time"

	"github.com/brianlane/bizblasts-sub001/internal/model"
	"github.com/brianlane/bizblasts-sub001/internal/phone"
	"github.com/brianlane/bizblasts-sub001/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	businessID      uint = 1
	otherBusinessID uint = 2
)

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestRepo(t *testing.T) (*GormRepository, *gorm.DB) {
	db := newTestDB(t)
	return NewGormRepository(db, phone.NewNormalizer(nil)), db
}

func newTestLinker(repo Repository) *Linker {
	normalizer := phone.NewNormalizer(nil)
	return NewLinker(repo, NewConflictDetector(normalizer), NewMerger(nil), normalizer, nil)
}

func strPtr(s string) *string { return &s }

func uintPtr(u uint) *uint { return &u }

// seed inserts a customer created at baseTime plus the given offset.
func seed(t *testing.T, repo Repository, offset time.Duration, c model.TenantCustomer) model.TenantCustomer {
	t.Helper()
	if c.BusinessID == 0 {
		c.BusinessID = businessID
	}
	c.CreatedAt = baseTime.Add(offset)
	c.UpdatedAt = c.CreatedAt
	require.NoError(t, repo.Create(context.Background(), &c))
	return c
}

func reload(t *testing.T, repo Repository, id uint) model.TenantCustomer {
	t.Helper()
	c, err := repo.Get(context.Background(), businessID, id)
	require.NoError(t, err)
	return *c
}

func countCustomers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.TenantCustomer{}).Count(&n).Error)
	return n
}

func exists(t *testing.T, db *gorm.DB, id uint) bool {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.TenantCustomer{}).Where("id = ?", id).Count(&n).Error)
	return n > 0
}
