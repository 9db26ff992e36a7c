package repository

import (
	"path/filepath"
	"testing"

	"skillforge_backend/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&model.PointEvent{},
		&model.UserStats{},
		&model.Achievement{},
		&model.UserAchievement{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
