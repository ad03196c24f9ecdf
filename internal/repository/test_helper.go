package repository

import (
	"testing"

	"github.com/RedDot15/BE-Xiangqi/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 为单个测试创建内存数据库
func TestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// 使用内存数据库进行测试（更快，不需要文件系统）
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&models.Player{}, &models.Match{}); err != nil {
		t.Fatalf("迁移测试表结构失败: %v", err)
	}

	return db
}

// CreateTestPlayer 创建测试玩家
func CreateTestPlayer(t *testing.T, db *gorm.DB, username string, rating int) *models.Player {
	t.Helper()

	player := &models.Player{
		Username: username,
		Password: "test-password-hash",
		Rating:   rating,
		Role:     models.RolePlayer,
	}
	if err := db.Create(player).Error; err != nil {
		t.Fatalf("创建测试玩家失败: %v", err)
	}
	return player
}

// CreateTestAIPlayer 创建测试AI玩家
func CreateTestAIPlayer(t *testing.T, db *gorm.DB, role string) *models.Player {
	t.Helper()

	player := &models.Player{
		Username: "ai-" + role,
		Password: "unused",
		Rating:   models.DefaultRating,
		Role:     role,
	}
	if err := db.Create(player).Error; err != nil {
		t.Fatalf("创建测试AI玩家失败: %v", err)
	}
	return player
}
