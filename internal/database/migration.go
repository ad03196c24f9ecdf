package database

import (
	"fmt"

	"github.com/RedDot15/BE-Xiangqi/internal/models"
	"github.com/RedDot15/BE-Xiangqi/internal/logger"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	migrationModels := []interface{}{
		&models.Player{},
		&models.Match{},
	}

	for _, model := range migrationModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("迁移表结构失败: %w", err)
		}
	}

	logger.Info("数据库迁移完成")
	return nil
}

// SeedAIPlayers 确保两个AI账号存在，人机对局依赖它们
func SeedAIPlayers() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	seeds := []models.Player{
		{Username: "ai_easy", Rating: models.DefaultRating, Role: models.RoleAIEasy},
		{Username: "ai_hard", Rating: models.DefaultRating, Role: models.RoleAIHard},
	}
	for _, seed := range seeds {
		var count int64
		if err := DB.Model(&models.Player{}).Where("role = ?", seed.Role).Count(&count).Error; err != nil {
			return fmt.Errorf("查询AI账号失败: %w", err)
		}
		if count > 0 {
			continue
		}
		player := seed
		if err := DB.Create(&player).Error; err != nil {
			return fmt.Errorf("创建AI账号失败: %w", err)
		}
		logger.Info("已创建AI账号: " + player.Username)
	}
	return nil
}
