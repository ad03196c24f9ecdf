package repository

import (
	"context"
	"errors"

	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/models"
	"gorm.io/gorm"
)

// PlayerRepository 玩家仓储接口（玩家目录）。
// 匹配与对局核心只消费 RatingOf / RoleOf / UsernameOf / AdjustRating。
type PlayerRepository interface {
	BaseRepository
	Create(ctx context.Context, player *models.Player) error
	FindByID(ctx context.Context, id int64) (*models.Player, error)
	FindByUsername(ctx context.Context, username string) (*models.Player, error)
	FindIDByRole(ctx context.Context, role string) (int64, error)
	RatingOf(ctx context.Context, id int64) (int, error)
	RoleOf(ctx context.Context, id int64) (string, error)
	UsernameOf(ctx context.Context, id int64) (string, error)
	AdjustRating(ctx context.Context, id int64, delta int) error
}

// playerRepo 玩家仓储实现
type playerRepo struct {
	*BaseRepo
}

// NewPlayerRepository 创建玩家仓储
func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建玩家
func (r *playerRepo) Create(ctx context.Context, player *models.Player) error {
	return r.db.WithContext(ctx).Create(player).Error
}

// FindByID 根据ID查找
func (r *playerRepo) FindByID(ctx context.Context, id int64) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).First(&player, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrUserNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &player, nil
}

// FindByUsername 根据用户名查找
func (r *playerRepo) FindByUsername(ctx context.Context, username string) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrUserNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &player, nil
}

// FindIDByRole 根据角色查找玩家ID（定位AI玩家记录）
func (r *playerRepo) FindIDByRole(ctx context.Context, role string) (int64, error) {
	var player models.Player
	err := r.db.WithContext(ctx).
		Select("id").
		Where("role = ?", role).
		First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperrors.Newf(apperrors.ErrUserNotFound, "角色 %s 不存在", role)
	}
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return player.ID, nil
}

// RatingOf 查询玩家等级分
func (r *playerRepo) RatingOf(ctx context.Context, id int64) (int, error) {
	player, err := r.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return player.Rating, nil
}

// RoleOf 查询玩家角色
func (r *playerRepo) RoleOf(ctx context.Context, id int64) (string, error) {
	player, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return player.Role, nil
}

// UsernameOf 查询玩家用户名
func (r *playerRepo) UsernameOf(ctx context.Context, id int64) (string, error) {
	player, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return player.Username, nil
}

// AdjustRating 增减玩家等级分
func (r *playerRepo) AdjustRating(ctx context.Context, id int64, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("id = ?", id).
		UpdateColumn("rating", gorm.Expr("rating + ?", delta))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrDatabaseQuery)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrUserNotFound)
	}
	return nil
}
