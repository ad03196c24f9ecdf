package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/models"
	"gorm.io/gorm"
)

// MatchRepository 对局历史仓储接口。
// 会话引擎在创建对局时获取matchId，在终局时落结果。
type MatchRepository interface {
	BaseRepository
	CreateMatchRecord(ctx context.Context, redPlayerID, blackPlayerID int64) (int64, error)
	RecordResult(ctx context.Context, matchID int64, result string, endTime time.Time) error
	FindByID(ctx context.Context, matchID int64) (*models.Match, error)
	FindAllFinished(ctx context.Context, playerID int64, p *Pagination) ([]*models.Match, error)
}

// matchRepo 对局历史仓储实现
type matchRepo struct {
	*BaseRepo
}

// NewMatchRepository 创建对局历史仓储
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// CreateMatchRecord 创建对局记录并返回matchId
func (r *matchRepo) CreateMatchRecord(ctx context.Context, redPlayerID, blackPlayerID int64) (int64, error) {
	match := &models.Match{
		RedPlayerID:   redPlayerID,
		BlackPlayerID: blackPlayerID,
	}
	if err := r.db.WithContext(ctx).Create(match).Error; err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return match.ID, nil
}

// RecordResult 落对局结果
func (r *matchRepo) RecordResult(ctx context.Context, matchID int64, result string, endTime time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ?", matchID).
		Updates(map[string]interface{}{
			"result":   result,
			"end_time": endTime,
		})
	if res.Error != nil {
		return apperrors.Wrap(res.Error, apperrors.ErrDatabaseQuery)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrMatchNotFound)
	}
	return nil
}

// FindByID 根据ID查找对局
func (r *matchRepo) FindByID(ctx context.Context, matchID int64) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Preload("RedPlayer").
		Preload("BlackPlayer").
		First(&match, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrMatchNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &match, nil
}

// FindAllFinished 查找一名玩家的全部已结束对局（分页，按开始时间倒序）
func (r *matchRepo) FindAllFinished(ctx context.Context, playerID int64, p *Pagination) ([]*models.Match, error) {
	var matches []*models.Match

	query := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("end_time IS NOT NULL").
		Where("red_player_id = ? OR black_player_id = ?", playerID, playerID)

	// 查询总数
	if err := query.Count(&p.Total).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	// 查询数据
	err := query.
		Preload("RedPlayer").
		Preload("BlackPlayer").
		Order("start_time desc").
		Scopes(Paginate(p)).
		Find(&matches).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	return matches, nil
}
