package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/RedDot15/BE-Xiangqi/internal/models"
	"github.com/RedDot15/BE-Xiangqi/internal/repository"
)

// PlayerProfile 玩家公开信息
type PlayerProfile struct {
	PlayerID int64  `json:"playerId"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Role     string `json:"role"`
}

// MatchRecord 历史对局
type MatchRecord struct {
	MatchID         int64      `json:"matchId"`
	RedPlayerName   string     `json:"redPlayerName"`
	BlackPlayerName string     `json:"blackPlayerName"`
	Result          string     `json:"result"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
}

// PlayerService 玩家信息与历史战绩查询
type PlayerService struct {
	players repository.PlayerRepository
	matches repository.MatchRepository
	log     *zap.Logger
}

// NewPlayerService 创建玩家服务
func NewPlayerService(
	players repository.PlayerRepository,
	matches repository.MatchRepository,
	log *zap.Logger,
) *PlayerService {
	return &PlayerService{
		players: players,
		matches: matches,
		log:     log,
	}
}

// Profile 查询玩家公开信息
func (s *PlayerService) Profile(ctx context.Context, playerID int64) (*PlayerProfile, error) {
	player, err := s.players.FindByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return &PlayerProfile{
		PlayerID: player.ID,
		Username: player.Username,
		Rating:   player.Rating,
		Role:     player.Role,
	}, nil
}

// History 分页查询玩家已结束的历史对局
func (s *PlayerService) History(ctx context.Context, playerID int64, page, pageSize int) ([]*MatchRecord, *repository.Pagination, error) {
	p := repository.NewPagination(page, pageSize)
	matches, err := s.matches.FindAllFinished(ctx, playerID, p)
	if err != nil {
		return nil, nil, err
	}

	records := make([]*MatchRecord, 0, len(matches))
	for _, m := range matches {
		records = append(records, toMatchRecord(m))
	}
	return records, p, nil
}

func toMatchRecord(m *models.Match) *MatchRecord {
	r := &MatchRecord{
		MatchID:   m.ID,
		Result:    m.Result,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
	}
	if m.RedPlayer != nil {
		r.RedPlayerName = m.RedPlayer.Username
	}
	if m.BlackPlayer != nil {
		r.BlackPlayerName = m.BlackPlayer.Username
	}
	return r
}
