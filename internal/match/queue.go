package match

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/repository"
	"github.com/RedDot15/BE-Xiangqi/internal/store"
)

// QueueService 匹配队列。队列本体是共享存储里的一个列表，
// 扫描和出队在 waitingPlayers 锁内完成，防止同一候选被两路请求配走。
type QueueService struct {
	kv        store.Store
	locks     *store.LockManager
	players   repository.PlayerRepository
	contracts *ContractService
	notifier  Notifier
	policy    MatchmakingPolicy
	logger    *zap.Logger
}

func NewQueueService(
	kv store.Store,
	locks *store.LockManager,
	players repository.PlayerRepository,
	contracts *ContractService,
	notifier Notifier,
	policy MatchmakingPolicy,
	logger *zap.Logger,
) *QueueService {
	return &QueueService{
		kv:        kv,
		locks:     locks,
		players:   players,
		contracts: contracts,
		notifier:  notifier,
		policy:    policy,
		logger:    logger,
	}
}

// JoinQueue 尝试为玩家配对。找到对手则出队对手并创建契约，
// 否则把自己排进队尾等待。
func (s *QueueService) JoinQueue(ctx context.Context, playerID int64) error {
	rating, err := s.players.RatingOf(ctx, playerID)
	if err != nil {
		return err
	}

	var opponentID int64
	found := false
	err = s.locks.WithLock(ctx, queueLockName, func() error {
		waiting, err := s.kv.ListRange(ctx, queueKey)
		if err != nil {
			return err
		}
		for _, raw := range waiting {
			candidateID, perr := strconv.ParseInt(raw, 10, 64)
			if perr != nil {
				s.logger.Warn("队列中存在无法解析的元素", zap.String("value", raw))
				continue
			}
			if candidateID == playerID {
				continue
			}
			candidateRating, rerr := s.players.RatingOf(ctx, candidateID)
			if rerr != nil {
				return rerr
			}
			if s.policy.Matches(rating, candidateRating) {
				if _, derr := s.kv.ListRemove(ctx, queueKey, raw); derr != nil {
					return derr
				}
				opponentID = candidateID
				found = true
				break
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if found {
		contractID, err := s.contracts.Create(ctx, playerID, opponentID)
		if err != nil {
			return err
		}
		event := Event{Status: StatusOK, Message: "Match found.", Data: MatchFound{ContractID: contractID}}
		s.notifier.NotifyPlayer(playerID, ChannelQueue, event)
		s.notifier.NotifyPlayer(opponentID, ChannelQueue, event)
		s.logger.Info("配对成功",
			zap.Int64("playerId", playerID),
			zap.Int64("opponentId", opponentID),
			zap.String("contractId", contractID))
		return nil
	}

	// 没配到就排队，已在队列中则不重复入队
	waiting, err := s.kv.ListRange(ctx, queueKey)
	if err != nil {
		return err
	}
	me := strconv.FormatInt(playerID, 10)
	for _, raw := range waiting {
		if raw == me {
			return nil
		}
	}
	if err := s.kv.ListPush(ctx, queueKey, me); err != nil {
		return err
	}
	s.logger.Info("玩家进入匹配队列", zap.Int64("playerId", playerID), zap.Int("rating", rating))
	return nil
}

// LeaveQueue 退出等待，玩家不在队列中视为非法请求
func (s *QueueService) LeaveQueue(ctx context.Context, playerID int64) error {
	return s.locks.WithLock(ctx, queueLockName, func() error {
		removed, err := s.kv.ListRemove(ctx, queueKey, strconv.FormatInt(playerID, 10))
		if err != nil {
			return err
		}
		if removed == 0 {
			return apperrors.New(apperrors.ErrUnqueueInvalid)
		}
		s.logger.Info("玩家退出匹配队列", zap.Int64("playerId", playerID))
		return nil
	})
}
