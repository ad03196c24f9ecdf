package match

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/store"
)

// ContractPlayer 契约一方的确认状态
type ContractPlayer struct {
	ID           int64 `json:"id"`
	AcceptStatus bool  `json:"acceptStatus"`
}

// MatchContract 配对契约。整体序列化存在带TTL的单键里，
// 双方都确认之前过期则配对作废。
type MatchContract struct {
	Player1 ContractPlayer `json:"player1"`
	Player2 ContractPlayer `json:"player2"`
}

// MatchCreator 契约双双确认后创建对局会话
type MatchCreator interface {
	Create(ctx context.Context, player1ID, player2ID int64) (int64, error)
}

// ContractService 管理配对契约的生命周期。
// 确认走锁内二次校验，保证同一契约只消费一次。
type ContractService struct {
	kv       store.Store
	locks    *store.LockManager
	matches  MatchCreator
	notifier Notifier
	ttl      time.Duration
	logger   *zap.Logger
}

func NewContractService(
	kv store.Store,
	locks *store.LockManager,
	matches MatchCreator,
	notifier Notifier,
	ttl time.Duration,
	logger *zap.Logger,
) *ContractService {
	return &ContractService{
		kv:       kv,
		locks:    locks,
		matches:  matches,
		notifier: notifier,
		ttl:      ttl,
		logger:   logger,
	}
}

// Create 生成新契约并落库，返回契约ID
func (s *ContractService) Create(ctx context.Context, player1ID, player2ID int64) (string, error) {
	contractID := uuid.NewString()
	contract := &MatchContract{
		Player1: ContractPlayer{ID: player1ID},
		Player2: ContractPlayer{ID: player2ID},
	}
	if err := s.save(ctx, contractID, contract, s.ttl); err != nil {
		return "", err
	}
	s.logger.Info("创建匹配契约",
		zap.String("contractId", contractID),
		zap.Int64("player1Id", player1ID),
		zap.Int64("player2Id", player2ID))
	return contractID, nil
}

// Get 读取契约，不存在（已消费或已过期）返回 ErrContractNotFound
func (s *ContractService) Get(ctx context.Context, contractID string) (*MatchContract, error) {
	contract, ok, err := s.load(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.ErrContractNotFound)
	}
	return contract, nil
}

// Accept 玩家确认契约。确认位的读改写在契约锁内完成，
// 两路并发确认不会互相覆盖；锁内看到双方都已确认的那一次请求
// 负责销毁契约并创建对局。
func (s *ContractService) Accept(ctx context.Context, contractID string, actorID int64) error {
	contract, ok, err := s.load(ctx, contractID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.ErrContractNotFound)
	}
	if actorID != contract.Player1.ID && actorID != contract.Player2.ID {
		return apperrors.New(apperrors.ErrUnauthorized, "玩家不在该契约中")
	}

	return s.locks.WithLock(ctx, contractLockName(contractID), func() error {
		current, ok, err := s.load(ctx, contractID)
		if err != nil {
			return err
		}
		if !ok {
			// 对手那一路已消费，或契约刚好过期
			return nil
		}
		switch actorID {
		case current.Player1.ID:
			current.Player1.AcceptStatus = true
		case current.Player2.ID:
			current.Player2.AcceptStatus = true
		}
		if !current.Player1.AcceptStatus || !current.Player2.AcceptStatus {
			// 落自己的确认位，保留剩余时限
			return s.update(ctx, contractID, current)
		}
		if err := s.kv.Delete(ctx, contractKey(contractID)); err != nil {
			return err
		}
		matchID, err := s.matches.Create(ctx, current.Player1.ID, current.Player2.ID)
		if err != nil {
			return err
		}
		event := Event{Status: StatusOK, Message: "The match is created.", Data: MatchCreated{MatchID: matchID}}
		s.notifier.NotifyPlayer(current.Player1.ID, ChannelQueue, event)
		s.notifier.NotifyPlayer(current.Player2.ID, ChannelQueue, event)
		s.logger.Info("契约双方确认，对局已创建",
			zap.String("contractId", contractID),
			zap.Int64("matchId", matchID))
		return nil
	})
}

// HandleTimeout 契约到期未被双方确认。此时键已不存在，
// 只能向契约主题广播超时。
func (s *ContractService) HandleTimeout(ctx context.Context, contractID string) {
	s.notifier.NotifyContract(contractID, Event{
		Status:  StatusTimeout,
		Message: "Match contract timeout.",
	})
	s.logger.Info("匹配契约超时", zap.String("contractId", contractID))
}

func (s *ContractService) save(ctx context.Context, contractID string, c *MatchContract, ttl time.Duration) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, "序列化契约失败")
	}
	return s.kv.SetTTL(ctx, contractKey(contractID), string(raw), ttl)
}

func (s *ContractService) load(ctx context.Context, contractID string) (*MatchContract, bool, error) {
	raw, ok, err := s.kv.Get(ctx, contractKey(contractID))
	if err != nil || !ok {
		return nil, ok, err
	}
	var c MatchContract
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, true, apperrors.Wrap(err, apperrors.ErrInternal, "解析契约失败")
	}
	return &c, true, nil
}

// update 覆盖写契约并保留剩余TTL，不把时限重置回整段
func (s *ContractService) update(ctx context.Context, contractID string, c *MatchContract) error {
	remaining, ok, err := s.kv.TTL(ctx, contractKey(contractID))
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.ErrContractNotFound)
	}
	if remaining == store.NoExpiry {
		remaining = s.ttl
	}
	return s.save(ctx, contractID, c, remaining)
}
