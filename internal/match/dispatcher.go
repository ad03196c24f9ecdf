package match

import (
	"context"
	"regexp"
	"strconv"

	"go.uber.org/zap"
)

var (
	matchDeadlineRe = regexp.MustCompile(`^match:(\d+):(?:turnTimeExpiration|totalTimeExpiration):$`)
	contractRe      = regexp.MustCompile(`^matchContract:([^:]+):$`)
)

// Dispatcher 消费存储的键过期通知并路由到对应的超时处理。
// 走子/总时长两个限时键过期都按对局超时处理，契约键过期按契约超时处理，
// 其余过期键忽略。
type Dispatcher struct {
	feed              <-chan string
	onMatchTimeout    func(ctx context.Context, matchID int64)
	onContractTimeout func(ctx context.Context, contractID string)
	logger            *zap.Logger
}

func NewDispatcher(
	feed <-chan string,
	matches *MatchService,
	contracts *ContractService,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		feed:              feed,
		onMatchTimeout:    matches.HandleTimeout,
		onContractTimeout: contracts.HandleTimeout,
		logger:            logger,
	}
}

// Run 阻塞消费过期通知直到上下文取消或通道关闭
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-d.feed:
			if !ok {
				return
			}
			d.dispatch(ctx, key)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, key string) {
	if m := matchDeadlineRe.FindStringSubmatch(key); m != nil {
		matchID, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			d.logger.Warn("限时键中的matchId无法解析", zap.String("key", key))
			return
		}
		d.logger.Debug("对局限时键过期", zap.String("key", key), zap.Int64("matchId", matchID))
		d.onMatchTimeout(ctx, matchID)
		return
	}
	if m := contractRe.FindStringSubmatch(key); m != nil {
		d.logger.Debug("契约键过期", zap.String("key", key))
		d.onContractTimeout(ctx, m[1])
		return
	}
}
