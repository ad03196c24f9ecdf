package match

import "github.com/RedDot15/BE-Xiangqi/internal/config"

// MatchmakingPolicy 判断两名玩家能否配成一对
type MatchmakingPolicy interface {
	Matches(ratingA, ratingB int) bool
}

// RatingBoundedPolicy 分差不超过阈值即可配对
type RatingBoundedPolicy struct {
	Threshold int
}

func (p RatingBoundedPolicy) Matches(ratingA, ratingB int) bool {
	d := ratingA - ratingB
	if d < 0 {
		d = -d
	}
	return d <= p.Threshold
}

// UnrankedPolicy 不看分，先到先配
type UnrankedPolicy struct{}

func (UnrankedPolicy) Matches(int, int) bool {
	return true
}

// PolicyFromConfig 按配置选择配对策略
func PolicyFromConfig(cfg config.MatchmakingConfig) MatchmakingPolicy {
	if cfg.Mode == config.MatchmakingUnranked {
		return UnrankedPolicy{}
	}
	return RatingBoundedPolicy{Threshold: cfg.RatingThreshold}
}
