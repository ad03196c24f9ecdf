package match

import (
	"time"

	"github.com/RedDot15/BE-Xiangqi/internal/game"
)

// 推送通道，对应前端订阅的主题
const (
	ChannelQueue = "queue" // /topic/queue/player/{id}
	ChannelMatch = "match" // /topic/match/player/{id}
)

// 事件状态
const (
	StatusOK      = "ok"
	StatusTimeout = "timeout"
)

// 终局结果（推给玩家的 data.result）
const (
	OutcomeWin    = "WIN"
	OutcomeLose   = "LOSE"
	OutcomeCancel = "CANCEL"
)

// Event 推送给客户端的统一事件体
type Event struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Notifier 把对局事件送达客户端。实现在 websocket 包。
type Notifier interface {
	// NotifyPlayer 按玩家定向推送，channel 区分队列/对局主题
	NotifyPlayer(playerID int64, channel string, event Event)
	// NotifyContract 按合约广播。合约超时时会话里只剩键名，
	// 无法再拿到双方ID，只能走合约主题。
	NotifyContract(contractID string, event Event)
}

// MatchFound 配对成功时推给双方
type MatchFound struct {
	ContractID string `json:"contractId"`
}

// MatchCreated 合约双方确认后推送
type MatchCreated struct {
	MatchID int64 `json:"matchId"`
}

// MoveEvent 落子广播
type MoveEvent struct {
	From game.Position `json:"from"`
	To   game.Position `json:"to"`
}

// MatchOutcome 终局结算
type MatchOutcome struct {
	Result      string `json:"result"`
	RatingDelta int    `json:"ratingDelta"`
}

// MatchState 对局快照，开局与状态查询共用
type MatchState struct {
	MatchID           int64       `json:"matchId"`
	Board             *game.Board `json:"boardState"`
	RedPlayerID       int64       `json:"redPlayerId"`
	BlackPlayerID     int64       `json:"blackPlayerId"`
	Turn              int64       `json:"turn"`
	RedPlayerName     string      `json:"redPlayerName"`
	BlackPlayerName   string      `json:"blackPlayerName"`
	RedPlayerRating   int         `json:"redPlayerRating"`
	BlackPlayerRating int         `json:"blackPlayerRating"`
	RedTimeLeft       int64       `json:"redTimeLeft"`   // 毫秒
	BlackTimeLeft     int64       `json:"blackTimeLeft"` // 毫秒
	LastMoveTime      *time.Time  `json:"lastMoveTime,omitempty"`
}
