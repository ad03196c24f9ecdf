package models

import (
	"time"
)

// 对局结果
const (
	ResultRedWin    = "Red Player Win"
	ResultBlackWin  = "Black Player Win"
	ResultCancelled = "Match cancel."
)

// Match 对局历史表。活动对局的棋盘、计时等实时状态在共享存储中，
// 这里只落对局归属与最终结果。
type Match struct {
	BaseModel
	RedPlayerID   int64      `gorm:"index;not null" json:"red_player_id"`
	BlackPlayerID int64      `gorm:"index;not null" json:"black_player_id"`
	Result        string     `gorm:"size:50" json:"result"`
	StartTime     time.Time  `gorm:"autoCreateTime" json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`

	RedPlayer   *Player `gorm:"foreignKey:RedPlayerID" json:"red_player,omitempty"`
	BlackPlayer *Player `gorm:"foreignKey:BlackPlayerID" json:"black_player,omitempty"`
}

// Finished 对局是否已结束
func (m *Match) Finished() bool {
	return m.EndTime != nil
}

// TableName 表名
func (Match) TableName() string {
	return "matches"
}
