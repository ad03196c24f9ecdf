package models

import (
	"time"
)

// BaseModel 基础模型字段
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// 玩家角色
const (
	RolePlayer = "PLAYER"
	RoleAIEasy = "AI_EASY"
	RoleAIHard = "AI_HARD"
)

// DefaultRating 新玩家的初始等级分
const DefaultRating = 1200

// Player 玩家表。AI引擎也以特殊角色的玩家记录存在，
// 这样对局两端统一用playerId表示。
type Player struct {
	BaseModel
	Username string `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password string `gorm:"size:255;not null" json:"-"`
	Rating   int    `gorm:"default:1200;not null" json:"rating"`
	Role     string `gorm:"size:20;default:'PLAYER';not null" json:"role"`
}

// IsAIRole 角色是否为AI
func IsAIRole(role string) bool {
	return role == RoleAIEasy || role == RoleAIHard
}

// IsAI 是否为AI角色
func (p *Player) IsAI() bool {
	return IsAIRole(p.Role)
}

// TableName 表名
func (Player) TableName() string {
	return "players"
}
