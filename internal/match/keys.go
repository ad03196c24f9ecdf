package match

import (
	"fmt"

	"github.com/RedDot15/BE-Xiangqi/internal/game"
)

// 共享存储键名。对局的全部实时状态按字段散落在 match:{id}:... 键下，
// turnTimeExpiration / totalTimeExpiration 两个键只用TTL，
// 它们的过期事件驱动强制终局。
const (
	queueKey = "queue:waitingPlayers:"

	matchContractKeyFmt = "matchContract:%s:"

	boardKeyFmt        = "match:%d:board:"
	playerIDKeyFmt     = "match:%d:%sPlayer:id:"
	turnKeyFmt         = "match:%d:turn:"
	playerNameKeyFmt   = "match:%d:%sPlayer:name:"
	playerRatingKeyFmt = "match:%d:%sPlayer:rating:"
	timeLeftKeyFmt     = "match:%d:%sPlayer:timeLeft:"
	lastMoveTimeKeyFmt = "match:%d:lastMoveTime:"
	readyStatusKeyFmt  = "match:%d:%sPlayer:readyStatus:"
	aiModeKeyFmt       = "match:%d:aiMode:"
	turnDeadlineFmt    = "match:%d:turnTimeExpiration:"
	totalDeadlineFmt   = "match:%d:totalTimeExpiration:"
)

// 锁名（LockManager 统一加 lock: 前缀）
const (
	queueLockName = "waitingPlayers:"
)

func contractLockName(contractID string) string {
	return fmt.Sprintf("matchContract:%s:", contractID)
}

func matchInitialLockName(matchID int64) string {
	return fmt.Sprintf("matchInitial:match:%d", matchID)
}

func contractKey(contractID string) string {
	return fmt.Sprintf(matchContractKeyFmt, contractID)
}

func sideName(side game.Side) string {
	return string(side)
}
