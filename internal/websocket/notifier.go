package websocket

import (
	"github.com/RedDot15/BE-Xiangqi/internal/match"
)

// HubNotifier 把对局事件经Hub推给客户端，实现 match.Notifier
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyPlayer(playerID int64, channel string, event match.Event) {
	n.hub.SendToPlayer(playerID, channel, event)
}

func (n *HubNotifier) NotifyContract(contractID string, event match.Event) {
	n.hub.SendToContract(contractID, event)
}
