package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub WebSocket连接管理中心。
// 按玩家ID索引连接做定向推送，契约主题走显式订阅。
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 玩家ID到客户端的映射
	playerClients map[int64][]*Client
	playerMu      sync.RWMutex

	// 契约主题订阅（契约超时广播用）
	contractSubs map[string][]*Client
	contractMu   sync.RWMutex

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	logger *zap.Logger
}

// Message 推给客户端的消息封包
type Message struct {
	Channel    string          `json:"channel"`              // queue / match / matchContract
	ContractID string          `json:"contractId,omitempty"` // 契约主题时携带
	Data       json.RawMessage `json:"data"`
	Timestamp  int64           `json:"timestamp"`
}

// 推送通道
const (
	ChannelQueue    = "queue"
	ChannelMatch    = "match"
	ChannelContract = "matchContract"
	ChannelError    = "error"
)

// NewHub 创建Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		playerClients: make(map[int64][]*Client),
		contractSubs:  make(map[string][]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		logger:        logger,
	}
}

// Run 运行Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	if client.PlayerID > 0 {
		h.playerMu.Lock()
		h.playerClients[client.PlayerID] = append(h.playerClients[client.PlayerID], client)
		h.playerMu.Unlock()
	}

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.Int64("player_id", client.PlayerID))
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.clientsMu.Unlock()

	if client.PlayerID > 0 {
		h.playerMu.Lock()
		clients := h.playerClients[client.PlayerID]
		for i, c := range clients {
			if c.ID == client.ID {
				h.playerClients[client.PlayerID] = append(clients[:i], clients[i+1:]...)
				break
			}
		}
		if len(h.playerClients[client.PlayerID]) == 0 {
			delete(h.playerClients, client.PlayerID)
		}
		h.playerMu.Unlock()
	}

	h.contractMu.Lock()
	for contractID, subs := range h.contractSubs {
		for i, c := range subs {
			if c.ID == client.ID {
				h.contractSubs[contractID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(h.contractSubs[contractID]) == 0 {
			delete(h.contractSubs, contractID)
		}
	}
	h.contractMu.Unlock()

	h.logger.Info("WebSocket客户端断开",
		zap.String("client_id", client.ID),
		zap.Int64("player_id", client.PlayerID))
}

// SubscribeContract 订阅契约主题
func (h *Hub) SubscribeContract(client *Client, contractID string) {
	h.contractMu.Lock()
	defer h.contractMu.Unlock()
	for _, c := range h.contractSubs[contractID] {
		if c.ID == client.ID {
			return
		}
	}
	h.contractSubs[contractID] = append(h.contractSubs[contractID], client)
}

// SendToPlayer 推送给玩家的全部连接
func (h *Hub) SendToPlayer(playerID int64, channel string, payload interface{}) {
	data, err := h.pack(channel, "", payload)
	if err != nil {
		return
	}

	h.playerMu.RLock()
	clients := h.playerClients[playerID]
	h.playerMu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("玩家客户端发送缓冲区满",
				zap.String("client_id", client.ID),
				zap.Int64("player_id", playerID))
		}
	}
}

// SendToContract 向契约主题的订阅者广播
func (h *Hub) SendToContract(contractID string, payload interface{}) {
	data, err := h.pack(ChannelContract, contractID, payload)
	if err != nil {
		return
	}

	h.contractMu.RLock()
	subs := h.contractSubs[contractID]
	h.contractMu.RUnlock()

	for _, client := range subs {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("契约订阅者发送缓冲区满",
				zap.String("client_id", client.ID),
				zap.String("contract_id", contractID))
		}
	}
}

func (h *Hub) pack(channel, contractID string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("序列化推送消息失败", zap.Error(err))
		return nil, err
	}
	msg := &Message{
		Channel:    channel,
		ContractID: contractID,
		Data:       raw,
		Timestamp:  time.Now().Unix(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("序列化推送封包失败", zap.Error(err))
		return nil, err
	}
	return data, nil
}

// GetOnlineCount 获取在线人数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Register 注册客户端（公开方法）
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 注销客户端（公开方法）
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
