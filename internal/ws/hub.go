package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Publisherは遷移イベントの配信先の約束。
// 単一プロセスではHubが実装する。複数インスタンスにするときは
// ここをブローカーのバックプレーンに差し替える
type Publisher interface {
	Publish(topic string, event string, data interface{})
	SendToUser(userID string, event string, data interface{})
}

// Hubはルーム（トピック）と接続中クライアントを管理する。
// 配信はat-most-once。未接続・未参加のクライアントはイベントを取りこぼす
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	users map[string]*Client

	log *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		users: make(map[string]*Client),
		log:   log,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	//同一ユーザーの再接続は新しい接続で上書き
	h.users[c.userID] = c

	h.log.Info("user connected",
		zap.String("user_id", c.userID),
		zap.String("role", string(c.role)),
	)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[c.userID] == c {
		delete(h.users, c.userID)
	}
	for room, members := range h.rooms {
		if _, ok := members[c]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	h.log.Info("user disconnected", zap.String("user_id", c.userID))
}

// joinは冪等（2回参加しても配信は1回）
func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}

	h.log.Info("joined room",
		zap.String("user_id", c.userID),
		zap.String("room", room),
	)
}

// 未参加ルームからのleaveはno-op
func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}

	h.log.Info("left room",
		zap.String("user_id", c.userID),
		zap.String("room", room),
	)
}

// Publishはtopicの参加者全員へ配る。購読者ゼロでもエラーにしない
func (h *Hub) Publish(topic string, event string, data interface{}) {
	msg, err := marshalEnvelope(event, data)
	if err != nil {
		h.log.Error("marshal event failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[topic]))
	for c := range h.rooms[topic] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.deliver(msg)
	}

	h.log.Info("published",
		zap.String("topic", topic),
		zap.String("event", event),
		zap.Int("subscribers", len(members)),
	)
}

func (h *Hub) SendToUser(userID string, event string, data interface{}) {
	msg, err := marshalEnvelope(event, data)
	if err != nil {
		h.log.Error("marshal event failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	c, ok := h.users[userID]
	h.mu.RUnlock()

	if !ok {
		h.log.Info("user not connected", zap.String("user_id", userID))
		return
	}
	c.deliver(msg)
}

func marshalEnvelope(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
