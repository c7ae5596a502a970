package ws

import (
	"encoding/json"
	"time"

	"app/internal/domain/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Clientは1本のWebSocket接続。
// 切断してもパートナーの配達アサインは解放されない（終端遷移だけが解放する）
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	userID string
	role   model.Role
	city   model.City
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, role model.Role, city model.City) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: userID,
		role:   role,
		city:   city,
	}
}

// Startはpumpを起動してhubに登録する
func (c *Client) Start() {
	c.hub.register(c)
	go c.writePump()
	go c.readPump()
}

// 非ブロッキング送信。詰まっているクライアントには捨てる（at-most-once）
func (c *Client) deliver(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) sendEvent(event string, data interface{}) {
	msg, err := marshalEnvelope(event, data)
	if err != nil {
		return
	}
	c.deliver(msg)
}

func (c *Client) sendError(message string) {
	//エラーは発生元のクライアントだけに返す。ブロードキャストしない
	c.sendEvent(EventError, errorData{Message: message})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("read error", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendError("invalid message")
			continue
		}

		c.handleMessage(env)
	}
}

func (c *Client) handleMessage(env Envelope) {
	switch env.Event {
	case EventJoinCityRoom:
		var d joinCityRoomData
		if err := json.Unmarshal(env.Data, &d); err != nil || !model.IsValidCity(d.City) {
			c.sendError("invalid city")
			return
		}

		//都市ルームは配達パートナー専用
		if c.role != model.RoleDeliveryPartner {
			c.sendError("only delivery partners can join city rooms")
			return
		}

		room := CityRoom(d.City)
		c.hub.join(c, room)
		c.sendEvent(EventJoinedCityRoom, roomAckData{City: d.City, Room: room})

	case EventLeaveCityRoom:
		var d joinCityRoomData
		if err := json.Unmarshal(env.Data, &d); err != nil || !model.IsValidCity(d.City) {
			c.sendError("invalid city")
			return
		}

		room := CityRoom(d.City)
		c.hub.leave(c, room)
		c.sendEvent(EventLeftCityRoom, roomAckData{City: d.City, Room: room})

	case EventJoinOrderRoom:
		var d joinOrderRoomData
		if err := json.Unmarshal(env.Data, &d); err != nil || d.OrderID == "" {
			c.sendError("invalid order id")
			return
		}

		room := OrderRoom(d.OrderID)
		c.hub.join(c, room)
		c.sendEvent(EventJoinedOrderRoom, roomAckData{OrderID: d.OrderID, Room: room})

	case EventLeaveOrderRoom:
		var d joinOrderRoomData
		if err := json.Unmarshal(env.Data, &d); err != nil || d.OrderID == "" {
			c.sendError("invalid order id")
			return
		}

		room := OrderRoom(d.OrderID)
		c.hub.leave(c, room)
		c.sendEvent(EventLeftOrderRoom, roomAckData{OrderID: d.OrderID, Room: room})

	default:
		c.sendError("unknown event")
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
