package ws

import (
	"encoding/json"
	"testing"
	"time"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return NewHub(zap.NewNop())
}

// connはpumpを動かさない限り触らないのでnilでよい
func newTestClient(h *Hub, userID string, role model.Role, city model.City) *Client {
	return NewClient(h, nil, userID, role, city)
}

// sendチャネルから1件読む（来なければfail）
func recvEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("invalid envelope: %v", err)
		}
		return env
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no message delivered")
		return Envelope{}
	}
}

func assertNoMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected message: %s", raw)
	default:
	}
}

func TestHub_Publish_RoomScoped(t *testing.T) {
	h := newTestHub()

	mumbai := newTestClient(h, "dp-1", model.RoleDeliveryPartner, model.CityMumbai)
	delhi := newTestClient(h, "dp-2", model.RoleDeliveryPartner, model.CityDelhi)
	h.register(mumbai)
	h.register(delhi)

	h.join(mumbai, CityRoom(model.CityMumbai))
	h.join(delhi, CityRoom(model.CityDelhi))

	h.Publish(CityRoom(model.CityMumbai), EventNewOrder, map[string]string{"order_id": "o-1"})

	env := recvEnvelope(t, mumbai)
	assert.Equal(t, EventNewOrder, env.Event)

	assertNoMessage(t, delhi)
}

func TestHub_Publish_NoSubscribers(t *testing.T) {
	h := newTestHub()

	//購読者ゼロでもpanicもエラーもしない
	h.Publish(OrderRoom("ghost"), EventOrderAccepted, map[string]string{})
}

func TestHub_Join_Idempotent(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h, "dp-1", model.RoleDeliveryPartner, model.CityMumbai)
	h.register(c)

	room := CityRoom(model.CityMumbai)
	h.join(c, room)
	h.join(c, room)

	h.Publish(room, EventNewOrder, map[string]string{})

	recvEnvelope(t, c)
	assertNoMessage(t, c)
}

func TestHub_Leave_StopsDelivery(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h, "dp-1", model.RoleDeliveryPartner, model.CityMumbai)
	h.register(c)

	room := CityRoom(model.CityMumbai)
	h.join(c, room)
	h.leave(c, room)

	h.Publish(room, EventNewOrder, map[string]string{})
	assertNoMessage(t, c)
}

func TestHub_Leave_UnjoinedRoomIsNoop(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h, "dp-1", model.RoleDeliveryPartner, model.CityMumbai)
	h.register(c)

	h.leave(c, OrderRoom("never-joined"))
}

func TestHub_SendToUser(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h, "user-1", model.RoleCustomer, "")
	h.register(c)

	h.SendToUser("user-1", EventOrderAccepted, map[string]string{"order_id": "o-1"})

	env := recvEnvelope(t, c)
	assert.Equal(t, EventOrderAccepted, env.Event)

	//未接続ユーザー宛は捨てる
	h.SendToUser("nobody", EventOrderAccepted, map[string]string{})
}

func TestHub_Register_ReconnectOverwrites(t *testing.T) {
	h := newTestHub()

	old := newTestClient(h, "user-1", model.RoleCustomer, "")
	h.register(old)

	fresh := newTestClient(h, "user-1", model.RoleCustomer, "")
	h.register(fresh)

	h.SendToUser("user-1", EventOrderAccepted, map[string]string{})

	recvEnvelope(t, fresh)
	assertNoMessage(t, old)
}

func TestHub_Unregister_RemovesFromAllRooms(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h, "dp-1", model.RoleDeliveryPartner, model.CityMumbai)
	h.register(c)
	h.join(c, CityRoom(model.CityMumbai))
	h.join(c, OrderRoom("o-1"))

	h.unregister(c)

	h.Publish(CityRoom(model.CityMumbai), EventNewOrder, map[string]string{})
	h.Publish(OrderRoom("o-1"), EventOrderAccepted, map[string]string{})
	assertNoMessage(t, c)

	h.SendToUser("dp-1", EventOrderAccepted, map[string]string{})
	assertNoMessage(t, c)
}

// =====================
// handleMessage
// =====================

func envelopeWith(t *testing.T, event string, data interface{}) Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	return Envelope{Event: event, Data: raw}
}

func TestHandleMessage_JoinCityRoom_PartnerGetsAck(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h, "dp-1", model.RoleDeliveryPartner, model.CityMumbai)
	h.register(c)

	c.handleMessage(envelopeWith(t, EventJoinCityRoom, joinCityRoomData{City: model.CityMumbai}))

	env := recvEnvelope(t, c)
	assert.Equal(t, EventJoinedCityRoom, env.Event)

	var ack roomAckData
	assert.NoError(t, json.Unmarshal(env.Data, &ack))
	assert.Equal(t, model.CityMumbai, ack.City)
	assert.Equal(t, "city:MUMBAI", ack.Room)

	//参加できているので配信が届く
	h.Publish(CityRoom(model.CityMumbai), EventNewOrder, map[string]string{})
	env = recvEnvelope(t, c)
	assert.Equal(t, EventNewOrder, env.Event)
}

// 都市ルームは配達パートナー専用
func TestHandleMessage_JoinCityRoom_CustomerRejected(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h, "user-1", model.RoleCustomer, "")
	h.register(c)

	c.handleMessage(envelopeWith(t, EventJoinCityRoom, joinCityRoomData{City: model.CityMumbai}))

	env := recvEnvelope(t, c)
	assert.Equal(t, EventError, env.Event)

	var e errorData
	assert.NoError(t, json.Unmarshal(env.Data, &e))
	assert.Equal(t, "only delivery partners can join city rooms", e.Message)

	//入室していないので配信は届かない
	h.Publish(CityRoom(model.CityMumbai), EventNewOrder, map[string]string{})
	assertNoMessage(t, c)
}

func TestHandleMessage_JoinCityRoom_InvalidCity(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h, "dp-1", model.RoleDeliveryPartner, model.CityMumbai)
	h.register(c)

	c.handleMessage(envelopeWith(t, EventJoinCityRoom, joinCityRoomData{City: "TOKYO"}))

	env := recvEnvelope(t, c)
	assert.Equal(t, EventError, env.Event)
}

func TestHandleMessage_OrderRoom_JoinAndLeave(t *testing.T) {
	h := newTestHub()

	//顧客もパートナーも注文ルームには入れる
	c := newTestClient(h, "user-1", model.RoleCustomer, "")
	h.register(c)

	c.handleMessage(envelopeWith(t, EventJoinOrderRoom, joinOrderRoomData{OrderID: "o-1"}))
	env := recvEnvelope(t, c)
	assert.Equal(t, EventJoinedOrderRoom, env.Event)

	var ack roomAckData
	assert.NoError(t, json.Unmarshal(env.Data, &ack))
	assert.Equal(t, "order:o-1", ack.Room)

	c.handleMessage(envelopeWith(t, EventLeaveOrderRoom, joinOrderRoomData{OrderID: "o-1"}))
	env = recvEnvelope(t, c)
	assert.Equal(t, EventLeftOrderRoom, env.Event)

	h.Publish(OrderRoom("o-1"), EventOrderAccepted, map[string]string{})
	assertNoMessage(t, c)
}

func TestHandleMessage_JoinOrderRoom_MissingID(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h, "user-1", model.RoleCustomer, "")
	h.register(c)

	c.handleMessage(envelopeWith(t, EventJoinOrderRoom, joinOrderRoomData{}))

	env := recvEnvelope(t, c)
	assert.Equal(t, EventError, env.Event)
}

func TestHandleMessage_UnknownEvent(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h, "user-1", model.RoleCustomer, "")
	h.register(c)

	c.handleMessage(Envelope{Event: "subscribe_everything"})

	env := recvEnvelope(t, c)
	assert.Equal(t, EventError, env.Event)

	var e errorData
	assert.NoError(t, json.Unmarshal(env.Data, &e))
	assert.Equal(t, "unknown event", e.Message)
}

// 詰まったクライアントには捨てる（ブロックしない）
func TestClient_Deliver_DropsWhenFull(t *testing.T) {
	h := newTestHub()
	c := newTestClient(h, "user-1", model.RoleCustomer, "")

	msg := []byte(`{"event":"x"}`)
	for i := 0; i < cap(c.send); i++ {
		assert.True(t, c.deliver(msg))
	}
	assert.False(t, c.deliver(msg))
}
