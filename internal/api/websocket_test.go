package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/dht-realtime/internal/auth"
	"github.com/nerrad567/dht-realtime/internal/realtime"
	"github.com/nerrad567/dht-realtime/internal/telemetry"
)

// newTestClient creates a hub-registered client without a connection.
func newTestClient(hub *Hub, channels ...string) *WSClient {
	c := &WSClient{
		id:            "test-" + strings.Join(channels, ","),
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	for _, ch := range channels {
		c.subscriptions[ch] = struct{}{}
	}
	hub.Register(c)
	return c
}

// next reads one queued message, failing if none is available.
func next(t *testing.T, c *WSClient) WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal %q: %v", data, err)
		}
		return msg
	default:
		t.Fatal("expected a queued message")
		return WSMessage{}
	}
}

func assertEmpty(t *testing.T, c *WSClient) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message %s", data)
	default:
	}
}

// ─── Hub ───────────────────────────────────────────────────────────

func TestHub_BroadcastOnlyToSubscribers(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	readings := newTestClient(hub, ChannelReadingUpdated)
	selection := newTestClient(hub, ChannelSelectionChanged)

	hub.Broadcast(ChannelReadingUpdated, map[string]string{"device_id": "s1"})

	msg := next(t, readings)
	if msg.Type != WSTypeEvent || msg.EventType != ChannelReadingUpdated {
		t.Errorf("message = %+v", msg)
	}
	assertEmpty(t, selection)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	c := newTestClient(hub)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("ClientCount() = %d, want 1", got)
	}

	hub.Unregister(c)
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}

	// Sending to a departed client must not panic.
	c.trySend([]byte("late"))
}

func TestHub_BroadcastUpdate(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	c := newTestClient(hub, ChannelReadingUpdated, ChannelSelectionChanged)

	r := telemetry.Reading{DeviceID: "s1", Temperature: 70, Humidity: 40, Timestamp: 1700000000}
	hub.BroadcastUpdate(realtime.Update{
		Reading:  r,
		Position: 0,
		Added:    true,
		Devices:  1,
	})

	msg := next(t, c)
	if msg.EventType != ChannelReadingUpdated {
		t.Fatalf("event = %q, want %q", msg.EventType, ChannelReadingUpdated)
	}
	payload, _ := msg.Payload.(map[string]any)
	if payload["added"] != true || payload["devices"] != float64(1) {
		t.Errorf("payload = %v", payload)
	}
	assertEmpty(t, c)

	hub.BroadcastUpdate(realtime.Update{
		Reading:          r,
		Selection:        telemetry.Selection{DeviceID: "s1", Snapshot: r, HasSnapshot: true},
		SelectionChanged: true,
		Devices:          1,
	})

	if msg := next(t, c); msg.EventType != ChannelReadingUpdated {
		t.Errorf("first event = %q, want %q", msg.EventType, ChannelReadingUpdated)
	}
	msg = next(t, c)
	if msg.EventType != ChannelSelectionChanged {
		t.Fatalf("second event = %q, want %q", msg.EventType, ChannelSelectionChanged)
	}
	sel, _ := msg.Payload.(map[string]any)
	if sel["state"] != "selected_with_snapshot" {
		t.Errorf("selection payload = %v", sel)
	}
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	c := newTestClient(hub, ChannelReadingUpdated)

	hub.closeAll()

	if hub.ClientCount() != 0 {
		t.Error("expected no clients after closeAll")
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
}

// ─── Client messages ───────────────────────────────────────────────

func TestClient_SubscribeSendsInitialState(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	hub.SetInitial(ChannelSelectionChanged, func() any {
		return SelectionResponse{DeviceID: "s1", State: "selected_no_snapshot"}
	})
	c := newTestClient(hub)

	c.handleMessage([]byte(`{"type":"subscribe","id":"1","payload":{"channels":["reading.updated","selection.changed"]}}`))

	resp := next(t, c)
	if resp.Type != WSTypeResponse || resp.ID != "1" {
		t.Fatalf("response = %+v", resp)
	}
	initial := next(t, c)
	if initial.EventType != ChannelSelectionChanged {
		t.Fatalf("initial event = %q, want %q", initial.EventType, ChannelSelectionChanged)
	}
	assertEmpty(t, c)

	if !c.isSubscribed(ChannelReadingUpdated) || !c.isSubscribed(ChannelSelectionChanged) {
		t.Error("expected both channels subscribed")
	}
}

func TestClient_Messages(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType string
	}{
		{"ping", `{"type":"ping","id":"p"}`, WSTypePong},
		{"invalid json", `{`, WSTypeError},
		{"unknown type", `{"type":"shout"}`, WSTypeError},
		{"unknown channel", `{"type":"subscribe","payload":{"channels":["device.deleted"]}}`, WSTypeError},
		{"unsubscribe", `{"type":"unsubscribe","payload":{"channels":["reading.updated"]}}`, WSTypeResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(testWSConfig(), testLogger())
			c := newTestClient(hub)

			c.handleMessage([]byte(tt.input))

			if msg := next(t, c); msg.Type != tt.wantType {
				t.Errorf("type = %q, want %q", msg.Type, tt.wantType)
			}
		})
	}
}

func TestClient_Unsubscribe(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger())
	c := newTestClient(hub, ChannelReadingUpdated)

	c.handleMessage([]byte(`{"type":"unsubscribe","payload":{"channels":["reading.updated"]}}`))
	next(t, c)

	hub.Broadcast(ChannelReadingUpdated, nil)
	assertEmpty(t, c)
}

// ─── Tickets ───────────────────────────────────────────────────────

func TestTicketStore(t *testing.T) {
	ts := newTicketStore()

	ticket := ts.issue("alice", auth.RoleViewer)
	entry, ok := ts.redeem(ticket)
	if !ok || entry.subject != "alice" || entry.role != auth.RoleViewer {
		t.Fatalf("redeem() = %+v, %v", entry, ok)
	}
	if _, ok := ts.redeem(ticket); ok {
		t.Error("ticket redeemed twice")
	}
	if _, ok := ts.redeem("unknown"); ok {
		t.Error("unknown ticket redeemed")
	}

	expired := ts.issue("bob", auth.RoleViewer)
	ts.mu.Lock()
	e := ts.tickets[expired]
	e.expiresAt = time.Now().Add(-time.Second)
	ts.tickets[expired] = e
	ts.mu.Unlock()

	ts.cleanExpired()
	if _, ok := ts.redeem(expired); ok {
		t.Error("expired ticket redeemed")
	}
}

func TestWSTicket_Endpoint(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := do(t, router, http.MethodPost, "/api/v1/auth/ws-ticket", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", w.Code)
	}

	w = do(t, router, http.MethodPost, "/api/v1/auth/ws-ticket", tokenFor(t, auth.RoleViewer), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decode[map[string]any](t, w)
	if resp["ticket"] == "" || resp["expires_in"] != float64(60) {
		t.Errorf("resp = %v", resp)
	}
}

func TestWebSocket_RejectsMissingTicket(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	for _, path := range []string{"/api/v1/ws", "/api/v1/ws?ticket=bogus"} {
		w := do(t, router, http.MethodGet, path, "", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", path, w.Code)
		}
	}
}

// ─── End to end ────────────────────────────────────────────────────

func TestWebSocket_StreamsUpdates(t *testing.T) {
	srv, view := testServer(t)
	view.SetOnUpdate(srv.Hub().BroadcastUpdate)

	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()
	defer srv.Hub().closeAll()

	view.Select("s1")

	w := do(t, srv.buildRouter(), http.MethodPost, "/api/v1/auth/ws-ticket", tokenFor(t, auth.RoleViewer), "")
	ticket, _ := decode[map[string]any](t, w)["ticket"].(string)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?ticket=" + ticket
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	resp.Body.Close()

	read := func() WSMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck // test deadline
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		return msg
	}

	err = conn.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{ChannelReadingUpdated, ChannelSelectionChanged}},
	})
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	if msg := read(); msg.Type != WSTypeResponse || msg.ID != "sub-1" {
		t.Fatalf("subscribe response = %+v", msg)
	}
	initial := read()
	if initial.EventType != ChannelSelectionChanged {
		t.Fatalf("initial event = %q", initial.EventType)
	}
	if p, _ := initial.Payload.(map[string]any); p["state"] != "selected_no_snapshot" {
		t.Errorf("initial selection = %v", p)
	}

	view.Handle("purdue-dac/s1", []byte("72:45:1700000000"))

	update := read()
	if update.EventType != ChannelReadingUpdated {
		t.Fatalf("event = %q, want %q", update.EventType, ChannelReadingUpdated)
	}
	changed := read()
	if changed.EventType != ChannelSelectionChanged {
		t.Fatalf("event = %q, want %q", changed.EventType, ChannelSelectionChanged)
	}
	if p, _ := changed.Payload.(map[string]any); p["state"] != "selected_with_snapshot" {
		t.Errorf("selection = %v", p)
	}
}
