package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hslog/hslog-go/pkg/hslog/event"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := NewHub(nil, nil)
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", h.Clients(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_Broadcast(t *testing.T) {
	h, srv := startHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitClients(t, h, 2)

	var s Stamper
	env := s.Stamp(event.ZoneChange{CardName: "Fireball", CardID: 42, Team: event.Friendly, Zone: "HAND"})
	if err := h.Publish(context.Background(), env); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got Envelope
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if got.Seq != env.Seq || got.Type != event.TypeZoneChange {
			t.Errorf("envelope = %+v", got)
		}
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	h, srv := startHub(t)
	conn := dial(t, srv)
	waitClients(t, h, 1)

	conn.Close()
	waitClients(t, h, 0)
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := NewHub(nil, nil)
	slow := &client{hub: h, send: make(chan []byte)}
	h.clients[slow] = struct{}{}

	var s Stamper
	if err := h.Publish(context.Background(), s.Stamp(event.MulliganStart{})); err != nil {
		t.Fatal(err)
	}
	if h.Clients() != 0 {
		t.Errorf("clients = %d, want slow client dropped", h.Clients())
	}
	if _, ok := <-slow.send; ok {
		t.Error("slow client queue should be closed")
	}
}

func TestHub_Health(t *testing.T) {
	h, srv := startHub(t)
	dial(t, srv)
	waitClients(t, h, 1)

	var s Stamper
	s.Stamp(event.MulliganStart{})
	_ = h.Publish(context.Background(), s.Stamp(event.MulliganStart{}))

	res, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	var body struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
		LastSeq uint64 `json:"last_seq"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Clients != 1 || body.LastSeq != 2 {
		t.Errorf("health = %+v", body)
	}
}

func TestHub_Close(t *testing.T) {
	h, srv := startHub(t)
	conn := dial(t, srv)
	waitClients(t, h, 1)

	if err := h.Close(); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("read error = %v, want normal closure", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial after Close should fail")
	}
	if res == nil || res.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("response = %v, want 503", res)
	}
}
