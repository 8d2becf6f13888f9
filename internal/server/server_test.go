package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/simplexbot/simplexbot/pkg/protocol"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	s := New("127.0.0.1:0", nil, zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func dialTestServer(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(s.URL(), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServerRepliesWithMatchingCorrID(t *testing.T) {
	s := startTestServer(t)
	conn := dialTestServer(t, s)

	req := []byte(`{"corrId":"42","cmd":"/u"}`)
	if err := conn.WriteMessage(websocket.TextMessage, req); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var env protocol.ChatSrvResponse
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Response is not an envelope: %v", err)
	}
	if env.CorrID != "42" {
		t.Errorf("Expected corrId '42', got '%s'", env.CorrID)
	}

	resp, err := protocol.DecodeResponse(env.Resp)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if resp.ResponseType() != "activeUser" {
		t.Errorf("Expected activeUser, got %s", resp.ResponseType())
	}
}

func TestServerPushEventHasNoCorrID(t *testing.T) {
	s := startTestServer(t)
	conn := dialTestServer(t, s)

	// Wait for the connection to be registered before pushing.
	deadline := time.Now().Add(2 * time.Second)
	for s.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.PushEvent(&protocol.CRChatStopped{}); err != nil {
		t.Fatalf("PushEvent failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var env protocol.ChatSrvResponse
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Event is not an envelope: %v", err)
	}
	if env.CorrID != "" {
		t.Errorf("Event should have no corrId, got '%s'", env.CorrID)
	}
}

func TestDefaultHandlerStartThenRunning(t *testing.T) {
	h := DefaultHandler()

	if resp := h("/_start subscribe=on expire=off"); resp.ResponseType() != "chatStarted" {
		t.Errorf("First start: expected chatStarted, got %s", resp.ResponseType())
	}
	if resp := h("/_start subscribe=on expire=off"); resp.ResponseType() != "chatRunning" {
		t.Errorf("Second start: expected chatRunning, got %s", resp.ResponseType())
	}
	if resp := h("/_stop"); resp.ResponseType() != "chatStopped" {
		t.Errorf("Stop: expected chatStopped, got %s", resp.ResponseType())
	}
}

func TestDefaultHandlerRejectsMalformedGroup(t *testing.T) {
	h := DefaultHandler()
	resp := h("/_group {not json")
	if resp.ResponseType() != "chatCmdError" {
		t.Errorf("Expected chatCmdError, got %s", resp.ResponseType())
	}
}

func TestDefaultHandlerSendEchoesText(t *testing.T) {
	h := DefaultHandler()

	resp := h(`/_send @1 json [{"msgContent":{"type":"text","text":"hello"}}]`)
	items, ok := resp.(*protocol.CRNewChatItems)
	if !ok {
		t.Fatalf("Expected *CRNewChatItems, got %T", resp)
	}
	if len(items.ChatItems) != 1 || items.ChatItems[0].ChatItem.Meta.ItemText != "hello" {
		t.Errorf("Sent text not echoed: %+v", items.ChatItems)
	}
}

func TestClientCount(t *testing.T) {
	s := startTestServer(t)
	if s.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", s.ClientCount())
	}

	dialTestServer(t, s)
	deadline := time.Now().Add(2 * time.Second)
	for s.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", s.ClientCount())
	}
}
