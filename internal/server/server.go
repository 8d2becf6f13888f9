// Package server implements a mock SimpleX chat CLI server speaking the
// {"corrId","cmd"} / {"corrId","resp"} wire protocol. It backs the
// integration tests and the demo binary; it is not a real chat engine.
package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/simplexbot/simplexbot/pkg/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // mock server, any origin
	},
}

// Handler produces the resp body for one command string. Returning nil
// suppresses the reply, which makes a command time out on the client side.
type Handler func(cmd string) protocol.Response

// conn is one connected client.
type conn struct {
	id       string
	ws       *websocket.Conn
	outgoing chan []byte
}

// Server is the mock chat server.
type Server struct {
	address  string
	handler  Handler
	log      zerolog.Logger
	listener net.Listener
	server   *http.Server
	mu       sync.RWMutex
	clients  map[*conn]bool
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a mock server listening on address ("127.0.0.1:0" picks a free
// port). A nil handler uses DefaultHandler.
func New(address string, handler Handler, log zerolog.Logger) *Server {
	if handler == nil {
		handler = DefaultHandler()
	}
	return &Server{
		address: address,
		handler: handler,
		log:     log,
		clients: make(map[*conn]bool),
		quit:    make(chan struct{}),
	}
}

// Start begins listening and serving. It returns once the listener is ready.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWebSocket)
	s.server = &http.Server{Handler: mux}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("serve failed")
		}
	}()

	s.log.Debug().Str("addr", listener.Addr().String()).Msg("mock server started")
	return nil
}

// Stop closes the listener and every client connection.
func (s *Server) Stop() {
	s.quitOnce.Do(func() {
		close(s.quit)
	})

	if s.server != nil {
		s.server.Close()
	}

	s.mu.Lock()
	for c := range s.clients {
		c.ws.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// URL returns the server's WebSocket URL.
func (s *Server) URL() string {
	return "ws://" + s.Addr()
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// PushEvent sends resp to every connected client as an unsolicited event
// (no corrId).
func (s *Server) PushEvent(resp protocol.Response) error {
	frame, err := eventFrame(resp)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.outgoing <- frame:
		default:
			s.log.Warn().Str("conn", c.id).Msg("client outgoing buffer full, dropping event")
		}
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	c := &conn{
		id:       uuid.NewString()[:8],
		ws:       ws,
		outgoing: make(chan []byte, 64),
	}

	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.handleClient(c)
}

func (s *Server) handleClient(c *conn) {
	defer s.wg.Done()
	defer func() {
		close(c.outgoing)
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		c.ws.Close()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for data := range c.outgoing {
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debug().Err(err).Str("conn", c.id).Msg("write failed")
				return
			}
		}
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Str("conn", c.id).Msg("read failed")
			}
			return
		}

		var req protocol.ChatSrvRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.log.Warn().Err(err).Str("conn", c.id).Msg("dropping malformed request")
			continue
		}
		s.log.Debug().Str("conn", c.id).Str("corrId", req.CorrID).Str("cmd", req.Cmd).Msg("command")

		resp := s.handler(req.Cmd)
		if resp == nil {
			continue
		}
		frame, err := responseFrame(req.CorrID, resp)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to encode response")
			continue
		}

		select {
		case c.outgoing <- frame:
		case <-s.quit:
			return
		}
	}
}

// responseFrame builds a frame echoing the request's corrId.
func responseFrame(corrID string, resp protocol.Response) ([]byte, error) {
	body, err := respBody(resp)
	if err != nil {
		return nil, err
	}
	return json.Marshal(protocol.ChatSrvResponse{CorrID: corrID, Resp: body})
}

// eventFrame builds a frame with no corrId.
func eventFrame(resp protocol.Response) ([]byte, error) {
	body, err := respBody(resp)
	if err != nil {
		return nil, err
	}
	return json.Marshal(protocol.ChatSrvResponse{Resp: body})
}

// respBody marshals a response value and injects its "type" tag, which the
// typed structs do not carry as a field.
func respBody(resp protocol.Response) (json.RawMessage, error) {
	if unk, ok := resp.(*protocol.CRUnknown); ok {
		return unk.Raw, nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed to re-read response: %w", err)
	}
	typeTag, _ := json.Marshal(resp.ResponseType())
	body["type"] = typeTag
	return json.Marshal(body)
}
