// Package protocol defines the wire types of the SimpleX chat CLI WebSocket
// API: request/response envelopes, the chat command catalog with its string
// rendering, and the tagged response set.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ChatSrvRequest is the outbound envelope. Every request carries a
// correlation ID assigned by the sender.
type ChatSrvRequest struct {
	CorrID string `json:"corrId"`
	Cmd    string `json:"cmd"`
}

// ChatSrvResponse is the inbound envelope. A missing or empty corrId marks
// the envelope as an unsolicited server event. The resp body is kept opaque
// here; see DecodeResponse.
type ChatSrvResponse struct {
	CorrID string          `json:"corrId,omitempty"`
	Resp   json.RawMessage `json:"resp"`
}

// Encode serializes the request envelope to a JSON text frame.
func (r *ChatSrvRequest) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request envelope: %w", err)
	}
	return data, nil
}

// DecodeEnvelope parses one inbound JSON frame into a response envelope.
func DecodeEnvelope(data []byte) (ChatSrvResponse, error) {
	var resp ChatSrvResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return ChatSrvResponse{}, fmt.Errorf("failed to decode response envelope: %w", err)
	}
	return resp, nil
}
