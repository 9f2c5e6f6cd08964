package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType names a command or event on the wire
type MessageType string

// Inbound commands
const (
	TypeReg           MessageType = "reg"
	TypeCreateRoom    MessageType = "create_room"
	TypeAddUserToRoom MessageType = "add_user_to_room"
	TypeAddShips      MessageType = "add_ships"
	TypeAttack        MessageType = "attack"
	TypeRandomAttack  MessageType = "randomAttack"
)

// Outbound events
const (
	TypeUpdateRoom    MessageType = "update_room"
	TypeUpdateWinners MessageType = "update_winners"
	TypeCreateGame    MessageType = "create_game"
	TypeStartGame     MessageType = "start_game"
	TypeTurn          MessageType = "turn"
	TypeFinish        MessageType = "finish"
)

// ErrMalformed wraps every decoding failure
var ErrMalformed = errors.New("malformed message")

// Envelope is the frame every message travels in. Data holds the payload
// as a JSON document encoded into a string.
type Envelope struct {
	Type MessageType `json:"type"`
	Data string      `json:"data"`
	ID   int         `json:"id"`
}

type rawEnvelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
	ID   int             `json:"id"`
}

// Decode parses a frame. A data field sent as a bare JSON object instead
// of a string is accepted as well.
func Decode(frame []byte) (Envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(frame, &raw); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	env := Envelope{Type: raw.Type, ID: raw.ID}
	data := bytes.TrimSpace(raw.Data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
	case data[0] == '"':
		if err := json.Unmarshal(data, &env.Data); err != nil {
			return Envelope{}, fmt.Errorf("%w: data: %v", ErrMalformed, err)
		}
	default:
		env.Data = string(data)
	}
	return env, nil
}

// DecodeData unmarshals the envelope payload into T. An empty payload
// yields the zero value.
func DecodeData[T any](env Envelope) (T, error) {
	var payload T
	if len(bytes.TrimSpace([]byte(env.Data))) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal([]byte(env.Data), &payload); err != nil {
		return payload, fmt.Errorf("%w: %s data: %v", ErrMalformed, env.Type, err)
	}
	return payload, nil
}

// Encode builds a frame carrying payload as its string-encoded data
func Encode(msgType MessageType, payload any, id int) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s data: %w", msgType, err)
	}
	return json.Marshal(Envelope{Type: msgType, Data: string(data), ID: id})
}
