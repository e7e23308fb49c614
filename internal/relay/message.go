package relay

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Message is the wire envelope of every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Publisher delivers events to the connection behind a participant handle.
type Publisher interface {
	Publish(handle string, event Event)
}

// Decode - parses an inbound frame into one of the known commands.
func Decode(data []byte) (Command, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	var cmd Command
	switch msg.Action {
	case ActionCreateRoom:
		cmd = &CreateRoom{}
	case ActionJoinRoom:
		cmd = &JoinRoom{}
	case ActionTossChoice:
		cmd = &TossChoice{}
	case ActionChooseNumber:
		cmd = &ChooseNumber{}
	case ActionRequestRestart:
		cmd = &RequestRestart{}
	case ActionLeaveRoom:
		cmd = &LeaveRoom{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
	}

	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, cmd); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPayload, msg.Action, err)
		}
	}

	return cmd, nil
}

// Encode - wraps an outbound event into the wire envelope.
func Encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event.Action(), err)
	}

	data, err := json.Marshal(Message{
		Action:  event.Action(),
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}
