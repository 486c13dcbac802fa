package events

import (
	"encoding/json"
	"fmt"
)

// Envelope is the websocket frame carrying one event.
type Envelope struct {
	Event   Kind            `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps e into a JSON envelope.
func Encode(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Kind(), err)
	}
	return json.Marshal(Envelope{Event: e.Kind(), Payload: payload})
}

// Decode parses a JSON envelope back into its concrete event.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Event {
	case KindAnswerUpdate:
		return decodePayload[AnswerUpdate](env)
	case KindCommentUpdate:
		return decodePayload[CommentUpdate](env)
	case KindVoteUpdate:
		return decodePayload[VoteUpdate](env)
	case KindViewsUpdate:
		return decodePayload[ViewsUpdate](env)
	case KindQuestionUpdate:
		return decodePayload[QuestionUpdate](env)
	default:
		return nil, fmt.Errorf("decode envelope: unknown event %q", env.Event)
	}
}

func decodePayload[T Event](env Envelope) (Event, error) {
	var e T
	if err := json.Unmarshal(env.Payload, &e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Event, err)
	}
	return e, nil
}
