package event

import (
	"encoding/json"
	"errors"

	customerrors "game-line/pkg/errors"
)

type Type string

const (
	TypeMessage  Type = "message"
	TypeFollow   Type = "follow"
	TypeUnfollow Type = "unfollow"
	TypePostback Type = "postback"
)

const MessageTypeText = "text"

type InboundEvent struct {
	Type       Type      `json:"type"`
	ReplyToken string    `json:"replyToken,omitempty"`
	Source     Source    `json:"source"`
	Message    *Message  `json:"message,omitempty"`
	Postback   *Postback `json:"postback,omitempty"`
	Timestamp  int64     `json:"timestamp"`
}

type Source struct {
	Type    string `json:"type"`
	UserId  string `json:"userId,omitempty"`
	GroupId string `json:"groupId,omitempty"`
	RoomId  string `json:"roomId,omitempty"`
}

type Message struct {
	Type string `json:"type"`
	Id   string `json:"id"`
	Text string `json:"text,omitempty"`
}

type Postback struct {
	Data   string            `json:"data"`
	Params map[string]string `json:"params,omitempty"`
}

type webhookBody struct {
	Destination string            `json:"destination"`
	Events      []json.RawMessage `json:"events"`
}

// Batch is a decoded webhook body. Events that could not be decoded are kept
// apart so the rest of the batch can still be handled.
type Batch struct {
	Destination string
	Events      []InboundEvent
	Invalid     []InvalidEvent
}

type InvalidEvent struct {
	Index int
	Err   error
}

// DecodeBatch parses a webhook body. Only a body that is not a JSON object
// with an events array fails as a whole.
func DecodeBatch(body []byte) (*Batch, error) {
	if len(body) == 0 {
		return nil, customerrors.ErrEmptyBody
	}

	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, customerrors.MalformedPayloadErr{Err: err}
	}

	batch := &Batch{
		Destination: wb.Destination,
		Events:      make([]InboundEvent, 0, len(wb.Events)),
	}
	for i, raw := range wb.Events {
		var ev InboundEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			batch.Invalid = append(batch.Invalid, InvalidEvent{Index: i, Err: err})
			continue
		}
		if ev.Type == "" {
			batch.Invalid = append(batch.Invalid, InvalidEvent{Index: i, Err: errors.New("missing event type")})
			continue
		}
		batch.Events = append(batch.Events, ev)
	}

	return batch, nil
}

// TextMessage returns the text of a text message event.
func (e InboundEvent) TextMessage() (string, bool) {
	if e.Message == nil || e.Message.Type != MessageTypeText {
		return "", false
	}
	return e.Message.Text, true
}
