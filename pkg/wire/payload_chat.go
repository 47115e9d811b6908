package wire

import (
	"encoding/json"
	"unicode/utf8"
)

// MaxChatTextLen and MaxChatNameLen bound the chat payload's JSON string
// fields, enforced on both encode and decode.
const (
	MaxChatTextLen = 2048
	MaxChatNameLen = 64
)

// ChatPayload is the canonical JSON object carried by a TypeChat packet:
// {"t": text, "n"?: sender display name}.
type ChatPayload struct {
	Text string
	Name string // empty means absent
}

type chatWireForm struct {
	Text string `json:"t"`
	Name string `json:"n,omitempty"`
}

// EncodeChatPayload serializes c as canonical JSON, rejecting oversized or
// invalid fields before encoding.
func EncodeChatPayload(c *ChatPayload) ([]byte, error) {
	if !utf8.ValidString(c.Text) || !utf8.ValidString(c.Name) {
		return nil, ErrInvalidUTF8
	}
	if len(c.Text) > MaxChatTextLen || len(c.Name) > MaxChatNameLen {
		return nil, ErrFieldTooLong
	}
	return json.Marshal(chatWireForm{Text: c.Text, Name: c.Name})
}

// DecodeChatPayload parses a chat payload, rejecting invalid UTF-8 and
// oversized fields. json.Unmarshal already rejects malformed UTF-8 in
// string literals, but length caps are enforced explicitly.
func DecodeChatPayload(data []byte) (*ChatPayload, error) {
	var w chatWireForm
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if !utf8.ValidString(w.Text) || !utf8.ValidString(w.Name) {
		return nil, ErrInvalidUTF8
	}
	if len(w.Text) > MaxChatTextLen || len(w.Name) > MaxChatNameLen {
		return nil, ErrFieldTooLong
	}
	return &ChatPayload{Text: w.Text, Name: w.Name}, nil
}
