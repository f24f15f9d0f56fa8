package chat

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Role identifies the author of a conversation turn. The set is closed;
// provider adapters map these to their own labels (e.g. model -> assistant).
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModel, RoleSystem:
		return true
	}
	return false
}

// InlineData is a base64-encoded binary attachment with its MIME type.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// PartKind discriminates the Part union.
type PartKind int

const (
	PartKindText PartKind = iota
	PartKindInline
)

// Part is a discriminated union: either a text fragment or an inline binary
// attachment, never both. Construct with TextPart or InlinePart; the zero
// value is an empty text part.
type Part struct {
	kind   PartKind
	text   string
	inline InlineData
}

// TextPart returns a text part.
func TextPart(text string) Part {
	return Part{kind: PartKindText, text: text}
}

// InlinePart returns an inline binary part.
func InlinePart(mimeType, data string) Part {
	return Part{kind: PartKindInline, inline: InlineData{MIMEType: mimeType, Data: data}}
}

// Kind returns the populated tag.
func (p Part) Kind() PartKind { return p.kind }

// Text returns the text payload; empty for inline parts.
func (p Part) Text() string {
	if p.kind != PartKindText {
		return ""
	}
	return p.text
}

// Inline returns the attachment payload and whether the part carries one.
func (p Part) Inline() (InlineData, bool) {
	if p.kind != PartKindInline {
		return InlineData{}, false
	}
	return p.inline, true
}

type partJSON struct {
	Text       *string     `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// MarshalJSON emits {"text": ...} or {"inlineData": {...}} depending on the tag.
func (p Part) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case PartKindText:
		text := p.text
		return json.Marshal(partJSON{Text: &text})
	case PartKindInline:
		inline := p.inline
		return json.Marshal(partJSON{InlineData: &inline})
	}
	return nil, fmt.Errorf("unknown part kind %d", p.kind)
}

// UnmarshalJSON rejects parts with zero or both tags populated.
func (p *Part) UnmarshalJSON(data []byte) error {
	var raw partJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.Text != nil && raw.InlineData != nil:
		return errors.New("part has both text and inlineData populated")
	case raw.Text != nil:
		*p = TextPart(*raw.Text)
	case raw.InlineData != nil:
		if raw.InlineData.MIMEType == "" || raw.InlineData.Data == "" {
			return errors.New("inline part requires mimeType and data")
		}
		*p = InlinePart(raw.InlineData.MIMEType, raw.InlineData.Data)
	default:
		return errors.New("part has neither text nor inlineData populated")
	}
	return nil
}

// Turn is one conversation exchange: a role and its ordered content parts.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Validate checks the role and that every part is well formed.
func (t Turn) Validate() error {
	if !t.Role.Valid() {
		return fmt.Errorf("invalid role %q", t.Role)
	}
	if len(t.Parts) == 0 {
		return errors.New("turn has no parts")
	}
	return nil
}

// Message is a persisted turn with identity and creation time.
type Message struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Parts     []Part `json:"parts"`
	Timestamp int64  `json:"timestamp"`
}

// Turn strips persistence metadata for provider submission.
func (m Message) Turn() Turn {
	return Turn{Role: m.Role, Parts: m.Parts}
}

// ChatSession is a stored conversation. LastUpdated is set by the store on
// every successful save and doubles as the recency/retention key.
type ChatSession struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	LastUpdated int64     `json:"lastUpdated"`
}

// FirstUserText returns the first non-empty user text part, if any.
func (s *ChatSession) FirstUserText() string {
	for _, msg := range s.Messages {
		if msg.Role != RoleUser {
			continue
		}
		for _, part := range msg.Parts {
			if text := part.Text(); text != "" {
				return text
			}
		}
	}
	return ""
}

// RecentPrompt is a reusable prompt suggestion. The text is its identity.
type RecentPrompt struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
