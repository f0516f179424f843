package interaction

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/patternbot/internal/domain"
)

// Type discriminates inbound interactions.
type Type int

// Interaction type constants.
const (
	Ping               Type = 1
	ApplicationCommand Type = 2
	MessageComponent   Type = 3
	Autocomplete       Type = 4
	ModalSubmit        Type = 5
)

// String returns a metrics-friendly name of the type.
func (t Type) String() string {
	switch t {
	case Ping:
		return "ping"
	case ApplicationCommand:
		return "application_command"
	case MessageComponent:
		return "message_component"
	case Autocomplete:
		return "autocomplete"
	case ModalSubmit:
		return "modal_submit"
	default:
		return fmt.Sprintf("unknown_%d", int(t))
	}
}

// ResponseType discriminates outbound replies.
type ResponseType int

// Response type constants.
const (
	Pong                     ResponseType = 1
	ChannelMessageWithSource ResponseType = 4
	DeferredChannelMessage   ResponseType = 5
)

// FlagEphemeral makes a reply visible only to the invoking user.
const FlagEphemeral = 1 << 6

// MaxContentLength is the platform's limit for message content.
const MaxContentLength = 2000

// Request is an inbound interaction payload.
type Request struct {
	ID            string       `json:"id,omitempty"`
	ApplicationID string       `json:"application_id,omitempty"`
	Type          Type         `json:"type"`
	Data          *CommandData `json:"data,omitempty"`
	GuildID       string       `json:"guild_id,omitempty"`
	ChannelID     string       `json:"channel_id,omitempty"`
	Token         string       `json:"token,omitempty"`
}

// CommandData carries the invoked command and its options.
type CommandData struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Type    int      `json:"type,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Option is a named option value supplied by the user.
type Option struct {
	Name  string `json:"name"`
	Type  int    `json:"type,omitempty"`
	Value any    `json:"value,omitempty"`
}

// StringValue returns the option value when it is a string.
func (o Option) StringValue() (string, bool) {
	s, ok := o.Value.(string)
	return s, ok
}

// FirstOption returns the first option supplied with the command.
func (d *CommandData) FirstOption() (Option, bool) {
	if d == nil || len(d.Options) == 0 {
		return Option{}, false
	}
	return d.Options[0], true
}

// envelope holds the fields read before the payload shape is known.
type envelope struct {
	Type Type            `json:"type"`
	ID   json.RawMessage `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Decode parses an inbound payload. Only the type discriminant must be
// well formed: fields other than type are ignored for a ping, and command
// data that does not decode leaves Data nil so the command is answered as
// an invalid payload.
func Decode(body []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidInteraction, err)
	}

	req := Request{Type: env.Type}
	_ = json.Unmarshal(env.ID, &req.ID)
	if env.Type != ApplicationCommand {
		return req, nil
	}

	var full Request
	if err := json.Unmarshal(body, &full); err != nil {
		return req, nil
	}
	return full, nil
}

// Response is the reply written back to the platform.
type Response struct {
	Type ResponseType  `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData is the message body of a reply.
type ResponseData struct {
	Content string `json:"content"`
	Flags   int    `json:"flags,omitempty"`
}

// PongResponse acknowledges a handshake.
func PongResponse() Response {
	return Response{Type: Pong}
}

// MessageResponse replies in the invoking channel.
func MessageResponse(content string) Response {
	return Response{Type: ChannelMessageWithSource, Data: &ResponseData{Content: content}}
}

// EphemeralResponse replies to the invoking user only.
func EphemeralResponse(content string) Response {
	return Response{
		Type: ChannelMessageWithSource,
		Data: &ResponseData{Content: content, Flags: FlagEphemeral},
	}
}
