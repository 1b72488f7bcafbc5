// Package transport abstracts the chat platform the bot talks through.
package transport

import (
	"context"
	"fmt"
)

// Event is one inbound interaction from a chat user: a command, a plain
// text reply, or a selection (button click) carrying opaque data.
type Event struct {
	UserID      int64
	DisplayName string
	Command     string // command name without the leading slash, if any
	Text        string
	Selection   string // callback data from a clicked option, if any
}

// Option is one labeled choice presented to the user. Data comes back in
// Event.Selection when the user picks it.
type Option struct {
	Label string
	Data  string
}

// Handler processes inbound events. Returned errors are logged by the
// gateway; they do not stop event delivery.
type Handler func(ctx context.Context, ev *Event) error

// Gateway is the chat-platform surface the core depends on: deliver text
// to a user, present selectable options, and hand inbound events to a
// registered handler.
type Gateway interface {
	// Send delivers a formatted text message to the user.
	Send(ctx context.Context, userID int64, text string) error

	// SendOptions delivers a message with selectable options attached.
	SendOptions(ctx context.Context, userID int64, text string, opts []Option) error

	// OnEvent registers the handler for inbound events. Later calls
	// replace the handler.
	OnEvent(h Handler)
}

// DeliveryError wraps a failure to reach a user through the platform.
type DeliveryError struct {
	UserID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to user %d: %v", e.UserID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
