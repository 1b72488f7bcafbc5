package transport

import (
	"context"
	"sync"
)

// Outbound is one message recorded by the in-memory gateway.
type Outbound struct {
	UserID  int64
	Text    string
	Options []Option
}

// InMemoryGateway is a thread-safe in-process gateway. Tests inject inbound
// events with Inject and assert on the recorded outbound messages.
type InMemoryGateway struct {
	mu      sync.Mutex
	handler Handler
	sent    []Outbound

	// SendErr, when set, is returned from every Send/SendOptions call.
	SendErr error
}

// NewInMemoryGateway creates an empty in-memory gateway.
func NewInMemoryGateway() *InMemoryGateway {
	return &InMemoryGateway{}
}

// Send records the message.
func (g *InMemoryGateway) Send(_ context.Context, userID int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SendErr != nil {
		return &DeliveryError{UserID: userID, Err: g.SendErr}
	}
	g.sent = append(g.sent, Outbound{UserID: userID, Text: text})
	return nil
}

// SendOptions records the message together with its options.
func (g *InMemoryGateway) SendOptions(_ context.Context, userID int64, text string, opts []Option) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SendErr != nil {
		return &DeliveryError{UserID: userID, Err: g.SendErr}
	}
	g.sent = append(g.sent, Outbound{UserID: userID, Text: text, Options: opts})
	return nil
}

// OnEvent registers the handler invoked by Inject.
func (g *InMemoryGateway) OnEvent(h Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handler = h
}

// Inject delivers an inbound event to the registered handler, as the real
// platform would.
func (g *InMemoryGateway) Inject(ctx context.Context, ev *Event) error {
	g.mu.Lock()
	h := g.handler
	g.mu.Unlock()
	if h == nil {
		return nil
	}
	return h(ctx, ev)
}

// Sent returns a copy of every recorded outbound message in send order.
func (g *InMemoryGateway) Sent() []Outbound {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Outbound, len(g.sent))
	copy(out, g.sent)
	return out
}

// Reset clears the recorded messages.
func (g *InMemoryGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = nil
}
