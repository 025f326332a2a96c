// Package view models which storefront screen is shown as a finite state
// machine. Every event applied to every state has a defined outcome; any
// combination that makes no sense lands in Invalid.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Kind is a storefront screen.
type Kind int

const (
	Marketing Kind = iota
	Shop
	Buy
	Gallery
	Admin
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Marketing:
		return "marketing"
	case Shop:
		return "shop"
	case Buy:
		return "buy"
	case Gallery:
		return "gallery"
	case Admin:
		return "admin"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a screen name back to its Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{Marketing, Shop, Buy, Gallery, Admin, Invalid} {
		if k.String() == s {
			return k, true
		}
	}
	return Invalid, false
}

// State is the current screen. ProductID is set only for Buy.
type State struct {
	Kind      Kind
	ProductID uint64
}

func (s State) String() string {
	if s.Kind == Buy {
		return fmt.Sprintf("buy(%d)", s.ProductID)
	}
	return s.Kind.String()
}

// Initial is the landing screen.
func Initial() State { return State{Kind: Marketing} }

// Event is something that moves the storefront to another screen.
type Event interface {
	event()
}

// Navigate switches to a top-level screen. Buy and Invalid are not
// top-level screens.
type Navigate struct{ To Kind }

// BuyProduct opens the buy screen from the shop.
type BuyProduct struct{ ID uint64 }

// BackToShop leaves the buy or gallery screen.
type BackToShop struct{}

// ViewProduct opens the buy screen for an image picked in the gallery.
type ViewProduct struct{ ID uint64 }

func (Navigate) event()    {}
func (BuyProduct) event()  {}
func (BackToShop) event()  {}
func (ViewProduct) event() {}

// Transition returns the state reached by applying e to s. Buying
// product id 0 is invalid.
func Transition(s State, e Event) State {
	return Normalize(next(Normalize(s), e))
}

func next(s State, e Event) State {
	switch ev := e.(type) {
	case Navigate:
		switch ev.To {
		case Marketing, Shop, Gallery, Admin:
			return State{Kind: ev.To}
		case Buy, Invalid:
			return State{Kind: Invalid}
		}
		return State{Kind: Invalid}

	case BuyProduct:
		switch s.Kind {
		case Shop, Buy:
			return State{Kind: Buy, ProductID: ev.ID}
		case Marketing, Gallery, Admin, Invalid:
			return State{Kind: Invalid}
		}
		return State{Kind: Invalid}

	case ViewProduct:
		switch s.Kind {
		case Gallery:
			return State{Kind: Buy, ProductID: ev.ID}
		case Marketing, Shop, Buy, Admin, Invalid:
			return State{Kind: Invalid}
		}
		return State{Kind: Invalid}

	case BackToShop:
		switch s.Kind {
		case Shop, Buy, Gallery:
			return State{Kind: Shop}
		case Marketing, Admin, Invalid:
			return State{Kind: Invalid}
		}
		return State{Kind: Invalid}
	}
	return State{Kind: Invalid}
}

// Normalize maps inconsistent states to Invalid: Buy without a product,
// a product id outside Buy, or an unknown kind.
func Normalize(s State) State {
	switch s.Kind {
	case Buy:
		if s.ProductID == 0 {
			return State{Kind: Invalid}
		}
		return s
	case Marketing, Shop, Gallery, Admin, Invalid:
		if s.ProductID != 0 {
			return State{Kind: Invalid}
		}
		return s
	}
	return State{Kind: Invalid}
}

// Machine holds the current state of one storefront visitor.
type Machine struct {
	mu     sync.Mutex
	state  State
	logger *slog.Logger
}

// NewMachine starts a machine on the landing screen
func NewMachine(logger *slog.Logger) *Machine {
	return &Machine{state: Initial(), logger: logger}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Dispatch applies e and returns the new state.
func (m *Machine) Dispatch(ctx context.Context, e Event) State {
	m.mu.Lock()
	from := m.state
	m.state = Transition(from, e)
	to := m.state
	m.mu.Unlock()

	if to.Kind == Invalid && from.Kind != Invalid {
		m.logger.WarnContext(ctx, "View transition rejected",
			slog.String("from", from.String()),
			slog.String("event", fmt.Sprintf("%T", e)),
		)
	}
	return to
}
