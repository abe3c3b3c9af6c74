package board

import (
	"fmt"
	"strings"
)

// Colour is the occupancy of a vertex. Black moves first.
type Colour int

// Occupancy values.
const (
	Empty Colour = iota
	Black
	White
)

// String returns the lower-case colour name used on the wire.
func (c Colour) String() string {
	switch c {
	case Empty:
		return "empty"
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return fmt.Sprintf("Colour(%d)", int(c))
	}
}

// IsPlayer reports whether c is Black or White.
func (c Colour) IsPlayer() bool {
	return c == Black || c == White
}

// Opponent returns the other player. Empty has no opponent.
func (c Colour) Opponent() Colour {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (c Colour) valid() bool {
	return c == Empty || c.IsPlayer()
}

// MarshalText implements encoding.TextMarshaler.
func (c Colour) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("%w: unknown colour %d", ErrMalformedRecord, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The empty string
// decodes to Empty; unknown names are rejected.
func (c *Colour) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "empty":
		*c = Empty
	case "black":
		*c = Black
	case "white":
		*c = White
	default:
		return fmt.Errorf("%w: unknown colour %q", ErrMalformedRecord, text)
	}
	return nil
}
