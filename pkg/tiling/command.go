package tiling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/nongrid/pkg/geom"
)

// CommandKind selects what a fill command does with a frontier edge.
type CommandKind int

// Command kinds.
const (
	Skip   CommandKind = iota // edge stays open for the next round
	Close                     // edge becomes a permanent mesh boundary
	Attach                    // a regular polygon is built on the edge
)

// String returns the kind name.
func (k CommandKind) String() string {
	switch k {
	case Skip:
		return "skip"
	case Close:
		return "never"
	case Attach:
		return "attach"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Command is a per-edge instruction for one round of growth.
type Command struct {
	Kind  CommandKind
	Sides int // only meaningful for Attach
}

// Convenience constructors.
var (
	SkipCmd  = Command{Kind: Skip}
	CloseCmd = Command{Kind: Close}
)

// AttachCmd returns the command attaching a regular polygon with n sides.
func AttachCmd(n int) Command {
	return Command{Kind: Attach, Sides: n}
}

var shapeNames = map[string]int{
	"triangle": 3, "triangles": 3,
	"square": 4, "squares": 4,
	"hexagon": 6, "hexagons": 6,
	"octagon": 8, "octagons": 8,
	"dodecagon": 12, "dodecagons": 12,
}

// ParseCommand parses the textual form of a command: "skip" (or "0"),
// "never"/"close", a side count ("3"), "attach(3)" or a shape name
// ("triangle", "hexagons").
func ParseCommand(s string) (Command, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	switch text {
	case "skip", "0", "nofill":
		return SkipCmd, nil
	case "never", "close":
		return CloseCmd, nil
	}

	if n, ok := shapeNames[text]; ok {
		return AttachCmd(n), nil
	}

	if strings.HasPrefix(text, "attach(") && strings.HasSuffix(text, ")") {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "attach("), ")")
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return Command{}, fmt.Errorf("%w: malformed fill command %q", ErrConfiguration, s)
	}
	cmd := AttachCmd(n)
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// MustParseCommands parses a list of commands and panics on error.
// Intended for static plans.
func MustParseCommands(texts ...string) []Command {
	cmds := make([]Command, len(texts))
	for i, s := range texts {
		cmd, err := ParseCommand(s)
		if err != nil {
			panic(err)
		}
		cmds[i] = cmd
	}
	return cmds
}

// Validate checks that the command can be executed.
func (c Command) Validate() error {
	switch c.Kind {
	case Skip, Close:
		return nil
	case Attach:
		if !geom.SupportedSides(c.Sides) {
			return fmt.Errorf("%w: %w: %d", ErrConfiguration, geom.ErrUnsupportedSides, c.Sides)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown command kind %d", ErrConfiguration, int(c.Kind))
	}
}

// String returns the canonical text form accepted by ParseCommand.
func (c Command) String() string {
	if c.Kind == Attach {
		return strconv.Itoa(c.Sides)
	}
	return c.Kind.String()
}

// MarshalText implements encoding.TextMarshaler.
func (c Command) MarshalText() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Command) UnmarshalText(text []byte) error {
	cmd, err := ParseCommand(string(text))
	if err != nil {
		return err
	}
	*c = cmd
	return nil
}

// UnmarshalJSON accepts both strings and bare side counts.
func (c *Command) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return c.UnmarshalText([]byte(s))
	}
	return c.UnmarshalText(data)
}

// Mode selects how a round applies attach commands.
type Mode int

// Round modes.
const (
	// Fill applies every command to its frontier edge.
	Fill Mode = iota
	// Place applies only the first successful attach of the round and
	// treats every other edge as skipped.
	Place
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Fill:
		return "fill"
	case Place:
		return "place"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != Fill && m != Place {
		return nil, fmt.Errorf("%w: unknown round mode %d", ErrConfiguration, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "fill", "":
		*m = Fill
	case "place", "placeone", "place-one":
		*m = Place
	default:
		return fmt.Errorf("%w: unknown round mode %q", ErrConfiguration, text)
	}
	return nil
}
