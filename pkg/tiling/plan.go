package tiling

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Round is one recorded call of Mesh.Loop.
type Round struct {
	Mode     Mode      `json:"type" yaml:"type"`
	Commands []Command `json:"commands" yaml:"commands"`
}

// Plan is an ordered list of rounds that deterministically regenerates a
// mesh.
type Plan []Round

// Format is a plan encoding.
type Format int

// Plan encodings. Legacy is the JSON form of the browser board editor; it
// decodes like JSON.
const (
	JSON Format = iota
	YAML
	Legacy
)

// ErrNoLegacyForm is returned when encoding a plan with Close commands as
// Legacy, which only knows skip and attach.
var ErrNoLegacyForm = errors.New("plan has no legacy form")

// FormatFromPath picks the encoding from a file extension; anything that is
// not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// DefaultPlan returns the starter board: a hexagon wrapped in alternating
// triangle and square rings, one seeded triangle breaking the symmetry,
// then hexagon and triangle rings.
func DefaultPlan() Plan {
	fill := func(cmds ...string) Round {
		return Round{Mode: Fill, Commands: MustParseCommands(cmds...)}
	}
	return Plan{
		fill("6"),
		fill("3"),
		fill("4"),
		fill("3"),
		fill("4"),
		fill("3"),
		fill("skip", "4"),
		{Mode: Place, Commands: MustParseCommands("3")},
		fill("6"),
		fill("3"),
		fill("3"),
	}
}

// Validate checks every round without building anything.
func (p Plan) Validate() error {
	for i, r := range p {
		if r.Mode != Fill && r.Mode != Place {
			return fmt.Errorf("round %d: %w: unknown round mode %d", i, ErrConfiguration, int(r.Mode))
		}
		if len(r.Commands) == 0 {
			return fmt.Errorf("round %d: %w: empty fill command list", i, ErrConfiguration)
		}
		for j, cmd := range r.Commands {
			if err := cmd.Validate(); err != nil {
				return fmt.Errorf("round %d command %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// Build replays the plan on a fresh mesh. The mesh is left growable;
// call InitNeighbors before playing on it.
func (p Plan) Build(opts ...Option) (*Mesh, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	for i, r := range p {
		if err := m.Loop(r.Mode, r.Commands); err != nil {
			return nil, fmt.Errorf("round %d: %w", i, err)
		}
	}
	return m, nil
}

// legacyCommand is a command as stored by the browser board editor.
type legacyCommand struct {
	N   int    `json:"n"`
	Txt string `json:"txt"`
}

type legacyRound struct {
	Typ Mode            `json:"typ"`
	Sav []legacyCommand `json:"sav"`
}

var legacyNames = map[int]string{
	0:  "Skip",
	3:  "Triangles",
	4:  "Squares",
	6:  "Hexagons",
	8:  "Octagons",
	12: "Dodecagons",
}

func legacyPlan(plan Plan) ([]legacyRound, error) {
	out := make([]legacyRound, len(plan))
	for i, r := range plan {
		sav := make([]legacyCommand, len(r.Commands))
		for j, c := range r.Commands {
			n := 0
			switch c.Kind {
			case Attach:
				n = c.Sides
			case Close:
				return nil, fmt.Errorf("%w: round %d command %d closes an edge", ErrNoLegacyForm, i, j)
			}
			sav[j] = legacyCommand{N: n, Txt: legacyNames[n]}
		}
		out[i] = legacyRound{Typ: r.Mode, Sav: sav}
	}
	return out, nil
}

type roundJSON struct {
	Type     Mode            `json:"type"`
	Commands []Command       `json:"commands"`
	Typ      *Mode           `json:"typ"`
	Sav      []legacyCommand `json:"sav"`
}

// UnmarshalJSON reads both {"type", "commands"} and the legacy
// {"typ", "sav": [{"n", "txt"}]} form, where n = 0 means skip.
func (r *Round) UnmarshalJSON(data []byte) error {
	var raw roundJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Typ == nil && raw.Sav == nil {
		r.Mode = raw.Type
		r.Commands = raw.Commands
		return nil
	}

	if raw.Typ != nil {
		r.Mode = *raw.Typ
	}
	r.Commands = make([]Command, len(raw.Sav))
	for i, s := range raw.Sav {
		if s.N == 0 {
			r.Commands[i] = SkipCmd
			continue
		}
		cmd := AttachCmd(s.N)
		if err := cmd.Validate(); err != nil {
			return fmt.Errorf("legacy command %d: %w", i, err)
		}
		r.Commands[i] = cmd
	}
	return nil
}

// DecodePlan reads and validates a plan.
func DecodePlan(r io.Reader, format Format) (Plan, error) {
	var plan Plan
	switch format {
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&plan); err != nil {
			return nil, fmt.Errorf("decoding yaml plan: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&plan); err != nil {
			return nil, fmt.Errorf("decoding json plan: %w", err)
		}
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// EncodePlan writes the plan in the given format.
func EncodePlan(w io.Writer, plan Plan, format Format) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return err
		}
		return enc.Close()
	case Legacy:
		rounds, err := legacyPlan(plan)
		if err != nil {
			return err
		}
		return json.NewEncoder(w).Encode(rounds)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
}

// LoadPlanFile reads a plan from disk, picking the format from the extension.
func LoadPlanFile(path string) (Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	plan, err := DecodePlan(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("loading plan from %s: %w", path, err)
	}
	return plan, nil
}
