package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/nongrid/internal/config"
	"github.com/Faultbox/nongrid/pkg/board"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.PlansDir = filepath.Join(t.TempDir(), "boards")
	cfg.AI.Depth = 1
	return cfg
}

func writePlan(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}
	return path
}

const squarePlan = "- type: fill\n  commands: [\"4\"]\n"

func TestRunUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run(testConfig(t), "frobnicate", nil, &out); !errors.Is(err, errUsage) {
		t.Errorf("expected errUsage, got %v", err)
	}
	if err := run(testConfig(t), "help", nil, &out); err != nil {
		t.Errorf("help: %v", err)
	}
	if !strings.Contains(out.String(), "Commands:") {
		t.Errorf("expected usage text, got %q", out.String())
	}
}

func TestGen(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	records := filepath.Join(dir, "points.json")
	plan := filepath.Join(dir, "plan.yaml")

	var out bytes.Buffer
	if err := run(cfg, "gen", []string{"-o", records, "-save-plan", plan}, &out); err != nil {
		t.Fatalf("gen: %v", err)
	}
	for _, want := range []string{"Rounds:    11", "Vertices:", "Polygons:", " 6-gons"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, out.String())
		}
	}

	data, err := os.ReadFile(records)
	if err != nil {
		t.Fatalf("records not written: %v", err)
	}
	recs, err := board.UnmarshalRecords(data)
	if err != nil {
		t.Fatalf("UnmarshalRecords() error: %v", err)
	}
	if !strings.Contains(out.String(), fmt.Sprintf("Vertices:  %d\n", len(recs))) {
		t.Errorf("record count %d does not match output:\n%s", len(recs), out.String())
	}

	// The saved plan regenerates the same board.
	cfg.Board.PlanFile = plan
	var again bytes.Buffer
	if err := run(cfg, "gen", nil, &again); err != nil {
		t.Fatalf("gen from saved plan: %v", err)
	}
	if again.String() != out.String() {
		t.Errorf("saved plan built a different board:\n%s\nvs\n%s", again.String(), out.String())
	}
}

func TestGenBadPlan(t *testing.T) {
	cfg := testConfig(t)
	cfg.Board.PlanFile = writePlan(t, "bad.json", `[{"type": "fill", "commands": ["9"]}]`)
	if err := run(cfg, "gen", nil, &bytes.Buffer{}); err == nil {
		t.Error("expected an error for an unsupported polygon, got nil")
	}
}

func TestGenCountsOctagons(t *testing.T) {
	cfg := testConfig(t)
	cfg.Board.PlanFile = writePlan(t, "octagon.yaml", "- type: fill\n  commands: [\"8\"]\n")
	var out bytes.Buffer
	if err := run(cfg, "gen", nil, &out); err != nil {
		t.Fatalf("gen: %v", err)
	}
	if !strings.Contains(out.String(), " 8-gons  1") {
		t.Errorf("expected one octagon in output:\n%s", out.String())
	}
}

func TestPlayCapture(t *testing.T) {
	cfg := testConfig(t)
	cfg.Board.PlanFile = writePlan(t, "square.yaml", squarePlan)

	b, _, err := buildBoard(cfg)
	if err != nil {
		t.Fatalf("buildBoard() error: %v", err)
	}
	if b.Len() != 4 {
		t.Fatalf("expected 4 vertices, got %d", b.Len())
	}
	at := func(v int) string {
		p := b.Vertices()[v].Point
		return fmt.Sprintf("@%g:%g", p.X, p.Y)
	}
	nb := b.Neighbors(0)

	// Black takes both neighbours of the white stone.
	moves := strings.Join([]string{at(nb[0]), at(0), at(nb[1])}, ",")
	output := filepath.Join(t.TempDir(), "final.json")
	history := filepath.Join(t.TempDir(), "history.json")

	var out bytes.Buffer
	if err := run(cfg, "play", []string{"-moves", moves, "-o", output, "-history", history}, &out); err != nil {
		t.Fatalf("play: %v", err)
	}
	if !strings.Contains(out.String(), "captures [0]") {
		t.Errorf("expected a capture of vertex 0:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "white to move") {
		t.Errorf("expected white to move:\n%s", out.String())
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("final records not written: %v", err)
	}
	recs, err := board.UnmarshalRecords(data)
	if err != nil {
		t.Fatalf("UnmarshalRecords() error: %v", err)
	}
	if recs[0].Player != board.Empty || recs[nb[0]].Player != board.Black {
		t.Errorf("unexpected final position %+v", recs)
	}
	if _, err := os.Stat(history); err != nil {
		t.Errorf("history not written: %v", err)
	}
}

func TestPlayPassesAndComputer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Board.PlanFile = writePlan(t, "square.yaml", squarePlan)

	var out bytes.Buffer
	if err := run(cfg, "play", []string{"-moves", "ai, pass, pass, 1"}, &out); err != nil {
		t.Fatalf("play: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Game over") {
		t.Errorf("expected the game to end:\n%s", text)
	}
	if !strings.Contains(text, "ignoring remaining moves") {
		t.Errorf("expected the trailing move to be ignored:\n%s", text)
	}
}

func TestPlayErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Board.PlanFile = writePlan(t, "square.yaml", squarePlan)

	tests := []struct {
		name  string
		moves string
		usage bool
	}{
		{name: "occupied", moves: "0,0"},
		{name: "out of range", moves: "99"},
		{name: "miss", moves: "@5000:5000"},
		{name: "garbage", moves: "left", usage: true},
		{name: "bad point", moves: "@1", usage: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(cfg, "play", []string{"-moves", tt.moves}, &bytes.Buffer{})
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if errors.Is(err, errUsage) != tt.usage {
				t.Errorf("usage error = %v, want %v: %v", errors.Is(err, errUsage), tt.usage, err)
			}
		})
	}
}

func TestRender(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "board.png")

	var out bytes.Buffer
	if err := run(cfg, "render", []string{"-o", path, "-width", "200", "-height", "150"}, &out); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("image not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("expected a PNG signature")
	}

	if err := run(cfg, "render", nil, &out); !errors.Is(err, errUsage) {
		t.Errorf("expected errUsage without -o, got %v", err)
	}
}

func TestPlans(t *testing.T) {
	cfg := testConfig(t)
	plan := writePlan(t, "square.yaml", squarePlan)

	var out bytes.Buffer
	if err := run(cfg, "plans", []string{"save", "square", plan}, &out); err != nil {
		t.Fatalf("plans save: %v", err)
	}
	if err := run(cfg, "plans", []string{"save", "Square", plan}, &out); err == nil {
		t.Error("expected a duplicate save to fail")
	}

	out.Reset()
	if err := run(cfg, "plans", []string{"list"}, &out); err != nil {
		t.Fatalf("plans list: %v", err)
	}
	if out.String() != "square\n" {
		t.Errorf("expected one plan, got %q", out.String())
	}

	out.Reset()
	if err := run(cfg, "plans", []string{"show", "-yaml", "square"}, &out); err != nil {
		t.Fatalf("plans show: %v", err)
	}
	if !strings.Contains(out.String(), "type: fill") {
		t.Errorf("expected YAML output, got %q", out.String())
	}

	if err := run(cfg, "plans", []string{"rm", "square"}, &out); err != nil {
		t.Fatalf("plans rm: %v", err)
	}
	if err := run(cfg, "plans", []string{"show", "square"}, &out); err == nil {
		t.Error("expected show after rm to fail")
	}
	if err := run(cfg, "plans", []string{"frob"}, &out); !errors.Is(err, errUsage) {
		t.Errorf("expected errUsage, got %v", err)
	}
}

func TestConfigCommand(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	if err := run(cfg, "config", nil, &out); err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out.String(), "edge_length: 40") {
		t.Errorf("expected edge_length in output:\n%s", out.String())
	}

	path := filepath.Join(t.TempDir(), "nongrid.yaml")
	if err := run(cfg, "config", []string{"-o", path}, &out); err != nil {
		t.Fatalf("config -o: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not written: %v", err)
	}
}
