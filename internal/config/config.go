// Package config handles nongrid configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is returned when a loaded configuration cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all nongrid settings.
type Config struct {
	Board   BoardConfig   `yaml:"board"`
	AI      AIConfig      `yaml:"ai"`
	Server  ServerConfig  `yaml:"server"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

// PointConfig is a plane coordinate.
type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// BoardConfig holds tiling and interaction settings.
type BoardConfig struct {
	EdgeLength float64     `yaml:"edge_length"` // Side length of every polygon
	Origin     PointConfig `yaml:"origin"`      // Start of the seed edge
	PlanFile   string      `yaml:"plan_file"`   // Empty means the built-in plan
	HitRadius  float64     `yaml:"hit_radius"`  // Max pointer distance for NearestVertex
}

// AIConfig holds computer opponent limits.
type AIConfig struct {
	Depth  int           `yaml:"depth"`
	Budget time.Duration `yaml:"budget"`
}

// ServerConfig holds plan server settings.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	PlansDir string `yaml:"plans_dir"`
}

// RenderConfig holds PNG preview settings.
type RenderConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Margin      float64 `yaml:"margin"`
	StoneRadius float64 `yaml:"stone_radius"` // Zero scales with the edge length
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Board: BoardConfig{
			EdgeLength: 40,
			HitRadius:  15,
		},
		AI: AIConfig{
			Depth:  10,
			Budget: time.Second,
		},
		Server: ServerConfig{
			Addr:     ":8001",
			PlansDir: "boards",
		},
		Render: RenderConfig{
			Width:  1024,
			Height: 1024,
			Margin: 20,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings no command can run with.
func (c *Config) Validate() error {
	switch {
	case c.Board.EdgeLength <= 0:
		return fmt.Errorf("%w: board.edge_length must be positive, got %v", ErrInvalid, c.Board.EdgeLength)
	case c.Board.HitRadius < 0:
		return fmt.Errorf("%w: board.hit_radius must not be negative, got %v", ErrInvalid, c.Board.HitRadius)
	case c.AI.Depth < 1:
		return fmt.Errorf("%w: ai.depth must be at least 1, got %d", ErrInvalid, c.AI.Depth)
	case c.AI.Budget <= 0:
		return fmt.Errorf("%w: ai.budget must be positive, got %v", ErrInvalid, c.AI.Budget)
	case c.Render.Width < 1 || c.Render.Height < 1:
		return fmt.Errorf("%w: render size %dx%d", ErrInvalid, c.Render.Width, c.Render.Height)
	case c.Server.PlansDir == "":
		return fmt.Errorf("%w: server.plans_dir is empty", ErrInvalid)
	}
	return nil
}
