package config

import (
	"flag"
	"time"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagPlan     = flag.String("plan", "", "Board plan file (JSON or YAML)")
	flagEdge     = flag.Float64("edge", 0, "Polygon edge length")
	flagAddr     = flag.String("addr", "", "Plan server listen address")
	flagPlansDir = flag.String("plans", "", "Directory of saved board plans")
	flagDepth    = flag.Int("depth", 0, "Computer opponent search depth")
	flagBudget   = flag.Duration("budget", 0, "Computer opponent time per move")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the global flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagPlan != "" {
		cfg.Board.PlanFile = *flagPlan
	}
	if *flagEdge > 0 {
		cfg.Board.EdgeLength = *flagEdge
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagPlansDir != "" {
		cfg.Server.PlansDir = *flagPlansDir
	}
	if *flagDepth > 0 {
		cfg.AI.Depth = *flagDepth
	}
	if *flagBudget > time.Duration(0) {
		cfg.AI.Budget = *flagBudget
	}
}
