// nongrid builds Go boards on polygon tilings, plays on them and serves
// board plans to the browser client.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/nongrid/internal/config"
	"github.com/Faultbox/nongrid/internal/logger"
)

var errUsage = errors.New("usage")

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err := run(cfg, args[0], args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			printUsage(os.Stderr)
		} else {
			logger.Error("command failed", zap.String("command", args[0]), zap.Error(err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, command string, args []string, out io.Writer) error {
	switch command {
	case "gen":
		return cmdGen(cfg, args, out)
	case "render":
		return cmdRender(cfg, args, out)
	case "play":
		return cmdPlay(cfg, args, out)
	case "plans":
		return cmdPlans(cfg, args, out)
	case "serve":
		return cmdServe(cfg, args)
	case "config":
		return cmdConfig(cfg, args, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `nongrid - Go on polygon tilings

Usage:
  nongrid [global options] <command> [options]

Global options:
  -config <file>   Config file (default ./nongrid.yaml)
  -plan <file>     Board plan, JSON or YAML (default built-in plan)
  -edge <length>   Polygon edge length
  -depth <n>       Computer search depth
  -budget <dur>    Computer time per move
  -addr <addr>     Server listen address
  -plans <dir>     Plan store directory
  -debug           Debug logging

Commands:
  gen [-o points.json] [-save-plan plan.yaml]   Build the board and print its size
  render -o board.png [-points points.json]     Draw the board (PNG or BMP)
  play -moves "12,@80:40,pass,ai" [-o out.json] Play moves and print the score
  plans list                                    List stored plans
  plans show <name> [-yaml]                     Print a stored plan
  plans save <name> <file>                      Store a plan file
  plans rm <name>                               Delete a stored plan
  serve                                         Run the websocket server
  config [-o file] [-save]                      Print or write the effective config

Examples:
  nongrid gen -o points.json
  nongrid -plan star.yaml render -o star.png
  nongrid -depth 4 play -moves "ai,ai,ai"
  nongrid -addr :8001 serve`)
}
