package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/nongrid/internal/config"
	"github.com/Faultbox/nongrid/internal/logger"
	"github.com/Faultbox/nongrid/internal/planstore"
	"github.com/Faultbox/nongrid/internal/render"
	"github.com/Faultbox/nongrid/internal/server"
	"github.com/Faultbox/nongrid/pkg/ai"
	"github.com/Faultbox/nongrid/pkg/board"
	"github.com/Faultbox/nongrid/pkg/geom"
	"github.com/Faultbox/nongrid/pkg/tiling"
)

// loadPlan returns the configured plan file, or the built-in plan.
func loadPlan(cfg *config.Config) (tiling.Plan, error) {
	if cfg.Board.PlanFile == "" {
		return tiling.DefaultPlan(), nil
	}
	return tiling.LoadPlanFile(cfg.Board.PlanFile)
}

// buildBoard replays the configured plan into a playable board.
func buildBoard(cfg *config.Config) (*board.Board, tiling.Plan, error) {
	plan, err := loadPlan(cfg)
	if err != nil {
		return nil, nil, err
	}
	origin := geom.Pt(cfg.Board.Origin.X, cfg.Board.Origin.Y)
	mesh, err := plan.Build(
		tiling.WithSeed(origin, cfg.Board.EdgeLength),
		tiling.WithLogger(logger.Named("tiling")),
	)
	if err != nil {
		return nil, nil, err
	}
	b, err := board.New(mesh, board.WithLogger(logger.Named("board")))
	if err != nil {
		return nil, nil, err
	}
	return b, plan, nil
}

func readRecords(path string) ([]board.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := board.UnmarshalRecords(data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func cmdGen(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	output := fs.String("o", "", "Write vertex records to file")
	savePlan := fs.String("save-plan", "", "Write the plan to file (JSON or YAML)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	b, plan, err := buildBoard(cfg)
	if err != nil {
		return err
	}
	mesh := b.Mesh()

	fmt.Fprintf(out, "Rounds:    %d\n", mesh.Round())
	fmt.Fprintf(out, "Vertices:  %d\n", b.Len())
	fmt.Fprintf(out, "Polygons:  %d\n", len(mesh.Polygons()))
	fmt.Fprintf(out, "Frontier:  %d\n", len(mesh.Frontier()))
	fmt.Fprintf(out, "Boundary:  %d\n", len(mesh.Boundary()))

	sides := make(map[int]int)
	for _, p := range mesh.Polygons() {
		sides[p.Sides]++
	}
	for _, n := range []int{3, 4, 6, 8, 12} {
		if sides[n] > 0 {
			fmt.Fprintf(out, "  %2d-gons  %d\n", n, sides[n])
		}
	}

	if *output != "" {
		if err := writeJSON(*output, b.SavePoints()); err != nil {
			return err
		}
		logger.Info("records written", zap.String("path", *output), zap.Int("vertices", b.Len()))
	}
	if *savePlan != "" {
		f, err := os.Create(*savePlan)
		if err != nil {
			return err
		}
		if err := tiling.EncodePlan(f, plan, tiling.FormatFromPath(*savePlan)); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("plan written", zap.String("path", *savePlan), zap.Int("rounds", len(plan)))
	}
	return nil
}

func cmdRender(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	output := fs.String("o", "", "Output image (.png or .bmp)")
	points := fs.String("points", "", "Vertex records to draw stones from")
	width := fs.Int("width", cfg.Render.Width, "Image width")
	height := fs.Int("height", cfg.Render.Height, "Image height")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *output == "" {
		return fmt.Errorf("%w: render needs -o", errUsage)
	}

	b, _, err := buildBoard(cfg)
	if err != nil {
		return err
	}
	if *points != "" {
		records, err := readRecords(*points)
		if err != nil {
			return err
		}
		if err := b.LoadPoints(records); err != nil {
			return err
		}
	}

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	opts := render.Options{
		Width:       *width,
		Height:      *height,
		Margin:      cfg.Render.Margin,
		StoneRadius: cfg.Render.StoneRadius,
	}
	if err := render.Encode(f, b, opts, render.FormatFromPath(*output)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s (%dx%d)\n", *output, *width, *height)
	return nil
}

// parseMove reads one move token: a vertex id, "pass", "ai", or "@x:y" for
// the vertex nearest a board coordinate.
func parseMove(b *board.Board, token string, hitRadius float64) (ai.Move, bool, error) {
	switch token {
	case "pass":
		return ai.PassMove, false, nil
	case "ai":
		return ai.Move{}, true, nil
	}
	if strings.HasPrefix(token, "@") {
		xs, ys, ok := strings.Cut(token[1:], ":")
		if !ok {
			return ai.Move{}, false, fmt.Errorf("%w: move %q is not @x:y", errUsage, token)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return ai.Move{}, false, fmt.Errorf("%w: move %q: %v", errUsage, token, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return ai.Move{}, false, fmt.Errorf("%w: move %q: %v", errUsage, token, err)
		}
		v, ok := b.NearestVertex(geom.Pt(x, y), hitRadius)
		if !ok {
			return ai.Move{}, false, fmt.Errorf("no vertex within %v of (%v, %v)", hitRadius, x, y)
		}
		return ai.Move{Vertex: v}, false, nil
	}
	v, err := strconv.Atoi(token)
	if err != nil {
		return ai.Move{}, false, fmt.Errorf("%w: unknown move %q", errUsage, token)
	}
	return ai.Move{Vertex: v}, false, nil
}

func cmdPlay(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	moves := fs.String("moves", "", "Comma separated moves: vertex id, @x:y, pass or ai")
	points := fs.String("points", "", "Start from vertex records")
	output := fs.String("o", "", "Write the final records to file")
	history := fs.String("history", "", "Write every position to file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	b, _, err := buildBoard(cfg)
	if err != nil {
		return err
	}
	if *points != "" {
		records, err := readRecords(*points)
		if err != nil {
			return err
		}
		if err := b.LoadPoints(records); err != nil {
			return err
		}
	}

	search := ai.Options{
		Depth:  cfg.AI.Depth,
		Budget: cfg.AI.Budget,
		Logger: logger.Named("ai"),
	}

	for i, token := range strings.Split(*moves, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if b.GameOver() {
			fmt.Fprintln(out, "Game over, ignoring remaining moves")
			break
		}
		move, computer, err := parseMove(b, token, cfg.Board.HitRadius)
		if err != nil {
			return err
		}
		if computer {
			move, err = ai.Search(context.Background(), b, search)
			if err != nil {
				return err
			}
		}

		mover := b.CurrentPlayer()
		captured, err := ai.Apply(b, move)
		if err != nil {
			return fmt.Errorf("move %d (%s): %w", i+1, token, err)
		}
		fmt.Fprintf(out, "%3d. %-5s %s", b.Moves(), mover, move)
		if len(captured) > 0 {
			fmt.Fprintf(out, "  captures %v", captured)
		}
		fmt.Fprintln(out)
	}

	score := b.Score()
	fmt.Fprintf(out, "Black %d (stones %d, territory %d)\n", score.Black.Total(), score.Black.Stones, score.Black.Territory)
	fmt.Fprintf(out, "White %d (stones %d, territory %d)\n", score.White.Total(), score.White.Stones, score.White.Territory)
	if b.GameOver() {
		fmt.Fprintln(out, "Game over")
	} else {
		fmt.Fprintf(out, "%s to move\n", b.CurrentPlayer())
	}

	if *output != "" {
		if err := writeJSON(*output, b.SavePoints()); err != nil {
			return err
		}
	}
	if *history != "" {
		if err := writeJSON(*history, b.History()); err != nil {
			return err
		}
	}
	return nil
}

func cmdPlans(cfg *config.Config, args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: plans needs list, show, save or rm", errUsage)
	}

	store, err := planstore.Open(cfg.Server.PlansDir, logger.Named("planstore"))
	if err != nil {
		return err
	}

	sub, args := args[0], args[1:]
	switch sub {
	case "list", "ls":
		names, err := store.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil

	case "show":
		fs := flag.NewFlagSet("plans show", flag.ContinueOnError)
		asYAML := fs.Bool("yaml", false, "Print YAML instead of JSON")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("%w: plans show <name>", errUsage)
		}
		plan, err := store.Load(fs.Arg(0))
		if err != nil {
			return err
		}
		format := tiling.JSON
		if *asYAML {
			format = tiling.YAML
		}
		return tiling.EncodePlan(out, plan, format)

	case "save":
		if len(args) != 2 {
			return fmt.Errorf("%w: plans save <name> <file>", errUsage)
		}
		path := args[1]
		plan, err := tiling.LoadPlanFile(path)
		if err != nil {
			return err
		}
		if err := store.Save(args[0], plan, tiling.FormatFromPath(path)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %s\n", args[0])
		return nil

	case "rm":
		if len(args) != 1 {
			return fmt.Errorf("%w: plans rm <name>", errUsage)
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %s\n", args[0])
		return nil

	default:
		return fmt.Errorf("%w: unknown plans command %q", errUsage, sub)
	}
}

func cmdServe(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	store, err := planstore.Open(cfg.Server.PlansDir, logger.Named("planstore"))
	if err != nil {
		return err
	}
	srv := server.New(store,
		server.WithLogger(logger.Named("server")),
		server.WithSearch(ai.Options{
			Depth:  cfg.AI.Depth,
			Budget: cfg.AI.Budget,
			Logger: logger.Named("ai"),
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx, cfg.Server.Addr)
}

func cmdConfig(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	output := fs.String("o", "", "Write the config to file")
	save := fs.Bool("save", false, "Write the config to the user config directory")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	switch {
	case *output != "":
		if err := cfg.SaveTo(*output); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", *output)
	case *save:
		path, err := cfg.Save()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", path)
	default:
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	return nil
}
