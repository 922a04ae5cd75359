// Command analyze plays headless autopilot games on each configuration in
// the configs directory and prints how they went: score, length, ticks and
// how the snake died, plus how often each autopilot tier was used.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/snakegame/game/config"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/planner"
)

// GameResult is one finished (or capped) autopilot game
type GameResult struct {
	Score  int
	Length int
	Ticks  int
	Cause  string // empty when the tick cap was reached
	Tiers  map[planner.Tier]int
}

// Summary aggregates the games played on one configuration
type Summary struct {
	Config    string
	Games     []GameResult
	BestScore int
	AvgScore  float64
	AvgLength float64
	AvgTicks  float64
	Causes    map[string]int
	Tiers     map[planner.Tier]int
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Benchmark the autopilot on snake configurations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringSliceFlag{Name: "config", Usage: "Configurations to benchmark (default: every classic config)"},
			&cli.IntFlag{Name: "games", Value: 20, Usage: "Games per configuration"},
			&cli.IntFlag{Name: "max-ticks", Value: engine.MaxAutoplayTicks, Usage: "Tick cap per game"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "Food placement seed"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			manager, err := config.NewManager(cmd.String("config-dir"))
			if err != nil {
				return err
			}

			names := cmd.StringSlice("config")
			if len(names) == 0 {
				infos, err := manager.ListConfigs()
				if err != nil {
					return err
				}
				for _, info := range infos {
					if info.Variant == engine.VariantClassic {
						names = append(names, info.ConfigID)
					}
				}
			}

			games, maxTicks, seed := int(cmd.Int("games")), int(cmd.Int("max-ticks")), int64(cmd.Int("seed"))
			for _, name := range names {
				if err := ctx.Err(); err != nil {
					return err
				}
				cfg, err := manager.LoadConfig(name)
				if err != nil {
					log.Error("Skipping config", "config", name, "err", err)
					continue
				}
				if cfg.Variant != engine.VariantClassic {
					log.Warn("Skipping non-classic config", "config", name, "variant", cfg.Variant)
					continue
				}
				summary, err := benchmark(name, cfg, games, maxTicks, seed)
				if err != nil {
					log.Error("Benchmark failed", "config", name, "err", err)
					continue
				}
				printSummary(os.Stdout, summary)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal("analyze failed", "err", err)
	}
}

// playGame runs the autopilot on a fresh engine until the game ends or maxTicks pass
func playGame(cfg *engine.GameConfig, rng engine.RandomSource, maxTicks int) (GameResult, error) {
	game, err := engine.NewEngine(cfg, rng)
	if err != nil {
		return GameResult{}, err
	}
	autopilot := planner.NewAutopilot()

	result := GameResult{Tiers: make(map[planner.Tier]int)}
	for result.Ticks < maxTicks {
		decision := autopilot.NextMove(game.Grid())
		result.Tiers[decision.Tier]++

		outcome := game.Tick(decision.Direction, autopilot.Name())
		result.Ticks++
		if outcome.GameOver {
			result.Cause = outcome.Cause
			break
		}
	}

	state := game.GetState()
	result.Score = state.Score
	result.Length = state.Length
	return result, nil
}

// benchmark plays games on cfg with one seeded random stream
func benchmark(name string, cfg *engine.GameConfig, games, maxTicks int, seed int64) (*Summary, error) {
	rng := engine.NewRandomSource(seed)
	summary := &Summary{
		Config: name,
		Causes: make(map[string]int),
		Tiers:  make(map[planner.Tier]int),
	}

	for i := 0; i < games; i++ {
		result, err := playGame(cfg, rng, maxTicks)
		if err != nil {
			return nil, err
		}
		summary.add(result)
	}
	summary.finish()
	return summary, nil
}

func (s *Summary) add(r GameResult) {
	if len(s.Games) == 0 || r.Score > s.BestScore {
		s.BestScore = r.Score
	}
	s.Games = append(s.Games, r)

	cause := r.Cause
	if cause == "" {
		cause = "tick cap"
	}
	s.Causes[cause]++
	for tier, n := range r.Tiers {
		s.Tiers[tier] += n
	}
}

func (s *Summary) finish() {
	if len(s.Games) == 0 {
		return
	}
	var score, length, ticks int
	for _, g := range s.Games {
		score += g.Score
		length += g.Length
		ticks += g.Ticks
	}
	n := float64(len(s.Games))
	s.AvgScore = float64(score) / n
	s.AvgLength = float64(length) / n
	s.AvgTicks = float64(ticks) / n
}

func printSummary(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "\n=== %s (%d games) ===\n", s.Config, len(s.Games))
	fmt.Fprintf(w, "Best score: %d\n", s.BestScore)
	fmt.Fprintf(w, "Average score: %.1f, length: %.1f, ticks: %.1f\n", s.AvgScore, s.AvgLength, s.AvgTicks)
	fmt.Fprintf(w, "Endings: %s\n", formatCounts(s.Causes))

	tiers := make(map[string]int, len(s.Tiers))
	for tier, n := range s.Tiers {
		tiers[string(tier)] = n
	}
	fmt.Fprintf(w, "Autopilot tiers: %s\n", formatCounts(tiers))
}

// formatCounts renders a count map as "a=1 b=2", sorted by key
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
