// Command train runs tabular Q-learning episodes against the snake
// reinforcement-learning environment and saves the learned table as JSON.
// With --eval it only plays greedy episodes from a saved table.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/snakegame/game/config"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/qlearn"
	"github.com/wricardo/mcp-training/snakegame/game/rlenv"
)

// trainOptions is everything the flags decide
type trainOptions struct {
	ConfigDir   string
	Config      string
	Episodes    int
	MaxSteps    int
	ReportEvery int
	Seed        int64
	In          string
	Out         string
	Eval        bool
	Params      qlearn.Params
}

// Report summarises a training or evaluation run
type Report struct {
	Episodes    int
	BestScore   int
	AvgScore    float64
	AvgReward   float64
	AvgSteps    float64
	Truncated   int
	Visited     int
	LastEpsilon float64
}

func (r *Report) add(result qlearn.EpisodeResult) {
	if r.Episodes == 0 || result.Score > r.BestScore {
		r.BestScore = result.Score
	}
	n := float64(r.Episodes)
	r.AvgScore = (r.AvgScore*n + float64(result.Score)) / (n + 1)
	r.AvgReward = (r.AvgReward*n + result.TotalReward) / (n + 1)
	r.AvgSteps = (r.AvgSteps*n + float64(result.Steps)) / (n + 1)
	if result.Truncated {
		r.Truncated++
	}
	r.LastEpsilon = result.Epsilon
	r.Episodes++
}

func main() {
	defaults := qlearn.DefaultParams()

	cmd := &cli.Command{
		Name:  "train",
		Usage: "Train a Q-learning agent on the snake RL environment",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "config", Value: string(engine.VariantRL), Usage: "RL configuration to train on"},
			&cli.IntFlag{Name: "episodes", Value: 1000, Usage: "Episodes to run"},
			&cli.IntFlag{Name: "max-steps", Value: 2000, Usage: "Step cap per episode (0 for none)"},
			&cli.IntFlag{Name: "report-every", Value: 100, Usage: "Log progress every N episodes"},
			&cli.IntFlag{Name: "seed", Usage: "Random seed (0 uses the clock)"},
			&cli.StringFlag{Name: "in", Usage: "Agent file to continue from"},
			&cli.StringFlag{Name: "out", Value: "qtable.json", Usage: "Where to save the agent"},
			&cli.BoolFlag{Name: "eval", Usage: "Play greedy episodes without learning or saving"},
			&cli.FloatFlag{Name: "learning-rate", Value: defaults.LearningRate},
			&cli.FloatFlag{Name: "discount", Value: defaults.Discount},
			&cli.FloatFlag{Name: "epsilon", Value: defaults.InitialEpsilon, Usage: "Initial exploration rate"},
			&cli.FloatFlag{Name: "min-epsilon", Value: defaults.MinEpsilon},
			&cli.FloatFlag{Name: "epsilon-decay", Value: defaults.EpsilonDecay},
			&cli.BoolFlag{Name: "debug", Usage: "Log every episode"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			opts := trainOptions{
				ConfigDir:   cmd.String("config-dir"),
				Config:      cmd.String("config"),
				Episodes:    int(cmd.Int("episodes")),
				MaxSteps:    int(cmd.Int("max-steps")),
				ReportEvery: int(cmd.Int("report-every")),
				Seed:        int64(cmd.Int("seed")),
				In:          cmd.String("in"),
				Out:         cmd.String("out"),
				Eval:        cmd.Bool("eval"),
				Params: qlearn.Params{
					LearningRate:   cmd.Float("learning-rate"),
					Discount:       cmd.Float("discount"),
					InitialEpsilon: cmd.Float("epsilon"),
					MinEpsilon:     cmd.Float("min-epsilon"),
					EpsilonDecay:   cmd.Float("epsilon-decay"),
				},
			}

			report, err := run(ctx, opts)
			if report != nil {
				printReport(os.Stdout, opts, report)
			}
			return err
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal("train failed", "err", err)
	}
}

// loadEnvConfig resolves an rl configuration from dir, falling back to the built-in one
func loadEnvConfig(dir, name string) (*engine.GameConfig, error) {
	if _, err := os.Stat(dir); err != nil {
		log.Warn("Config directory unavailable, using built-in config", "dir", dir)
		if name != string(engine.VariantRL) {
			return nil, fmt.Errorf("config %s needs --config-dir: %w", name, err)
		}
		return engine.DefaultConfig(engine.VariantRL), nil
	}

	manager, err := config.NewManager(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := manager.LoadConfig(name)
	if err != nil {
		return nil, err
	}
	if cfg.Variant != engine.VariantRL {
		return nil, fmt.Errorf("config %s is %s, not %s", name, cfg.Variant, engine.VariantRL)
	}
	return cfg, nil
}

// run trains (or evaluates) an agent. An interrupted run still saves the
// table and returns the partial report.
func run(ctx context.Context, opts trainOptions) (*Report, error) {
	cfg, err := loadEnvConfig(opts.ConfigDir, opts.Config)
	if err != nil {
		return nil, err
	}

	rng := engine.NewRandomSource(opts.Seed)
	env, err := rlenv.New(cfg, rng)
	if err != nil {
		return nil, err
	}

	agent := qlearn.NewAgent(opts.Params, rng)
	if opts.In != "" {
		if err := agent.Load(opts.In); err != nil {
			return nil, err
		}
		log.Info("Loaded agent", "file", opts.In, "episodes", agent.Episodes, "epsilon", agent.Epsilon)
	} else if opts.Eval {
		return nil, errors.New("--eval needs --in")
	}

	report := &Report{}
	record := func(result qlearn.EpisodeResult) {
		report.add(result)
		log.Debug("Episode", "n", result.Episode, "score", result.Score, "steps", result.Steps, "reward", result.TotalReward)
		if opts.ReportEvery > 0 && report.Episodes%opts.ReportEvery == 0 {
			log.Info("Progress",
				"episodes", report.Episodes,
				"best", report.BestScore,
				"avg_score", fmt.Sprintf("%.2f", report.AvgScore),
				"epsilon", fmt.Sprintf("%.3f", result.Epsilon))
		}
	}

	if opts.Eval {
		for i := 0; i < opts.Episodes && ctx.Err() == nil; i++ {
			record(agent.RunEpisode(env, opts.MaxSteps, false))
		}
		report.Visited = agent.Visited()
		return report, ctx.Err()
	}

	trainErr := agent.Train(ctx, env, opts.Episodes, opts.MaxSteps, record)
	report.Visited = agent.Visited()

	if opts.Out != "" {
		if err := agent.Save(opts.Out); err != nil {
			return report, err
		}
		log.Info("Saved agent", "file", opts.Out, "states", report.Visited)
	}
	return report, trainErr
}

func printReport(w io.Writer, opts trainOptions, r *Report) {
	mode := "Training"
	if opts.Eval {
		mode = "Evaluation"
	}
	fmt.Fprintf(w, "\n=== %s on %s (%d episodes) ===\n", mode, opts.Config, r.Episodes)
	fmt.Fprintf(w, "Best score: %d\n", r.BestScore)
	fmt.Fprintf(w, "Average score: %.2f, reward: %.1f, steps: %.1f\n", r.AvgScore, r.AvgReward, r.AvgSteps)
	fmt.Fprintf(w, "Truncated episodes: %d\n", r.Truncated)
	fmt.Fprintf(w, "States visited: %d/%d\n", r.Visited, rlenv.NumStates)
	if !opts.Eval {
		fmt.Fprintf(w, "Final epsilon: %.3f\n", r.LastEpsilon)
	}
}
