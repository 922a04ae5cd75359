// Command validate checks snake game configuration JSON files. For each
// file it checks:
//   - JSON structure, with unknown fields rejected
//   - the rules the server enforces on load (variant, board size, start body, messages)
//   - that every free cell is reachable from the starting head
//   - that the food spawn area (row and column 0 excluded) is not empty
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	engine.ApplyConfigDefaults(&config)
	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}
	result.info("%s board %dx%d cells, start length %d heading %s",
		config.Variant, config.Width/engine.CellSize, config.Height/engine.CellSize,
		len(config.StartBody), config.StartDirection)

	if config.Variant == engine.VariantRL && config.TickCost != 0 {
		result.info("tick_cost is ignored by rl configs")
	}

	space := validateOpenSpace(&config)
	result.Errors = append(result.Errors, space.Errors...)
	if !space.Valid {
		result.Valid = false
	}

	return result
}

// validateOpenSpace flood-fills from the starting head over cells the body
// does not cover and checks every free cell and the food spawn area.
func validateOpenSpace(config *engine.GameConfig) ValidationResult {
	result := ValidationResult{Valid: true}

	cols, rows := config.Width/engine.CellSize, config.Height/engine.CellSize
	if cols <= 0 || rows <= 0 || len(config.StartBody) == 0 {
		result.fail("Board or start body is empty")
		return result
	}

	body := make(map[engine.Position]bool, len(config.StartBody))
	for _, seg := range config.StartBody {
		body[seg] = true
	}
	free := cols*rows - len(body)

	head := config.StartBody[0]
	visited := map[engine.Position]bool{head: true}
	queue := []engine.Position{head}
	reached := 0

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range engine.Directions {
			next := current.Step(d)
			if visited[next] || body[next] {
				continue
			}
			if next.X < 0 || next.Y < 0 || next.X >= config.Width || next.Y >= config.Height {
				continue
			}
			visited[next] = true
			reached++
			queue = append(queue, next)
		}
	}

	if reached < free {
		result.fail("Connectivity failure: %d/%d free cells unreachable from the head", free-reached, free)
	} else {
		result.info("Connectivity: all %d free cells reachable from the head", free)
	}

	spawn := (cols - 1) * (rows - 1)
	if spawn <= 0 {
		result.fail("Food has nowhere to spawn")
	} else {
		result.info("Food spawn area: %d cells", spawn)
	}

	return result
}

// validateDir validates every *.json file in dir and prints a report.
// It reports whether all of them are valid.
func validateDir(dir string) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		log.Warn("No config files found", "dir", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
	}
	return allValid, nil
}

// main validates a config directory, exiting non-zero if any file is invalid
func main() {
	cmd := &cli.Command{
		Name:  "validate",
		Usage: "Validate snake game configuration files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "../configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ok, err := validateDir(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit("", 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal("validate failed", "err", err)
	}
}
