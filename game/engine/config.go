package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	switch config.Variant {
	case VariantClassic, VariantRL:
	default:
		return fmt.Errorf("config validation: variant must be %q or %q, got %q", VariantClassic, VariantRL, config.Variant)
	}

	// Validate board dimensions
	if err := validateAxis("width", config.Width); err != nil {
		return err
	}
	if err := validateAxis("height", config.Height); err != nil {
		return err
	}

	if config.EatReward < 0 {
		return fmt.Errorf("config validation: eat_reward must not be negative, got %d", config.EatReward)
	}
	if config.TickCost < 0 {
		return fmt.Errorf("config validation: tick_cost must not be negative, got %d", config.TickCost)
	}

	dir, ok := ParseDirection(config.StartDirection)
	if !ok {
		return fmt.Errorf("config validation: start_direction must be one of UP, DOWN, LEFT, RIGHT, got %q", config.StartDirection)
	}

	// Validate the starting snake
	if len(config.StartBody) < MinBodyLength {
		return fmt.Errorf("config validation: start_body must have at least %d segments, got %d", MinBodyLength, len(config.StartBody))
	}
	seen := make(map[Position]bool, len(config.StartBody))
	bounds := &Grid{Width: config.Width, Height: config.Height}
	for i, seg := range config.StartBody {
		if seg.X%CellSize != 0 || seg.Y%CellSize != 0 {
			return fmt.Errorf("config validation: start_body[%d] (%d,%d) is not aligned to cell size %d", i, seg.X, seg.Y, CellSize)
		}
		if bounds.IsOutOfBounds(seg) {
			return fmt.Errorf("config validation: start_body[%d] (%d,%d) is outside the %dx%d board", i, seg.X, seg.Y, config.Width, config.Height)
		}
		if seen[seg] {
			return fmt.Errorf("config validation: start_body[%d] (%d,%d) overlaps another segment", i, seg.X, seg.Y)
		}
		seen[seg] = true
		if i > 0 && ManhattanDistance(config.StartBody[i-1], seg) != CellSize {
			return fmt.Errorf("config validation: start_body[%d] is not adjacent to start_body[%d]", i, i-1)
		}
	}

	// The first tick must have somewhere to go
	start := NewGrid(config.Width, config.Height, config.StartBody, dir, config.GrowingBody, fixedSource{})
	if len(start.SafeMoves()) == 0 {
		return fmt.Errorf("config validation: snake has no safe first move from (%d,%d)", start.Head().X, start.Head().Y)
	}

	// Validate format strings
	if config.Messages.FoodEaten != "" && !strings.Contains(config.Messages.FoodEaten, "%d") {
		return fmt.Errorf("config validation: messages.food_eaten must contain %%d for score")
	}

	return nil
}

func validateAxis(name string, size int) error {
	if size%CellSize != 0 {
		return fmt.Errorf("config validation: %s must be a multiple of %d, got %d", name, CellSize, size)
	}
	cells := size / CellSize
	if cells < MinGridCells || cells > MaxGridCells {
		return fmt.Errorf("config validation: %s must span between %d and %d cells, got %d", name, MinGridCells, MaxGridCells, cells)
	}
	return nil
}

// fixedSource always returns zero; used where food placement is irrelevant
type fixedSource struct{}

func (fixedSource) Intn(int) int { return 0 }

// ApplyConfigDefaults fills optional fields left empty in a loaded config
func ApplyConfigDefaults(config *GameConfig) {
	if config.Variant == "" {
		config.Variant = VariantClassic
	}
	if config.StartDirection == "" {
		config.StartDirection = Right.String()
	}
	if config.Messages.Welcome == "" {
		config.Messages.Welcome = "Welcome! Eat the food, avoid the walls and your own tail."
	}
	if config.Messages.FoodEaten == "" {
		config.Messages.FoodEaten = "Food eaten! Score: %d"
	}
	if config.Messages.HitWall == "" {
		config.Messages.HitWall = "Crashed into a wall! Game Over!"
	}
	if config.Messages.HitSelf == "" {
		config.Messages.HitSelf = "Bit your own tail! Game Over!"
	}
}

// DefaultConfig returns the built-in config for a variant
func DefaultConfig(variant Variant) *GameConfig {
	var config *GameConfig
	switch variant {
	case VariantRL:
		config = &GameConfig{
			Name:        "rl",
			Description: "150x150 reinforcement-learning environment with shaped rewards",
			Variant:     VariantRL,
			Width:       150,
			Height:      150,
			GrowingBody: true,
			EatReward:   10,
			StartBody: []Position{
				{X: 50, Y: 50},
				{X: 60, Y: 50},
				{X: 70, Y: 50},
			},
			StartDirection: Right.String(),
		}
	default:
		config = &GameConfig{
			Name:        "classic",
			Description: "480x480 board, +100 per food and -1 per tick",
			Variant:     VariantClassic,
			Width:       480,
			Height:      480,
			GrowingBody: true,
			EatReward:   100,
			TickCost:    1,
			StartBody: []Position{
				{X: 100, Y: 50},
				{X: 90, Y: 50},
				{X: 80, Y: 50},
			},
			StartDirection: Right.String(),
		}
	}
	ApplyConfigDefaults(config)
	return config
}

// ParseGameConfig decodes, defaults and validates a JSON config
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	ApplyConfigDefaults(&config)
	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// NewGridFromConfig lays out the starting snake of a config on a fresh grid
func NewGridFromConfig(config *GameConfig, rng RandomSource) *Grid {
	dir, _ := ParseDirection(config.StartDirection)
	return NewGrid(config.Width, config.Height, config.StartBody, dir, config.GrowingBody, rng)
}
