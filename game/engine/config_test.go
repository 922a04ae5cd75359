package engine

import (
	"strings"
	"testing"
)

func createValidConfig() *GameConfig {
	config := &GameConfig{
		Name:        "Test Config",
		Description: "A valid test configuration",
		Variant:     VariantClassic,
		Width:       100,
		Height:      100,
		GrowingBody: true,
		EatReward:   100,
		TickCost:    1,
		StartBody: []Position{
			{X: 30, Y: 50},
			{X: 20, Y: 50},
			{X: 10, Y: 50},
		},
		StartDirection: "RIGHT",
	}
	ApplyConfigDefaults(config)
	return config
}

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	if err := ValidateGameConfig(createValidConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidateGameConfig_Defaults(t *testing.T) {
	for _, variant := range []Variant{VariantClassic, VariantRL} {
		if err := ValidateGameConfig(DefaultConfig(variant)); err != nil {
			t.Errorf("Default %s config should be valid, got: %v", variant, err)
		}
	}
}

func TestValidateGameConfig_Nil(t *testing.T) {
	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestValidateGameConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *GameConfig)
		wantErr string
	}{
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"missing description", func(c *GameConfig) { c.Description = "" }, "description is required"},
		{"unknown variant", func(c *GameConfig) { c.Variant = "arcade" }, "variant"},
		{"width not aligned", func(c *GameConfig) { c.Width = 105 }, "multiple of 10"},
		{"width too small", func(c *GameConfig) { c.Width = 40 }, "width must span"},
		{"height too large", func(c *GameConfig) { c.Height = 3000 }, "height must span"},
		{"negative reward", func(c *GameConfig) { c.EatReward = -1 }, "eat_reward"},
		{"negative tick cost", func(c *GameConfig) { c.TickCost = -5 }, "tick_cost"},
		{"bad direction", func(c *GameConfig) { c.StartDirection = "NORTH" }, "start_direction"},
		{"short body", func(c *GameConfig) { c.StartBody = c.StartBody[:2] }, "at least 3"},
		{"unaligned segment", func(c *GameConfig) { c.StartBody[1] = Position{X: 25, Y: 50} }, "not aligned"},
		{"segment off board", func(c *GameConfig) {
			c.StartBody = []Position{{X: 10, Y: 0}, {X: 0, Y: 0}, {X: -10, Y: 0}}
		}, "outside"},
		{"overlapping segments", func(c *GameConfig) {
			c.StartBody = []Position{{X: 30, Y: 50}, {X: 20, Y: 50}, {X: 30, Y: 50}}
		}, "overlaps"},
		{"gap in body", func(c *GameConfig) { c.StartBody[2] = Position{X: 0, Y: 50} }, "not adjacent"},
		{"bad format string", func(c *GameConfig) { c.Messages.FoodEaten = "Yum" }, "food_eaten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.mutate(config)
			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateGameConfig_NoSafeFirstMove(t *testing.T) {
	config := createValidConfig()
	config.Width = 50
	config.Height = 50
	// Head boxed into the top-left corner by its own body
	config.StartBody = []Position{
		{X: 0, Y: 0},
		{X: 10, Y: 0},
		{X: 10, Y: 10},
		{X: 0, Y: 10},
		{X: 0, Y: 20},
	}
	err := ValidateGameConfig(config)
	if err == nil || !strings.Contains(err.Error(), "no safe first move") {
		t.Errorf("Expected no-safe-move error, got: %v", err)
	}
}

const testConfigJSON = `{
	"name": "Test Config",
	"description": "Test description",
	"variant": "classic",
	"width": 100,
	"height": 80,
	"growing_body": true,
	"eat_reward": 100,
	"tick_cost": 1,
	"start_body": [{"x": 30, "y": 40}, {"x": 20, "y": 40}, {"x": 10, "y": 40}],
	"start_direction": "right"
}`

func TestParseGameConfig(t *testing.T) {
	config, err := ParseGameConfig([]byte(testConfigJSON))
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}
	if config.Name != "Test Config" || config.Width != 100 || config.Height != 80 {
		t.Errorf("Unexpected config %+v", config)
	}
	if config.StartDirection != "right" {
		t.Errorf("Expected start direction to be kept as written, got %q", config.StartDirection)
	}
	if config.Messages.Welcome == "" {
		t.Error("Expected default welcome message to be applied")
	}

	if _, err := ParseGameConfig([]byte(`{"name": `)); err == nil {
		t.Error("Expected error for truncated JSON")
	}
	invalid := strings.Replace(testConfigJSON, `"width": 100`, `"width": 105`, 1)
	if _, err := ParseGameConfig([]byte(invalid)); err == nil {
		t.Error("Expected validation error for a width off the cell grid")
	}
}

func TestParseGameConfig_VariantDefaultsToClassic(t *testing.T) {
	data := strings.Replace(testConfigJSON, `"variant": "classic",`, "", 1)
	config, err := ParseGameConfig([]byte(data))
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}
	if config.Variant != VariantClassic {
		t.Errorf("Expected variant classic, got %q", config.Variant)
	}
}

func TestNewGridFromConfig(t *testing.T) {
	config := DefaultConfig(VariantRL)
	g := NewGridFromConfig(config, fixedSource{})

	if g.Head() != (Position{X: 50, Y: 50}) {
		t.Errorf("Expected head at (50,50), got %+v", g.Head())
	}
	if g.Direction != Right {
		t.Errorf("Expected heading RIGHT, got %s", g.Direction)
	}
	if !g.Growing {
		t.Error("Expected growing body from config")
	}
	if !g.FoodSpawned {
		t.Error("Expected food to be spawned on a fresh grid")
	}

	// The grid must not alias the config's slice
	g.Body[0] = Position{X: 0, Y: 0}
	if config.StartBody[0] != (Position{X: 50, Y: 50}) {
		t.Error("Grid body aliases config start_body")
	}
}
