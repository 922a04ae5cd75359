package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

func createTestConfigDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	return dir
}

func createValidConfig() *engine.GameConfig {
	config := engine.DefaultConfig(engine.VariantClassic)
	config.Name = "Test Config"
	config.Description = "Test configuration"
	config.Width, config.Height = 200, 200
	return config
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	writeRaw(t, dir, name, string(data))
}

func writeRaw(t *testing.T, dir, name, content string) {
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}

func TestNewManager(t *testing.T) {
	t.Run("classic file becomes default", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		classic := createValidConfig()
		classic.Name = "Custom Classic"
		writeConfigFile(t, dir, "classic", classic)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Custom Classic" {
			t.Errorf("Expected file config as default, got %q", got)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		if _, err := NewManager("/non/existent/path"); err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory falls back to built-in", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager should succeed without config files, got: %v", err)
		}
		def := manager.GetDefault()
		if def == nil || def.Variant != engine.VariantClassic || def.Width != 480 {
			t.Errorf("Expected built-in classic default, got %+v", def)
		}
	})

	t.Run("invalid classic file falls back to built-in", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)
		writeRaw(t, dir, "classic", `{"name": "broken", "width": 33}`)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "classic" {
			t.Errorf("Expected built-in default, got %q", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeConfigFile(t, dir, "small", createValidConfig())
	writeRaw(t, dir, "invalid", `{"name": "bad", "description": "x", "width": 55, "height": 100}`)
	writeRaw(t, dir, "garbage", `{not json`)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	tests := []struct {
		name      string
		config    string
		wantWidth int
		wantErr   error
	}{
		{"file config", "small", 200, nil},
		{"with extension", "small.json", 200, nil},
		{"built-in classic", "classic", 480, nil},
		{"built-in rl", "rl", 150, nil},
		{"missing", "nope", 0, ErrConfigNotFound},
		{"fails validation", "invalid", 0, ErrInvalidConfig},
		{"bad json", "garbage", 0, ErrInvalidConfig},
		{"path traversal", "../secrets", 0, ErrInvalidName},
		{"empty name", "", 0, ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := manager.LoadConfig(tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if config.Width != tt.wantWidth {
				t.Errorf("Expected width %d, got %d", tt.wantWidth, config.Width)
			}
		})
	}
}

func TestManager_LoadConfigAppliesDefaults(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)
	writeRaw(t, dir, "bare", `{
		"name": "bare",
		"description": "no messages",
		"variant": "classic",
		"width": 100,
		"height": 100,
		"growing_body": true,
		"eat_reward": 5,
		"start_body": [{"x": 30, "y": 10}, {"x": 20, "y": 10}, {"x": 10, "y": 10}],
		"start_direction": "RIGHT"
	}`)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	config, err := manager.LoadConfig("bare")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Messages.Welcome == "" || config.Messages.FoodEaten == "" {
		t.Errorf("Expected default messages, got %+v", config.Messages)
	}
}

func TestManager_ListConfigs(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeConfigFile(t, dir, "small", createValidConfig())
	rl := engine.DefaultConfig(engine.VariantRL)
	rl.Name = "My RL"
	writeConfigFile(t, dir, "rl", rl)
	writeRaw(t, dir, "broken", `{}`)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}

	want := []string{"classic", "rl", "small"}
	if len(configs) != len(want) {
		t.Fatalf("Expected %d configs, got %d", len(want), len(configs))
	}
	for i, id := range want {
		if configs[i].ConfigID != id {
			t.Errorf("Config %d: expected %s, got %s", i, id, configs[i].ConfigID)
		}
	}
	if configs[1].Name != "My RL" || configs[1].Filename != "rl.json" || configs[1].Variant != engine.VariantRL {
		t.Errorf("Expected rl.json to override the built-in, got %+v", configs[1])
	}
	if configs[0].Filename != "" {
		t.Errorf("Built-in config should have no filename, got %q", configs[0].Filename)
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	config := createValidConfig()
	config.Name = "Saved"
	if err := manager.SaveConfig("saved", config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
		t.Errorf("Expected saved.json on disk: %v", err)
	}

	// A fresh manager reads it back from disk
	fresh, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	loaded, err := fresh.LoadConfig("saved")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Name != "Saved" || loaded.Width != 200 {
		t.Errorf("Unexpected saved config: %+v", loaded)
	}

	bad := createValidConfig()
	bad.Width = 205
	if err := manager.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := manager.SaveConfig("../escape", createValidConfig()); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}
	if err := manager.SaveConfig("nil", nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for nil, got %v", err)
	}
}

func TestManager_SetDefaultAndRefresh(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)
	writeConfigFile(t, dir, "small", createValidConfig())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if err := manager.SetDefault("small"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if manager.GetDefault().Width != 200 {
		t.Error("Expected small config as default")
	}
	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}

	changed := createValidConfig()
	changed.Width, changed.Height = 300, 300
	writeConfigFile(t, dir, "small", changed)
	if c, _ := manager.LoadConfig("small"); c.Width != 200 {
		t.Error("Expected cached config before refresh")
	}
	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}
	if c, _ := manager.LoadConfig("small"); c.Width != 300 {
		t.Error("Expected reloaded config after refresh")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	names := []string{"a", "b", "c", "d", "e"}
	for _, name := range names {
		config := createValidConfig()
		config.Name = name
		writeConfigFile(t, dir, name, config)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := manager.LoadConfig(names[id%len(names)]); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	// five files plus the built-in classic default
	if manager.Count() != 6 {
		t.Errorf("Expected 6 configs in cache, got %d", manager.Count())
	}
}
