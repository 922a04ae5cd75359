package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/snakegame/game/classifier"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/pilot"
	"github.com/wricardo/mcp-training/snakegame/game/scores"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	session, err := service.NewSession(id, configID, config, rand.New(rand.NewSource(1)))
	if err != nil {
		return nil, err
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, configID, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saves++
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	classic := engine.DefaultConfig(engine.VariantClassic)
	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"classic": classic,
			"rl":      engine.DefaultConfig(engine.VariantRL),
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			Variant:     config.Variant,
			Width:       config.Width,
			Height:      config.Height,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["classic"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

// MockScoreStore implements service.ScoreStore for testing
type MockScoreStore struct {
	recorded   []scores.Score
	RecordFunc func(score scores.Score) error
}

func (m *MockScoreStore) Record(ctx context.Context, score scores.Score) (scores.Score, error) {
	if m.RecordFunc != nil {
		if err := m.RecordFunc(score); err != nil {
			return scores.Score{}, err
		}
	}
	score.ID = int64(len(m.recorded) + 1)
	m.recorded = append(m.recorded, score)
	return score, nil
}

func (m *MockScoreStore) Top(ctx context.Context, configName string, limit int) ([]scores.Score, error) {
	result := []scores.Score{}
	for _, s := range m.recorded {
		if configName == "" || s.ConfigName == configName {
			result = append(result, s)
		}
	}
	return result, nil
}

type testService struct {
	svc      service.GameService
	sessions *MockSessionManager
	scores   *MockScoreStore
}

func newTestService(oracle classifier.Oracle) *testService {
	sessions := NewMockSessionManager()
	store := &MockScoreStore{}
	return &testService{
		svc:      service.NewGameService(sessions, NewMockConfigManager(), pilot.New(oracle), store),
		sessions: sessions,
		scores:   store,
	}
}

// classicSession creates a classic session with the food parked away from row y=50
func (ts *testService) classicSession(t *testing.T) *service.Session {
	t.Helper()
	info, err := ts.svc.CreateSession(context.Background(), "classic")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	sess := ts.sessions.sessions[info.ID]
	sess.Engine.Grid().Food = engine.Position{X: 400, Y: 400}
	return sess
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)

	tests := []struct {
		name        string
		configName  string
		wantVariant engine.Variant
		wantConfig  string
		wantErr     bool
	}{
		{"create with default config", "", engine.VariantClassic, "classic", false},
		{"create classic", "classic", engine.VariantClassic, "classic", false},
		{"create rl", "rl", engine.VariantRL, "rl", false},
		{"create with invalid config", "nonexistent", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ts.svc.CreateSession(ctx, tt.configName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if info.Variant != tt.wantVariant {
				t.Errorf("Expected variant %s, got %s", tt.wantVariant, info.Variant)
			}
			if info.ConfigName != tt.wantConfig {
				t.Errorf("Expected config %s, got %s", tt.wantConfig, info.ConfigName)
			}
			if info.GameState == nil || len(info.GameState.Snake) != 3 {
				t.Errorf("Expected a fresh 3-segment snake, got %+v", info.GameState)
			}
		})
	}

	list, err := ts.svc.ListSessions(ctx)
	if err != nil || len(list) != 3 {
		t.Errorf("Expected 3 sessions, got %d (%v)", len(list), err)
	}
}

func TestGameService_Tick(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)
	sess := ts.classicSession(t)

	tests := []struct {
		name     string
		key      string
		wantDir  engine.Direction
		wantHead engine.Position
	}{
		{"turn up", "w", engine.Up, engine.Position{X: 100, Y: 40}},
		{"reverse is ignored", "s", engine.Up, engine.Position{X: 100, Y: 30}},
		{"no key keeps heading", "", engine.Up, engine.Position{X: 100, Y: 20}},
		{"turn right", "ArrowRight", engine.Right, engine.Position{X: 110, Y: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ts.svc.Tick(ctx, sess.ID, service.TickRequest{Direction: tt.key})
			if err != nil {
				t.Fatalf("Tick failed: %v", err)
			}
			if !result.Success {
				t.Fatal("Expected tick to apply")
			}
			if result.Outcome.Direction != tt.wantDir {
				t.Errorf("Expected direction %s, got %s", tt.wantDir, result.Outcome.Direction)
			}
			if result.GameState.Snake[0] != tt.wantHead {
				t.Errorf("Expected head %+v, got %+v", tt.wantHead, result.GameState.Snake[0])
			}
			if result.Events[0].Type != "tick" {
				t.Errorf("Expected tick event first, got %s", result.Events[0].Type)
			}
		})
	}

	state, _ := ts.svc.GetGameState(ctx, sess.ID)
	if state.Score != -4 {
		t.Errorf("Expected score -4 after four ticks, got %d", state.Score)
	}
	if ts.sessions.saves == 0 {
		t.Error("Expected ticks to save the session")
	}
}

func TestGameService_TickEat(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)
	sess := ts.classicSession(t)
	sess.Engine.Grid().Food = engine.Position{X: 110, Y: 50}

	result, err := ts.svc.Tick(ctx, sess.ID, service.TickRequest{})
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if !result.Outcome.Ate || result.GameState.Score != 100 {
		t.Errorf("Expected to eat for 100, got ate=%v score=%d", result.Outcome.Ate, result.GameState.Score)
	}
	if result.GameState.Length != 4 {
		t.Errorf("Expected length 4, got %d", result.GameState.Length)
	}
	found := false
	for _, e := range result.Events {
		if e.Type == "food" {
			found = true
		}
	}
	if !found {
		t.Error("Expected a food event")
	}
}

func TestGameService_TickErrors(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)
	sess := ts.classicSession(t)
	rl, _ := ts.svc.CreateSession(ctx, "rl")

	if _, err := ts.svc.Tick(ctx, sess.ID, service.TickRequest{Direction: "q"}); !errors.Is(err, pilot.ErrUnknownKey) {
		t.Errorf("Expected ErrUnknownKey, got %v", err)
	}
	if _, err := ts.svc.Tick(ctx, sess.ID, service.TickRequest{Policy: "random"}); !errors.Is(err, pilot.ErrUnknownPolicy) {
		t.Errorf("Expected ErrUnknownPolicy, got %v", err)
	}
	if _, err := ts.svc.Tick(ctx, sess.ID, service.TickRequest{Policy: "classifier"}); !errors.Is(err, pilot.ErrNoOracle) {
		t.Errorf("Expected ErrNoOracle, got %v", err)
	}
	if _, err := ts.svc.Tick(ctx, rl.ID, service.TickRequest{}); !errors.Is(err, service.ErrWrongVariant) {
		t.Errorf("Expected ErrWrongVariant, got %v", err)
	}
	if _, err := ts.svc.Tick(ctx, "nope", service.TickRequest{}); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestGameService_GameOverRecordsScoreOnce(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)
	sess := ts.classicSession(t)

	var last *service.TickResult
	for i := 0; i < 50; i++ {
		result, err := ts.svc.Tick(ctx, sess.ID, service.TickRequest{})
		if err != nil {
			t.Fatalf("Tick %d failed: %v", i, err)
		}
		last = result
		if result.GameState.GameOver {
			break
		}
	}
	if !last.GameState.GameOver || last.GameState.DeathCause != engine.CauseWall {
		t.Fatalf("Expected to hit the right wall, got %+v", last.GameState)
	}
	if last.Events[len(last.Events)-1].Type != "game_over" {
		t.Error("Expected a game_over event")
	}

	if _, err := ts.svc.Tick(ctx, sess.ID, service.TickRequest{}); !errors.Is(err, service.ErrGameOver) {
		t.Errorf("Expected ErrGameOver, got %v", err)
	}
	if len(ts.scores.recorded) != 1 {
		t.Fatalf("Expected one recorded score, got %d", len(ts.scores.recorded))
	}
	rec := ts.scores.recorded[0]
	if rec.SessionID != sess.ID || rec.ConfigName != "classic" || rec.Cause != engine.CauseWall || rec.Policy != "keyboard" {
		t.Errorf("Unexpected score record: %+v", rec)
	}

	result, err := ts.svc.Tick(ctx, sess.ID, service.TickRequest{Reset: true})
	if err != nil {
		t.Fatalf("Tick with reset failed: %v", err)
	}
	if result.GameState.GameOver || result.Events[0].Type != "reset" {
		t.Errorf("Expected a fresh game after reset, got %+v", result.Events)
	}

	top, err := ts.svc.HighScores(ctx, "classic", 10)
	if err != nil || len(top) != 1 {
		t.Errorf("Expected one high score, got %d (%v)", len(top), err)
	}
}

func TestGameService_RecordFailureRetries(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)
	ts.scores.RecordFunc = func(scores.Score) error { return errors.New("disk full") }
	sess := ts.classicSession(t)

	if _, err := ts.svc.Autoplay(ctx, sess.ID, service.AutoplayRequest{MaxTicks: 1}); err != nil {
		t.Fatalf("Autoplay failed: %v", err)
	}
	for i := 0; i < 50 && !sess.Engine.IsGameOver(); i++ {
		ts.svc.Tick(ctx, sess.ID, service.TickRequest{})
	}
	if sess.ScoreRecorded {
		t.Error("Failed record must not mark the score as recorded")
	}
}

func TestGameService_Autoplay(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)
	sess := ts.classicSession(t)

	result, err := ts.svc.Autoplay(ctx, sess.ID, service.AutoplayRequest{MaxTicks: 20})
	if err != nil {
		t.Fatalf("Autoplay failed: %v", err)
	}
	if result.Policy != "autopilot" {
		t.Errorf("Expected autopilot policy by default, got %s", result.Policy)
	}
	if result.TicksExecuted != 20 {
		t.Errorf("Expected 20 ticks, got %d (%s)", result.TicksExecuted, result.StoppedReason)
	}
	if result.StoppedReason != "max_ticks" {
		t.Errorf("Expected max_ticks, got %s", result.StoppedReason)
	}
	total := 0
	for _, n := range result.Tiers {
		total += n
	}
	if total != result.TicksExecuted || result.Tiers["path"] == 0 {
		t.Errorf("Expected tier counts to cover every tick, got %v", result.Tiers)
	}
	if result.ScoreDelta != result.EndScore-result.StartScore {
		t.Error("Inconsistent score delta")
	}
	if result.GameState.CurrentMovesCount != 20 {
		t.Errorf("Expected 20 ticks in history, got %d", result.GameState.CurrentMovesCount)
	}
}

func TestGameService_AutoplayLimits(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)
	sess := ts.classicSession(t)

	result, err := ts.svc.Autoplay(ctx, sess.ID, service.AutoplayRequest{MaxTicks: engine.MaxAutoplayTicks + 1})
	if err != nil {
		t.Fatalf("Autoplay failed: %v", err)
	}
	if !result.Truncated || result.Limit != engine.MaxAutoplayTicks {
		t.Errorf("Expected truncation to %d, got %+v", engine.MaxAutoplayTicks, result.Limit)
	}
	if result.TicksExecuted > engine.MaxAutoplayTicks {
		t.Errorf("Executed %d ticks beyond the limit", result.TicksExecuted)
	}

	if _, err := ts.svc.Autoplay(ctx, sess.ID, service.AutoplayRequest{Policy: "keyboard"}); !errors.Is(err, pilot.ErrUnknownPolicy) {
		t.Errorf("Expected keyboard autoplay to be rejected, got %v", err)
	}
	if _, err := ts.svc.Autoplay(ctx, sess.ID, service.AutoplayRequest{Policy: "classifier"}); !errors.Is(err, pilot.ErrNoOracle) {
		t.Errorf("Expected ErrNoOracle, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	result, err = ts.svc.Autoplay(cancelled, sess.ID, service.AutoplayRequest{MaxTicks: 10, Reset: true})
	if err != nil {
		t.Fatalf("Autoplay failed: %v", err)
	}
	if result.TicksExecuted != 0 || result.StoppedReason != "cancelled" {
		t.Errorf("Expected cancelled run, got %d ticks (%s)", result.TicksExecuted, result.StoppedReason)
	}
}

func TestGameService_AutoplayClassifier(t *testing.T) {
	ctx := context.Background()
	calls := 0
	oracle := classifier.OracleFunc(func(ctx context.Context, f classifier.Features) (string, error) {
		calls++
		return "JUMP", nil
	})
	ts := newTestService(oracle)
	sess := ts.classicSession(t)

	result, err := ts.svc.Autoplay(ctx, sess.ID, service.AutoplayRequest{MaxTicks: 5, Policy: "classifier"})
	if err != nil {
		t.Fatalf("Autoplay failed: %v", err)
	}
	if calls != result.TicksExecuted {
		t.Errorf("Expected the classifier to be consulted every tick, got %d calls for %d ticks", calls, result.TicksExecuted)
	}
	if result.Tiers["classifier"] != 0 {
		t.Error("Unknown labels must not count as classifier moves")
	}
}

func TestGameService_Step(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)
	info, err := ts.svc.CreateSession(ctx, "rl")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	result, err := ts.svc.Step(ctx, info.ID, 0, false)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if result.Terminated {
		t.Error("Moving up from the start must not terminate")
	}
	if result.Steps != 1 || result.Episode != 1 {
		t.Errorf("Expected step 1 of episode 1, got %d/%d", result.Steps, result.Episode)
	}
	if len(result.Bits) != 11 {
		t.Errorf("Expected 11-bit observation string, got %q", result.Bits)
	}
	if result.GameState.Variant != engine.VariantRL {
		t.Errorf("Expected rl state, got %s", result.GameState.Variant)
	}

	result, err = ts.svc.Step(ctx, info.ID, 1, true)
	if err != nil {
		t.Fatalf("Step with reset failed: %v", err)
	}
	if result.Episode != 2 || result.Steps != 1 {
		t.Errorf("Expected step 1 of episode 2, got %d/%d", result.Steps, result.Episode)
	}

	classic := ts.classicSession(t)
	if _, err := ts.svc.Step(ctx, classic.ID, 0, false); !errors.Is(err, service.ErrWrongVariant) {
		t.Errorf("Expected ErrWrongVariant, got %v", err)
	}
	if _, err := ts.svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{}); !errors.Is(err, service.ErrWrongVariant) {
		t.Errorf("Expected ErrWrongVariant for rl history, got %v", err)
	}
}

func TestGameService_Reset(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)
	sess := ts.classicSession(t)

	for i := 0; i < 3; i++ {
		ts.svc.Tick(ctx, sess.ID, service.TickRequest{})
	}
	state, err := ts.svc.Reset(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if state.Score != 0 || state.CurrentMovesCount != 0 || state.Snake[0] != (engine.Position{X: 100, Y: 50}) {
		t.Errorf("Expected fresh game, got score=%d moves=%d head=%+v", state.Score, state.CurrentMovesCount, state.Snake[0])
	}
	if state.TotalMoves != 3 {
		t.Errorf("Expected cumulative history to survive reset, got %d", state.TotalMoves)
	}

	if _, err := ts.svc.Reset(ctx, "nope"); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)
	sess := ts.classicSession(t)
	for i := 0; i < 5; i++ {
		if _, err := ts.svc.Tick(ctx, sess.ID, service.TickRequest{}); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
	}

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantMoves []int
		wantPages int
		wantNext  bool
	}{
		{"default is newest first", service.HistoryOptions{}, []int{5, 4, 3, 2, 1}, 1, false},
		{"first desc page", service.HistoryOptions{Page: 1, Limit: 2}, []int{5, 4}, 3, true},
		{"last desc page", service.HistoryOptions{Page: 3, Limit: 2}, []int{1}, 3, false},
		{"asc page", service.HistoryOptions{Page: 2, Limit: 2, Order: "asc"}, []int{3, 4}, 3, true},
		{"past the end", service.HistoryOptions{Page: 9, Limit: 2}, []int{}, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ts.svc.GetMoveHistory(ctx, sess.ID, tt.opts)
			if err != nil {
				t.Fatalf("GetMoveHistory failed: %v", err)
			}
			if resp.TotalMoves != 5 || resp.TotalPages != tt.wantPages || resp.HasNext != tt.wantNext {
				t.Errorf("Unexpected paging: total=%d pages=%d next=%v", resp.TotalMoves, resp.TotalPages, resp.HasNext)
			}
			if len(resp.Moves) != len(tt.wantMoves) {
				t.Fatalf("Expected %d moves, got %d", len(tt.wantMoves), len(resp.Moves))
			}
			for i, n := range tt.wantMoves {
				if resp.Moves[i].MoveNumber != n {
					t.Errorf("Move %d: expected number %d, got %d", i, n, resp.Moves[i].MoveNumber)
				}
			}
		})
	}
}

func TestGameService_DeleteSession(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)
	sess := ts.classicSession(t)

	if err := ts.svc.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := ts.svc.GetSession(ctx, sess.ID); err == nil {
		t.Error("Expected deleted session to be gone")
	}
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	ts := newTestService(nil)

	configs, err := ts.svc.ListConfigs(ctx)
	if err != nil || len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d (%v)", len(configs), err)
	}

	custom := engine.DefaultConfig(engine.VariantClassic)
	custom.Name = "small"
	custom.Width, custom.Height = 200, 200
	if err := ts.svc.SaveConfig(ctx, "small", custom); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := ts.svc.LoadConfig(ctx, "small")
	if err != nil || loaded.Width != 200 {
		t.Errorf("Expected saved config to load, got %+v (%v)", loaded, err)
	}
}

func TestGameService_HighScoresDisabled(t *testing.T) {
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), nil, nil)
	if _, err := svc.HighScores(context.Background(), "", 10); !errors.Is(err, service.ErrNoScoreStore) {
		t.Errorf("Expected ErrNoScoreStore, got %v", err)
	}
}
