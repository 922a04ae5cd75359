package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/rlenv"
	"github.com/wricardo/mcp-training/snakegame/game/scores"
)

var (
	// ErrSessionNotFound is returned when no session has the requested ID
	ErrSessionNotFound = errors.New("session not found")
	// ErrConfigNotFound is returned when no configuration has the requested name
	ErrConfigNotFound = errors.New("configuration not found")
	// ErrWrongVariant is returned when an operation does not apply to the session's variant
	ErrWrongVariant = errors.New("operation not supported for this game variant")
	// ErrGameOver is returned when ticking a finished classic game
	ErrGameOver = errors.New("game is over, reset to play again")
	// ErrNoScoreStore is returned by HighScores when no store is configured
	ErrNoScoreStore = errors.New("high scores are not enabled")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Classic game operations
	Tick(ctx context.Context, sessionID string, req TickRequest) (*TickResult, error)
	Autoplay(ctx context.Context, sessionID string, req AutoplayRequest) (*AutoplayResult, error)

	// Reinforcement-learning operations
	Step(ctx context.Context, sessionID string, action int, reset bool) (*StepResult, error)

	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// Leaderboard
	HighScores(ctx context.Context, configName string, limit int) ([]scores.Score, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configID string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// ScoreStore records finished classic games
type ScoreStore interface {
	Record(ctx context.Context, score scores.Score) (scores.Score, error)
	Top(ctx context.Context, configName string, limit int) ([]scores.Score, error)
}

// Session represents an active game session. Exactly one of Engine (classic)
// and Env (rl) is set, according to Config.Variant.
type Session struct {
	ID             string
	ConfigID       string
	Config         *engine.GameConfig
	Engine         *engine.GameEngine
	Env            *rlenv.Environment
	Policy         string
	ScoreRecorded  bool
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// NewSession starts a game for config. configID is the name the config was
// loaded by and is what persistence stores.
func NewSession(id, configID string, config *engine.GameConfig, rng engine.RandomSource) (*Session, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	now := time.Now()
	sess := &Session{
		ID:             id,
		ConfigID:       configID,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	switch config.Variant {
	case engine.VariantRL:
		env, err := rlenv.New(config, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to create environment: %w", err)
		}
		sess.Env = env
	default:
		eng, err := engine.NewEngine(config, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to create engine: %w", err)
		}
		sess.Engine = eng
	}
	return sess, nil
}

// Variant returns the rule set the session plays
func (s *Session) Variant() engine.Variant {
	if s.Env != nil {
		return engine.VariantRL
	}
	return engine.VariantClassic
}

// State returns the session's current game state
func (s *Session) State() *engine.GameState {
	if s.Env != nil {
		return s.Env.State()
	}
	return s.Engine.GetState()
}

// Restore loads a saved game state into the session
func (s *Session) Restore(state *engine.GameState) error {
	if s.Env != nil {
		return s.Env.Restore(state)
	}
	return s.Engine.SetState(state)
}
