package service

import (
	"time"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/pilot"
	"github.com/wricardo/mcp-training/snakegame/game/rlenv"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	Variant        engine.Variant     `json:"variant"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// TickRequest steers one classic tick
type TickRequest struct {
	// Direction is a key or heading name for the keyboard policy; empty keeps the heading
	Direction string `json:"direction"`
	Policy    string `json:"policy"`
	Reset     bool   `json:"reset"`
}

// TickResult contains the result of one classic tick
type TickResult struct {
	Success   bool               `json:"success"`
	GameState *engine.GameState  `json:"game_state"`
	Message   string             `json:"message"`
	Outcome   engine.TickOutcome `json:"outcome"`
	Decision  pilot.Decision     `json:"decision"`
	Events    []GameEvent        `json:"events,omitempty"`
}

// AutoplayRequest runs the autopilot or classifier for several ticks
type AutoplayRequest struct {
	MaxTicks int    `json:"max_ticks"`
	Policy   string `json:"policy"`
	Reset    bool   `json:"reset"`
}

// AutoplayResult summarises an autoplay run
type AutoplayResult struct {
	TicksExecuted  int               `json:"ticks_executed"`
	RequestedTicks int               `json:"requested_ticks"`
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`
	Policy         string            `json:"policy"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`

	StartPos   engine.Position `json:"start_pos"`
	EndPos     engine.Position `json:"end_pos"`
	StartScore int             `json:"start_score"`
	EndScore   int             `json:"end_score"`
	ScoreDelta int             `json:"score_delta"`
	FoodEaten  int             `json:"food_eaten"`

	// Tiers counts ticks per autopilot tier, plus "classifier" for accepted overrides
	Tiers map[string]int `json:"tiers"`

	GameOver   bool   `json:"game_over"`
	DeathCause string `json:"death_cause,omitempty"`
	Message    string `json:"message,omitempty"`
}

// StepResult contains the result of one reinforcement-learning step
type StepResult struct {
	Action      int                     `json:"action"`
	Observation rlenv.Observation       `json:"observation"`
	Bits        string                  `json:"bits"`
	Fields      rlenv.ObservationFields `json:"fields"`
	Reward      float64                 `json:"reward"`
	Terminated  bool                    `json:"terminated"`
	Ate         bool                    `json:"ate"`
	Episode     int                     `json:"episode"`
	Steps       int                     `json:"steps"`
	TotalReward float64                 `json:"total_reward"`
	GameState   *engine.GameState       `json:"game_state"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "tick", "food", "game_over", "reset", "classifier"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.TickHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string         `json:"filename"`
	ConfigID    string         `json:"config_id"` // The identifier to use for session creation
	Name        string         `json:"name"`      // Display name
	Description string         `json:"description"`
	Variant     engine.Variant `json:"variant"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	GrowingBody bool           `json:"growing_body"`
}
