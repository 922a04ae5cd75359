package engine

// Variant selects which rule set a config drives
type Variant string

const (
	// VariantClassic is the keyboard/autopilot/classifier game with per-tick scoring
	VariantClassic Variant = "classic"
	// VariantRL is the reinforcement-learning environment with shaped rewards
	VariantRL Variant = "rl"
)

const (
	// CellSize is the edge length of one grid cell in board units
	CellSize = 10

	// Validation constants
	MinGridCells        = 5
	MaxGridCells        = 200
	MinBodyLength       = 3
	MaxAutoplayTicks    = 5000
	RecentMovesWindow   = 10
	WebSocketBufferSize = 256
)

// Death causes reported in GameState.DeathCause
const (
	CauseWall = "wall"
	CauseSelf = "self"
)

// Position represents x,y coordinates in board units (multiples of CellSize)
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p translated by d
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Step returns the neighbouring cell of p in direction d
func (p Position) Step(d Direction) Position {
	return p.Add(d.Delta())
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Variant        Variant    `json:"variant"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	GrowingBody    bool       `json:"growing_body"`
	EatReward      int        `json:"eat_reward"`
	TickCost       int        `json:"tick_cost"`
	StartBody      []Position `json:"start_body"`
	StartDirection string     `json:"start_direction"`
	Messages       struct {
		Welcome   string `json:"welcome"`
		FoodEaten string `json:"food_eaten"`
		HitWall   string `json:"hit_wall"`
		HitSelf   string `json:"hit_self"`
	} `json:"messages"`
}

// Snapshot is the read-only view of a grid handed to render collaborators
type Snapshot struct {
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Snake       []Position `json:"snake"`
	Food        Position   `json:"food"`
	FoodSpawned bool       `json:"food_spawned"`
	Direction   Direction  `json:"direction"`
	Score       int        `json:"score"`
	Length      int        `json:"length"`
}

// GameState represents the complete game state
type GameState struct {
	Snapshot

	Variant        Variant     `json:"variant"`
	ConfigName     string      `json:"config_name"`
	Message        string      `json:"message"`
	GameOver       bool        `json:"game_over"`
	DeathCause     string      `json:"death_cause,omitempty"`
	TicksSinceFood int         `json:"ticks_since_food"`
	RecentMoves    []Direction `json:"recent_moves,omitempty"`

	MoveHistory []TickHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the ticks since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []TickHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Reinforcement-learning episode bookkeeping, zero for classic games
	Episode      int     `json:"episode,omitempty"`
	PrevDistance int     `json:"prev_distance,omitempty"`
	TotalReward  float64 `json:"total_reward,omitempty"`
}

// Clone returns a deep copy of the state that shares no slices with gs
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs
	c.Snake = append([]Position(nil), gs.Snake...)
	c.RecentMoves = append([]Direction(nil), gs.RecentMoves...)
	c.MoveHistory = append([]TickHistoryEntry{}, gs.MoveHistory...)
	c.CurrentMoves = append([]TickHistoryEntry{}, gs.CurrentMoves...)
	return &c
}

// TickHistoryEntry represents a single tick in the game history
type TickHistoryEntry struct {
	Action       string    `json:"action"`
	Direction    Direction `json:"direction"`
	Source       string    `json:"source,omitempty"`
	FromPosition Position  `json:"from_position"`
	ToPosition   Position  `json:"to_position"`
	Score        int       `json:"score"`
	Ate          bool      `json:"ate"`
	GameOver     bool      `json:"game_over"`
	Timestamp    int64     `json:"timestamp"`
	MoveNumber   int       `json:"move_number"`
}

// TickOutcome describes what a single tick did
type TickOutcome struct {
	Applied   bool      `json:"applied"`
	Requested Direction `json:"requested"`
	Direction Direction `json:"direction"`
	Reversed  bool      `json:"reversed"`
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Ate       bool      `json:"ate"`
	Score     int       `json:"score"`
	GameOver  bool      `json:"game_over"`
	Cause     string    `json:"cause,omitempty"`
}
