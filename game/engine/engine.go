package engine

import "fmt"

// GameEngine runs classic game rules on top of a Grid
type GameEngine struct {
	grid   *Grid
	config *GameConfig
	rng    RandomSource
	state  *GameState
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, rng RandomSource) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRandomSource(0)
	}

	engine := &GameEngine{
		config: config,
		rng:    rng,
	}
	engine.start()

	return engine, nil
}

func (e *GameEngine) start() {
	e.grid = NewGridFromConfig(e.config, e.rng)
	e.state = &GameState{
		Variant:           e.config.Variant,
		ConfigName:        e.config.Name,
		Message:           e.config.Messages.Welcome,
		MoveHistory:       []TickHistoryEntry{},
		CurrentMoves:      []TickHistoryEntry{},
		CurrentMovesCount: 0,
	}
}

// GetState returns a copy of the current game state with a fresh board
// snapshot. Later ticks do not touch the returned value.
func (e *GameEngine) GetState() *GameState {
	e.state.Snapshot = e.grid.Snapshot()
	return e.state.Clone()
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if len(state.Snake) == 0 {
		return fmt.Errorf("state has an empty snake")
	}
	if state.Width == 0 || state.Height == 0 {
		state.Width, state.Height = e.config.Width, e.config.Height
	}
	e.grid.Restore(state.Snapshot)
	e.state = state.Clone()
	return nil
}

// Reset resets the game to initial state
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.start()

	// Restore cumulative history and totals; clear only the current segment
	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal

	return e.GetState()
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.grid.Score
}

// GetHead returns the current head position
func (e *GameEngine) GetHead() Position {
	return e.grid.Head()
}

// Grid exposes the live board to planners and oracles
func (e *GameEngine) Grid() *Grid {
	return e.grid
}

// Tick advances the game one step towards requested.
// A request that reverses the heading is ignored and the snake keeps going.
func (e *GameEngine) Tick(requested Direction, source string) TickOutcome {
	outcome := e.state.advance(e.grid, e.config, requested)
	if outcome.Applied {
		e.state.AddTickToHistory(requested, outcome, source)
	}
	return outcome
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []TickHistoryEntry {
	return e.state.MoveHistory
}
