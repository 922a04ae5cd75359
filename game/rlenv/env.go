package rlenv

import (
	"fmt"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// Reward shaping constants
const (
	RewardFood    = 10.0
	RewardCrash   = -30.0
	RewardCloser  = 1.0
	RewardFarther = -1.0
	WallPenalty   = 1.0
)

// NumActions is the size of the action space (0 up, 1 down, 2 left, 3 right)
const NumActions = 4

// StepResult bundles the outputs of one Step for callers that serialise them
type StepResult struct {
	Observation Observation       `json:"observation"`
	Fields      ObservationFields `json:"fields"`
	Reward      float64           `json:"reward"`
	Terminated  bool              `json:"terminated"`
	Ate         bool              `json:"ate"`
}

// Environment is a single-agent snake episode with shaped rewards.
// It is not safe for concurrent use.
type Environment struct {
	config *engine.GameConfig
	rng    engine.RandomSource
	grid   *engine.Grid

	prevDistance int
	terminated   bool
	cause        string
	last         Observation

	episode     int
	steps       int
	totalReward float64
}

// New creates an environment and starts the first episode
func New(config *engine.GameConfig, rng engine.RandomSource) (*Environment, error) {
	if err := engine.ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = engine.NewRandomSource(0)
	}
	env := &Environment{config: config, rng: rng}
	env.Reset()
	return env, nil
}

// Reset starts a new episode from the configured layout
func (e *Environment) Reset() Observation {
	e.grid = engine.NewGridFromConfig(e.config, e.rng)
	e.prevDistance = engine.ManhattanDistance(e.grid.Head(), e.grid.Food)
	e.terminated = false
	e.cause = ""
	e.episode++
	e.steps = 0
	e.totalReward = 0
	e.last = Encode(e.grid)
	return e.last
}

// Step applies action and returns the next observation, the reward and
// whether the episode ended. Unknown actions keep the current heading and
// reversals are ignored. Stepping a finished episode changes nothing.
func (e *Environment) Step(action int) (Observation, float64, bool) {
	r := e.StepDetailed(action)
	return r.Observation, r.Reward, r.Terminated
}

// StepDetailed is Step with the decoded observation and eat flag
func (e *Environment) StepDetailed(action int) StepResult {
	if e.terminated {
		return StepResult{Observation: e.last, Fields: e.last.Fields(), Terminated: true}
	}

	dir := e.grid.Direction
	if requested, ok := engine.DirectionFromAction(action); ok {
		dir = engine.ResolveDirection(dir, requested)
	}

	ate := e.grid.Move(dir)
	if ate {
		e.grid.Score += e.config.EatReward
	}

	reward := e.reward(ate)
	e.grid.RefreshFood()
	e.last = Encode(e.grid)
	e.terminated, e.cause = e.grid.Terminal()

	e.steps++
	e.totalReward += reward

	return StepResult{
		Observation: e.last,
		Fields:      e.last.Fields(),
		Reward:      reward,
		Terminated:  e.terminated,
		Ate:         ate,
	}
}

// reward scores the move just made. prevDistance only advances when the
// distance term is evaluated, matching the shaping agents were trained on.
func (e *Environment) reward(ate bool) float64 {
	if ate {
		return RewardFood
	}
	if over, _ := e.grid.Terminal(); over {
		return RewardCrash
	}

	head := e.grid.Head()
	dist := engine.ManhattanDistance(head, e.grid.Food)
	delta := e.prevDistance - dist
	e.prevDistance = dist

	var reward float64
	switch {
	case delta > 0:
		reward = RewardCloser
	case delta < 0:
		reward = RewardFarther
	}

	straight, right, left := LookAhead(head, e.grid.Direction)
	for _, p := range []engine.Position{straight, right, left} {
		if e.grid.IsOutOfBounds(p) {
			reward -= WallPenalty
		}
	}
	return reward
}

// Observe returns the current observation without stepping
func (e *Environment) Observe() Observation {
	return e.last
}

// Terminated reports whether the current episode has ended
func (e *Environment) Terminated() bool {
	return e.terminated
}

// Grid exposes the board for rendering and inspection
func (e *Environment) Grid() *engine.Grid {
	return e.grid
}

// Config returns the environment configuration
func (e *Environment) Config() *engine.GameConfig {
	return e.config
}

// Episode returns the 1-based episode counter
func (e *Environment) Episode() int {
	return e.episode
}

// Steps returns the number of steps taken this episode
func (e *Environment) Steps() int {
	return e.steps
}

// TotalReward returns the reward accumulated this episode
func (e *Environment) TotalReward() float64 {
	return e.totalReward
}

// State returns the environment as a GameState for transport and persistence
func (e *Environment) State() *engine.GameState {
	return &engine.GameState{
		Snapshot:     e.grid.Snapshot(),
		Variant:      engine.VariantRL,
		ConfigName:   e.config.Name,
		GameOver:     e.terminated,
		DeathCause:   e.cause,
		Episode:      e.episode,
		PrevDistance: e.prevDistance,
		TotalReward:  e.totalReward,
		TotalMoves:   e.steps,
	}
}

// Restore resumes an episode from a saved GameState
func (e *Environment) Restore(state *engine.GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if len(state.Snake) == 0 {
		return fmt.Errorf("state has an empty snake")
	}
	snap := state.Snapshot
	if snap.Width == 0 || snap.Height == 0 {
		snap.Width, snap.Height = e.config.Width, e.config.Height
	}
	e.grid.Restore(snap)
	e.prevDistance = state.PrevDistance
	e.terminated = state.GameOver
	e.cause = state.DeathCause
	e.episode = state.Episode
	e.steps = state.TotalMoves
	e.totalReward = state.TotalReward
	e.last = Encode(e.grid)
	return nil
}
