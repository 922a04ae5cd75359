package qlearn

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/rlenv"
)

// Table holds one action-value row per observation
type Table [rlenv.NumStates][rlenv.NumActions]float64

// Params are the learning hyperparameters
type Params struct {
	LearningRate   float64 `json:"learning_rate"`
	Discount       float64 `json:"discount"`
	InitialEpsilon float64 `json:"initial_epsilon"`
	MinEpsilon     float64 `json:"min_epsilon"`
	EpsilonDecay   float64 `json:"epsilon_decay"`
}

// DefaultParams returns the hyperparameters used by cmd/train
func DefaultParams() Params {
	return Params{
		LearningRate:   0.1,
		Discount:       0.9,
		InitialEpsilon: 0.9,
		MinEpsilon:     0.01,
		EpsilonDecay:   0.995,
	}
}

// Agent is a tabular epsilon-greedy Q-learner over rlenv observations
type Agent struct {
	Q        Table
	Params   Params
	Epsilon  float64
	Episodes int

	rng engine.RandomSource
}

// NewAgent creates an agent with a zeroed table
func NewAgent(params Params, rng engine.RandomSource) *Agent {
	if rng == nil {
		rng = engine.NewRandomSource(0)
	}
	return &Agent{
		Params:  params,
		Epsilon: params.InitialEpsilon,
		rng:     rng,
	}
}

// Act picks an action for obs, exploring with probability Epsilon
func (a *Agent) Act(obs rlenv.Observation) int {
	if a.Epsilon > 0 && float64(a.rng.Intn(1_000_000))/1_000_000 < a.Epsilon {
		return a.rng.Intn(rlenv.NumActions)
	}
	return a.Greedy(obs)
}

// Greedy returns the highest-valued action for obs; ties go to the lowest action code
func (a *Agent) Greedy(obs rlenv.Observation) int {
	row := &a.Q[obs.Index()]
	best := 0
	for action := 1; action < rlenv.NumActions; action++ {
		if row[action] > row[best] {
			best = action
		}
	}
	return best
}

// Update applies Q(s,a) += lr * (r + discount*max Q(s') - Q(s,a)).
// Terminal transitions do not bootstrap from next.
func (a *Agent) Update(obs rlenv.Observation, action int, reward float64, next rlenv.Observation, done bool) {
	if action < 0 || action >= rlenv.NumActions {
		return
	}
	target := reward
	if !done {
		target += a.Params.Discount * a.maxQ(next)
	}
	q := &a.Q[obs.Index()][action]
	*q += a.Params.LearningRate * (target - *q)
}

func (a *Agent) maxQ(obs rlenv.Observation) float64 {
	maxQ := math.Inf(-1)
	for _, v := range a.Q[obs.Index()] {
		if v > maxQ {
			maxQ = v
		}
	}
	return maxQ
}

// EndEpisode counts the episode and decays Epsilon toward MinEpsilon
func (a *Agent) EndEpisode() {
	a.Episodes++
	a.Epsilon = math.Max(a.Params.MinEpsilon,
		a.Params.InitialEpsilon*math.Pow(a.Params.EpsilonDecay, float64(a.Episodes)))
}

// Visited returns the number of observations with any non-zero value
func (a *Agent) Visited() int {
	n := 0
	for i := range a.Q {
		for _, v := range a.Q[i] {
			if v != 0 {
				n++
				break
			}
		}
	}
	return n
}

type savedAgent struct {
	Params   Params      `json:"params"`
	Epsilon  float64     `json:"epsilon"`
	Episodes int         `json:"episodes"`
	Q        [][]float64 `json:"q"`
}

// Save writes the agent to path as JSON
func (a *Agent) Save(path string) error {
	saved := savedAgent{
		Params:   a.Params,
		Epsilon:  a.Epsilon,
		Episodes: a.Episodes,
		Q:        make([][]float64, rlenv.NumStates),
	}
	for i := range a.Q {
		saved.Q[i] = a.Q[i][:]
	}

	data, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("failed to marshal agent: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write agent file: %w", err)
	}
	return nil
}

// Load replaces the agent's table and schedule with the contents of path
func (a *Agent) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read agent file: %w", err)
	}

	var saved savedAgent
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("failed to parse agent file: %w", err)
	}
	if len(saved.Q) != rlenv.NumStates {
		return fmt.Errorf("agent file has %d states, want %d", len(saved.Q), rlenv.NumStates)
	}

	var q Table
	for i, row := range saved.Q {
		if len(row) != rlenv.NumActions {
			return fmt.Errorf("state %d has %d actions, want %d", i, len(row), rlenv.NumActions)
		}
		copy(q[i][:], row)
	}

	a.Q = q
	a.Params = saved.Params
	a.Epsilon = saved.Epsilon
	a.Episodes = saved.Episodes
	return nil
}
