package pilot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/wricardo/mcp-training/snakegame/game/classifier"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/planner"
)

// Policy selects who steers a classic tick
type Policy string

const (
	PolicyKeyboard   Policy = "keyboard"
	PolicyAutopilot  Policy = "autopilot"
	PolicyClassifier Policy = "classifier"
)

var (
	// ErrUnknownPolicy is returned for policy names other than keyboard, autopilot and classifier
	ErrUnknownPolicy = errors.New("unknown policy")
	// ErrUnknownKey is returned when a keyboard request names no heading
	ErrUnknownKey = errors.New("unknown key")
	// ErrNoOracle is returned when the classifier policy is used without a classifier
	ErrNoOracle = errors.New("no classifier configured")
)

// ParsePolicy parses a policy name; empty means keyboard
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyKeyboard, nil
	case PolicyKeyboard, PolicyAutopilot, PolicyClassifier:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Request is one tick's steering input
type Request struct {
	Policy Policy
	// Key is a key name or direction; empty keeps the current heading
	Key string
}

// Decision explains how the heading for a tick was chosen
type Decision struct {
	Direction     engine.Direction  `json:"direction"`
	Source        string            `json:"source"`
	Autopilot     *planner.Decision `json:"autopilot,omitempty"`
	Label         string            `json:"label,omitempty"`
	LabelAccepted bool              `json:"label_accepted"`
	OracleError   string            `json:"oracle_error,omitempty"`
}

// Pilot composes keyboard input, the autopilot and an optional classifier
// into the heading for the next tick.
type Pilot struct {
	autopilot *planner.Autopilot
	oracle    classifier.Oracle
}

// New creates a pilot; oracle may be nil
func New(oracle classifier.Oracle) *Pilot {
	return &Pilot{
		autopilot: planner.NewAutopilot(),
		oracle:    oracle,
	}
}

// HasOracle reports whether the classifier policy is available
func (p *Pilot) HasOracle() bool {
	return p.oracle != nil
}

// Decide picks the heading for the next tick on g. Oracle failures and
// unusable labels are not errors: the autopilot's heading is kept and the
// reason is recorded on the Decision.
//
// Under the autopilot and classifier policies a key, when given, turns the
// snake first and planning starts from that heading. g itself is not changed.
func (p *Pilot) Decide(ctx context.Context, g *engine.Grid, req Request) (Decision, error) {
	current := g.Direction

	switch req.Policy {
	case PolicyKeyboard, "":
		if req.Key == "" {
			return Decision{Direction: current, Source: string(PolicyKeyboard)}, nil
		}
		keyed, err := keyHeading(current, req.Key)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Direction: keyed, Source: string(PolicyKeyboard)}, nil

	case PolicyAutopilot, PolicyClassifier:
		if req.Policy == PolicyClassifier && p.oracle == nil {
			return Decision{}, ErrNoOracle
		}
		view := g
		if req.Key != "" {
			keyed, err := keyHeading(current, req.Key)
			if err != nil {
				return Decision{}, err
			}
			steered := *g
			steered.Direction = keyed
			view = &steered
		}

		auto := p.autopilot.NextMove(view)
		decision := Decision{
			Direction: auto.Direction,
			Source:    string(PolicyAutopilot),
			Autopilot: &auto,
		}
		if req.Policy == PolicyClassifier {
			p.consult(ctx, view, current, &decision)
		}
		return decision, nil
	}

	return Decision{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, req.Policy)
}

// keyHeading resolves a key against the current heading
func keyHeading(current engine.Direction, key string) (engine.Direction, error) {
	requested, ok := engine.KeyDirection(key)
	if !ok {
		return current, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return engine.ResolveDirection(current, requested), nil
}

// consult asks the oracle and overrides the autopilot when the label is a
// heading that reverses neither the autopilot's choice, the planning heading
// nor the snake's actual heading.
func (p *Pilot) consult(ctx context.Context, g *engine.Grid, current engine.Direction, decision *Decision) {
	label, err := p.oracle.Predict(ctx, classifier.FeaturesFromGrid(g))
	if err != nil {
		decision.OracleError = err.Error()
		log.Warn("Classifier prediction failed", "err", err)
		return
	}
	decision.Label = label

	predicted, err := classifier.ParseLabel(label)
	if err != nil {
		log.Debug("Classifier label rejected", "label", label)
		return
	}
	if !engine.IsValidMove(decision.Direction, predicted) ||
		!engine.IsValidMove(g.Direction, predicted) ||
		!engine.IsValidMove(current, predicted) {
		log.Debug("Classifier label would reverse", "label", label, "heading", current, "autopilot", decision.Direction)
		return
	}

	decision.Direction = predicted
	decision.Source = string(PolicyClassifier)
	decision.LabelAccepted = true
}
