package planner

import "github.com/wricardo/mcp-training/snakegame/game/engine"

// Tier names which rule of the autopilot produced a move
type Tier string

const (
	TierPath  Tier = "path"
	TierEdge  Tier = "edge"
	TierSafe  Tier = "safe"
	TierStuck Tier = "stuck"
)

// Decision is the autopilot's chosen heading and how it got there
type Decision struct {
	Direction engine.Direction `json:"direction"`
	Tier      Tier             `json:"tier"`
	Target    engine.Position  `json:"target"`
}

// Autopilot steers toward food by shortest path, retreating to a far wall
// when food has spawned under the body.
type Autopilot struct{}

// NewAutopilot returns the BFS autopilot
func NewAutopilot() *Autopilot {
	return &Autopilot{}
}

// Name identifies the policy in history entries and logs
func (a *Autopilot) Name() string {
	return "autopilot"
}

// NextMove picks the next heading for g:
//  1. shortest path to food
//  2. food under the body: shortest path to the farther wall across the heading
//  3. first safe neighbour in up, down, left, right order
//  4. keep the current heading
func (a *Autopilot) NextMove(g *engine.Grid) Decision {
	head := g.Head()

	if d, ok := FirstMove(g, head, g.Food); ok {
		return Decision{Direction: d, Tier: TierPath, Target: g.Food}
	}

	if g.Occupies(g.Food) {
		target := EdgeTarget(g)
		if d, ok := FirstMove(g, head, target); ok {
			return Decision{Direction: d, Tier: TierEdge, Target: target}
		}
	}

	for _, d := range engine.Directions {
		if next := head.Step(d); g.IsSafeMove(next) {
			return Decision{Direction: d, Tier: TierSafe, Target: next}
		}
	}

	return Decision{Direction: g.Direction, Tier: TierStuck, Target: head.Step(g.Direction)}
}

// EdgeTarget returns the wall cell farthest from the head on the axis
// perpendicular to the heading. Ties go to the left or top wall.
func EdgeTarget(g *engine.Grid) engine.Position {
	head := g.Head()
	if g.Direction.Vertical() {
		left := head.X
		right := g.Width - head.X - engine.CellSize
		if right > left {
			return engine.Position{X: g.Width - engine.CellSize, Y: head.Y}
		}
		return engine.Position{X: 0, Y: head.Y}
	}
	top := head.Y
	bottom := g.Height - head.Y - engine.CellSize
	if bottom > top {
		return engine.Position{X: head.X, Y: g.Height - engine.CellSize}
	}
	return engine.Position{X: head.X, Y: 0}
}
