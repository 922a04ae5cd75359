package rlenv

import (
	"fmt"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// Observation is the 11-bit state handed to agents. From the most
// significant bit down: danger straight, danger right, danger left, food
// left, food right, food up, food down, heading (2 bits), distance bucket
// (2 bits).
type Observation uint16

const (
	// ObservationBits is the width of an Observation
	ObservationBits = 11
	// NumStates is the number of distinct observations
	NumStates = 1 << ObservationBits
)

const (
	bitDangerStraight = 10 - iota
	bitDangerRight
	bitDangerLeft
	bitFoodLeft
	bitFoodRight
	bitFoodUp
	bitFoodDown
	shiftHeading = 2
	shiftBucket  = 0
)

// ObservationFields is the unpacked form of an Observation
type ObservationFields struct {
	DangerStraight bool `json:"danger_straight"`
	DangerRight    bool `json:"danger_right"`
	DangerLeft     bool `json:"danger_left"`
	FoodLeft       bool `json:"food_left"`
	FoodRight      bool `json:"food_right"`
	FoodUp         bool `json:"food_up"`
	FoodDown       bool `json:"food_down"`
	Heading        int  `json:"heading"`
	DistanceBucket int  `json:"distance_bucket"`
}

// Pack encodes fields into an Observation. Heading and bucket are masked to two bits.
func Pack(f ObservationFields) Observation {
	var o Observation
	set := func(bit int, v bool) {
		if v {
			o |= 1 << bit
		}
	}
	set(bitDangerStraight, f.DangerStraight)
	set(bitDangerRight, f.DangerRight)
	set(bitDangerLeft, f.DangerLeft)
	set(bitFoodLeft, f.FoodLeft)
	set(bitFoodRight, f.FoodRight)
	set(bitFoodUp, f.FoodUp)
	set(bitFoodDown, f.FoodDown)
	o |= Observation(f.Heading&3) << shiftHeading
	o |= Observation(f.DistanceBucket&3) << shiftBucket
	return o
}

// Fields decodes every field of o
func (o Observation) Fields() ObservationFields {
	return ObservationFields{
		DangerStraight: o.DangerStraight(),
		DangerRight:    o.DangerRight(),
		DangerLeft:     o.DangerLeft(),
		FoodLeft:       o.FoodLeft(),
		FoodRight:      o.FoodRight(),
		FoodUp:         o.FoodUp(),
		FoodDown:       o.FoodDown(),
		Heading:        o.HeadingCode(),
		DistanceBucket: o.DistanceBucket(),
	}
}

func (o Observation) bit(n int) bool { return o&(1<<n) != 0 }

func (o Observation) DangerStraight() bool { return o.bit(bitDangerStraight) }
func (o Observation) DangerRight() bool    { return o.bit(bitDangerRight) }
func (o Observation) DangerLeft() bool     { return o.bit(bitDangerLeft) }
func (o Observation) FoodLeft() bool       { return o.bit(bitFoodLeft) }
func (o Observation) FoodRight() bool      { return o.bit(bitFoodRight) }
func (o Observation) FoodUp() bool         { return o.bit(bitFoodUp) }
func (o Observation) FoodDown() bool       { return o.bit(bitFoodDown) }

// HeadingCode returns the 2-bit heading (0 up, 1 right, 2 down, 3 left)
func (o Observation) HeadingCode() int { return int(o>>shiftHeading) & 3 }

// Heading returns the heading as a Direction
func (o Observation) Heading() engine.Direction { return headingByCode[o.HeadingCode()] }

// DistanceBucket returns the 2-bit food distance bucket
func (o Observation) DistanceBucket() int { return int(o>>shiftBucket) & 3 }

// Index returns o as a table index in [0, NumStates)
func (o Observation) Index() int { return int(o) & (NumStates - 1) }

func (o Observation) String() string {
	return fmt.Sprintf("%011b", uint16(o))
}

// Headings are numbered clockwise from up in the observation
var (
	headingCodes  = [4]int{engine.Up: 0, engine.Right: 1, engine.Down: 2, engine.Left: 3}
	headingByCode = [4]engine.Direction{engine.Up, engine.Right, engine.Down, engine.Left}
)

// HeadingCode returns the observation code of d
func HeadingCode(d engine.Direction) int {
	return headingCodes[d]
}

// DistanceBucket buckets the Manhattan distance between head and food in cells
func DistanceBucket(head, food engine.Position) int {
	cells := engine.ManhattanDistance(head, food) / engine.CellSize
	switch {
	case cells <= 3:
		return 0
	case cells <= 8:
		return 1
	case cells <= 15:
		return 2
	default:
		return 3
	}
}

// LookAhead returns the cells straight ahead, to the right and to the left
// of head for heading d. The turns are computed in a y-up frame, so on the
// y-down board the "right" of a rightward heading is the cell above.
func LookAhead(head engine.Position, d engine.Direction) (straight, right, left engine.Position) {
	delta := d.Delta()
	dx, dy := delta.X, delta.Y
	straight = engine.Position{X: head.X + dx, Y: head.Y + dy}
	right = engine.Position{X: head.X + dy, Y: head.Y - dx}
	left = engine.Position{X: head.X - dy, Y: head.Y + dx}
	return straight, right, left
}

// Encode builds the observation of g. Danger counts walls and every body
// segment including the tail.
func Encode(g *engine.Grid) Observation {
	head := g.Head()
	straight, right, left := LookAhead(head, g.Direction)
	danger := func(p engine.Position) bool {
		return g.IsOutOfBounds(p) || g.Occupies(p)
	}

	return Pack(ObservationFields{
		DangerStraight: danger(straight),
		DangerRight:    danger(right),
		DangerLeft:     danger(left),
		FoodLeft:       g.Food.X < head.X,
		FoodRight:      g.Food.X > head.X,
		FoodUp:         g.Food.Y < head.Y,
		FoodDown:       g.Food.Y > head.Y,
		Heading:        HeadingCode(g.Direction),
		DistanceBucket: DistanceBucket(head, g.Food),
	})
}
