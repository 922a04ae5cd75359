package engine

import (
	"fmt"
	"strings"
)

// Direction is one of the four headings. The numeric values double as the
// RL action codes and the classifier's nominal heading codes.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every heading in search order (up, down, left, right).
// Planners and safe-move scans iterate this order as their tie-break.
var Directions = [4]Direction{Up, Down, Left, Right}

var directionNames = [4]string{"UP", "DOWN", "LEFT", "RIGHT"}

var opposites = [4]Direction{Up: Down, Down: Up, Left: Right, Right: Left}

var deltas = [4]Position{
	Up:    {X: 0, Y: -CellSize},
	Down:  {X: 0, Y: CellSize},
	Left:  {X: -CellSize, Y: 0},
	Right: {X: CellSize, Y: 0},
}

var keyBindings = map[string]Direction{
	"w": Up, "up": Up, "arrowup": Up,
	"s": Down, "down": Down, "arrowdown": Down,
	"a": Left, "left": Left, "arrowleft": Left,
	"d": Right, "right": Right, "arrowright": Right,
}

// Valid reports whether d is one of the four headings
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Opposite returns the reverse heading
func (d Direction) Opposite() Direction {
	if !d.Valid() {
		return d
	}
	return opposites[d]
}

// Delta returns the offset of one step in board units
func (d Direction) Delta() Position {
	if !d.Valid() {
		return Position{}
	}
	return deltas[d]
}

// Vertical reports whether d moves along the y axis
func (d Direction) Vertical() bool {
	return d == Up || d == Down
}

// MarshalText encodes the direction by name so JSON shows "UP" rather than 0
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(directionNames[d]), nil
}

// UnmarshalText accepts any spelling ParseDirection accepts
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, ok := ParseDirection(string(text))
	if !ok {
		return fmt.Errorf("invalid direction %q", string(text))
	}
	*d = parsed
	return nil
}

// ParseDirection parses "up", "DOWN", "Left", ... into a Direction
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UP":
		return Up, true
	case "DOWN":
		return Down, true
	case "LEFT":
		return Left, true
	case "RIGHT":
		return Right, true
	}
	return Up, false
}

// KeyDirection maps a keyboard key name (w/a/s/d or arrows) to a heading
func KeyDirection(key string) (Direction, bool) {
	d, ok := keyBindings[strings.ToLower(strings.TrimSpace(key))]
	return d, ok
}

// DirectionFromAction maps an RL action code 0..3 to a heading
func DirectionFromAction(action int) (Direction, bool) {
	d := Direction(action)
	return d, d.Valid()
}

// IsValidMove reports whether turning from current to next is allowed (no 180° turns)
func IsValidMove(current, next Direction) bool {
	return next.Valid() && next != current.Opposite()
}

// ResolveDirection returns requested unless it reverses current, in which case current is kept
func ResolveDirection(current, requested Direction) Direction {
	if !IsValidMove(current, requested) {
		return current
	}
	return requested
}
