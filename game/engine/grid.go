package engine

// Grid is the live board: snake body (head first), food and heading.
// It is not safe for concurrent use; callers serialise access per session.
type Grid struct {
	Width       int
	Height      int
	Body        []Position
	Food        Position
	FoodSpawned bool
	Direction   Direction
	Score       int
	Growing     bool

	rng RandomSource
}

// NewGrid builds a grid with a copy of body and places the first food
func NewGrid(width, height int, body []Position, dir Direction, growing bool, rng RandomSource) *Grid {
	g := &Grid{
		Width:     width,
		Height:    height,
		Body:      append([]Position(nil), body...),
		Direction: dir,
		Growing:   growing,
		rng:       rng,
	}
	g.RespawnFood()
	return g
}

// Head returns the first body segment
func (g *Grid) Head() Position {
	return g.Body[0]
}

// Len returns the number of body segments
func (g *Grid) Len() int {
	return len(g.Body)
}

// Cols returns the number of cell columns
func (g *Grid) Cols() int {
	return g.Width / CellSize
}

// Rows returns the number of cell rows
func (g *Grid) Rows() int {
	return g.Height / CellSize
}

// Move advances the head one cell in dir and reports whether food was eaten.
// Eating clears FoodSpawned and keeps the tail only on growing grids.
func (g *Grid) Move(dir Direction) bool {
	g.Direction = dir
	head := g.Head().Step(dir)

	g.Body = append(g.Body, Position{})
	copy(g.Body[1:], g.Body)
	g.Body[0] = head

	ate := head == g.Food
	if ate {
		g.FoodSpawned = false
	}
	if !ate || !g.Growing {
		g.Body = g.Body[:len(g.Body)-1]
	}
	return ate
}

// IsOutOfBounds reports whether p lies outside the playable area
func (g *Grid) IsOutOfBounds(p Position) bool {
	return p.X < 0 || p.X > g.Width-CellSize || p.Y < 0 || p.Y > g.Height-CellSize
}

// IsSelfCollision reports whether p hits the body, ignoring the tail which
// will have moved away by the time the head arrives.
func (g *Grid) IsSelfCollision(p Position) bool {
	for _, seg := range g.Body[:len(g.Body)-1] {
		if seg == p {
			return true
		}
	}
	return false
}

// IsSafeMove reports whether the head may enter p on the next tick
func (g *Grid) IsSafeMove(p Position) bool {
	return !g.IsOutOfBounds(p) && !g.IsSelfCollision(p)
}

// SafeMoves lists the headings whose next cell is safe, in search order
func (g *Grid) SafeMoves() []Direction {
	var safe []Direction
	head := g.Head()
	for _, d := range Directions {
		if g.IsSafeMove(head.Step(d)) {
			safe = append(safe, d)
		}
	}
	return safe
}

// Occupies reports whether any body segment, tail included, sits on p
func (g *Grid) Occupies(p Position) bool {
	for _, seg := range g.Body {
		if seg == p {
			return true
		}
	}
	return false
}

// HeadHitsBody reports whether the head overlaps any other segment
func (g *Grid) HeadHitsBody() bool {
	head := g.Head()
	for _, seg := range g.Body[1:] {
		if seg == head {
			return true
		}
	}
	return false
}

// Terminal reports whether the current position ends the game and why
func (g *Grid) Terminal() (bool, string) {
	if g.IsOutOfBounds(g.Head()) {
		return true, CauseWall
	}
	if g.HeadHitsBody() {
		return true, CauseSelf
	}
	return false, ""
}

// RespawnFood places food on a random cell. Row and column zero are never
// chosen and the body is not avoided.
func (g *Grid) RespawnFood() {
	g.Food = Position{
		X: (1 + g.rng.Intn(g.Cols()-1)) * CellSize,
		Y: (1 + g.rng.Intn(g.Rows()-1)) * CellSize,
	}
	g.FoodSpawned = true
}

// RefreshFood respawns food only after it has been eaten
func (g *Grid) RefreshFood() bool {
	if g.FoodSpawned {
		return false
	}
	g.RespawnFood()
	return true
}

// Snapshot returns a copy of the board safe to hand to other goroutines
func (g *Grid) Snapshot() Snapshot {
	return Snapshot{
		Width:       g.Width,
		Height:      g.Height,
		Snake:       append([]Position(nil), g.Body...),
		Food:        g.Food,
		FoodSpawned: g.FoodSpawned,
		Direction:   g.Direction,
		Score:       g.Score,
		Length:      len(g.Body),
	}
}

// Restore overwrites the board from a snapshot, keeping the random stream
func (g *Grid) Restore(s Snapshot) {
	g.Width = s.Width
	g.Height = s.Height
	g.Body = append([]Position(nil), s.Snake...)
	g.Food = s.Food
	g.FoodSpawned = s.FoodSpawned
	g.Direction = s.Direction
	g.Score = s.Score
}
