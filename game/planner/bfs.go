package planner

import "github.com/wricardo/mcp-training/snakegame/game/engine"

// step is one entry of the search arena. Parents are indices into the
// arena, so paths are never copied while the frontier grows.
type step struct {
	pos    engine.Position
	parent int
	first  engine.Direction
	depth  int
}

// FirstMove returns the first heading of a shortest safe path from start
// to target. Neighbours are expanded up, down, left, right; that order is
// the tie-break between paths of equal length. A path must contain at least
// one move, so start == target is reported as unreachable.
func FirstMove(g *engine.Grid, start, target engine.Position) (engine.Direction, bool) {
	found := search(g, start, target)
	if found == nil {
		return g.Direction, false
	}
	return found.first, true
}

// Distance returns the number of moves on a shortest safe path
func Distance(g *engine.Grid, start, target engine.Position) (int, bool) {
	found := search(g, start, target)
	if found == nil {
		return 0, false
	}
	return found.depth, true
}

// Path reconstructs the full shortest path (excluding start) by walking
// parent indices back from the target.
func Path(g *engine.Grid, start, target engine.Position) ([]engine.Position, bool) {
	arena, idx := searchArena(g, start, target)
	if idx < 0 {
		return nil, false
	}
	path := make([]engine.Position, arena[idx].depth)
	for i := idx; arena[i].parent >= 0; i = arena[i].parent {
		path[arena[i].depth-1] = arena[i].pos
	}
	return path, true
}

func search(g *engine.Grid, start, target engine.Position) *step {
	arena, idx := searchArena(g, start, target)
	if idx < 0 {
		return nil
	}
	return &arena[idx]
}

func searchArena(g *engine.Grid, start, target engine.Position) ([]step, int) {
	arena := []step{{pos: start, parent: -1}}
	visited := map[engine.Position]bool{start: true}

	for i := 0; i < len(arena); i++ {
		cur := arena[i]
		for _, d := range engine.Directions {
			next := cur.pos.Step(d)
			if visited[next] || !g.IsSafeMove(next) {
				continue
			}
			visited[next] = true

			first := d
			if cur.parent >= 0 {
				first = cur.first
			}
			arena = append(arena, step{pos: next, parent: i, first: first, depth: cur.depth + 1})
			if next == target {
				return arena, len(arena) - 1
			}
		}
	}
	return arena, -1
}
