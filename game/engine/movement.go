package engine

import (
	"fmt"
	"time"
)

// advance applies one classic tick: steer, move, score, respawn food, then
// check whether the new head position ends the game.
func (gs *GameState) advance(g *Grid, config *GameConfig, requested Direction) TickOutcome {
	if gs.GameOver {
		return TickOutcome{Requested: requested, Direction: g.Direction, Score: g.Score, GameOver: true, Cause: gs.DeathCause}
	}

	dir := ResolveDirection(g.Direction, requested)
	from := g.Head()

	ate := g.Move(dir)
	if ate {
		g.Score += config.EatReward
		gs.TicksSinceFood = 0
		gs.Message = fmt.Sprintf(config.Messages.FoodEaten, g.Score)
	} else {
		g.Score -= config.TickCost
		gs.TicksSinceFood++
		gs.Message = ""
	}
	g.RefreshFood()

	gs.RecentMoves = append(gs.RecentMoves, dir)
	if len(gs.RecentMoves) > RecentMovesWindow {
		gs.RecentMoves = gs.RecentMoves[len(gs.RecentMoves)-RecentMovesWindow:]
	}

	if over, cause := g.Terminal(); over {
		gs.GameOver = true
		gs.DeathCause = cause
		if cause == CauseWall {
			gs.Message = config.Messages.HitWall
		} else {
			gs.Message = config.Messages.HitSelf
		}
	}

	return TickOutcome{
		Applied:   true,
		Requested: requested,
		Direction: dir,
		Reversed:  dir != requested,
		From:      from,
		To:        g.Head(),
		Ate:       ate,
		Score:     g.Score,
		GameOver:  gs.GameOver,
		Cause:     gs.DeathCause,
	}
}

// AddTickToHistory adds a tick to the game's move history
func (gs *GameState) AddTickToHistory(requested Direction, outcome TickOutcome, source string) {
	entry := TickHistoryEntry{
		Action:       requested.String(),
		Direction:    outcome.Direction,
		Source:       source,
		FromPosition: outcome.From,
		ToPosition:   outcome.To,
		Score:        outcome.Score,
		Ate:          outcome.Ate,
		GameOver:     outcome.GameOver,
		Timestamp:    time.Now().Unix(),
		MoveNumber:   gs.TotalMoves + 1,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	// Append to current segment history and increment its counter
	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}
