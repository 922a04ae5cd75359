package qlearn

import (
	"context"

	"github.com/wricardo/mcp-training/snakegame/game/rlenv"
)

// EpisodeResult summarises one finished or truncated episode
type EpisodeResult struct {
	Episode     int     `json:"episode"`
	Steps       int     `json:"steps"`
	Score       int     `json:"score"`
	TotalReward float64 `json:"total_reward"`
	Epsilon     float64 `json:"epsilon"`
	Truncated   bool    `json:"truncated"`
}

// RunEpisode plays one episode on env, learning when learn is set.
// maxSteps <= 0 means no step limit.
func (a *Agent) RunEpisode(env *rlenv.Environment, maxSteps int, learn bool) EpisodeResult {
	obs := env.Reset()
	done := false
	for !done && (maxSteps <= 0 || env.Steps() < maxSteps) {
		var action int
		if learn {
			action = a.Act(obs)
		} else {
			action = a.Greedy(obs)
		}
		next, reward, terminated := env.Step(action)
		if learn {
			a.Update(obs, action, reward, next, terminated)
		}
		obs, done = next, terminated
	}

	result := EpisodeResult{
		Episode:     env.Episode(),
		Steps:       env.Steps(),
		Score:       env.Grid().Score,
		TotalReward: env.TotalReward(),
		Epsilon:     a.Epsilon,
		Truncated:   !done,
	}
	if learn {
		a.EndEpisode()
	}
	return result
}

// Train runs episodes until n are done or ctx is cancelled. report, if
// non-nil, is called after every episode.
func (a *Agent) Train(ctx context.Context, env *rlenv.Environment, n, maxSteps int, report func(EpisodeResult)) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := a.RunEpisode(env, maxSteps, true)
		if report != nil {
			report(result)
		}
	}
	return nil
}
