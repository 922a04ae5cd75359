// Package scores records finished classic games in a sqlite database and
// serves the leaderboard.
package scores
