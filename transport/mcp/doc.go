// Package mcp exposes the snake REST API as Model Context Protocol tools.
//
// The client holds no game state. Every tool call is proxied to the REST
// server and the JSON answer is rendered as text an agent can read,
// including a small board drawing (H head, o body, * food) for boards up
// to 48x48 cells.
//
// Tools:
//   - create_session, get_session, list_sessions
//   - game_state: board, score and heading
//   - tick: one classic tick steered by a key or a policy
//   - autoplay: many ticks driven by the autopilot or classifier
//   - step: one reinforcement-learning step (action 0..3)
//   - reset_game, move_history, list_configs, high_scores
//   - game_instructions: rules, keys, rewards
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST JSON-RPC messages to client.HTTPHandler()
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	router.Handle("/mcp", client.HTTPHandler())
package mcp
