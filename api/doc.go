// Package api provides the HTTP REST API for snake sessions.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Several sessions at once (?sessionIds=a,b or ?configName=classic)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/tick - One classic tick ({"direction": "w", "policy": "keyboard|autopilot|classifier", "reset": false})
//   - POST /api/sessions/{id}/autoplay - Many ticks ({"max_ticks": 100, "policy": "autopilot"})
//   - POST /api/sessions/{id}/step - One reinforcement-learning step ({"action": 0..3, "reset": false})
//   - POST /api/sessions/{id}/reset - Restart the game
//   - GET /api/sessions/{id}/history - Tick history (?page=1&limit=20&order=desc)
//
// Configuration:
//   - GET /api/configs - List configurations
//   - POST /api/configs - Save a configuration
//   - GET /api/configs/{name} - Get a configuration
//
// Other:
//   - GET /api/scores - High scores (?config=classic&limit=10)
//   - GET /ws?session={id} - WebSocket state stream
//   - GET /health - Liveness
//
// Errors are JSON objects {"error": "..."}. Unknown sessions and configs
// give 404; bad keys, policies, configs and variant mismatches 400; ticking
// a finished game 409; a missing classifier or score store 503.
//
// Successful tick, autoplay, step and reset calls are pushed to the
// session's WebSocket clients as state_update messages.
package api
