// Package websocket streams snake game state to browsers and lets them steer.
//
// A central Hub keeps the connected clients of each session. Every client
// gets a read and a write goroutine; the hub's Run loop owns registration
// and fan-out.
//
// Clients connect with ?session=<id>. Outgoing messages are JSON:
//
//	{"session_id":"ab12","event":"state_update","game_state":{...}}
//	{"session_id":"ab12","event":"food","data":{...}}
//	{"session_id":"ab12","event":"error","error":"unknown key \"q\""}
//
// Incoming messages are commands handled by the CommandHandler given to NewHub:
//
//	{"action":"tick","direction":"w"}
//	{"action":"tick","policy":"autopilot"}
//	{"action":"reset"}
//
// A successful command is answered with a state_update to every client of
// the session; a failed one with an error to the sender only.
//
// Usage:
//
//	hub := websocket.NewHub(handler)
//	go hub.Run(ctx)
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
