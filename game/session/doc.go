// Package session keeps snake game sessions in memory and, optionally, on
// disk.
//
// Manager creates sessions with short random IDs (4 hex characters, matched
// case-insensitively) and hands every new game the shared random source
// used to place food. Each session holds either a classic engine or a
// reinforcement-learning environment, depending on its config's variant.
//
// FilePersistence writes one JSON file per session containing the config
// ID and the full GameState. Loading rebuilds the game from the named config
// and restores the saved state on top of it.
//
// Usage:
//
//	rng := engine.NewRandomSource(0)
//	persistence, err := session.NewFilePersistence("sessions", configManager, rng)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(rng, persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Warn("failed to load sessions", "err", err)
//	}
//
//	sess, err := manager.Create("", "classic", config)
package session
