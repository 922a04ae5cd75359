// Package config loads snake game configurations from a directory of JSON
// files.
//
// A configuration names the variant it drives (classic or rl), the board
// size in board units (multiples of 10), whether the body grows on eating,
// the scoring constants, the starting body and heading, and the messages
// shown to players. Every file is defaulted and validated on load; invalid
// files are skipped when listing.
//
// The built-in "classic" and "rl" configurations are always available and
// a file with the same name replaces them. classic is the default.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	small, err := manager.LoadConfig("small")
//	configs, err := manager.ListConfigs()
package config
