// Package engine provides the core game model for the snake game.
//
// The engine package implements the board mechanics including:
//   - Grid-aligned movement with a head-first body
//   - Direction resolution that ignores 180° turns
//   - Wall and self-collision detection
//   - Food placement from an injected random stream
//   - Classic scoring (reward per food, cost per tick) and move history
//   - Configuration loading and validation
//
// Core Types:
//
// Grid is the live board shared by every policy: planners, classifier
// oracles and the reinforcement-learning environment all read it.
// GameEngine wraps a Grid with classic game rules. GameState is the JSON view
// of an engine; GetState hands out copies, so a state can be encoded on
// another goroutine while the engine keeps ticking. GameConfig defines board
// size, starting snake and scoring, parsed from JSON by ParseGameConfig.
//
// Usage:
//
//	data, err := os.ReadFile("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	config, err := engine.ParseGameConfig(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config, engine.NewRandomSource(0))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	outcome := gameEngine.Tick(engine.Up, "keyboard")
//	state := gameEngine.GetState()
//
// Game Rules:
//
// The snake moves one cell per tick in its current heading. Eating food
// scores the configured reward and, on growing boards, lengthens the snake.
// Every other tick costs the configured tick cost. Leaving the board or
// running the head into the body ends the game.
package engine
