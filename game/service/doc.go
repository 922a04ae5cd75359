// Package service provides the business logic layer for the snake game.
//
// The service package implements:
//   - Multi-session game management over classic and rl sessions
//   - Tick, autoplay and step processing through the pilot
//   - Tick history with pagination
//   - High scores for finished classic games
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
// ScoreStore records finished games.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game core. A classic session owns an engine.GameEngine, an rl session
// an rlenv.Environment. Operations on the wrong kind of session return
// ErrWrongVariant; ticking a finished game returns ErrGameOver.
//
// Usage:
//
//	sessionMgr := session.NewManager(engine.NewRandomSource(0))
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, pilot.New(nil), nil)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Tick(ctx, info.ID, service.TickRequest{Policy: "autopilot"})
//
// Session Management:
//
// Sessions are identified by short case-insensitive IDs and keep independent
// game state. Sessions track creation time, last access time, and tick
// history.
package service
