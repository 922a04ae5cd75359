package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/pilot"
	"github.com/wricardo/mcp-training/snakegame/game/scores"
)

// DefaultAutoplayTicks is used when an autoplay request names no tick count
const DefaultAutoplayTicks = 100

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	pilot    *pilot.Pilot
	scores   ScoreStore
	mu       sync.Mutex
}

// NewGameService creates a new game service instance. p may be nil for a
// pilot without a classifier; store may be nil to disable high scores.
func NewGameService(sessions SessionManager, configs ConfigManager, p *pilot.Pilot, store ScoreStore) GameService {
	if p == nil {
		p = pilot.New(nil)
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		pilot:    p,
		scores:   store,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	configID := configName
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = config.Name
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info("Session created", "session", sess.ID, "config", configID, "variant", sess.Variant())
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Tick advances a classic game by one tick under the requested policy
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, req TickRequest) (*TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID, engine.VariantClassic)
	if err != nil {
		return nil, err
	}
	policy, err := pilot.ParsePolicy(req.Policy)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if req.Reset {
		s.resetSession(sess)
		events = append(events, resetEvent())
	}
	if sess.Engine.IsGameOver() {
		return nil, ErrGameOver
	}

	decision, err := s.pilot.Decide(ctx, sess.Engine.Grid(), pilot.Request{Policy: policy, Key: req.Direction})
	if err != nil {
		return nil, err
	}
	outcome := sess.Engine.Tick(decision.Direction, decision.Source)
	sess.Policy = string(policy)
	state := sess.Engine.GetState()

	events = append(events, tickEvents(decision, outcome, state)...)
	s.recordScore(ctx, sess)
	s.save(sessionID)

	return &TickResult{
		Success:   outcome.Applied,
		GameState: state,
		Message:   state.Message,
		Outcome:   outcome,
		Decision:  decision,
		Events:    events,
	}, nil
}

// Autoplay runs the autopilot or classifier until the game ends, the tick
// budget is spent or ctx is cancelled.
func (s *gameServiceImpl) Autoplay(ctx context.Context, sessionID string, req AutoplayRequest) (*AutoplayResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID, engine.VariantClassic)
	if err != nil {
		return nil, err
	}

	if req.Policy == "" {
		req.Policy = string(pilot.PolicyAutopilot)
	}
	policy, err := pilot.ParsePolicy(req.Policy)
	if err != nil {
		return nil, err
	}
	if policy == pilot.PolicyKeyboard {
		return nil, fmt.Errorf("%w: autoplay needs the autopilot or classifier policy", pilot.ErrUnknownPolicy)
	}
	if policy == pilot.PolicyClassifier && !s.pilot.HasOracle() {
		return nil, pilot.ErrNoOracle
	}

	requested := req.MaxTicks
	if requested <= 0 {
		requested = DefaultAutoplayTicks
	}
	result := &AutoplayResult{
		RequestedTicks: requested,
		Policy:         string(policy),
		Events:         []GameEvent{},
		Tiers:          map[string]int{},
	}
	limit := requested
	if limit > engine.MaxAutoplayTicks {
		limit = engine.MaxAutoplayTicks
		result.Truncated = true
		result.Limit = engine.MaxAutoplayTicks
	}

	if req.Reset {
		s.resetSession(sess)
		result.Events = append(result.Events, resetEvent())
	}
	if sess.Engine.IsGameOver() {
		return nil, ErrGameOver
	}

	result.StartPos = sess.Engine.GetHead()
	result.StartScore = sess.Engine.GetScore()
	sess.Policy = string(policy)

	for result.TicksExecuted < limit {
		if err := ctx.Err(); err != nil {
			result.StoppedReason = "cancelled"
			break
		}
		decision, err := s.pilot.Decide(ctx, sess.Engine.Grid(), pilot.Request{Policy: policy})
		if err != nil {
			return nil, err
		}
		outcome := sess.Engine.Tick(decision.Direction, decision.Source)
		result.TicksExecuted++

		if decision.LabelAccepted {
			result.Tiers[string(pilot.PolicyClassifier)]++
		} else if decision.Autopilot != nil {
			result.Tiers[string(decision.Autopilot.Tier)]++
		}
		if outcome.Ate {
			result.FoodEaten++
			result.Events = append(result.Events, GameEvent{
				Type:      "food",
				Message:   fmt.Sprintf("Food eaten on tick %d, score %d", result.TicksExecuted, outcome.Score),
				Timestamp: time.Now(),
				Position:  outcome.To,
			})
		}
		if outcome.GameOver {
			result.StoppedReason = "game_over"
			result.Events = append(result.Events, GameEvent{
				Type:      "game_over",
				Message:   sess.Engine.GetState().Message,
				Timestamp: time.Now(),
				Position:  outcome.To,
			})
			break
		}
	}
	if result.StoppedReason == "" {
		result.StoppedReason = "max_ticks"
	}

	state := sess.Engine.GetState()
	result.GameState = state
	result.EndPos = sess.Engine.GetHead()
	result.EndScore = state.Score
	result.ScoreDelta = result.EndScore - result.StartScore
	result.GameOver = state.GameOver
	result.DeathCause = state.DeathCause
	result.Message = state.Message

	s.recordScore(ctx, sess)
	s.save(sessionID)

	log.Debug("Autoplay finished", "session", sessionID, "ticks", result.TicksExecuted,
		"score", result.EndScore, "reason", result.StoppedReason)
	return result, nil
}

// Step applies one action to a reinforcement-learning session
func (s *gameServiceImpl) Step(ctx context.Context, sessionID string, action int, reset bool) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID, engine.VariantRL)
	if err != nil {
		return nil, err
	}
	if reset {
		sess.Env.Reset()
	}

	r := sess.Env.StepDetailed(action)
	s.save(sessionID)

	return &StepResult{
		Action:      action,
		Observation: r.Observation,
		Bits:        r.Observation.String(),
		Fields:      r.Fields,
		Reward:      r.Reward,
		Terminated:  r.Terminated,
		Ate:         r.Ate,
		Episode:     sess.Env.Episode(),
		Steps:       sess.Env.Steps(),
		TotalReward: sess.Env.TotalReward(),
		GameState:   sess.Env.State(),
	}, nil
}

// Reset resets the game for a session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	s.resetSession(sess)
	s.save(sessionID)
	return sess.State(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.State(), nil
}

// GetMoveHistory returns paginated tick history of a classic session
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID, engine.VariantClassic)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.TickHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// HighScores returns the best finished classic games
func (s *gameServiceImpl) HighScores(ctx context.Context, configName string, limit int) ([]scores.Score, error) {
	if s.scores == nil {
		return nil, ErrNoScoreStore
	}
	return s.scores.Top(ctx, configName, limit)
}

// session fetches a session and checks it plays variant
func (s *gameServiceImpl) session(sessionID string, variant engine.Variant) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	if sess.Variant() != variant {
		return nil, fmt.Errorf("%w: session %s plays %s", ErrWrongVariant, sess.ID, sess.Variant())
	}
	return sess, nil
}

func (s *gameServiceImpl) resetSession(sess *Session) {
	if sess.Env != nil {
		sess.Env.Reset()
		return
	}
	sess.Engine.Reset()
	sess.ScoreRecorded = false
}

// recordScore stores a finished classic game once
func (s *gameServiceImpl) recordScore(ctx context.Context, sess *Session) {
	if s.scores == nil || sess.Engine == nil || sess.ScoreRecorded || !sess.Engine.IsGameOver() {
		return
	}
	state := sess.Engine.GetState()
	_, err := s.scores.Record(ctx, scores.Score{
		SessionID:  sess.ID,
		ConfigName: sess.ConfigID,
		Score:      state.Score,
		Length:     state.Length,
		Moves:      state.CurrentMovesCount,
		Cause:      state.DeathCause,
		Policy:     sess.Policy,
	})
	if err != nil {
		log.Warn("Failed to record score", "session", sess.ID, "err", err)
		return
	}
	sess.ScoreRecorded = true
}

func (s *gameServiceImpl) save(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn("Failed to persist session", "session", sessionID, "err", err)
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		Variant:        sess.Variant(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.State(),
		GameConfig:     sess.Config,
	}
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Game reset to initial state",
		Timestamp: time.Now(),
	}
}

// tickEvents describes what a single tick did
func tickEvents(decision pilot.Decision, outcome engine.TickOutcome, state *engine.GameState) []GameEvent {
	now := time.Now()
	events := []GameEvent{{
		Type:      "tick",
		Message:   fmt.Sprintf("Moved %s to (%d,%d)", outcome.Direction, outcome.To.X, outcome.To.Y),
		Timestamp: now,
		Position:  outcome.To,
	}}
	if decision.LabelAccepted {
		events = append(events, GameEvent{
			Type:      "classifier",
			Message:   fmt.Sprintf("Classifier steered %s", decision.Direction),
			Timestamp: now,
		})
	}
	if outcome.Ate {
		events = append(events, GameEvent{
			Type:      "food",
			Message:   state.Message,
			Timestamp: now,
			Position:  outcome.To,
		})
	}
	if outcome.GameOver {
		events = append(events, GameEvent{
			Type:      "game_over",
			Message:   state.Message,
			Timestamp: now,
			Position:  outcome.To,
		})
	}
	return events
}
