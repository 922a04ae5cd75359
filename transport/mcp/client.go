package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/scores"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

// Version is reported to MCP clients
const Version = "1.0.0"

// maxRenderCells caps the board edge drawn in text responses
const maxRenderCells = 48

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Snake Game",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Snake Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Two kinds of sessions exist:
- classic: steer the snake tick by tick, eat food (+100), every other tick costs 1 point.
- rl: a reinforcement-learning environment; send actions 0..3 and read back an 11-bit observation and a reward.

AVAILABLE TOOLS:
- create_session, get_session, list_sessions: manage sessions
- game_state: board, score and heading of a session
- tick: one classic tick, steered by a key (w/a/s/d, up/down/left/right) or a policy (autopilot, classifier)
- autoplay: let the autopilot (or classifier) play many ticks
- step: one rl step with action 0=UP 1=DOWN 2=LEFT 3=RIGHT
- reset_game: restart a session
- move_history: past ticks of a classic session
- list_configs: available configurations
- high_scores: best finished classic games
- game_instructions: rules in detail

The 'intent' parameter on tick and autoplay is for explaining your reasoning; the server ignores it.`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection (classic or rl built in)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Config to use (optional, defaults to the server default)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state with an ASCII board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tick",
		Description: "Advance a classic game by one tick. Reversing the snake is ignored; an empty direction keeps the heading.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "Key or heading: w/a/s/d, up/down/left/right. Under autopilot or classifier it turns the snake before planning",
				},
				"policy": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"keyboard", "autopilot", "classifier"},
					"description": "Who steers this tick (default keyboard)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why you chose this move",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before ticking",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "autoplay",
		Description: "Let the autopilot or classifier play up to max_ticks ticks, stopping at game over",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"max_ticks": map[string]interface{}{
					"type":        "integer",
					"description": "Ticks to play (default 100, capped by the server)",
				},
				"policy": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"autopilot", "classifier"},
					"description": "Who steers (default autopilot)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of what you expect",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before playing",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleAutoplay)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "step",
		Description: "Apply one reinforcement-learning action to an rl session and return observation and reward",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"action": map[string]interface{}{
					"type":        "integer",
					"enum":        []int{0, 1, 2, 3},
					"description": "0=UP 1=DOWN 2=LEFT 3=RIGHT",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Start a new episode before stepping",
				},
			},
			Required: []string{"session_id", "action"},
		},
	}, c.handleStep)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to initial state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get tick history for a classic session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Ticks per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "high_scores",
		Description: "Best finished classic games",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config": map[string]interface{}{
					"type":        "string",
					"description": "Only games of this config (optional)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "How many scores (default 10)",
				},
			},
		},
	}, c.handleHighScores)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler answers JSON-RPC messages posted to it
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications have no response
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	configID, _ := args["config_id"].(string)
	if configID == "" {
		configID, _ = args["config_name"].(string)
	}

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s (%s)\n", session.ID, session.ConfigName, session.Variant)
	if session.GameState != nil {
		result += "\n" + formatGameState(session.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		score := 0
		if s.GameState != nil {
			score = s.GameState.Score
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Variant: %s, Score: %d, Created: %s)\n",
			s.ID, s.ConfigName, s.Variant, score, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	policy, _ := args["policy"].(string)
	reset, _ := args["reset"].(bool)

	body := service.TickRequest{Direction: direction, Policy: policy, Reset: reset}

	var result service.TickResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/tick"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTickResult(&result)), nil
}

func (c *Client) handleAutoplay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	policy, _ := args["policy"].(string)
	reset, _ := args["reset"].(bool)
	maxTicks, _ := intArg(args, "max_ticks")

	body := service.AutoplayRequest{MaxTicks: maxTicks, Policy: policy, Reset: reset}

	var result service.AutoplayResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/autoplay"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAutoplayResult(sessionID, &result)), nil
}

func (c *Client) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	reset, _ := args["reset"].(bool)
	action, ok := intArg(args, "action")
	if !ok {
		return mcp.NewToolResultError("action is required (0=UP, 1=DOWN, 2=LEFT, 3=RIGHT)"), nil
	}

	body := map[string]interface{}{"action": action, "reset": reset}

	var result service.StepResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/step"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatStepResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		params.Set("order", order)
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Board: %dx%d cells, growing body: %v\n\n",
			cfg.ConfigID, cfg.Variant, cfg.Description,
			cfg.Width/engine.CellSize, cfg.Height/engine.CellSize, cfg.GrowingBody)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleHighScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	params := url.Values{}
	if cfg, _ := args["config"].(string); cfg != "" {
		params.Set("config", cfg)
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := "/api/scores"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response struct {
		Scores []scores.Score `json:"scores"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHighScores(response.Scores)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Snake Game - Instructions

BOARD:
• The board is measured in units; one cell is 10 units. The classic board is 480x480 (48x48 cells).
• x grows to the right, y grows downwards. (0,0) is the top-left cell.
• The snake starts with three segments heading RIGHT, head first.

CLASSIC RULES:
• Every tick the head moves one cell in the current heading.
• Asking for the opposite heading is ignored; the snake keeps going.
• Eating food: +100 points, the snake grows by one segment, new food appears.
• Any other tick: -1 point.
• Leaving the board or running into your own body ends the game.
• A finished game must be reset; its score goes to the high-score table.

KEYS (tick, keyboard policy):
• w / up / arrowup     → UP
• s / down / arrowdown → DOWN
• a / left / arrowleft → LEFT
• d / right / arrowright → RIGHT
• empty → keep heading

POLICIES:
• keyboard: you choose the key.
• autopilot: shortest safe path to the food; if there is none, a safe move along
  the food's axis; otherwise any safe move.
• classifier: an external model proposes a heading; it is used only if it is
  a known label that reverses neither the heading nor the autopilot's choice.

REINFORCEMENT-LEARNING SESSIONS (step):
• Actions: 0=UP 1=DOWN 2=LEFT 3=RIGHT.
• Observation (11 bits, most significant first):
  danger straight, danger right, danger left, food left, food right, food up,
  food down, heading (2 bits), distance bucket (2 bits).
• Reward: +10 for food, -30 for dying, +1 for getting closer, -1 for moving away,
  and -1 for each of the three cells ahead that lies off the board.
• A terminated episode needs reset=true.

STRATEGY:
1. Read game_state before moving; the board shows H head, o body, * food.
2. Prefer moves that keep open space around the head; the tail follows you.
3. autoplay is cheap: use it to watch the autopilot, then take over with tick.
`

// Formatters

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nConfig: %s\nVariant: %s\nCreated: %s\nLast Accessed: %s\n",
		session.ID, session.ConfigName, session.Variant,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	if session.GameState != nil {
		result += "\n" + formatGameState(session.GameState)
	}
	return result
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state"
	}

	var b strings.Builder
	if len(state.Snake) > 0 {
		head := state.Snake[0]
		fmt.Fprintf(&b, "Head: (%d,%d) heading %s\n", head.X, head.Y, state.Direction)
	}
	fmt.Fprintf(&b, "Food: (%d,%d)\n", state.Food.X, state.Food.Y)
	fmt.Fprintf(&b, "Score: %d\n", state.Score)
	fmt.Fprintf(&b, "Length: %d\n", state.Length)
	if state.Variant == engine.VariantRL {
		fmt.Fprintf(&b, "Episode: %d, Total reward: %.1f\n", state.Episode, state.TotalReward)
	} else {
		fmt.Fprintf(&b, "Ticks since food: %d\n", state.TicksSinceFood)
	}

	if state.GameOver {
		fmt.Fprintf(&b, "💀 GAME OVER (%s)\n", state.DeathCause)
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}

	if board := renderBoard(state); board != "" {
		b.WriteString("\nBoard:\n")
		b.WriteString(board)
	}
	return b.String()
}

// renderBoard draws the snapshot as text, one character per cell
func renderBoard(state *engine.GameState) string {
	cols, rows := state.Width/engine.CellSize, state.Height/engine.CellSize
	if cols <= 0 || rows <= 0 || cols > maxRenderCells || rows > maxRenderCells {
		return ""
	}

	cells := make([][]byte, rows)
	for y := range cells {
		cells[y] = bytes.Repeat([]byte{'.'}, cols)
	}
	put := func(p engine.Position, ch byte) {
		x, y := p.X/engine.CellSize, p.Y/engine.CellSize
		if x >= 0 && x < cols && y >= 0 && y < rows {
			cells[y][x] = ch
		}
	}

	put(state.Food, '*')
	for i := len(state.Snake) - 1; i >= 0; i-- {
		if i == 0 {
			put(state.Snake[i], 'H')
		} else {
			put(state.Snake[i], 'o')
		}
	}

	var b strings.Builder
	for _, row := range cells {
		b.Write(row)
		b.WriteByte('\n')
	}
	return b.String()
}

func formatTickResult(result *service.TickResult) string {
	o := result.Outcome
	d := result.Decision

	var b strings.Builder
	fmt.Fprintf(&b, "Tick: %s (%d,%d) → (%d,%d) via %s\n", o.Direction, o.From.X, o.From.Y, o.To.X, o.To.Y, d.Source)
	if o.Reversed {
		fmt.Fprintf(&b, "Requested %s would reverse the snake; kept heading %s\n", o.Requested, o.Direction)
	}
	if d.Autopilot != nil {
		fmt.Fprintf(&b, "Autopilot tier: %s\n", d.Autopilot.Tier)
	}
	if d.Label != "" {
		status := "rejected"
		if d.LabelAccepted {
			status = "accepted"
		}
		fmt.Fprintf(&b, "Classifier label: %s (%s)\n", d.Label, status)
	}
	if d.OracleError != "" {
		fmt.Fprintf(&b, "Classifier error: %s\n", d.OracleError)
	}
	if o.Ate {
		b.WriteString("🍎 Food eaten!\n")
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatAutoplayResult(sessionID string, result *service.AutoplayResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Autoplay (%s) on %s: %d/%d ticks", result.Policy, sessionID, result.TicksExecuted, result.RequestedTicks)
	if result.Truncated {
		fmt.Fprintf(&b, " (capped at %d)", result.Limit)
	}
	b.WriteString("\n")
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", result.StoppedReason)
	}
	fmt.Fprintf(&b, "Head: (%d,%d) → (%d,%d)\n", result.StartPos.X, result.StartPos.Y, result.EndPos.X, result.EndPos.Y)
	fmt.Fprintf(&b, "Score: %d → %d (Δ %+d), food eaten: %d\n", result.StartScore, result.EndScore, result.ScoreDelta, result.FoodEaten)

	if len(result.Tiers) > 0 {
		names := make([]string, 0, len(result.Tiers))
		for name := range result.Tiers {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, result.Tiers[name]))
		}
		fmt.Fprintf(&b, "Tiers: %s\n", strings.Join(parts, " "))
	}
	if result.GameOver {
		fmt.Fprintf(&b, "💀 GAME OVER (%s)\n", result.DeathCause)
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatStepResult(result *service.StepResult) string {
	f := result.Fields
	var b strings.Builder
	fmt.Fprintf(&b, "Action: %d (%s)\n", result.Action, engine.Direction(result.Action))
	fmt.Fprintf(&b, "Observation: %s\n", result.Bits)
	fmt.Fprintf(&b, "  danger straight/right/left: %v/%v/%v\n", f.DangerStraight, f.DangerRight, f.DangerLeft)
	fmt.Fprintf(&b, "  food left/right/up/down: %v/%v/%v/%v\n", f.FoodLeft, f.FoodRight, f.FoodUp, f.FoodDown)
	fmt.Fprintf(&b, "  heading code: %d, distance bucket: %d\n", f.Heading, f.DistanceBucket)
	fmt.Fprintf(&b, "Reward: %+.0f (episode total %.0f)\n", result.Reward, result.TotalReward)
	fmt.Fprintf(&b, "Episode %d, step %d\n", result.Episode, result.Steps)
	if result.Ate {
		b.WriteString("🍎 Food eaten!\n")
	}
	if result.Terminated {
		b.WriteString("💀 Episode terminated; step with reset=true to start again\n")
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tick History (Page %d/%d, Total: %d)\n\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		mark := ""
		if m.Ate {
			mark = " 🍎"
		}
		if m.GameOver {
			mark += " 💀"
		}
		fmt.Fprintf(&b, "#%d %s [%s] (%d,%d)→(%d,%d) score %d%s\n",
			m.MoveNumber, m.Direction, m.Source,
			m.FromPosition.X, m.FromPosition.Y, m.ToPosition.X, m.ToPosition.Y, m.Score, mark)
	}
	if history.HasNext {
		b.WriteString("\nMore ticks on the next page.\n")
	}
	return b.String()
}

func formatHighScores(top []scores.Score) string {
	if len(top) == 0 {
		return "No finished games yet."
	}
	var b strings.Builder
	b.WriteString("High Scores:\n\n")
	for i, s := range top {
		fmt.Fprintf(&b, "%2d. %5d  len %-3d %4d ticks  %-8s %-10s %s (%s)\n",
			i+1, s.Score, s.Length, s.Moves, s.ConfigName, s.Policy, s.Cause, s.SessionID)
	}
	return b.String()
}
