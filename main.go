// Command snakegame starts the Snake game server.
//
// It supports two modes:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags (or the matching environment variables, optionally from a .env file)
// control host/port, config and session directories, the high-score database,
// the direction classifier, and optional ngrok tunneling for external access
// during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/snakegame/api"
	"github.com/wricardo/mcp-training/snakegame/game/classifier"
	"github.com/wricardo/mcp-training/snakegame/game/config"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/pilot"
	"github.com/wricardo/mcp-training/snakegame/game/scores"
	"github.com/wricardo/mcp-training/snakegame/game/service"
	"github.com/wricardo/mcp-training/snakegame/game/session"
	"github.com/wricardo/mcp-training/snakegame/transport/mcp"
	"github.com/wricardo/mcp-training/snakegame/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Snake Game Server"
)

const (
	sessionMaxAge       = 24 * time.Hour
	sessionCleanupEvery = time.Hour
	filesystemSyncEvery = 5 * time.Second
)

// options is everything the flags decide
type options struct {
	Host        string
	Port        int
	ConfigDir   string
	SessionsDir string
	ScoresDB    string
	Seed        int64

	ClassifierURL     string
	ClassifierTimeout time.Duration
	ClassifierModel   string
	ClassifierInput   string
	ClassifierOutput  string

	NgrokEnabled bool
	NgrokAuth    string
	NgrokDomain  string

	APIURL string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// services holds the wired game stack and whatever must be closed on exit
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence *session.FilePersistence
	closers     []io.Closer
}

func (s *services) Close() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.Warn("Failed to save sessions", "err", err)
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Warn("Close failed", "err", err)
		}
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
		&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for persisted sessions", Sources: cli.EnvVars("SESSIONS_DIR")},
		&cli.StringFlag{Name: "scores-db", Value: "scores.db", Usage: "SQLite high-score database (empty disables high scores)", Sources: cli.EnvVars("SCORES_DB")},
		&cli.IntFlag{Name: "seed", Usage: "Food placement seed (0 uses the clock)", Sources: cli.EnvVars("SNAKE_SEED")},
		&cli.StringFlag{Name: "classifier-url", Usage: "HTTP direction classifier endpoint", Sources: cli.EnvVars("CLASSIFIER_URL")},
		&cli.DurationFlag{Name: "classifier-timeout", Value: classifier.DefaultTimeout, Usage: "HTTP classifier timeout", Sources: cli.EnvVars("CLASSIFIER_TIMEOUT")},
		&cli.StringFlag{Name: "classifier-model", Usage: "ONNX direction classifier model", Sources: cli.EnvVars("CLASSIFIER_MODEL")},
		&cli.StringFlag{Name: "classifier-input", Value: "input", Usage: "ONNX model input name", Sources: cli.EnvVars("CLASSIFIER_INPUT")},
		&cli.StringFlag{Name: "classifier-output", Value: "output", Usage: "ONNX model output name", Sources: cli.EnvVars("CLASSIFIER_OUTPUT")},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
	}
}

func readOptions(cmd *cli.Command) options {
	return options{
		Host:              cmd.String("host"),
		Port:              int(cmd.Int("port")),
		ConfigDir:         cmd.String("config-dir"),
		SessionsDir:       cmd.String("sessions-dir"),
		ScoresDB:          cmd.String("scores-db"),
		Seed:              int64(cmd.Int("seed")),
		ClassifierURL:     cmd.String("classifier-url"),
		ClassifierTimeout: cmd.Duration("classifier-timeout"),
		ClassifierModel:   cmd.String("classifier-model"),
		ClassifierInput:   cmd.String("classifier-input"),
		ClassifierOutput:  cmd.String("classifier-output"),
		NgrokEnabled:      cmd.Bool("ngrok"),
		NgrokAuth:         cmd.String("ngrok-auth"),
		NgrokDomain:       cmd.String("ngrok-domain"),
		APIURL:            cmd.String("api-url"),
	}
}

func newApp() *cli.Command {
	serve := &cli.Command{
		Name:  "serve",
		Usage: "Run HTTP server with API, WebSocket, and MCP endpoint",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runHTTPServer(ctx, readOptions(cmd))
		},
	}

	stdio := &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Run MCP stdio server, using an external HTTP API if one answers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "External API to try first", Sources: cli.EnvVars("SNAKE_API_URL")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStdioMCP(ctx, readOptions(cmd))
		},
	}

	return &cli.Command{
		Name:     "snakegame",
		Usage:    AppName,
		Version:  Version,
		Flags:    flags(),
		Commands: []*cli.Command{serve, stdio},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
				log.SetReportCaller(true)
			}
			return ctx, nil
		},
		Action: serve.Action,
	}
}

// main loads .env, parses flags and runs the selected mode
func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("Error loading .env file", "err", err)
		}
	} else {
		log.Info("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal("Server failed", "err", err)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, opts options) error {
	log.Info("Starting", "app", AppName, "version", Version, "mode", "serve")

	svc, err := initializeServices(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go svc.runMaintenance(ctx)

	addr := opts.addr()
	handler := newHandler(ctx, svc.game, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info("HTTP server listening", "addr", addr)
		log.Info("Endpoints",
			"api", fmt.Sprintf("http://%s/api", addr),
			"ws", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	if opts.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, opts, handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err = <-serveErr:
		log.Error("HTTP server failed", "err", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", "err", err)
	}

	wg.Wait()
	log.Info("Server stopped")
	return err
}

// newHandler builds the API router with a running hub and the /mcp endpoint
// proxying to baseURL. The hub stops when ctx is done.
func newHandler(ctx context.Context, gameService service.GameService, baseURL string) http.Handler {
	hub := websocket.NewHub(api.CommandHandler(gameService))
	go hub.Run(ctx)

	apiServer := api.NewServer(gameService, hub)
	apiServer.Handle("/mcp", mcp.NewClient(baseURL).HTTPHandler())
	return apiServer
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, opts options, handler http.Handler) {
	if opts.NgrokAuth == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.Info("Using custom ngrok domain", "domain", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		log.Error("Failed to start ngrok tunnel", "err", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn("Failed to close ngrok tunnel", "err", err)
		}
	}()

	url := tun.URL()
	log.Info("🚀 Ngrok tunnel established", "url", url)
	log.Info("Ngrok endpoints",
		"api", url+"/api",
		"ws", url+"/ws?session=<session_id>",
		"mcp", url+"/mcp")

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Error("Ngrok server error", "err", err)
	}
	log.Info("Ngrok tunnel closed")
}

// initializeServices wires the config and session managers, the pilot with
// its optional classifier, the high-score store and the game service.
func initializeServices(opts options) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	rng := engine.NewRandomSource(opts.Seed)

	persistence, err := session.NewFilePersistence(opts.SessionsDir, configManager, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(rng, persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warn("Failed to load persisted sessions", "err", err)
	}

	svc := &services{
		sessions:    sessionManager,
		persistence: persistence,
	}

	oracle, closer, err := newOracle(opts)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		svc.closers = append(svc.closers, closer)
	}

	// A nil *scores.Store must not become a non-nil interface
	var store service.ScoreStore
	if opts.ScoresDB != "" {
		s, err := scores.NewStore(opts.ScoresDB)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("failed to open high scores: %w", err)
		}
		store = s
		svc.closers = append(svc.closers, s)
		log.Info("High scores enabled", "db", opts.ScoresDB)
	}

	svc.game = service.NewGameService(sessionManager, configManager, pilot.New(oracle), store)
	return svc, nil
}

// newOracle picks the ONNX model when one is configured, else the HTTP
// classifier, else none. The closer is nil when nothing needs releasing.
func newOracle(opts options) (classifier.Oracle, io.Closer, error) {
	switch {
	case opts.ClassifierModel != "":
		oracle, err := classifier.NewONNXOracle(opts.ClassifierModel, opts.ClassifierInput, opts.ClassifierOutput)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load classifier model: %w", err)
		}
		log.Info("Classifier enabled", "model", opts.ClassifierModel)
		return oracle, oracle, nil
	case opts.ClassifierURL != "":
		log.Info("Classifier enabled", "url", opts.ClassifierURL)
		return classifier.NewHTTPOracle(opts.ClassifierURL, opts.ClassifierTimeout), nil, nil
	}
	return nil, nil, nil
}

// runMaintenance prunes stale sessions hourly and drops sessions whose
// files were deleted, until ctx is done.
func (s *services) runMaintenance(ctx context.Context) {
	cleanup := time.NewTicker(sessionCleanupEvery)
	defer cleanup.Stop()
	fsSync := time.NewTicker(filesystemSyncEvery)
	defer fsSync.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanup.C:
			if removed := s.sessions.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				log.Info("Cleaned up expired sessions", "count", removed)
			}
		case <-fsSync.C:
			s.syncWithFilesystem()
		}
	}
}

// syncWithFilesystem removes sessions from memory when their files are gone
func (s *services) syncWithFilesystem() int {
	pruned := 0
	for _, sess := range s.sessions.List() {
		if s.persistence.Exists(sess.ID) {
			continue
		}
		if err := s.sessions.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Debug("Pruned session from memory (file deleted)", "session", sess.ID)
		}
	}
	if pruned > 0 {
		log.Info("Filesystem sync pruned orphaned sessions", "count", pruned)
	}
	return pruned
}

// runStdioMCP runs an MCP stdio server. It reuses the API at opts.APIURL when
// it answers; otherwise it starts an internal HTTP API on a random loopback
// port and targets that.
func runStdioMCP(ctx context.Context, opts options) error {
	baseURL := opts.APIURL
	log.Info("Checking for external API server", "url", baseURL)

	if !apiAvailable(baseURL) {
		log.Info("No external API server found, starting internal HTTP server")

		svc, err := initializeServices(opts)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svc.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go svc.runMaintenance(ctx)

		httpServer := &http.Server{Handler: newHandler(ctx, svc.game, baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Error("Internal HTTP server error", "err", err)
			}
		}()
		defer httpServer.Close()

		log.Info("MCP stdio server ready (using internal HTTP server)", "url", baseURL)
	} else {
		log.Info("MCP stdio server ready (using external HTTP server)", "url", baseURL)
	}

	return server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer())
}

// apiAvailable reports whether a snake API answers at baseURL
func apiAvailable(baseURL string) bool {
	if baseURL == "" {
		return false
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
