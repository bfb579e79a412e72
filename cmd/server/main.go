package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fpp-modeler/backend/internal/api"
	"github.com/fpp-modeler/backend/internal/compiler"
	"github.com/fpp-modeler/backend/internal/config"
	"github.com/fpp-modeler/backend/internal/logging"
	"github.com/fpp-modeler/backend/internal/modeler"
	"github.com/fpp-modeler/backend/internal/session"
	"github.com/fpp-modeler/backend/internal/storage"
	"github.com/fpp-modeler/backend/internal/view"
	"github.com/fpp-modeler/backend/internal/web"
	"github.com/labstack/echo/v4"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// ConfigFileName is the system configuration file, looked up next to the
// executable unless FPP_MODELER_CONFIG names another path.
const ConfigFileName = "FPPModeler.config.xml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fpp-modeler: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}

	// An optional first argument names the project directory.
	var projectDir string
	if len(os.Args) > 1 {
		projectDir = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath, projectDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.New(cfg.Advanced.LogLevel, cfg.Advanced.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	// Model core
	invoker := compiler.NewInvoker(cfg.Model, compiler.NewOSRunner(cfg.ProjectDir),
		time.Duration(cfg.Advanced.CompilerTimeout)*time.Second, logger)
	model := modeler.NewManager(invoker, logger)

	styles, err := storage.NewLocalStore(cfg.Model.ViewStyleFileFolder)
	if err != nil {
		return fmt.Errorf("initializing style store: %w", err)
	}
	views := view.NewManager(model, styles, view.NewLayoutGenerator(cfg.Model.AutoLayout),
		cfg.Model.DefaultStyleFilePath, logger)
	loads := session.NewManager(model, logger)
	hub := api.NewEventHub(logger)

	model.Subscribe(func(modeler.Event) { views.InvalidateAll() })
	model.Subscribe(hub.Publish)

	// Load the project once at startup. A failure leaves an empty model the
	// user can reload from the front end after fixing the sources.
	if cfg.Model.FPPCompilerPath != "" {
		initial := loads.StartLoad()
		logger.Info("initial model load started", "session", initial.ID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				loads.CleanupOldSessions(session.SessionMaxAge)
			}
		}
	}()

	embeddedMode := web.HasEmbeddedFiles()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	origins := strings.Split(cfg.Server.AllowOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	if len(origins) == 1 && origins[0] == "" {
		origins = nil
	}

	api.SetupMiddleware(e, api.MiddlewareOptions{
		Logger:         logger,
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		Timeout:        time.Duration(cfg.Server.ReadTimeout) * time.Second,
		BodyLimit:      cfg.Server.BodyLimit,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   origins,
	})

	handlers := api.NewHandlers(&api.Dependencies{
		Model:     model,
		Loads:     loads,
		Views:     views,
		Styles:    styles,
		Hub:       hub,
		OutputDir: cfg.ProjectDir,
		Version:   Version,
	})
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register static routes", "error", err)
		} else {
			logger.Info("serving embedded frontend from binary")
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      e,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	mode := "Development"
	if embeddedMode {
		mode = "Air-Gapped (Embedded)"
	}
	logger.Info("FPP Modeler server starting",
		"version", Version,
		"build_time", BuildTime,
		"mode", mode,
		"config", configPath,
		"project", cfg.ProjectDir,
		"listen", "http://"+cfg.GetServerAddr(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	loads.Wait()
	return nil
}

func resolveConfigPath() (string, error) {
	if p := os.Getenv("FPP_MODELER_CONFIG"); p != "" {
		return p, nil
	}
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), ConfigFileName), nil
}
