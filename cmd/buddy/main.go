// Package main provides the entry point for the Buddy chat service
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/buddylabs/buddy/api"
	"github.com/buddylabs/buddy/pkg/chat"
	"github.com/buddylabs/buddy/pkg/config"
	"github.com/buddylabs/buddy/pkg/logger"
	"github.com/buddylabs/buddy/pkg/providers"
	"github.com/buddylabs/buddy/pkg/store"
	"github.com/buddylabs/buddy/pkg/users"
)

// Version information (set by build process)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	port        = flag.Int("port", 0, "Listen port (overrides config)")
	dbPath      = flag.String("db", "", "SQLite database path (overrides config)")
	watchConfig = flag.Bool("watch-config", false, "Reload configuration on file change")
	dumpConfig  = flag.Bool("dump-config", false, "Print the effective configuration and exit")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("buddy %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if *dumpConfig {
		out, err := cfg.ToYAML()
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}

	appLogger := logger.NewConsoleLogger(cfg.LogLevel)
	appLogger.Info("starting buddy", map[string]interface{}{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	})

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	repo, err := store.NewRepository(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			appLogger.Error("failed to close database", closeErr)
		}
	}()

	auth := users.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	accounts := users.NewManager(repo, auth, appLogger)
	facts := providers.NewSet(cfg.Providers)
	chatSvc := chat.NewService(repo, facts, appLogger)

	server := api.NewServer(cfg, appLogger, repo, accounts, auth, chatSvc)

	if *watchConfig && *configFile != "" {
		err := cfg.Watch(*configFile, func(fresh *config.Config) {
			appLogger.Info("configuration reloaded", map[string]interface{}{
				"log_level": fresh.LogLevel,
			})
		})
		if err != nil {
			appLogger.Warn("config watch unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return server.Start(ctx)
}

func loadConfig() (*config.Config, error) {
	cfg := config.New()

	if *configFile != "" {
		if err := cfg.FromFile(*configFile); err != nil {
			return nil, err
		}
	}

	cfg.FromEnv()

	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
