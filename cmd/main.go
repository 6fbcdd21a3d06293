// Package main is the entry point for the model adapter service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/compresr/model-adapters/internal/adapters"
	"github.com/compresr/model-adapters/internal/clients"
	"github.com/compresr/model-adapters/internal/config"
	"github.com/compresr/model-adapters/internal/gateway"
	"github.com/compresr/model-adapters/internal/monitoring"
	"github.com/compresr/model-adapters/internal/store"
)

// Version is set at build time via ldflags.
var Version = "v0.1.0"

const appName = "model-adapters"

// loadEnvFiles loads .env from standard locations
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	configEnv := filepath.Join(homeDir, ".config", appName, ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Local .env can override
	_ = godotenv.Load()
}

func main() {
	loadEnvFiles()

	if len(os.Args) < 2 {
		printHelp(os.Stdout)
		os.Exit(2)
	}

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "serve", "start":
		runGatewayServer(args)
		return
	case "models", "list":
		err = runModels(os.Stdout, adapters.NewDefaultRegistry())
	case "resolve":
		err = runResolve(os.Stdout, adapters.NewDefaultRegistry(), args)
	case "prompt", "render":
		err = runPrompt(os.Stdout, adapters.NewDefaultRegistry(), args)
	case "invoke":
		err = runInvoke(os.Stdout, os.Stdin, args)
	case "version", "-v", "--version":
		fmt.Printf("%s %s\n", appName, Version)
		return
	case "help", "-h", "--help":
		printHelp(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printHelp(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveServeConfig resolves the config for the serve command.
// Checks: user flag -> filesystem locations -> embedded config.
// Returns raw bytes and source description.
func resolveServeConfig(userConfig string) ([]byte, string, error) {
	if userConfig != "" {
		data, err := os.ReadFile(userConfig)
		if err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", userConfig)
		}
		return data, userConfig, nil
	}

	var searchPaths []string
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".config", appName, "config.yaml"))
	}
	searchPaths = append(searchPaths, "configs/config.yaml")

	for _, path := range searchPaths {
		if data, err := os.ReadFile(path); err == nil {
			return data, path, nil
		}
	}

	if data, err := getEmbeddedConfig(defaultConfigName); err == nil {
		return data, "(embedded) config.yaml", nil
	}

	return nil, "", fmt.Errorf("no config file found. Specify -config path")
}

// loadConfig resolves and parses the configuration.
func loadConfig(userConfig string) (*config.Config, string, error) {
	data, source, err := resolveServeConfig(userConfig)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadFromBytes(data)
	if err != nil {
		return nil, source, fmt.Errorf("load %s: %w", source, err)
	}
	return cfg, source, nil
}

// newClients builds the AWS client factory from configuration.
func newClients(cfg *config.Config) *clients.Factory {
	return clients.NewFactory(clients.Options{
		Region:             cfg.AWS.Region,
		AccessKeyID:        cfg.AWS.AccessKeyID,
		SecretAccessKey:    cfg.AWS.SecretAccessKey,
		SessionToken:       cfg.AWS.SessionToken,
		BedrockEndpoint:    cfg.AWS.BedrockEndpoint,
		SageMakerEndpoints: cfg.SageMaker.Endpoints,
		Timeout:            cfg.AWS.Timeout,
	})
}

// newStore opens the configured usage ledger.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store.Type == config.StoreSQLite {
		return store.NewSQLiteStore(ctx, cfg.Store.Path, cfg.Store.Retention)
	}
	return store.NewMemoryStore(cfg.Store.Retention), nil
}

// runGatewayServer starts the HTTP server
func runGatewayServer(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args) // ExitOnError handles errors

	setupLogging(*debug)

	cfg, source, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logCfg := monitoring.LoggerConfig{
		Level:  cfg.Monitoring.LogLevel,
		Format: cfg.Monitoring.LogFormat,
		Output: cfg.Monitoring.LogOutput,
	}
	if *debug {
		logCfg.Level = "debug"
	}
	if logCfg.Level == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	monitoring.Global(logCfg)
	logger := monitoring.New(logCfg)

	log.Info().
		Str("version", Version).
		Str("config", source).
		Int("port", cfg.Server.Port).
		Str("region", cfg.AWS.Region).
		Str("store", cfg.Store.Type).
		Msg("model adapters starting")

	st, err := newStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open usage store")
	}

	gw := gateway.New(cfg, gateway.Deps{
		Clients: newClients(cfg),
		Store:   st,
		Logger:  logger,
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := gw.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("gateway shutdown error")
		}
	}()

	if err := gw.Start(); err != nil {
		log.Fatal().Err(err).Msg("gateway error")
	}

	log.Info().Msg("model adapters stopped")
}

// setupLogging configures zerolog for console output.
func setupLogging(debug bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
