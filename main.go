package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rawg-mcp-server/internal/application"
	"rawg-mcp-server/internal/domain"
	"rawg-mcp-server/internal/infrastructure"
)

type rootOptions struct {
	configPath string
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := rootOptions{}

	root := &cobra.Command{
		Use:           "rawg-mcp-server",
		Short:         "MCP server to access RAWG Video Games Database",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath,
		"path to YAML config file (defaults and environment variables are used when empty)")

	root.AddCommand(
		newServeCmd(&opts),
		newValidateCmd(&opts),
	)

	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := domain.LoadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			logger := mustBuildLogger(config.Logging.Level)
			defer func() { _ = logger.Sync() }()

			server, err := buildServer(config, logger, infrastructure.NewMetricsRegistry())
			if err != nil {
				logger.Error("failed to build server", zap.Error(err))
				return err
			}

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			logger.Info("starting MCP server",
				zap.String("transport", config.Transport.Type),
				zap.String("base_url", config.RAWG.BaseURL),
				zap.Duration("timeout", config.RAWG.Timeout()),
				zap.Duration("min_interval", config.RAWG.MinInterval()),
			)

			serveErr := server.Start(ctx)
			closeErr := server.Close()
			if err := errors.Join(serveErr, closeErr); err != nil {
				logger.Error("server stopped with error", zap.Error(err))
				return err
			}

			logger.Info("server shutdown complete")
			return nil
		},
	}
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := domain.LoadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid (transport: %s, base_url: %s)\n",
				config.Transport.Type, config.RAWG.BaseURL)
			return nil
		},
	}
}

// buildServer wires the catalog client, handlers, transport and logging for
// config.
func buildServer(config *domain.Config, logger *zap.Logger, registry *prometheus.Registry) (*application.Server, error) {
	metrics := infrastructure.NewPrometheusMetrics(registry)

	var interactions domain.InteractionLogger
	if config.Logging.InteractionLog != "" {
		fileLog, err := infrastructure.NewFileInteractionLog(config.Logging.InteractionLog)
		if err != nil {
			return nil, err
		}
		interactions = fileLog
	} else {
		interactions = infrastructure.NewLogInteractionLog(logger)
	}

	httpClient, err := domain.NewAPIKeyClient(config.RAWG.APIKey, config.RAWG.Timeout(), nil)
	if err != nil {
		_ = interactions.Close()
		return nil, err
	}

	client := infrastructure.NewCatalogClient(infrastructure.CatalogClientOptions{
		BaseURL:    config.RAWG.BaseURL,
		APIKey:     config.RAWG.APIKey,
		HTTPClient: httpClient,
		Limiter:    infrastructure.NewRateLimiter(config.RAWG.MinInterval(), nil),
		Logger:     logger,
		Metrics:    metrics,
	})

	handler, err := application.NewRAWGHandler(client, domain.NewShaper())
	if err != nil {
		_ = interactions.Close()
		return nil, err
	}
	router := application.NewRequestRouter(handler)

	var transport domain.Transport
	switch config.Transport.Type {
	case "stdio":
		transport = domain.NewStdioTransport(logger)
	case "http":
		transport = domain.NewHTTPTransport(domain.HTTPTransportOptions{
			Host:    config.Transport.HTTP.Host,
			Port:    config.Transport.HTTP.Port,
			Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			Logger:  logger,
		})
	default:
		_ = interactions.Close()
		return nil, fmt.Errorf("invalid transport type: %s", config.Transport.Type)
	}

	return application.NewServer(transport, router, domain.NewResponseMapper(), config, application.ServerOptions{
		Logger:       logger,
		Interactions: interactions,
		Metrics:      metrics,
	}), nil
}

// mustBuildLogger builds a JSON logger on stderr; stdout is reserved for the
// stdio transport.
func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
