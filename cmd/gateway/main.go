package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/kidylee/incubator-opendal/common"
	"github.com/kidylee/incubator-opendal/handle"
	"github.com/kidylee/incubator-opendal/httpserver"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "config",
		Value: "",
		Usage: "YAML config file, overridden by flags set on the command line",
	},
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for API",
	},
	&cli.StringFlag{
		Name:  "metrics-addr",
		Value: "127.0.0.1:8090",
		Usage: "address to listen on for Prometheus metrics",
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
	&cli.BoolFlag{
		Name:  "log-uid",
		Value: false,
		Usage: "generate a uuid and add to all log messages",
	},
	&cli.StringFlag{
		Name:  "log-service",
		Value: "storage-gateway",
		Usage: "add 'service' tag to logs",
	},
	&cli.BoolFlag{
		Name:  "pprof",
		Value: false,
		Usage: "enable pprof debug endpoint",
	},
	&cli.Int64Flag{
		Name:  "drain-seconds",
		Value: 45,
		Usage: "seconds to wait in drain HTTP request",
	},
}

// fileConfig mirrors the flag set for deployments that prefer a config
// file over a long command line.
type fileConfig struct {
	ListenAddr   string `mapstructure:"listen_addr" validate:"omitempty,hostname_port"`
	MetricsAddr  string `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	LogJSON      bool   `mapstructure:"log_json"`
	LogDebug     bool   `mapstructure:"log_debug"`
	LogService   string `mapstructure:"log_service"`
	Pprof        bool   `mapstructure:"pprof"`
	DrainSeconds int64  `mapstructure:"drain_seconds" validate:"gte=0"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg fileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func main() {
	app := &cli.App{
		Name:  "gateway",
		Usage: "Serve the storage access layer over HTTP",
		Flags: flags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String("listen-addr")
			metricsAddr := cCtx.String("metrics-addr")
			logJSON := cCtx.Bool("log-json")
			logDebug := cCtx.Bool("log-debug")
			logUID := cCtx.Bool("log-uid")
			logService := cCtx.String("log-service")
			enablePprof := cCtx.Bool("pprof")
			drainSeconds := cCtx.Int64("drain-seconds")

			// Values from the config file apply wherever the flag was
			// left at its default.
			if configPath := cCtx.String("config"); configPath != "" {
				cfg, err := loadFileConfig(configPath)
				if err != nil {
					return err
				}
				if !cCtx.IsSet("listen-addr") && cfg.ListenAddr != "" {
					listenAddr = cfg.ListenAddr
				}
				if !cCtx.IsSet("metrics-addr") && cfg.MetricsAddr != "" {
					metricsAddr = cfg.MetricsAddr
				}
				if !cCtx.IsSet("log-json") {
					logJSON = cfg.LogJSON
				}
				if !cCtx.IsSet("log-debug") {
					logDebug = cfg.LogDebug
				}
				if !cCtx.IsSet("log-service") && cfg.LogService != "" {
					logService = cfg.LogService
				}
				if !cCtx.IsSet("pprof") {
					enablePprof = cfg.Pprof
				}
				if !cCtx.IsSet("drain-seconds") && cfg.DrainSeconds != 0 {
					drainSeconds = cfg.DrainSeconds
				}
			}

			// Setup logger
			logger := common.SetupLogger(&common.LoggingOpts{
				Debug:   logDebug,
				JSON:    logJSON,
				Service: logService,
				Version: common.Version,
			})

			if logUID {
				id := uuid.Must(uuid.NewRandom())
				logger = logger.With("uid", id.String())
			}

			cfg := &httpserver.HTTPServerConfig{
				ListenAddr:               listenAddr,
				MetricsAddr:              metricsAddr,
				Log:                      logger,
				EnablePprof:              enablePprof,
				DrainDuration:            time.Duration(drainSeconds) * time.Second,
				GracefulShutdownDuration: 30 * time.Second,
				ReadTimeout:              60 * time.Second,
				WriteTimeout:             30 * time.Second,
			}

			handler := httpserver.NewHandler(handle.NewRegistry(logger), logger)

			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server")
			server.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
