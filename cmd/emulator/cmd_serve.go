package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/iuboy/hublog"
	"github.com/iuboy/hublog/config"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve GET /api/doit and /metrics",
	Long: `Start the emulator HTTP server.

Each GET /api/doit reads the sample file and logs every record at DEBUG
through the configured outputs. Without --config the emulator logs to the
console and to one Event Hubs output configured from EH_CONNECTION_STRING
and EH_NAME.`,
	Example: `  EH_CONNECTION_STRING=... EH_NAME=logs emulator serve --trigram ABC
  emulator serve --config hublog.yaml --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("config", "", "Logger config file (json, yaml or toml)")
	serveCmd.Flags().String("sample", "data/sample-data-emp.json", "Sample JSON array to log")
	serveCmd.Flags().String("trigram", "EMU", "Application trigram")
	serveCmd.Flags().String("application", "Emulator", "Application name")
	serveCmd.Flags().String("layer", "API", "Application layer")
	serveCmd.Flags().String("transport", string(config.AMQP), "Event Hubs transport (amqp or kafka)")
	serveCmd.Flags().Duration("send-timeout", config.DefaultSendTimeout, "Per-message send timeout")

	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("serve.config", serveCmd.Flags().Lookup("config"))
	viper.BindPFlag("serve.sample", serveCmd.Flags().Lookup("sample"))
	viper.BindPFlag("serve.trigram", serveCmd.Flags().Lookup("trigram"))
	viper.BindPFlag("serve.application", serveCmd.Flags().Lookup("application"))
	viper.BindPFlag("serve.layer", serveCmd.Flags().Lookup("layer"))
	viper.BindPFlag("serve.transport", serveCmd.Flags().Lookup("transport"))
	viper.BindPFlag("serve.send-timeout", serveCmd.Flags().Lookup("send-timeout"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loggerConfig()
	if err != nil {
		return err
	}
	if err := hublog.Init(cfg, hublog.WithEnv()); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer hublog.Close()

	logger := hublog.Logger()
	srv := &http.Server{
		Addr:              viper.GetString("serve.addr"),
		Handler:           newServer(logger, viper.GetString("serve.sample"), nil).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("emulator listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("emulator shutting down")
	return srv.Shutdown(shutdownCtx)
}

// loggerConfig 优先读取 --config，否则使用 console + eventhub 的默认配置
func loggerConfig() (config.LoggerConfig, error) {
	if path := viper.GetString("serve.config"); path != "" {
		return config.Load(path)
	}
	return defaultConfig(
		config.IdentityConfig{
			Trigram:     viper.GetString("serve.trigram"),
			Application: viper.GetString("serve.application"),
			Layer:       viper.GetString("serve.layer"),
		},
		config.TransportType(viper.GetString("serve.transport")),
		viper.GetDuration("serve.send-timeout"),
	), nil
}

func defaultConfig(id config.IdentityConfig, transport config.TransportType, timeout time.Duration) config.LoggerConfig {
	return config.LoggerConfig{
		ServiceName: "hublog-emulator",
		Outputs: []config.OutputConfig{
			{
				Type:     config.Stdout,
				Level:    config.InfoLevel,
				Encoding: config.Console,
				Enabled:  true,
			},
			{
				Type:    config.EventHub,
				Level:   config.DebugLevel,
				Enabled: true,
				EventHub: &config.EventHubConfig{
					Transport:   transport,
					SendTimeout: timeout,
					Identity:    id,
				},
			},
		},
	}
}
