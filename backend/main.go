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
)

// Actual version can be specified in build command.
var version = "unknown"

func main() {
	cmd, err := newRootCmd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() (*cobra.Command, error) {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:          appName,
		Short:        "compass-backend serves roommate matches, housing picks and the campus chat assistant",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := readConfigFile(v, cfgFile); err != nil {
				return fmt.Errorf("reading config: %w", err)
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is compass.yaml in current directory)")
	if err := bindFlags(rootCmd, v); err != nil {
		return nil, err
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", appName, version)
		},
	})
	return rootCmd, nil
}

// serve runs the HTTP server until ctx is cancelled.
func serve(ctx context.Context, cfg *Config) error {
	logger, err := newLogger(cfg.JSON, cfg.Debug)
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting the campus compass backend", zap.String("version", version), zap.String("env", cfg.Env))
	if cfg.JWTSecret == devJWTSecret {
		logger.Warn("using the development JWT secret")
	}

	cs, closeStore, err := openCatalogStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("opening catalog", zap.Error(err))
		return err
	}
	defer closeStore()

	a, err := newApp(ctx, cfg, cs, logger)
	if err != nil {
		logger.Error("initialising app", zap.Error(err))
		return err
	}

	srv := a.server()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
