package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/config"
)

var (
	cfgFile   string
	logCloser io.Closer
	version   = "dev"
	rootCmd   = &cobra.Command{
		Use:   "arcwise",
		Short: "🔀 Agentic payment request pipeline",
		Long: `arcwise routes natural-language payment requests through a chain of
agents: an analyzer classifies the request, a decision agent approves,
escalates or rejects it, a validator scores escalated transfers for risk,
and an executor settles what was approved.`,
		SilenceUsage:       true,
		PersistentPreRunE:  initConfig,
		PersistentPostRunE: closeLogging,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/arcwise/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("log-file", "", "also append logs to this file")
	rootCmd.PersistentFlags().String("provider", "", "LLM provider (openai, anthropic, offline)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("provider"))

	// Add commands
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(fmt.Sprintf("%s/.config/arcwise", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	config.BindEnv(viper.GetViper())

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Set up logging
	opts, err := config.LoadLogging(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	closer, err := common.SetupLogger(opts)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	logCloser = closer

	return nil
}

func closeLogging(_ *cobra.Command, _ []string) error {
	if logCloser == nil {
		return nil
	}
	return logCloser.Close()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("arcwise version", "version", version)
		},
	}
}
