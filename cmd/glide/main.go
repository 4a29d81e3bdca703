package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vedantwpatil/focusglide/internal/config"
)

var (
	configFile string
	logLevel   string
	videoPath  string
	videoFPS   float64
	outputFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "glide",
		Short:         "momentum and magnetic cursor control",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "drive the cursor until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			return app.runEngine()
		},
	}

	recordCmd := &cobra.Command{
		Use:   "record [file]",
		Short: "capture raw pointer input into a trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			return app.record(args[0])
		},
	}

	replayCmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "play a trace through the engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			return app.replay(args[0], videoPath, videoFPS)
		},
	}
	replayCmd.Flags().StringVar(&videoPath, "video", "", "render the raw and smoothed trails to this mp4")
	replayCmd.Flags().Float64Var(&videoFPS, "fps", 60, "trail video frame rate")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "inspect configuration",
	}
	defaultCmd := &cobra.Command{
		Use:   "default",
		Short: "print or write the default configuration",
		Args:  cobra.NoArgs,
		RunE:  writeDefault,
	}
	defaultCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write to file instead of stdout")
	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "check a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE:  validateConfig,
	}
	configCmd.AddCommand(defaultCmd, validateCmd)

	rootCmd.AddCommand(runCmd, recordCmd, replayCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp() (*Application, error) {
	logger, err := newLogger(logLevel)
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	return NewApplication(cfg, configFile, logger), nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func writeDefault(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if outputFile != "" {
		if err := config.Save(outputFile, cfg); err != nil {
			return err
		}
		fmt.Printf("Default config written to %s\n", outputFile)
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(args[0]); err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			fmt.Printf("%s is invalid:\n%v\n", args[0], err)
		}
		return err
	}
	fmt.Printf("%s is valid\n", args[0])
	return nil
}
