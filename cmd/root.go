// -- cmd/root.go --
package cmd

import (
	"context"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/pagecap/internal/config"
	"github.com/xkilldash9x/pagecap/internal/observability"
	"github.com/xkilldash9x/pagecap/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type contextKey string

const configKey contextKey = "config"

// skipConfigAnnotation marks commands that run without loading configuration.
const skipConfigAnnotation = "pagecap/skip-config"

// flagBindings maps command flags to configuration keys. Flags override the
// config file and the environment only when set explicitly.
var flagBindings = map[string]string{
	"url":          "target.url",
	"bucket":       "storage.bucket",
	"prefix":       "storage.prefix",
	"backend":      "storage.backend",
	"secret-id":    "auth.secret_id",
	"username":     "auth.username",
	"exec-path":    "browser.exec_path",
	"headless":     "browser.headless",
	"database-url": "database.url",
}

// NewRootCommand builds a fresh command tree. Each call returns an isolated
// instance so tests never share flag state.
func NewRootCommand() *cobra.Command {
	return newRootCommand(service.NewComponentFactory(), NewHistoryProvider())
}

func newRootCommand(factory service.ComponentFactory, history historyProvider) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "pagecap",
		Short:         "pagecap logs into a web application and stores a full-page screenshot.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}

			cfg, err := loadConfig(cmd, cfgFile)
			if err != nil {
				// Initialize a basic logger so the failure is still reported.
				observability.Initialize(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "pagecap"}, zapcore.Lock(os.Stderr))
				return err
			}

			// stdout carries the command result.
			observability.Initialize(cfg.Logger, zapcore.Lock(os.Stderr))
			observability.GetLogger().Debug("Starting pagecap", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(newCaptureCmd(factory))
	rootCmd.AddCommand(newHistoryCmd(history))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree with a signal-aware context. Errors are logged
// here and returned so main can pick the exit code.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		return err
	}
	return nil
}

// loadConfig layers defaults, the config file, the environment and the flags
// the executing command defines.
func loadConfig(cmd *cobra.Command, cfgFile string) (*config.Config, error) {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}

	for name, key := range flagBindings {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load or validate config: %w", err)
	}
	return cfg, nil
}

func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}
