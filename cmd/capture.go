// File: cmd/capture.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/internal/capture"
	"github.com/xkilldash9x/pagecap/internal/config"
	"github.com/xkilldash9x/pagecap/internal/observability"
	"github.com/xkilldash9x/pagecap/internal/service"
)

// newCaptureCmd creates the `capture` command, one invocation per run.
func newCaptureCmd(factory service.ComponentFactory) *cobra.Command {
	captureCmd := &cobra.Command{
		Use:   "capture",
		Short: "Log in to the target and store a full-page screenshot",
		Long: `Launches a headless browser, submits the login form of the target URL,
captures the resulting page as PNG and stores it under the configured bucket
and prefix. The result is printed as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runCapture(ctx, cmd.OutOrStdout(), cfg, factory, observability.GetLogger())
		},
	}

	flags := captureCmd.Flags()
	flags.String("url", "", "URL of the login page")
	flags.String("bucket", "", "bucket (or container) receiving the screenshot")
	flags.String("prefix", "", "key prefix, used verbatim")
	flags.String("backend", "", "artifact backend: s3, azblob or file")
	flags.String("secret-id", "", "secret holding the login credentials")
	flags.String("username", "", "login username; the password is read from the environment")
	flags.String("exec-path", "", "browser executable")
	flags.Bool("headless", true, "run the browser headless")
	flags.String("database-url", "", "PostgreSQL URL for capture history")

	return captureCmd
}

// runCapture builds the components, runs one capture and prints its result.
func runCapture(ctx context.Context, out io.Writer, cfg *config.Config, factory service.ComponentFactory, logger *zap.Logger) error {
	components, err := factory.Create(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize capture components: %w", err)
	}
	defer components.Shutdown()

	result, err := components.Capture(ctx)
	if err != nil {
		logger.Error("Capture failed", zap.Error(err), zap.Stringer("kind", capture.KindOf(err)))
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
