// File: cmd/pagecap-lambda/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/internal/config"
	"github.com/xkilldash9x/pagecap/internal/observability"
	"github.com/xkilldash9x/pagecap/internal/service"
)

// Components are built once per execution environment and reused by every
// invocation it serves.
func main() {
	v, err := config.NewViper(os.Getenv("PAGECAP_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	observability.InitializeLogger(cfg.Logger)
	logger := observability.GetLogger()

	components, err := service.NewComponentFactory().Create(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize capture components.", zap.Error(err))
		observability.Sync()
		os.Exit(1)
	}

	handler := service.NewHandler(components, logger)
	lambda.StartWithOptions(handler.Handle, lambda.WithEnableSIGTERM(func() {
		components.Shutdown()
		observability.Sync()
	}))
}
