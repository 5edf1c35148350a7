package evaluate

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"brandwatch/internal/app"
	"brandwatch/internal/services"
	"brandwatch/internal/utils"
	"brandwatch/pkg/logger"
)

// Config holds the evaluate command configuration
type Config struct {
	Dataset string
	Result  string
	Branch  string
	Verbose bool
}

// NewEvaluateCommand creates the evaluate command
func NewEvaluateCommand() *cobra.Command {
	config := &Config{}

	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a dataset of suspicious pages",
		Long:  `Evaluate every page folder under the dataset directory, expanding the brand reference store as new brands are discovered`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			logLevel := logrus.InfoLevel
			if config.Verbose {
				logLevel = logrus.DebugLevel
			}
			logger.SetLevel(logLevel)

			v, err := utils.NewViperConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if config.Branch != "" {
				v.Set("discovery.branch", config.Branch)
			}

			appLogger := logger.NewLogger(logLevel)

			instance, err := app.New(v)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer func() {
				if closeErr := instance.Close(); closeErr != nil {
					appLogger.WithError(closeErr).Error("Error closing application")
				}
			}()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigChan
				appLogger.WithFields(logger.Fields{
					"signal": sig.String(),
				}).Info("Received shutdown signal")
				cancel()
			}()

			resultPath := config.Result
			if resultPath == "" {
				resultPath = v.GetString("report.path")
			}

			runLogger, err := logger.NewRunLogger(filepath.Dir(resultPath), logLevel)
			if err != nil {
				return fmt.Errorf("failed to create run logger: %w", err)
			}
			defer runLogger.Close()
			appLogger = runLogger.Logger

			batch := services.NewBatchRunner(instance.Orchestrator, nil, instance.Notifier)
			batch.SetPageErrorLogger(runLogger)
			if err := batch.Run(ctx, config.Dataset, resultPath); err != nil {
				if ctx.Err() != nil {
					appLogger.Info("Batch evaluation interrupted")
					return nil
				}
				runLogger.LogRunFailure("batch evaluation failed", err)
				return err
			}

			runLogger.LogRunSuccess()
			return nil
		},
	}

	evaluateCmd.Flags().StringVarP(&config.Dataset, "dataset", "d", "", "Dataset directory of page folders (required)")
	evaluateCmd.Flags().StringVarP(&config.Result, "result", "r", "", "Result file path (defaults to report.path config)")
	evaluateCmd.Flags().StringVarP(&config.Branch, "branch", "b", "", "Discovery branch: domain2brand or logo2brand")
	evaluateCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Enable verbose logging")

	evaluateCmd.MarkFlagRequired("dataset")

	return evaluateCmd
}
