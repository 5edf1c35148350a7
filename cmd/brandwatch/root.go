package main

import (
	"context"

	"github.com/spf13/cobra"

	"brandwatch/cmd/brandwatch/evaluate"
	"brandwatch/cmd/brandwatch/server"
)

func Execute() error {
	var rootCmd = &cobra.Command{
		Use:   "brandwatch",
		Short: "Brand-knowledge expansion for phishing detection",
		Long:  `Brandwatch evaluates suspicious pages, discovers unknown brands through search and vision signals, and grows the detector's reference store at evaluation time`,
	}

	rootCmd.AddCommand(evaluate.NewEvaluateCommand())
	rootCmd.AddCommand(server.NewServerCommand())
	return rootCmd.ExecuteContext(context.Background())
}
