package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"propsearch/internal/config"
	"propsearch/internal/service"
)

var parseCmd = &cobra.Command{
	Use:   "parse <query>",
	Short: "Correct, parse and route a query without searching",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

var correctCmd = &cobra.Command{
	Use:   "correct <query>",
	Short: "Show the typo corrections applied to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCorrect,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(correctCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Analyze never touches the listing store
	svc := service.NewSearchService(nil, service.NewCorrector(cfg.Parser), newParser(cfg),
		service.NewRanker(cfg.Search.DistanceTieRange), cfg.Search)
	return printResult(cmd.OutOrStdout(), svc.Analyze(context.Background(), queryArg(args)))
}

func runCorrect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	corrected, corrections := service.NewCorrector(cfg.Parser).Correct(queryArg(args))
	printCorrections(cmd.ErrOrStderr(), corrections)
	return printResult(cmd.OutOrStdout(), map[string]any{
		"query":       queryArg(args),
		"corrected":   corrected,
		"corrections": corrections,
	})
}
