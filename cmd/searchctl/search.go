package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"propsearch/internal/config"
	"propsearch/internal/model"
	"propsearch/internal/repository"
	"propsearch/internal/service"
)

var (
	searchLimit   int
	searchSort    string
	searchTimeout time.Duration
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a full search against the listing database",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "distance, recency or relevance")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 30*time.Second, "overall search timeout")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	repo, err := repository.NewPostgresRepository(cfg.GetPostgreSQLDSN(), 2, 1)
	if err != nil {
		return fmt.Errorf("database connection: %w", err)
	}
	defer repo.Close()

	svc := service.NewSearchService(repo, service.NewCorrector(cfg.Parser), newParser(cfg),
		service.NewRanker(cfg.Search.DistanceTieRange), cfg.Search)

	resp, err := svc.Search(ctx, &model.SearchRequest{
		Query:   queryArg(args),
		Options: &model.SearchOptions{Limit: searchLimit, Sort: searchSort},
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	printCorrections(cmd.ErrOrStderr(), resp.Summary.Corrections)
	printSummary(cmd.ErrOrStderr(), resp.Count, resp.Summary.Message)
	return printResult(cmd.OutOrStdout(), resp)
}
