package main

import (
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"propsearch/internal/cache"
	"propsearch/internal/config"
	"propsearch/internal/observability"
	"propsearch/internal/service"
)

var (
	verbose      bool
	noModel      bool
	noColor      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "searchctl",
	Short: "Inspect how property queries are corrected, parsed and searched",
	Long: `searchctl runs the property search pipeline from the command line.
It reads the same environment (or .env) configuration as the API server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		observability.NewLoggerTo(cmd.ErrOrStderr(), level, "console")
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noModel, "no-model", false, "never escalate to the language model")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "output format: json or yaml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newParser builds a parser with an in-process cache; the CLI never shares the
// server's cache backend
func newParser(cfg *config.Config) *service.QueryParser {
	var ai service.AIClient
	if cfg.OpenAI.Enabled && !noModel {
		ai = service.NewOpenAIClient(&cfg.OpenAI)
	}
	return service.NewQueryParser(cache.NewMemoryStore(), ai, cfg.Parser, time.Duration(cfg.Cache.TTL)*time.Second)
}

func queryArg(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
