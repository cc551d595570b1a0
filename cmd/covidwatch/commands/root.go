package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/covidwatch/pkg/config"
	"github.com/wonny/covidwatch/pkg/logger"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "covidwatch",
	Short: "COVID-19 tracker - REST backend and terminal dashboard",
	Long: `covidwatch Unified CLI

disease.sh 데이터를 캐시/백업하는 REST 백엔드와
그 API를 읽는 터미널 대시보드.

Usage:
  go run ./cmd/covidwatch [command]

Examples:
  go run ./cmd/covidwatch serve
  go run ./cmd/covidwatch refresh
  go run ./cmd/covidwatch dash global
  go run ./cmd/covidwatch dash compare USA India --metric deaths`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default: COVIDWATCH_CONFIG, then env only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// setup loads config and builds the logger shared by every command
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}
