// Package main provides the genolift command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information, set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var logger *zap.SugaredLogger

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "genolift",
		Short:         "Coordinate liftover across genome assemblies",
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initConfig()
			logger = newLogger(verbose)
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newMinimap2ToChainCmd(),
		newChainLeftAlignCmd(),
		newChainToBedVCFCmd(),
		newLiftVCFCmd(),
		newLiftGeneCmd(),
		newLiftBedCmd(),
		newConfigCmd(),
	)
	return cmd
}

func initConfig() {
	viper.SetConfigName(".genolift")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	_ = viper.ReadInConfig()
}

func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}
