package main

import (
	"fmt"
	"os"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/config"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/runtime"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand loads before running.
type app struct {
	cfgPath string
	cfg     *config.Config
	logger  *zap.Logger
}

func rootCMD() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "diligence",
		Short:        "Company due diligence research agent",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(a.cfgPath)
			if err != nil {
				return err
			}
			logger, err := runtime.NewLogger(cfg.General)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "config file (default searches ./config and .)")
	root.AddCommand(serveCMD(a), researchCMD(a), memoryCMD(a), migrateCMD(a))
	return root
}

func (a *app) must() error {
	if a.cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	return nil
}
