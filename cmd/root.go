// Package cmd provides the alcomo command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeadmin/alcomo/config"
	"github.com/nodeadmin/alcomo/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "alcomo",
		Short: "Extract coherent subsets of ontology mappings",
		Long: `alcomo repairs an ontology mapping: given two ontologies and a set of
weighted correspondences between them, it removes correspondences until the
merged ontology has no new unsatisfiable concepts, keeping as much total
confidence as the chosen strategy can.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML configuration file (default: ALCOMO_* environment only)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format (console|json)")

	cmd.AddCommand(newRepairCmd(g))
	cmd.AddCommand(newConflictsCmd(g))
	cmd.AddCommand(newClassifyCmd(g))
	cmd.AddCommand(newCheckCmd(g))
	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// load reads the configuration and applies the global flag overrides.
func (g *globalOptions) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.NewLogger(cfg.Log)
}
