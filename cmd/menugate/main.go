package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mchmarny/menugate/pkg/logger"
)

var (
	version = "v0.0.0"  // Set at build time via -ldflags "-X main.version=version"
	commit  = "none"    // Set at build time via -ldflags "-X main.commit=commit"
	date    = "unknown" // Set at build time via -ldflags "-X main.date=date"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "menugate",
		Short: "Serve role-scoped navigation menus",
		Long: `menugate resolves which entries of an admin navigation tree a role may see.
Inactive entries are always hidden; containers stay visible while they host a visible child.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.SetDefault(version, logLevel)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(),
		newResolveCmd(),
		newValidateCmd(),
		newACLCmd(),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("menugate %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
