package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	host    string
	port    int
	version = "dev" // Set by build
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "botlogic",
	Short: "Botlogic - chat bot logic service",
	Long: `Botlogic mediates between a chat transport, an identity provider,
and the Versal core service.

It tracks a login session per chat, dispatches authenticated commands to
the core service, and reconciles pending logins and notifications in the
background.`,
	Version: version,
	// Default to serve command when no subcommand is specified
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "botlogic.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "Server host address (overrides config)")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "Server port number (overrides config)")
}
