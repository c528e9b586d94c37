package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versal-platform/botlogic/pkg/config"
)

// testConfigCmd represents the test-config command
var testConfigCmd = &cobra.Command{
	Use:   "test-config",
	Short: "Validate the configuration file",
	Long: `Test and validate the configuration file without starting the server.

This command will:
- Load the configuration file from the specified path
- Parse the YAML/JSON content
- Validate all required fields
- Report any issues found

If the configuration is valid, the command exits with status 0.
If there are validation errors, the command exits with status 1.`,
	RunE: runTestConfig,
}

func init() {
	rootCmd.AddCommand(testConfigCmd)
}

func runTestConfig(cmd *cobra.Command, args []string) error {
	fmt.Printf("Testing configuration file: %s\n", cfgFile)

	cfg, err := config.NewFileLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fmt.Println("✓ Configuration file loaded successfully")
	fmt.Println("✓ Configuration validation passed")

	fmt.Println("\nConfiguration Summary:")
	fmt.Printf("  Listen: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Session Store: %s (namespace: %s)\n", cfg.Store.Type, cfg.Store.Namespace)
	fmt.Printf("  Session TTL: %s\n", cfg.Session.TTL)
	fmt.Printf("  Auth Service: %s\n", cfg.Auth.BaseURL)
	if cfg.Core.DemoMode {
		fmt.Println("  Core Service: demo mode")
	} else {
		fmt.Printf("  Core Service: %s\n", cfg.Core.BaseURL)
	}
	if cfg.Sweep.Enabled {
		fmt.Printf("  Sweep Scheduler: every %s -> %s\n", cfg.Sweep.Interval, cfg.Sweep.WebhookURL)
	} else {
		fmt.Println("  Sweep Scheduler: disabled (transport drives /tick endpoints)")
	}

	fmt.Println("\n✓ Configuration is valid and ready to use")
	return nil
}
