package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sethosts/internal/app"
)

var (
	appInstance *app.App
	version     = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sethosts",
	Short: "Latency-ranked hosts file optimizer",
	Long: `sethosts - keep your hosts file pointed at the fastest IPs

  Resolves the candidate IPs for a configured set of domains, probes them
  all concurrently for TCP latency, and writes the fastest into the system
  hosts file.

  Quick start:
    sudo sethosts update
    sethosts test github.com
    sethosts test --servers
    sethosts resolve raw.githubusercontent.com

  Features:
    • Candidate enumeration via a resolver pool, record cache and web lookup
    • Bounded-concurrency probing with a global deadline
    • Deterministic latency ranking with optional IPv4/IPv6 interleaving
    • Marker-delimited hosts block with automatic backup`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dbPath, _ := cmd.Flags().GetString("db")

		var err error
		appInstance, err = app.New(configPath, dbPath)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance != nil {
			return appInstance.Close()
		}
		return nil
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("db", "", "database path")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sethosts %s\n", version)
	},
}
