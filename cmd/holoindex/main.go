// Command holoindex is the local knowledge-retrieval daemon. `holoindex
// serve` speaks MCP over stdio; the other subcommands are one-shot wrappers
// around the same engine for indexing and ad-hoc queries.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Foundup/Foundups-Agent-sub010/internal/vecstore"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	flagEnv      string
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:          "holoindex",
	Short:        "Hybrid retrieval daemon for coding agents",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `HoloIndex answers natural-language queries against a mixed corpus
(code, protocol documents, tests, skills) and returns ranked evidence plus
machine-actionable guidance over MCP.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("HoloIndex MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", vecstore.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", vecstore.DriverName)
		fmt.Printf("Vector Extension: %v\n", vecstore.VectorExtensionAvailable)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "", "config environment (local, prod); defaults to $ENV or local")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "explicit config file path; overrides the environment search")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// .env is optional developer convenience; absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
