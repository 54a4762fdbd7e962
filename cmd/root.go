package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"ragctl/pkg/logging"
)

// rootDebug enables verbose logging across the application.
var rootDebug bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Deploy and inspect the advanced-rag platform on Kubernetes",
	Long: `ragctl rolls out the advanced-rag platform into a Kubernetes namespace:
the milvus vector store, the stateless RAG services and the MCP gateway,
plus the per-service credential secrets they consume.

Runs are idempotent; re-running against a healthy deployment changes
nothing and reports the same result.`,
	// SilenceUsage prevents printing the usage message on errors handled
	// by us (failed deployments, missing credentials)
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelInfo
		if rootDebug {
			level = logging.LevelDebug
		}
		logging.Init(level, os.Stderr)
	},
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "ragctl version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newDeployCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
