// Command leadctl lists, updates and exports captured leads.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leadctl",
	Short: "Work the MXDR advisor lead queue from the command line",
	Long: `leadctl talks directly to the lead store named by DATABASE_URL
(postgres://, sqlite:// or memory://).

Examples:
  leadctl list --limit 20
  leadctl patch 3f1c... --status contacted --assign alice
  leadctl export --out leads.jsonl`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("database-url", "", "lead store URL (defaults to DATABASE_URL)")
	rootCmd.AddCommand(listCmd, patchCmd, exportCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
