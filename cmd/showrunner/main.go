// Command showrunner runs the Rick and Morty CMS server and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagEnvFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "showrunner",
		Short:        "Showrunner's CMS for the Rick and Morty universe",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagEnvFile, "env-file", ".env", "Optional .env file with SHOWRUNNER_* settings")
	pf.String("db", "", "SQLite database path (or SHOWRUNNER_DB_PATH)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (or SHOWRUNNER_LOG_LEVEL)")
	pf.String("log-format", "", "Log format: text, json (or SHOWRUNNER_LOG_FORMAT)")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newCreateAdminCmd())
	return root
}
