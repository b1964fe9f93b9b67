// Package cli implements showrunner-cli, a command-line client for the
// showrunner JSON API.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/showrunner/internal/logging"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking SHOWRUNNER_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("SHOWRUNNER_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for showrunner-cli.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "showrunner-cli",
		Short: "Client for the showrunner Rick and Morty CMS",
		Long:  "showrunner-cli registers accounts, obtains bearer tokens and manages characters over the showrunner JSON API.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
			client = NewClient(flagServer, logger)
			if creds, err := loadCredentials(); err == nil && creds.usableFor(flagServer) {
				client.Token = creds.Token
			}
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "showrunner server URL (or SHOWRUNNER_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newCharactersCmd(),
	)

	return root
}
