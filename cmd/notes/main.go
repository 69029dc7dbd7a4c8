// Command notes is the command line client for Smartest Notes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "notes",
		Short: "Command line client for Smartest Notes",
		Long: `notes talks to the Smartest Notes backend.

Log in once with Telegram; the session is kept in the configured store
and refreshed automatically when the backend asks for it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		listCmd(),
		showCmd(),
		createCmd(),
		editCmd(),
		rmCmd(),
		enrichCmd(),
		searchCmd(),
		dashboardCmd(),
		profileCmd(),
		statsCmd(),
		prefsCmd(),
		themeCmd(),
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", errorText(err))
		os.Exit(1)
	}
}
