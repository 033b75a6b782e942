package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/mantle/internal/app"
)

// globalFlags are shared by the TUI and every subcommand.
type globalFlags struct {
	configPath  string
	prefsPath   string
	pollSeconds int
}

func (f *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: f.configPath,
		PrefsPath:  f.prefsPath,
		PollEvery:  f.pollSeconds,
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "mantle",
		Short:         "Terminal client for a Mantium manga tracker",
		Long:          "Browse your Mantium collection in a TUI that follows backend changes, or query it from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Launch TUI by default
			return app.Run(cmd.Context(), flags.options())
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file path (default ~/.config/mantle/config.toml)")
	root.PersistentFlags().StringVar(&flags.prefsPath, "prefs", "", "preferences file path (default ~/.config/mantle/prefs.toml)")
	root.Flags().IntVar(&flags.pollSeconds, "poll", 0, "change-token poll interval in seconds (default from config)")

	root.AddCommand(newListCmd(flags))
	root.AddCommand(newChaptersCmd(flags))
	root.AddCommand(newLogsCmd(flags))
	return root
}
