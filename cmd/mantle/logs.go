package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/mantle/internal/config"
	"github.com/five82/mantle/internal/logtail"
)

func newLogsCmd(global *globalFlags) *cobra.Command {
	var (
		lines int
		grep  string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of mantle's log file",
		Long:  "Print the last lines of the log file the TUI writes to. Does not contact the backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(global.configPath)
			if err != nil {
				return fmt.Errorf("load mantle config: %w", err)
			}
			tail, err := logtail.Read(cfg.LogFile, logtail.Options{MaxLines: lines, Contains: grep})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tail) == 0 {
				fmt.Fprintf(out, "No log lines in %s\n", cfg.LogFile)
				return nil
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 200, "number of lines to print (0 for all)")
	cmd.Flags().StringVar(&grep, "grep", "", "only print lines containing this text (case-insensitive)")
	return cmd
}
