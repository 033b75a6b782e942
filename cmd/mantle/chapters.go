package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/mantle/internal/app"
	"github.com/five82/mantle/internal/library"
)

func newChaptersCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chapters <entry-id>",
		Short: "List the chapters of an entry",
		Long:  "Load the chapter list of one entry. Multi-source entries switch to another source when the current one fails.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid entry id %q", args[0])
			}

			svc, err := app.Open(cmd.Context(), global.options())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			entries, err := svc.Client.GetCollection(cmd.Context())
			if err != nil {
				return fmt.Errorf("get collection: %w", err)
			}
			entry, ok := findEntry(entries, id)
			if !ok {
				return &library.NotFoundError{Kind: "entry", ID: id}
			}

			res, err := svc.Resolver.ResolveEntry(cmd.Context(), svc.Client, entry)
			errOut := cmd.ErrOrStderr()
			switch {
			case errors.Is(err, library.ErrAllSourcesExhausted):
				fmt.Fprintf(errOut, "warning: every source of %q failed\n", entry.Name)
			case err != nil:
				return err
			}
			if res.FellBack {
				fmt.Fprintf(errOut, "warning: current source failed, switched to %s\n", library.SourceLabel(res.Record.Source))
			}

			out := cmd.OutOrStdout()
			if len(res.Chapters) == 0 {
				fmt.Fprintln(out, "No chapters.")
				return nil
			}
			fmt.Fprintf(out, "\n%s · %s · %d chapters\n\n", entry.Name, library.SourceLabel(res.Record.Source), len(res.Chapters))
			fmt.Fprintln(out, renderChapterTable(res.Chapters, entry.LastConsumed.Label))
			return nil
		},
	}
}

func findEntry(entries []library.Entry, id int) (library.Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return library.Entry{}, false
}
