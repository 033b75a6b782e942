package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/mantle/internal/app"
	"github.com/five82/mantle/internal/collection"
	"github.com/five82/mantle/internal/prefs"
)

type listFlags struct {
	view    string
	search  string
	sort    string
	reverse bool
}

func newListCmd(global *globalFlags) *cobra.Command {
	lf := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the entries of your collection",
		Long:  "Display the collection in a table. View, search and sort default to the saved TUI preferences.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := lf.query(cmd, global.prefsPath)
			if err != nil {
				return err
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

			out := cmd.OutOrStdout()
			rows := collection.Apply(entries, query)
			if len(rows) == 0 {
				fmt.Fprintf(out, "No entries match the %s view.\n", query.View)
				return nil
			}

			direction := "ascending"
			if query.Reverse {
				direction = "descending"
			}
			fmt.Fprintf(out, "\n%s · %d of %d entries · %s, %s\n\n", query.View, len(rows), len(entries), query.Sort, direction)
			fmt.Fprintln(out, renderEntryTable(rows))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&lf.view, "view", "", "status view: all, reading, completed, on-hold, dropped, plan-to-read, unread")
	f.StringVar(&lf.search, "search", "", "case-insensitive name filter")
	f.StringVar(&lf.sort, "sort", "", "sort mode: name, unread, last-read, released-count, released-date")
	f.BoolVar(&lf.reverse, "reverse", false, "reverse the sort order")
	return cmd
}

// query starts from the saved preferences and applies the flags that were
// set explicitly.
func (lf *listFlags) query(cmd *cobra.Command, prefsPath string) (collection.Query, error) {
	saved, _ := prefs.Load(prefsPath)
	q := saved.Query()

	flags := cmd.Flags()
	if flags.Changed("view") {
		view, err := collection.ParseView(lf.view)
		if err != nil {
			return q, err
		}
		q.View = view
	}
	if flags.Changed("sort") {
		mode, err := collection.ParseSortMode(lf.sort)
		if err != nil {
			return q, err
		}
		q.Sort = mode
	}
	if flags.Changed("search") {
		q.Term = lf.search
	}
	if flags.Changed("reverse") {
		q.Reverse = lf.reverse
	}
	return q, nil
}
