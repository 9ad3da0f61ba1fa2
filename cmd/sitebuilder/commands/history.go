package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of builds to show" default:"20"`
	ID    string `arg:"" optional:"" help:"Show a single build"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return errors.ValidationError("build history is not configured").
			WithContext("key", "history.path").
			Build()
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return h.print(context.Background(), os.Stdout, store)
}

func (h *HistoryCmd) print(ctx context.Context, w io.Writer, store history.Store) error {
	var records []history.Record
	if h.ID != "" {
		rec, ok, err := store.Get(ctx, h.ID)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewError(errors.CategoryNotFound, "no such build").
				WithContext("build_id", h.ID).
				Build()
		}
		records = append(records, rec)
	} else {
		var err error
		if records, err = store.Recent(ctx, h.Limit); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tDURATION\tOUTCOME\tRESOURCES\tBYTES\tERROR")
	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.BuildID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration.Round(time.Millisecond),
			r.Outcome,
			r.Resources,
			r.Bytes,
			r.Error)
	}
	return tw.Flush()
}
