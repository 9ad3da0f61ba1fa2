package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// ResourcesCmd implements the 'resources' command. It registers the project
// files exactly like a build would, without syncing a git source.
type ResourcesCmd struct{}

func (r *ResourcesCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	return listResources(os.Stdout, cfg)
}

func listResources(w io.Writer, cfg *config.Config) error {
	reg := resource.NewRegistry(cfg.Project.Root)
	if err := site.Register(reg, cfg); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SOURCE\tKIND\tIDENTIFIER\tOUTPUT")
	for _, p := range reg.Paths() {
		res, _ := reg.Get(p)
		kind := "-"
		if page, ok := res.(*site.Page); ok {
			kind = string(page.Kind)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p, kind, res.Identifier(), res.OutputPath())
	}
	return tw.Flush()
}
