package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/tgbot/internal/config"
	"git.home.luguber.info/inful/tgbot/internal/workspace"
)

// BootstrapCmd implements the 'bootstrap' command.
type BootstrapCmd struct {
	Force  bool   `help:"Re-assert directories even if they already exist (files are never overwritten)"`
	Dir    string `short:"d" help:"Workspace root (defaults to the current directory)"`
	Layout string `short:"l" help:"Layout file (defaults to tgbot.yaml in the workspace root, if present)"`
}

func (b *BootstrapCmd) Run(g *Global) error {
	root, err := workingDir(b.Dir)
	if err != nil {
		return err
	}

	layout, err := config.ResolveLayout(root, b.Layout)
	if err != nil {
		return err
	}

	report, err := workspace.NewManager(root, layout, workspace.WithLogger(g.Logger)).Bootstrap(b.Force)
	if err != nil {
		return err
	}

	printReport(g, report)
	return nil
}

func printReport(g *Global, report *workspace.Report) {
	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	for _, a := range report.Actions {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", a.Kind, a.Artifact, a.Path)
	}
	_ = tw.Flush()

	if report.Changed() {
		_, _ = fmt.Fprintf(g.Stdout, "Workspace ready at %s (%d created)\n",
			report.Root, report.Count(workspace.ActionCreated))
		return
	}
	_, _ = fmt.Fprintf(g.Stdout, "Workspace already up to date at %s\n", report.Root)
}
