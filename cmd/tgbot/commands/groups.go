package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	ferrors "git.home.luguber.info/inful/tgbot/internal/foundation/errors"
	"git.home.luguber.info/inful/tgbot/internal/logfields"
	"git.home.luguber.info/inful/tgbot/internal/repo"
)

// GroupsCmd groups the subcommands that edit the group store.
type GroupsCmd struct {
	List     GroupsListCmd     `cmd:"" default:"withargs" help:"List known groups"`
	Add      GroupsAddCmd      `cmd:"" help:"Add groups by chat id or @username"`
	Del      GroupsDelCmd      `cmd:"" help:"Remove groups"`
	Exclude  GroupsExcludeCmd  `cmd:"" help:"Exclude groups from the global schedule"`
	Include  GroupsIncludeCmd  `cmd:"" help:"Put excluded groups back on the global schedule"`
	Interval GroupsIntervalCmd `cmd:"" help:"Set the global interval, or one group's interval"`
}

// StoreFlags locates the group store.
type StoreFlags struct {
	Dir   string `short:"d" help:"Workspace root (defaults to the current directory)"`
	Store string `default:"${store}" help:"Group store, relative to the workspace root"`
}

func (f StoreFlags) open() (*repo.Store, error) {
	root, err := workingDir(f.Dir)
	if err != nil {
		return nil, err
	}
	return repo.Open(resolvePath(root, f.Store))
}

type GroupsListCmd struct {
	StoreFlags
}

func (c *GroupsListCmd) Run(g *Global) error {
	store, err := c.open()
	if err != nil {
		return err
	}
	global := store.Settings().GlobalIntervalMin
	groups := store.Groups()
	if len(groups) == 0 {
		_, _ = fmt.Fprintln(g.Stdout, "No groups")
		return nil
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CHAT\tINTERVAL\tSCHEDULE")
	for _, grp := range groups {
		schedule := "global"
		if grp.ExcludedFromGlobal {
			schedule = "excluded"
		}
		interval := strconv.Itoa(grp.Interval(global)) + " min"
		if grp.CustomIntervalMin != nil {
			interval += " (custom)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", grp.ChatID, interval, schedule)
	}
	return tw.Flush()
}

type GroupsAddCmd struct {
	StoreFlags
	ChatIDs []string `arg:"" name:"chat-id" help:"Chat ids or @usernames (put -- before negative ids)"`
}

func (c *GroupsAddCmd) Run(g *Global) error {
	store, err := c.open()
	if err != nil {
		return err
	}
	n, err := store.AddGroups(c.ChatIDs)
	if err != nil {
		return err
	}
	g.Logger.Debug("Groups added", logfields.Path(store.Path()), "count", n)
	_, _ = fmt.Fprintf(g.Stdout, "Added %d group(s)\n", n)
	return nil
}

type GroupsDelCmd struct {
	StoreFlags
	ChatIDs []string `arg:"" name:"chat-id" help:"Chat ids or @usernames (put -- before negative ids)"`
}

func (c *GroupsDelCmd) Run(g *Global) error {
	store, err := c.open()
	if err != nil {
		return err
	}
	n, err := store.DeleteGroups(c.ChatIDs)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "Removed %d group(s)\n", n)
	return nil
}

type GroupsExcludeCmd struct {
	StoreFlags
	ChatIDs []string `arg:"" name:"chat-id" help:"Chat ids or @usernames (put -- before negative ids)"`
}

func (c *GroupsExcludeCmd) Run(g *Global) error {
	return setExcluded(g, c.StoreFlags, c.ChatIDs, true)
}

type GroupsIncludeCmd struct {
	StoreFlags
	ChatIDs []string `arg:"" name:"chat-id" help:"Chat ids or @usernames (put -- before negative ids)"`
}

func (c *GroupsIncludeCmd) Run(g *Global) error {
	return setExcluded(g, c.StoreFlags, c.ChatIDs, false)
}

func setExcluded(g *Global, flags StoreFlags, ids []string, excluded bool) error {
	store, err := flags.open()
	if err != nil {
		return err
	}
	n, err := store.SetExcluded(ids, excluded)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "Updated %d group(s)\n", n)
	return nil
}

type GroupsIntervalCmd struct {
	StoreFlags
	Minutes int    `arg:"" help:"Interval in minutes (1-1440)"`
	ChatID  string `arg:"" optional:"" name:"chat-id" help:"Group to override; omit to change the global interval"`
}

func (c *GroupsIntervalCmd) Run(g *Global) error {
	store, err := c.open()
	if err != nil {
		return err
	}

	if c.ChatID == "" {
		s := store.Settings()
		s.GlobalIntervalMin = c.Minutes
		if err := store.SetSettings(s); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.Stdout, "Global interval set to %d min\n", c.Minutes)
		return nil
	}

	ok, err := store.SetGroupInterval(c.ChatID, c.Minutes)
	if err != nil {
		return err
	}
	if !ok {
		return ferrors.NewError(ferrors.CategoryNotFound, "unknown group").
			WithContext("group", c.ChatID).
			Build()
	}
	_, _ = fmt.Fprintf(g.Stdout, "Interval for %s set to %d min\n", c.ChatID, c.Minutes)
	return nil
}
