package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/tgbot/internal/dburl"
	ferrors "git.home.luguber.info/inful/tgbot/internal/foundation/errors"
	"git.home.luguber.info/inful/tgbot/internal/logfields"
	"git.home.luguber.info/inful/tgbot/internal/repo"
	"git.home.luguber.info/inful/tgbot/internal/settings"
	"git.home.luguber.info/inful/tgbot/internal/storage"
	"git.home.luguber.info/inful/tgbot/internal/vcs"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Dir     string        `short:"d" help:"Workspace root (defaults to the current directory)"`
	EnvFile string        `short:"e" name:"env-file" default:".env" help:"Environment file, relative to the workspace root"`
	NoProbe bool          `name:"no-probe" help:"Skip opening the SQLite database"`
	Timeout time.Duration `default:"10s" help:"Database probe timeout"`
}

func (c *CheckCmd) Run(g *Global) error {
	root, err := workingDir(c.Dir)
	if err != nil {
		return err
	}
	envPath := resolvePath(root, c.EnvFile)

	if _, statErr := os.Stat(envPath); statErr != nil {
		g.Logger.Warn("Environment file not found; using process environment only", logfields.Path(envPath))
	}

	s, err := settings.Load(envPath)
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			if name, ok := ce.Context().GetString("variable"); ok {
				g.Logger.Debug("Settings rejected", logfields.Variable(name))
			}
		}
		return err
	}
	if !g.Verbose {
		g.Logger = slog.New(slog.NewTextHandler(g.Stderr, &slog.HandlerOptions{Level: s.LogLevel.Slog()}))
	}
	g.Logger.Debug("Settings loaded", logfields.Mode(string(s.BotMode)), "settings", s)

	out := g.Stdout
	_, _ = fmt.Fprintf(out, "mode:          %s\n", s.BotMode)
	if s.IsWebhookMode() {
		_, _ = fmt.Fprintf(out, "webhook:       %s\n", s.FullWebhookURL())
	}
	_, _ = fmt.Fprintf(out, "admins:        %s\n", s.AdminUsersString())
	_, _ = fmt.Fprintf(out, "timezone:      %s\n", s.Timezone)
	_, _ = fmt.Fprintf(out, "database:      %s\n", s.DBURL)
	_, _ = fmt.Fprintf(out, "migration url: %s\n", dburl.SyncURL(s.DBURL))
	_, _ = fmt.Fprintf(out, "logging:       %s to %s (rotate at %d bytes, keep %d)\n",
		s.LogLevel, s.LogFile, s.LogMaxSize, s.LogBackupCount)

	dirs, err := s.EnsureRuntimeDirs(root)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		g.Logger.Debug("Runtime directory ensured", logfields.Path(d))
	}

	if s.IsWebhookMode() {
		c.warnMissing(g, resolvePath(root, s.TLSCertPath), "TLS certificate")
		c.warnMissing(g, resolvePath(root, s.TLSKeyPath), "TLS key")
	}

	if err := c.probe(g, root, s); err != nil {
		return err
	}

	if err := c.checkStore(g, root); err != nil {
		return err
	}

	c.warnTracked(g, root, envPath)

	_, _ = fmt.Fprintln(out, "Settings OK")
	return nil
}

// warnTracked flags an env file inside the workspace that .gitignore does not cover.
func (c *CheckCmd) warnTracked(g *Global, root, envPath string) {
	rel, err := filepath.Rel(root, envPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	ignored, err := vcs.IsIgnored(root, rel, false)
	if err != nil {
		g.Logger.Warn("Could not read .gitignore", logfields.Error(err))
		return
	}
	if !ignored {
		_, _ = fmt.Fprintf(g.Stdout, "warning:       %s is not listed in .gitignore\n", filepath.ToSlash(rel))
	}
}

func (c *CheckCmd) probe(g *Global, root string, s *settings.Settings) error {
	u, err := dburl.Parse(s.DBURL)
	if err != nil || !u.IsSQLite() || c.NoProbe {
		return nil
	}
	path, err := dburl.ResolveSQLitePath(s.DBURL, root)
	if err != nil || path == dburl.Memory {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	res, err := storage.ProbeSQLite(ctx, path)
	if ferrors.HasCategory(err, ferrors.CategoryNotFound) {
		_, _ = fmt.Fprintf(g.Stdout, "sqlite:        not created yet (%s)\n", path)
		return nil
	}
	if err != nil {
		return err
	}
	g.Logger.Info("Database reachable",
		logfields.Driver("sqlite"),
		logfields.Path(res.Path),
		"version", res.Version,
		"tables", res.Tables)
	_, _ = fmt.Fprintf(g.Stdout, "sqlite:        %s (%d tables)\n", res.Version, res.Tables)
	return nil
}

// checkStore loads and validates the group store when one exists.
func (c *CheckCmd) checkStore(g *Global, root string) error {
	store, err := repo.Open(resolvePath(root, repo.DefaultStorePath))
	if err != nil {
		return err
	}
	if err := store.Validate(); err != nil {
		return err
	}

	groups := store.Groups()
	excluded := 0
	for _, grp := range groups {
		if grp.ExcludedFromGlobal {
			excluded++
		}
	}
	_, _ = fmt.Fprintf(g.Stdout, "groups:        %d (%d excluded, every %d min)\n",
		len(groups), excluded, store.Settings().GlobalIntervalMin)
	return nil
}

func (c *CheckCmd) warnMissing(g *Global, path, what string) {
	if _, err := os.Stat(path); err != nil {
		_, _ = fmt.Fprintf(g.Stdout, "warning:       %s not found at %s\n", what, path)
	}
}
