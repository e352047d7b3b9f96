package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	ferrors "git.home.luguber.info/inful/tgbot/internal/foundation/errors"
	"git.home.luguber.info/inful/tgbot/internal/repo"
	"git.home.luguber.info/inful/tgbot/internal/version"
)

// Global carries shared state into every command's Run method.
type Global struct {
	Logger  *slog.Logger
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Bootstrap BootstrapCmd `cmd:"" help:"Create the working directories, migration config and .env file if missing"`
	Check     CheckCmd     `cmd:"" help:"Validate bot settings and probe the local database"`
	Groups    GroupsCmd    `cmd:"" help:"Manage the groups the bot posts to"`
}

// AfterApply runs after flag parsing; set up logging once.
func (c *CLI) AfterApply(g *Global) error {
	g.Verbose = c.Verbose
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(g.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// exitCode is used to unwind out of kong's Exit hook inside Execute.
type exitCode int

// Execute parses args, runs the selected command and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) (code int) {
	cli := &CLI{}
	global := &Global{
		Logger: slog.Default(),
		Stdout: stdout,
		Stderr: stderr,
	}

	parser, err := kong.New(cli,
		kong.Name("tgbot"),
		kong.Description("Prepare and verify a Telegram bot working directory."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version.String(), "store": repo.DefaultStorePath},
		kong.Bind(global),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
	)
	if err != nil {
		return ferrors.NewCLIErrorAdapter(false, global.Logger).
			Report(ferrors.InternalError("build command line parser").WithCause(err).Build(), stderr)
	}

	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		if ctx != nil {
			_ = ctx.PrintUsage(true)
		}
		return 2
	}

	err = ctx.Run()
	return ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).Report(err, stderr)
}

// resolvePath joins p onto dir unless p is absolute.
func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// workingDir returns dir, or the process working directory when dir is empty.
func workingDir(dir string) (string, error) {
	if dir != "" {
		return filepath.Clean(dir), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "get working directory").Build()
	}
	return wd, nil
}
