package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/tgbot/internal/foundation/errors"
)

// DefaultLayoutFile is looked up in the workspace root when no --layout flag is given.
const DefaultLayoutFile = "tgbot.yaml"

// DefaultDatabaseURL is the connection string written into the migration config.
const DefaultDatabaseURL = "sqlite+aiosqlite:///./data/bot.db"

// DefaultMigrationTemplate is the minimal alembic.ini written when none exists.
// The logging sections are required because the migration env calls fileConfig.
const DefaultMigrationTemplate = `[alembic]
script_location = alembic
sqlalchemy.url = ` + DefaultDatabaseURL + `

[loggers]
keys = root,sqlalchemy,alembic

[handlers]
keys = console

[formatters]
keys = generic

[logger_root]
level = WARN
handlers = console
qualname =

[logger_sqlalchemy]
level = WARN
handlers =
qualname = sqlalchemy.engine

[logger_alembic]
level = INFO
handlers =
qualname = alembic

[handler_console]
class = StreamHandler
args = (sys.stderr,)
level = NOTSET
formatter = generic

[formatter_generic]
format = %(levelname)-5.5s [%(name)s] %(message)s
datefmt = %H:%M:%S
`

// Layout describes what the bootstrap routine lays down in a workspace.
// All paths are relative to the workspace root.
type Layout struct {
	Directories       []string
	MigrationConfig   string
	MigrationTemplate string
	EnvFile           string
	EnvTemplate       string
}

// DefaultLayout returns the fixed layout used when no layout file exists.
func DefaultLayout() Layout {
	return Layout{
		Directories: []string{
			"data",
			"logs",
			"certs",
			filepath.Join("alembic", "versions"),
		},
		MigrationConfig:   "alembic.ini",
		MigrationTemplate: DefaultMigrationTemplate,
		EnvFile:           ".env",
		EnvTemplate:       ".env.example",
	}
}

type yamlLayout struct {
	Directories []string `yaml:"directories"`
	Migration   struct {
		Config   string `yaml:"config"`
		Template string `yaml:"template"`
	} `yaml:"migration"`
	Env struct {
		File     string `yaml:"file"`
		Template string `yaml:"template"`
	} `yaml:"env"`
}

// LoadLayout reads a YAML layout file and applies it on top of DefaultLayout.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()

	b, err := os.ReadFile(path)
	if err != nil {
		category := ferrors.CategoryConfig
		if os.IsNotExist(err) {
			category = ferrors.CategoryNotFound
		}
		return layout, ferrors.WrapError(err, category, "read layout file").
			WithContext("path", path).
			Build()
	}

	var y yamlLayout
	if err := yaml.Unmarshal(b, &y); err != nil {
		return layout, ferrors.ConfigError("parse layout file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	if len(y.Directories) > 0 {
		layout.Directories = y.Directories
	}
	if y.Migration.Config != "" {
		layout.MigrationConfig = y.Migration.Config
	}
	if y.Migration.Template != "" {
		layout.MigrationTemplate = y.Migration.Template
	}
	if y.Env.File != "" {
		layout.EnvFile = y.Env.File
	}
	if y.Env.Template != "" {
		layout.EnvTemplate = y.Env.Template
	}

	if err := layout.Validate(); err != nil {
		return layout, err
	}
	return layout, nil
}

// ResolveLayout loads explicitPath when set, otherwise root/tgbot.yaml when it
// exists, otherwise the default layout.
func ResolveLayout(root, explicitPath string) (Layout, error) {
	if explicitPath != "" {
		return LoadLayout(explicitPath)
	}
	candidate := filepath.Join(root, DefaultLayoutFile)
	if _, err := os.Stat(candidate); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return DefaultLayout(), nil
		}
		return DefaultLayout(), ferrors.ConfigError("inspect layout file").
			WithCause(err).
			WithContext("path", candidate).
			Build()
	}
	return LoadLayout(candidate)
}

// Validate rejects layouts that would write outside the workspace root.
func (l Layout) Validate() error {
	if len(l.Directories) == 0 {
		return ferrors.ConfigError("layout must list at least one directory").Build()
	}
	for _, d := range l.Directories {
		if err := validateRelative("directories", d); err != nil {
			return err
		}
	}
	for field, p := range map[string]string{
		"migration.config": l.MigrationConfig,
		"env.file":         l.EnvFile,
		"env.template":     l.EnvTemplate,
	} {
		if err := validateRelative(field, p); err != nil {
			return err
		}
	}
	if filepath.Clean(l.EnvFile) == filepath.Clean(l.EnvTemplate) {
		return ferrors.ConfigError("env.file and env.template must differ").
			WithContext("path", l.EnvFile).
			Build()
	}
	return nil
}

func validateRelative(field, p string) error {
	if strings.TrimSpace(p) == "" {
		return ferrors.ConfigError("layout path is empty").
			WithContext("field", field).
			Build()
	}
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return ferrors.ConfigError("layout path must stay inside the workspace").
			WithContext("field", field).
			WithContext("path", p).
			Build()
	}
	return nil
}
