package workspace

import (
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/tgbot/internal/config"
	ferrors "git.home.luguber.info/inful/tgbot/internal/foundation/errors"
	"git.home.luguber.info/inful/tgbot/internal/logfields"
)

const (
	defaultDirMode    fs.FileMode = 0o755
	defaultFileMode   fs.FileMode = 0o644
	defaultSecretMode fs.FileMode = 0o600
)

// Manager bootstraps one workspace root.
type Manager struct {
	root       string
	layout     config.Layout
	logger     *slog.Logger
	dirMode    fs.FileMode
	fileMode   fs.FileMode
	secretMode fs.FileMode
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a workspace manager for root. An empty root means the
// current directory.
func NewManager(root string, layout config.Layout, opts ...Option) *Manager {
	if root == "" {
		root = "."
	}
	m := &Manager{
		root:       filepath.Clean(root),
		layout:     layout,
		logger:     slog.Default(),
		dirMode:    defaultDirMode,
		fileMode:   defaultFileMode,
		secretMode: defaultSecretMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the cleaned workspace root.
func (m *Manager) Root() string {
	return m.root
}

// Bootstrap prepares the workspace. It is safe to call any number of times.
func (m *Manager) Bootstrap(force bool) (*Report, error) {
	if err := m.layout.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID: uuid.NewString(),
		Root:  m.root,
		Force: force,
	}
	log := m.logger.With(logfields.RunID(report.RunID))
	start := time.Now()
	log.Info("Bootstrapping workspace", logfields.Path(m.root), logfields.Force(force))

	for _, dir := range m.layout.Directories {
		kind, err := m.ensureDir(dir, force)
		if err != nil {
			return report, err
		}
		report.add(ArtifactDirectory, dir, kind)
		logAction(log, ArtifactDirectory, dir, kind)
	}

	kind, err := m.ensureMigrationConfig()
	if err != nil {
		return report, err
	}
	report.add(ArtifactMigrationConfig, m.layout.MigrationConfig, kind)
	logAction(log, ArtifactMigrationConfig, m.layout.MigrationConfig, kind)

	kind, err = m.ensureEnvFile()
	if err != nil {
		return report, err
	}
	report.add(ArtifactEnvFile, m.layout.EnvFile, kind)
	if kind == ActionNoTemplate {
		log.Warn("Environment template not found; environment file not created",
			logfields.Path(m.layout.EnvTemplate))
	} else {
		logAction(log, ArtifactEnvFile, m.layout.EnvFile, kind)
	}

	log.Info("Workspace ready",
		slog.Int("created", report.Count(ActionCreated)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return report, nil
}

func logAction(log *slog.Logger, artifact Artifact, path string, kind ActionKind) {
	log.Debug("Artifact ensured",
		logfields.Artifact(string(artifact)),
		logfields.Path(path),
		logfields.Action(string(kind)))
}

func (m *Manager) abs(rel string) string {
	return filepath.Join(m.root, rel)
}

func (m *Manager) ensureDir(rel string, force bool) (ActionKind, error) {
	path := m.abs(rel)

	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return "", ferrors.NewError(ferrors.CategoryAlreadyExists, "path exists and is not a directory").
			Fatal().
			UserAction().
			WithContext("path", path).
			Build()
	case err == nil && !force:
		return ActionExists, nil
	case err != nil && !os.IsNotExist(err):
		return "", fsError(err, "inspect directory", path)
	}

	existed := err == nil
	if err := os.MkdirAll(path, m.dirMode); err != nil {
		return "", fsError(err, "create directory", path)
	}
	if !existed {
		return ActionCreated, nil
	}
	if err := os.Chmod(path, m.dirMode); err != nil {
		return "", fsError(err, "re-assert directory mode", path)
	}
	return ActionAsserted, nil
}

func (m *Manager) ensureMigrationConfig() (ActionKind, error) {
	path := m.abs(m.layout.MigrationConfig)
	created, err := m.createExclusive(path, []byte(m.layout.MigrationTemplate), m.fileMode)
	if err != nil {
		return "", err
	}
	if created {
		return ActionCreated, nil
	}
	return ActionExists, nil
}

func (m *Manager) ensureEnvFile() (ActionKind, error) {
	path := m.abs(m.layout.EnvFile)
	if _, err := os.Lstat(path); err == nil {
		return ActionExists, nil
	} else if !os.IsNotExist(err) {
		return "", fsError(err, "inspect environment file", path)
	}

	templatePath := m.abs(m.layout.EnvTemplate)
	data, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return ActionNoTemplate, nil
		}
		return "", fsError(err, "read environment template", templatePath)
	}

	created, err := m.createExclusive(path, data, m.secretMode)
	if err != nil {
		return "", err
	}
	if created {
		return ActionCreated, nil
	}
	return ActionExists, nil
}

// createExclusive writes data to path only if path does not exist yet.
// It reports false without error when another writer got there first.
func (m *Manager) createExclusive(path string, data []byte, mode fs.FileMode) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), m.dirMode); err != nil {
		return false, fsError(err, "create parent directory", filepath.Dir(path))
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		if stderrors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fsError(err, "create file", path)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path) // a half-written file would block later runs
		return false, fsError(err, "write file", path)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return false, fsError(err, "close file", path)
	}
	return true, nil
}

func fsError(err error, msg, path string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, msg).
		WithRetry(ferrors.RetryImmediate).
		WithContext("path", path).
		Build()
}
