package settings

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/tgbot/internal/dburl"
	ferrors "git.home.luguber.info/inful/tgbot/internal/foundation/errors"
)

// RuntimeDirs returns the directories the bot needs before it can open its log
// file and SQLite database, resolved against root.
func (s *Settings) RuntimeDirs(root string) ([]string, error) {
	var dirs []string
	if s.LogFile != "" {
		dirs = append(dirs, filepath.Dir(resolve(root, s.LogFile)))
	}

	u, err := dburl.Parse(s.DBURL)
	if err != nil {
		return nil, ferrors.ValidationError("DB_URL is not a valid database url").
			WithCause(err).
			WithContext("variable", "DB_URL").
			Build()
	}
	if u.IsSQLite() {
		path, err := dburl.ResolveSQLitePath(s.DBURL, root)
		if err != nil {
			return nil, ferrors.ValidationError("DB_URL is not a valid sqlite url").
				WithCause(err).
				WithContext("variable", "DB_URL").
				Build()
		}
		if path != dburl.Memory {
			dirs = append(dirs, filepath.Dir(path))
		}
	}
	return dirs, nil
}

// EnsureRuntimeDirs creates every directory returned by RuntimeDirs.
func (s *Settings) EnsureRuntimeDirs(root string) ([]string, error) {
	dirs, err := s.RuntimeDirs(root)
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create runtime directory").
				WithContext("path", d).
				Build()
		}
	}
	return dirs, nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
