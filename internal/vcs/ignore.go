// Package vcs answers version-control questions about a workspace, such as
// whether the environment file is kept out of git.
package vcs

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	ferrors "git.home.luguber.info/inful/tgbot/internal/foundation/errors"
)

// IsIgnored reports whether rel (relative to root) is ignored by the
// .gitignore files under root, nested ones included. A tree without any
// .gitignore ignores nothing.
func IsIgnored(root, rel string, isDir bool) (bool, error) {
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return false, ferrors.WrapError(err, ferrors.CategoryVCS, "read .gitignore files").
			WithContext("path", root).
			Build()
	}
	if len(patterns) == 0 {
		return false, nil
	}
	parts := strings.Split(filepath.ToSlash(filepath.Clean(rel)), "/")
	return gitignore.NewMatcher(patterns).Match(parts, isDir), nil
}
