// Package dburl parses migration-tool style database URLs
// (dialect+driver://...) and maps SQLite URLs onto filesystem paths.
package dburl

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Memory is the path used for in-memory SQLite databases.
const Memory = ":memory:"

// URL is a parsed database URL.
type URL struct {
	Raw     string
	Dialect string
	Driver  string
	Rest    string
}

// Parse splits raw into dialect, optional driver and the remainder after "://".
func Parse(raw string) (URL, error) {
	raw = strings.TrimSpace(raw)
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return URL{}, fmt.Errorf("database url %q: missing scheme", raw)
	}
	dialect, driver, _ := strings.Cut(scheme, "+")
	if dialect == "" {
		return URL{}, fmt.Errorf("database url %q: missing dialect", raw)
	}
	return URL{
		Raw:     raw,
		Dialect: strings.ToLower(dialect),
		Driver:  strings.ToLower(driver),
		Rest:    rest,
	}, nil
}

// IsSQLite reports whether the URL targets SQLite.
func (u URL) IsSQLite() bool {
	return u.Dialect == "sqlite"
}

// SQLitePath returns the database path encoded in a SQLite URL.
// "sqlite:///rel.db" yields "rel.db", "sqlite:////abs.db" yields "/abs.db",
// and an empty path or ":memory:" yields Memory.
func (u URL) SQLitePath() (string, error) {
	if !u.IsSQLite() {
		return "", fmt.Errorf("database url %q is not sqlite", u.Raw)
	}
	rest, _, _ := strings.Cut(u.Rest, "?")
	if rest == "" || rest == "/" {
		return Memory, nil
	}
	if !strings.HasPrefix(rest, "/") {
		return "", fmt.Errorf("database url %q: sqlite urls take no host", u.Raw)
	}
	path := strings.TrimPrefix(rest, "/")
	if path == Memory {
		return Memory, nil
	}
	return path, nil
}

// ResolveSQLitePath resolves the SQLite path of raw against root.
func ResolveSQLitePath(raw, root string) (string, error) {
	u, err := Parse(raw)
	if err != nil {
		return "", err
	}
	path, err := u.SQLitePath()
	if err != nil {
		return "", err
	}
	if path == Memory || filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(root, filepath.FromSlash(path)), nil
}

// SyncURL swaps an async SQLite driver for its synchronous counterpart so the
// migration tool, which runs synchronously, can use the same URL as the bot.
func SyncURL(raw string) string {
	return strings.ReplaceAll(raw, "sqlite+aiosqlite", "sqlite+pysqlite")
}
