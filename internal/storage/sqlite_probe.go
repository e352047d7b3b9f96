package storage

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/tgbot/internal/foundation/errors"
)

// ProbeResult describes a reachable SQLite database.
type ProbeResult struct {
	Path    string
	Version string
	Tables  int
}

// ProbeSQLite opens an existing database at path read-write, pings it and
// reads basic metadata. It never creates the file: a missing database is a
// not_found error.
func ProbeSQLite(ctx context.Context, path string) (*ProbeResult, error) {
	res := &ProbeResult{Path: path}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.WrapError(err, ferrors.CategoryNotFound, "sqlite database does not exist").
				WithContext("path", path).
				Build()
		}
		return nil, probeError(err, "inspect sqlite database", path)
	}

	db, err := sql.Open("sqlite", existingFileDSN(path))
	if err != nil {
		return nil, probeError(err, "open sqlite database", path)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.PingContext(ctx); err != nil {
		return nil, probeError(err, "ping sqlite database", path)
	}
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&res.Version); err != nil {
		return nil, probeError(err, "query sqlite version", path)
	}

	var integrity string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&integrity); err != nil {
		return nil, probeError(err, "run integrity check", path)
	}
	if integrity != "ok" {
		return nil, ferrors.DatabaseError("sqlite integrity check failed").
			WithContext("path", path).
			WithContext("result", integrity).
			Build()
	}

	if err := db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table'").Scan(&res.Tables); err != nil {
		return nil, probeError(err, "count tables", path)
	}
	return res, nil
}

// existingFileDSN builds a URI filename with mode=rw so the driver fails
// instead of creating the file.
func existingFileDSN(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=rw"}
	return u.String()
}

func probeError(err error, msg, path string) error {
	return ferrors.WrapError(err, ferrors.CategoryDatabase, msg).
		WithContext("path", path).
		Build()
}
