package commands

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/tgbot/internal/settings"
)

const validKey = "0123456789abcdef0123456789abcdef"

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func clearBotEnv(t *testing.T) {
	t.Helper()
	for _, k := range settings.Variables {
		t.Setenv(k, "")
	}
}

func TestBootstrap_FreshWorkspace(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env.example"), []byte("BOT_TOKEN=\n"), 0o644))

	code, stdout, _ := run(t, "bootstrap", "--dir", root)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Workspace ready")

	for _, p := range []string{"data", "logs", "certs", "alembic/versions", "alembic.ini", ".env"} {
		_, err := os.Stat(filepath.Join(root, p))
		assert.NoError(t, err, p)
	}

	code, stdout, _ = run(t, "bootstrap", "--dir", root, "--force")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "already up to date")
	assert.Contains(t, stdout, "asserted")
}

func TestBootstrap_BadLayoutExitCode(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tgbot.yaml"), []byte("directories: [/abs]\n"), 0o644))

	code, _, stderr := run(t, "bootstrap", "--dir", root)
	assert.Equal(t, 7, code)
	assert.Contains(t, stderr, "layout path must stay inside the workspace")
}

func TestCheck_MissingToken(t *testing.T) {
	clearBotEnv(t)
	root := t.TempDir()

	code, _, stderr := run(t, "check", "--dir", root)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "BOT_TOKEN is required")
}

func TestCheck_ValidSettings(t *testing.T) {
	clearBotEnv(t)
	root := t.TempDir()
	env := "BOT_TOKEN=123:abc\nENC_MASTER_KEY=" + validKey + "\nADMIN_USERS=42\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte(env), 0o600))

	code, stdout, stderr := run(t, "check", "--dir", root)
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "mode:          polling")
	assert.Contains(t, stdout, "admins:        42")
	assert.Contains(t, stdout, "migration url: sqlite+pysqlite:///./data/bot.db")
	assert.Contains(t, stdout, ".env is not listed in .gitignore")
	assert.Contains(t, stdout, "logging:       INFO to logs/bot.log (rotate at 10485760 bytes, keep 5)")
	assert.Contains(t, stdout, "sqlite:        not created yet")
	assert.Contains(t, stdout, "groups:        0 (0 excluded, every 5 min)")
	assert.Contains(t, stdout, "Settings OK")
	assert.NotContains(t, stdout+stderr, "123:abc")

	_, err := os.Stat(filepath.Join(root, "data", "bot.db"))
	assert.True(t, os.IsNotExist(err), "check must not create the database")
	_, err = os.Stat(filepath.Join(root, "data", "repo_store.json"))
	assert.True(t, os.IsNotExist(err), "check must not create the group store")
	_, err = os.Stat(filepath.Join(root, "logs"))
	assert.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte(".env\n"), 0o644))
	code, stdout, _ = run(t, "check", "--dir", root, "--no-probe")
	require.Equal(t, 0, code)
	assert.NotContains(t, stdout, "not listed in .gitignore")
	assert.NotContains(t, stdout, "tables)")
}

func TestCheck_ProbesExistingDatabase(t *testing.T) {
	clearBotEnv(t)
	root := t.TempDir()
	env := "BOT_TOKEN=123:abc\nENC_MASTER_KEY=" + validKey + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte(env), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))

	db, err := sql.Open("sqlite", filepath.Join(root, "data", "bot.db"))
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE groups (chat_id TEXT PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	code, stdout, stderr := run(t, "check", "--dir", root)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "(1 tables)")
}

func TestCheck_LogLevelFromSettings(t *testing.T) {
	clearBotEnv(t)
	root := t.TempDir()
	env := "BOT_TOKEN=123:abc\nENC_MASTER_KEY=" + validKey + "\nLOG_LEVEL=DEBUG\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte(env), 0o600))

	code, _, stderr := run(t, "check", "--dir", root, "--no-probe")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "Settings loaded")
	assert.Contains(t, stderr, "mode=polling")
	assert.NotContains(t, stderr, "123:abc")
}

func TestCheck_InvalidGroupStore(t *testing.T) {
	clearBotEnv(t)
	root := t.TempDir()
	env := "BOT_TOKEN=123:abc\nENC_MASTER_KEY=" + validKey + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte(env), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))
	store := `{"settings": {"global_interval_min": 0}, "groups": {"-1": {"custom_interval_min": 9999}}}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "repo_store.json"), []byte(store), 0o644))

	code, _, stderr := run(t, "check", "--dir", root, "--no-probe")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "interval must be between 1 and 1440 minutes")
}

func TestGroups_Lifecycle(t *testing.T) {
	root := t.TempDir()

	code, stdout, _ := run(t, "groups", "--dir", root)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "No groups")

	code, stdout, stderr := run(t, "groups", "add", "--dir", root, "--", "-100123", "@news", "@news")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Added 2 group(s)")

	code, stdout, _ = run(t, "groups", "exclude", "--dir", root, "@news")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Updated 1 group(s)")

	code, _, _ = run(t, "groups", "interval", "--dir", root, "--", "3", "-100123")
	require.Equal(t, 0, code)
	code, _, _ = run(t, "groups", "interval", "--dir", root, "15")
	require.Equal(t, 0, code)

	code, stdout, _ = run(t, "groups", "list", "--dir", root)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "3 min (custom)")
	assert.Contains(t, stdout, "15 min")
	assert.Contains(t, stdout, "excluded")

	code, _, stderr = run(t, "groups", "interval", "--dir", root, "--", "5", "-999")
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "unknown group")

	code, _, _ = run(t, "groups", "interval", "--dir", root, "0")
	assert.Equal(t, 2, code)

	code, stdout, _ = run(t, "groups", "del", "--dir", root, "--", "-100123")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Removed 1 group(s)")
}

func TestCheck_WebhookWarnsAboutTLS(t *testing.T) {
	clearBotEnv(t)
	root := t.TempDir()
	env := "BOT_TOKEN=123:abc\nENC_MASTER_KEY=" + validKey +
		"\nBOT_MODE=webhook\nWEBHOOK_URL=https://bot.example.com\nDB_URL=postgresql://db/bot\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte(env), 0o600))

	code, stdout, _ := run(t, "check", "--dir", root)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "webhook:       https://bot.example.com/webhook")
	assert.Contains(t, stdout, "TLS certificate not found")
	assert.Contains(t, stdout, "TLS key not found")
}

func TestVersionFlag(t *testing.T) {
	code, stdout, _ := run(t, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "tgbot ")
}

func TestNoCommand(t *testing.T) {
	code, _, _ := run(t)
	assert.Equal(t, 2, code)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("root", ".env"), resolvePath("root", ".env"))
	assert.Equal(t, "/etc/bot.env", resolvePath("root", "/etc/bot.env"))
}
