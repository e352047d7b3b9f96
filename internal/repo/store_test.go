package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/tgbot/internal/foundation/errors"
)

var fixedNow = time.Date(2025, 3, 30, 1, 30, 0, 0, time.UTC)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "repo_store.json")
	s, err := Open(path, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s, path
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	s, path := openTestStore(t)

	assert.Empty(t, s.Groups())
	assert.Equal(t, DefaultIntervalMinutes, s.Settings().GlobalIntervalMin)
	require.NoError(t, s.Validate())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "opening must not create the store")
}

func TestAddGroups_DedupAndPersist(t *testing.T) {
	s, path := openTestStore(t)

	n, err := s.AddGroups([]string{"-100123", " @news ", "", "-100123"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.AddGroups([]string{"@news"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	reopened, err := Open(path)
	require.NoError(t, err)
	groups := reopened.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "-100123", groups[0].ChatID)
	assert.Empty(t, groups[0].Username)
	assert.Equal(t, "@news", groups[1].ChatID)
	assert.Equal(t, "news", groups[1].Username)
	assert.True(t, groups[1].CreatedAt.Equal(fixedNow))
}

func TestDeleteGroups(t *testing.T) {
	s, path := openTestStore(t)
	_, err := s.AddGroups([]string{"a", "b", "c"})
	require.NoError(t, err)

	n, err := s.DeleteGroups([]string{"b", "zzz"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	reopened, err := Open(path)
	require.NoError(t, err)
	require.Len(t, reopened.Groups(), 2)
}

func TestSetExcludedAndInterval(t *testing.T) {
	s, path := openTestStore(t)
	_, err := s.AddGroups([]string{"-1", "-2"})
	require.NoError(t, err)

	n, err := s.SetExcluded([]string{"-2", "-3"}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := s.SetGroupInterval("-1", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetGroupInterval("-9", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.SetGroupInterval("-1", 0)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	reopened, err := Open(path)
	require.NoError(t, err)
	groups := reopened.Groups()
	assert.Equal(t, 3, groups[0].Interval(5))
	assert.False(t, groups[0].ExcludedFromGlobal)
	assert.Equal(t, 5, groups[1].Interval(5))
	assert.True(t, groups[1].ExcludedFromGlobal)
}

func TestSetSettings(t *testing.T) {
	s, path := openTestStore(t)

	err := s.SetSettings(BotSettings{InfoName: "@pusher", Contact: "@admin", GlobalIntervalMin: 1441})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	require.NoError(t, s.SetSettings(BotSettings{InfoName: "@pusher", Contact: "@admin", GlobalIntervalMin: 15}))

	reopened, err := Open(path)
	require.NoError(t, err)
	got := reopened.Settings()
	assert.Equal(t, "@pusher", got.InfoName)
	assert.Equal(t, "@admin", got.Contact)
	assert.Equal(t, 15, got.GlobalIntervalMin)
	assert.True(t, got.UpdatedAt.Equal(fixedNow))
}

func TestOpen_ReadsExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo_store.json")
	doc := `{
  "settings": {"info_name": "@bot", "contact": null, "global_interval_min": 10,
               "updated_at": "2025-01-02T03:04:05.123456+00:00"},
  "groups": {
    "@chat": {"username": "chat", "name": null, "custom_interval_min": null,
              "excluded_from_global": true, "created_at": "2025-01-02T03:04:05+00:00"}
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, "@bot", s.Settings().InfoName)
	assert.Equal(t, 10, s.Settings().GlobalIntervalMin)
	groups := s.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "@chat", groups[0].ChatID)
	assert.True(t, groups[0].ExcludedFromGlobal)
	assert.Nil(t, groups[0].CustomIntervalMin)
}

func TestOpen_Invalid(t *testing.T) {
	t.Run("Corrupt JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repo_store.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := Open(path)
		require.Error(t, err)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryDatabase))
	})

	t.Run("Interval out of range", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repo_store.json")
		doc := `{"settings": {"global_interval_min": 5}, "groups": {"-1": {"custom_interval_min": 5000}}}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		s, err := Open(path)
		require.NoError(t, err)
		err = s.Validate()
		require.Error(t, err)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	})
}
