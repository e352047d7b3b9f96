package repo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/tgbot/internal/foundation/errors"
)

// DefaultStorePath is the store location relative to the workspace root.
const DefaultStorePath = "data/repo_store.json"

// document is the on-disk layout of the store file.
type document struct {
	Settings BotSettings       `json:"settings"`
	Groups   map[string]*Group `json:"groups"`
}

// Store is a JSON file backed repository. Every mutation that changes
// something is written through to disk.
type Store struct {
	path string
	now  func() time.Time

	mu  sync.RWMutex
	doc document
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Open loads the store at path. A missing file yields an empty store; the
// file is only created on the first change.
func Open(path string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		path: path,
		now:  time.Now,
		doc: document{
			Settings: BotSettings{GlobalIntervalMin: DefaultIntervalMinutes},
			Groups:   map[string]*Group{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, storeError(err, "read store", path)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, storeError(err, "parse store", path)
	}
	if s.doc.Groups == nil {
		s.doc.Groups = map[string]*Group{}
	}
	if s.doc.Settings.GlobalIntervalMin == 0 {
		s.doc.Settings.GlobalIntervalMin = DefaultIntervalMinutes
	}
	for id, g := range s.doc.Groups {
		if g == nil {
			g = &Group{}
			s.doc.Groups[id] = g
		}
		g.ChatID = id
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Settings returns the bot settings record.
func (s *Store) Settings() BotSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Settings
}

// SetSettings replaces the settings record and saves.
func (s *Store) SetSettings(settings BotSettings) error {
	if !validInterval(settings.GlobalIntervalMin) {
		return intervalError(settings.GlobalIntervalMin).Build()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.UpdatedAt = s.now().UTC()
	s.doc.Settings = settings
	return s.save()
}

// Groups returns every group ordered by chat id.
func (s *Store) Groups() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Group, 0, len(s.doc.Groups))
	for _, g := range s.doc.Groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b Group) int { return strings.Compare(a.ChatID, b.ChatID) })
	return out
}

// AddGroups registers new chat ids, ignoring blanks and ones already known.
// It returns the number added.
func (s *Store) AddGroups(ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	added := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := s.doc.Groups[id]; ok {
			continue
		}
		g := &Group{ChatID: id, CreatedAt: now, UpdatedAt: now}
		if name, ok := strings.CutPrefix(id, "@"); ok {
			g.Username = name
		}
		s.doc.Groups[id] = g
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.save()
}

// DeleteGroups removes the given chat ids and returns how many existed.
func (s *Store) DeleteGroups(ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := s.doc.Groups[id]; ok {
			delete(s.doc.Groups, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save()
}

// SetExcluded marks known groups as excluded from (or included in) the
// global schedule. Unknown ids are skipped.
func (s *Store) SetExcluded(ids []string, excluded bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	changed := 0
	for _, id := range ids {
		g, ok := s.doc.Groups[strings.TrimSpace(id)]
		if !ok {
			continue
		}
		g.ExcludedFromGlobal = excluded
		g.UpdatedAt = now
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, s.save()
}

// SetGroupInterval sets a per-group interval. It reports false when the
// group is unknown.
func (s *Store) SetGroupInterval(id string, minutes int) (bool, error) {
	if !validInterval(minutes) {
		return false, intervalError(minutes).Build()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.doc.Groups[strings.TrimSpace(id)]
	if !ok {
		return false, nil
	}
	g.CustomIntervalMin = &minutes
	g.UpdatedAt = s.now().UTC()
	return true, s.save()
}

// Validate checks a loaded store for values the bot would reject.
func (s *Store) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !validInterval(s.doc.Settings.GlobalIntervalMin) {
		return intervalError(s.doc.Settings.GlobalIntervalMin).
			WithContext("path", s.path).
			Build()
	}
	for id, g := range s.doc.Groups {
		if strings.TrimSpace(id) == "" {
			return ferrors.ValidationError("group with empty chat id").
				WithContext("path", s.path).
				Build()
		}
		if g.CustomIntervalMin != nil && !validInterval(*g.CustomIntervalMin) {
			return intervalError(*g.CustomIntervalMin).
				WithContext("path", s.path).
				WithContext("group", id).
				Build()
		}
	}
	return nil
}

// save writes the document through a temporary file. Callers hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return ferrors.InternalError("encode store").WithCause(err).Build()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return storeError(err, "create store directory", filepath.Dir(s.path))
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return storeError(err, "write store", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return storeError(err, "replace store", s.path)
	}
	return nil
}

func intervalError(minutes int) *ferrors.ErrorBuilder {
	return ferrors.ValidationError(fmt.Sprintf("interval must be between %d and %d minutes",
		MinIntervalMinutes, MaxIntervalMinutes)).
		WithContext("minutes", minutes)
}

func storeError(err error, msg, path string) error {
	return ferrors.WrapError(err, ferrors.CategoryDatabase, msg).
		WithContext("path", path).
		Build()
}
