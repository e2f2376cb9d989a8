package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/newsfeed-import/app/database"
)

type listingItem struct {
	title string
	link  string
	date  string
	tags  []string
}

func listingPage(items ...listingItem) []byte {
	var b strings.Builder
	b.WriteString(`<html><head><meta charset="utf-8"></head><body><div class="view-content">`)
	for _, item := range items {
		b.WriteString(`<div class="contextual-links-region">`)
		fmt.Fprintf(&b, `<span class="field-content"><a href="%s">%s</a></span>`, item.link, item.title)
		fmt.Fprintf(&b, `<div class="views-field views-field-created"><span>%s</span></div>`, item.date)
		if item.tags != nil {
			b.WriteString(`<div class="field-content newstype-field">`)
			for _, tag := range item.tags {
				fmt.Fprintf(&b, `<a href="/tags/%s">%s</a>`, tag, tag)
			}
			b.WriteString(`</div>`)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></body></html>`)
	return []byte(b.String())
}

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[int][]byte
	errs  map[int]error
	calls []int
}

func (f *fakeFetcher) Run(ctx context.Context, page int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, page)
	if err := f.errs[page]; err != nil {
		return nil, err
	}
	if data, ok := f.pages[page]; ok {
		return data, nil
	}
	return listingPage(), nil
}

func (f *fakeFetcher) Calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

// memoryStore is an in-memory newsfeed_imports table with the same
// insert-if-absent and transaction semantics as the SQL repositories.
type memoryStore struct {
	mu        sync.Mutex
	rows      []database.NewsImport
	settings  []database.Setting
	reads     int
	openErr   error
	insertErr error
	opened    int
	closed    int
	commits   int
	rollbacks int
}

func newMemoryStore(highWater string, unit string, value int) *memoryStore {
	store := &memoryStore{settings: []database.Setting{{CronSchedule: unit, CronValue: value}}}
	if highWater != "" {
		store.rows = append(store.rows, database.NewsImport{
			Title:       "seed",
			Digest:      "seed",
			DateCreated: mustDate(highWater),
		})
	}
	return store
}

func mustDate(value string) time.Time {
	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(err)
	}
	return date
}

func (m *memoryStore) Open(ctx context.Context) (database.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.openErr != nil {
		return nil, m.openErr
	}
	m.opened++
	return &memorySession{store: m}, nil
}

func (m *memoryStore) Rows() []database.NewsImport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.NewsImport(nil), m.rows...)
}

type memorySession struct {
	store *memoryStore
}

func (s *memorySession) Imports() database.ImportRepository   { return s }
func (s *memorySession) Settings() database.SettingsRepository { return s }

func (s *memorySession) Close() error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.closed++
	return nil
}

func (s *memorySession) MaxDateCreated(ctx context.Context) (time.Time, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if len(s.store.rows) == 0 {
		return time.Time{}, database.ErrEmptyStore
	}
	var latest time.Time
	for _, row := range s.store.rows {
		if row.DateCreated.After(latest) {
			latest = row.DateCreated
		}
	}
	return latest, nil
}

func (s *memorySession) GetRecentImports(ctx context.Context, limit int) ([]database.ImportedRecord, error) {
	return nil, nil
}

func (s *memorySession) GetImportCount(ctx context.Context) (int, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return len(s.store.rows), nil
}

func (s *memorySession) GetSetting(ctx context.Context) (*database.Setting, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if len(s.store.settings) == 0 {
		return nil, database.ErrNoSettings
	}
	idx := s.store.reads
	if idx >= len(s.store.settings) {
		idx = len(s.store.settings) - 1
	}
	s.store.reads++
	setting := s.store.settings[idx]
	return &setting, nil
}

func (s *memorySession) BeginImport(ctx context.Context) (database.ImportTx, error) {
	return &memoryTx{store: s.store}, nil
}

type memoryTx struct {
	store   *memoryStore
	pending []database.NewsImport
	done    bool
}

func (tx *memoryTx) TryInsertIfAbsent(ctx context.Context, item database.NewsImport) (bool, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	if tx.store.insertErr != nil {
		return false, tx.store.insertErr
	}
	for _, row := range tx.store.rows {
		if row.Digest == item.Digest {
			return false, nil
		}
	}
	for _, row := range tx.pending {
		if row.Digest == item.Digest {
			return false, nil
		}
	}
	tx.pending = append(tx.pending, item)
	return true, nil
}

func (tx *memoryTx) Commit() error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	tx.store.rows = append(tx.store.rows, tx.pending...)
	tx.store.commits++
	tx.done = true
	return nil
}

func (tx *memoryTx) Rollback() error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	if tx.done {
		return nil
	}
	tx.store.rollbacks++
	tx.done = true
	return nil
}
