// Package store keeps ingested and normalized datasets in memory for the lifetime of the process.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/normalize"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
)

// ErrNotFound is returned for ids the store does not hold.
var ErrNotFound = errors.New("dataset not found")

// Paging defaults.
const (
	DefaultPerPage = 100
	DefaultMaxPage = 1000
)

// Entry is everything known about one dataset: the raw table as ingested and, once normalized,
// the canonical dataset and the report of how it was produced.
type Entry struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Source    *dataset.Table    `json:"-"`
	Profile   dataset.Profile   `json:"profile"`
	Detection schema.Detection  `json:"detection"`
	Dataset   *dataset.Dataset  `json:"-"`
	Report    *normalize.Report `json:"normalization,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Normalized reports whether the entry carries a normalized dataset.
func (e Entry) Normalized() bool {
	return e.Dataset != nil
}

// Rows returns the row count of the most recent form of the data.
func (e Entry) Rows() int {
	if e.Dataset != nil {
		return e.Dataset.Len()
	}
	return e.Source.Len()
}

// Info is the listing view of an entry.
type Info struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Platform   schema.Platform `json:"platform"`
	Rows       int             `json:"rows"`
	Columns    int             `json:"columns"`
	Normalized bool            `json:"normalized"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Page is one window of a dataset's rows.
type Page struct {
	ID         string     `json:"id"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	TotalRows  int        `json:"total_rows"`
	TotalPages int        `json:"total_pages"`
	Normalized bool       `json:"normalized"`
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"rows"`
}

// Stats summarises the store contents.
type Stats struct {
	Datasets   int `json:"datasets"`
	Normalized int `json:"normalized"`
	TotalRows  int `json:"total_rows"`
}

// Memory is a concurrency-safe in-memory dataset store. Entries are copied on read; the tables
// and datasets they point to are never mutated after being stored.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	maxPerPage int
	now        func() time.Time
}

// NewMemory creates an empty store. maxPerPage caps page sizes; zero selects DefaultMaxPage.
func NewMemory(maxPerPage int) *Memory {
	if maxPerPage <= 0 {
		maxPerPage = DefaultMaxPage
	}
	return &Memory{
		entries:    make(map[string]*Entry),
		maxPerPage: maxPerPage,
		now:        time.Now,
	}
}

// Create stores a new entry under a fresh id and returns the stored copy.
func (s *Memory) Create(e Entry) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	e.UpdatedAt = e.CreatedAt
	if e.Dataset != nil {
		e.Dataset = e.Dataset.WithRecords(e.Dataset.Records)
		e.Dataset.ID = e.ID
	}

	s.entries[e.ID] = &e
	return e
}

// Get returns a copy of the entry.
func (s *Memory) Get(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *e, nil
}

// SetNormalized replaces the normalized form of an entry.
func (s *Memory) SetNormalized(id string, ds *dataset.Dataset, report *normalize.Report) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := *e
	updated.Dataset = ds.WithRecords(ds.Records)
	updated.Dataset.ID = id
	if updated.Dataset.Name == "" {
		updated.Dataset.Name = e.Name
	}
	updated.Report = report
	updated.UpdatedAt = s.now().UTC()

	s.entries[id] = &updated
	return updated, nil
}

// Delete removes an entry.
func (s *Memory) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.entries, id)
	return nil
}

// Reset removes every entry and returns how many were held.
func (s *Memory) Reset() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	s.entries = make(map[string]*Entry)
	return n
}

// List returns every entry, oldest first.
func (s *Memory) List() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Info, 0, len(s.entries))
	for _, e := range s.entries {
		info := Info{
			ID:         e.ID,
			Name:       e.Name,
			Platform:   e.Detection.Platform,
			Rows:       e.Rows(),
			Normalized: e.Normalized(),
			CreatedAt:  e.CreatedAt,
			UpdatedAt:  e.UpdatedAt,
		}
		if e.Source != nil {
			info.Columns = len(e.Source.Columns)
		}
		if e.Dataset != nil {
			info.Platform = e.Dataset.Platform
		}
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Stats returns counts over the whole store.
func (s *Memory) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	for _, e := range s.entries {
		st.Datasets++
		if e.Normalized() {
			st.Normalized++
		}
		st.TotalRows += e.Rows()
	}
	return st
}

// Page returns rows of the normalized dataset, or of the raw table before normalization. Pages
// are 1-based; a non-positive perPage selects DefaultPerPage and larger sizes are capped.
func (s *Memory) Page(id string, page, perPage int) (Page, error) {
	e, err := s.Get(id)
	if err != nil {
		return Page{}, err
	}

	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > s.maxPerPage {
		perPage = s.maxPerPage
	}

	source := e.Source
	if source == nil {
		source = &dataset.Table{}
	}
	total := source.Len()
	columns := source.Columns
	if e.Dataset != nil {
		total = e.Dataset.Len()
		columns = e.Dataset.TableColumns()
	}

	out := Page{
		ID:         id,
		Page:       page,
		PerPage:    perPage,
		TotalRows:  total,
		TotalPages: (total + perPage - 1) / perPage,
		Normalized: e.Normalized(),
		Columns:    columns,
		Rows:       [][]string{},
	}

	start := (page - 1) * perPage
	if start >= total {
		return out, nil
	}
	end := min(start+perPage, total)

	// Only the requested window of a normalized dataset is rendered.
	if e.Dataset != nil {
		out.Rows = e.Dataset.TableRows(start, end).Rows
	} else {
		out.Rows = source.Rows[start:end]
	}
	return out, nil
}
