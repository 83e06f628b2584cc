package sessions

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/snare/internal/casefile"
	"github.com/JaimeStill/snare/pkg/pagination"
	"github.com/JaimeStill/snare/pkg/query"
)

// Store persists case files by session id.
type Store interface {
	// Create stores a new case file. Returns ErrDuplicate if the id exists.
	Create(ctx context.Context, cf *casefile.CaseFile) error
	// Save replaces an existing case file. Returns ErrNotFound if it is absent.
	Save(ctx context.Context, cf *casefile.CaseFile) error
	// Load returns an independent copy of the stored case file.
	Load(ctx context.Context, id uuid.UUID) (*casefile.CaseFile, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Summary], error)
	// Prune removes every case file last updated before cutoff and reports
	// how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

type entry struct {
	summary Summary
	data    []byte
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]entry
}

// NewMemoryStore creates a process-local Store. Case files are held in
// encoded form so callers never share state with the store.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[uuid.UUID]entry)}
}

func (m *memoryStore) Create(ctx context.Context, cf *casefile.CaseFile) error {
	e, err := encodeEntry(cf)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[cf.ID]; ok {
		return ErrDuplicate
	}
	m.entries[cf.ID] = e
	return nil
}

func (m *memoryStore) Save(ctx context.Context, cf *casefile.CaseFile) error {
	e, err := encodeEntry(cf)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[cf.ID]; !ok {
		return ErrNotFound
	}
	m.entries[cf.ID] = e
	return nil
}

func (m *memoryStore) Load(ctx context.Context, id uuid.UUID) (*casefile.CaseFile, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return decodeCaseFile(e.data)
}

func (m *memoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *memoryStore) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Summary], error) {
	m.mu.RLock()
	matched := make([]Summary, 0, len(m.entries))
	for _, e := range m.entries {
		if filters.match(e.summary) && searched(e.summary, page.Search) {
			matched = append(matched, e.summary)
		}
	}
	m.mu.RUnlock()

	order := page.Sort
	if len(order) == 0 {
		order = []query.SortField{defaultSort}
	}
	slices.SortFunc(matched, func(a, b Summary) int {
		for _, f := range order {
			compare, ok := summaryOrder[f.Field]
			if !ok {
				continue
			}
			if c := compare(a, b); c != 0 {
				if f.Descending {
					return -c
				}
				return c
			}
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	result := pagination.Paginate(matched, page)
	return &result, nil
}

func (m *memoryStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.entries {
		if e.summary.UpdatedAt.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

var summaryOrder = map[string]func(a, b Summary) int{
	"CreatedAt": func(a, b Summary) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"UpdatedAt": func(a, b Summary) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	"Stage":     func(a, b Summary) int { return strings.Compare(string(a.Stage), string(b.Stage)) },
	"Category":  func(a, b Summary) int { return strings.Compare(string(a.Category), string(b.Category)) },
	"Rounds":    func(a, b Summary) int { return cmp.Compare(a.Rounds, b.Rounds) },
}

func searched(s Summary, search *string) bool {
	if search == nil || *search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.OriginalMessage), strings.ToLower(*search))
}

func encodeEntry(cf *casefile.CaseFile) (entry, error) {
	data, err := json.Marshal(cf)
	if err != nil {
		return entry{}, fmt.Errorf("encode case file: %w", err)
	}
	return entry{summary: summarize(cf), data: data}, nil
}

func decodeCaseFile(data []byte) (*casefile.CaseFile, error) {
	var cf casefile.CaseFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("decode case file: %w", err)
	}
	if cf.BaitsOffered == nil {
		cf.BaitsOffered = []string{}
	}
	if cf.History == nil {
		cf.History = []casefile.Turn{}
	}
	return &cf, nil
}
