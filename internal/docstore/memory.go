// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Unique declares a unique constraint over one or more data fields of a
// collection. Documents missing any of the fields are not constrained,
// matching how a partial expression index treats NULL.
type Unique struct {
	Collection string
	Fields     []string
	// Fold compares values case-insensitively.
	Fold bool
}

// Memory is an in-process document store. Values are normalized through
// JSON on write so reads return the same shapes the Postgres store does.
type Memory struct {
	mu      sync.RWMutex
	docs    map[string]map[string]*memDoc
	uniques []Unique
	seq     int64
	now     func() time.Time
}

type memDoc struct {
	doc Document
	seq int64
}

// NewMemory creates an empty in-memory store enforcing the given
// unique constraints.
func NewMemory(uniques ...Unique) *Memory {
	return &Memory{
		docs:    make(map[string]map[string]*memDoc),
		uniques: uniques,
		now:     time.Now,
	}
}

// Create inserts a new document.
func (m *Memory) Create(_ context.Context, collection, id string, fields Fields) (*Document, error) {
	data, err := normalize(fields)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.docs[collection]
	if coll == nil {
		coll = make(map[string]*memDoc)
		m.docs[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return nil, fmt.Errorf("create %s document: %w", collection, ErrConflict)
	}
	if err := m.checkUnique(collection, id, data); err != nil {
		return nil, fmt.Errorf("create %s document: %w", collection, err)
	}

	now := m.now().UTC()
	m.seq++
	d := &memDoc{
		doc: Document{ID: id, Collection: collection, Data: data, CreatedAt: now, UpdatedAt: now},
		seq: m.seq,
	}
	coll[id] = d
	return cloneDocument(d.doc)
}

// Get retrieves a document by id. Returns nil if not found.
func (m *Memory) Get(_ context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[collection][id]
	if !ok {
		return nil, nil
	}
	return cloneDocument(d.doc)
}

// List returns the documents matching the query.
func (m *Memory) List(_ context.Context, collection string, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	m.mu.RLock()
	matched := m.match(collection, q.Filters)
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		for _, s := range q.Sort {
			c := compareField(a.doc, b.doc, s.Field)
			if s.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		if !a.doc.CreatedAt.Equal(b.doc.CreatedAt) {
			return a.doc.CreatedAt.Before(b.doc.CreatedAt)
		}
		return a.seq < b.seq
	})

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]Document, 0, len(matched))
	for _, d := range matched {
		c, err := cloneDocument(d.doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// Count returns the number of documents matching the filters.
func (m *Memory) Count(_ context.Context, collection string, filters ...Filter) (int, error) {
	if err := validateQuery(Query{Filters: filters}); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.match(collection, filters)), nil
}

// Update merges fields into an existing document. Returns nil if the
// document does not exist.
func (m *Memory) Update(_ context.Context, collection, id string, fields Fields) (*Document, error) {
	patch, err := normalize(fields)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[collection][id]
	if !ok {
		return nil, nil
	}

	merged := make(Fields, len(d.doc.Data)+len(patch))
	for k, v := range d.doc.Data {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	if err := m.checkUnique(collection, id, merged); err != nil {
		return nil, fmt.Errorf("update %s document: %w", collection, err)
	}

	d.doc.Data = merged
	d.doc.UpdatedAt = m.now().UTC()
	return cloneDocument(d.doc)
}

// Delete removes a document by id.
func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs[collection], id)
	return nil
}

// match returns the documents of a collection that satisfy every filter.
// Caller must hold the lock.
func (m *Memory) match(collection string, filters []Filter) []*memDoc {
	var out []*memDoc
	for _, d := range m.docs[collection] {
		if matchesAll(d.doc, filters) {
			out = append(out, d)
		}
	}
	return out
}

// checkUnique reports ErrConflict when data collides with another
// document under a declared constraint. Caller must hold the write lock.
func (m *Memory) checkUnique(collection, id string, data Fields) error {
	for _, u := range m.uniques {
		if u.Collection != collection {
			continue
		}
		key, ok := uniqueKey(u, data)
		if !ok {
			continue
		}
		for otherID, other := range m.docs[collection] {
			if otherID == id {
				continue
			}
			if otherKey, ok := uniqueKey(u, other.doc.Data); ok && otherKey == key {
				return ErrConflict
			}
		}
	}
	return nil
}

// uniqueKey joins the constrained field values. The second result is
// false when any field is absent or null.
func uniqueKey(u Unique, data Fields) (string, bool) {
	parts := make([]string, 0, len(u.Fields))
	for _, f := range u.Fields {
		v, ok := data[f]
		if !ok || v == nil {
			return "", false
		}
		text := filterText(v)
		if u.Fold {
			text = strings.ToLower(text)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\x00"), true
}

func matchesAll(d Document, filters []Filter) bool {
	for _, f := range filters {
		if fieldText(d, f.Field) != filterText(f.Value) {
			return false
		}
	}
	return true
}

// fieldText renders a stored field the way the Postgres store compares it.
func fieldText(d Document, field string) string {
	switch field {
	case FieldID:
		return d.ID
	case FieldCreatedAt:
		return d.CreatedAt.String()
	case FieldUpdatedAt:
		return d.UpdatedAt.String()
	}
	v, ok := d.Data[field]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return formatFloat(val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// compareField orders two documents by one field. Missing fields sort
// after present ones; values of different JSON types order as
// null < string < number < bool, the PostgreSQL jsonb ordering.
func compareField(a, b Document, field string) int {
	switch field {
	case FieldID:
		return strings.Compare(a.ID, b.ID)
	case FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case FieldUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}

	av, aok := a.Data[field]
	bv, bok := b.Data[field]
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}

	ar, br := typeRank(av), typeRank(bv)
	if ar != br {
		return ar - br
	}
	switch x := av.(type) {
	case string:
		return strings.Compare(x, bv.(string))
	case float64:
		y := bv.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case bool:
		y := bv.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	return 0
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case string:
		return 1
	case float64:
		return 2
	case bool:
		return 3
	case []any:
		return 4
	default:
		return 5
	}
}

// normalize round-trips fields through JSON.
func normalize(fields Fields) (Fields, error) {
	if fields == nil {
		return Fields{}, nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode document fields: %w", err)
	}
	var out Fields
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode document fields: %w", err)
	}
	return out, nil
}

// cloneDocument returns a deep copy so callers cannot mutate stored state.
func cloneDocument(d Document) (*Document, error) {
	data, err := normalize(d.Data)
	if err != nil {
		return nil, err
	}
	d.Data = data
	return &d, nil
}
