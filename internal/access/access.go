// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package access decides whether a user is a site admin by looking the user
// up in a configurable admin collection. The collection has no fixed
// schema, so membership is tested by an ordered list of strategies: exact
// matches on a set of likely field names, then a substring scan over a
// bounded number of records.
//
// The substring scan is permissive. A user id that happens to appear
// inside an unrelated value of any admin record is treated as an admin.
package access

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"inkwell/internal/docstore"
)

// ProbeFields are the field names tried, in order, for an exact match.
var ProbeFields = []string{"userId", "user_id", "author_id", "userID", "uid", "id", "email"}

// ScanLimit bounds the number of records the substring scan reads.
const ScanLimit = 50

// Strategy is one way of finding userID in an admin collection.
type Strategy interface {
	Name() string
	Match(ctx context.Context, db docstore.DB, collection, userID string) (bool, error)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc struct {
	Label string
	Fn    func(ctx context.Context, db docstore.DB, collection, userID string) (bool, error)
}

func (s StrategyFunc) Name() string { return s.Label }

func (s StrategyFunc) Match(ctx context.Context, db docstore.DB, collection, userID string) (bool, error) {
	return s.Fn(ctx, db, collection, userID)
}

// FieldProbe matches records whose Field equals the user id exactly.
type FieldProbe struct {
	Field string
}

func (p FieldProbe) Name() string { return "field:" + p.Field }

func (p FieldProbe) Match(ctx context.Context, db docstore.DB, collection, userID string) (bool, error) {
	n, err := db.Count(ctx, collection, docstore.Eq(p.Field, userID))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SubstringScan reads up to Limit records and matches any whose JSON form
// contains the user id, ignoring case.
type SubstringScan struct {
	Limit int
}

func (s SubstringScan) Name() string { return "scan" }

func (s SubstringScan) Match(ctx context.Context, db docstore.DB, collection, userID string) (bool, error) {
	docs, err := db.List(ctx, collection, docstore.Query{Limit: s.Limit})
	if err != nil {
		return false, err
	}
	needle := strings.ToLower(userID)
	for _, d := range docs {
		record := make(map[string]any, len(d.Data)+1)
		for k, v := range d.Data {
			record[k] = v
		}
		record[docstore.FieldID] = d.ID
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(record); err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(buf.String()), needle) {
			return true, nil
		}
	}
	return false, nil
}

// DefaultStrategies returns a field probe per ProbeFields entry followed by
// the substring scan.
func DefaultStrategies() []Strategy {
	out := make([]Strategy, 0, len(ProbeFields)+1)
	for _, f := range ProbeFields {
		out = append(out, FieldProbe{Field: f})
	}
	return append(out, SubstringScan{Limit: ScanLimit})
}

// Checker answers admin membership questions against one collection.
type Checker struct {
	db         docstore.DB
	collection string
	strategies []Strategy
}

// NewChecker creates a Checker. An empty collection disables the admin
// feature and IsAdmin always returns false. With no strategies given,
// DefaultStrategies is used.
func NewChecker(db docstore.DB, collection string, strategies ...Strategy) *Checker {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Checker{db: db, collection: collection, strategies: strategies}
}

// Enabled reports whether an admin collection is configured.
func (c *Checker) Enabled() bool {
	return c != nil && c.collection != ""
}

// IsAdmin reports whether userID is an admin. Strategies run in order and
// the first match wins. A failing strategy is logged and counts as no
// match.
func (c *Checker) IsAdmin(ctx context.Context, userID string) bool {
	if !c.Enabled() || userID == "" {
		return false
	}
	for _, s := range c.strategies {
		ok, err := s.Match(ctx, c.db, c.collection, userID)
		if err != nil {
			slog.Warn("admin check strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		if ok {
			slog.Debug("admin membership matched", "strategy", s.Name(), "user_id", userID)
			return true
		}
	}
	return false
}
