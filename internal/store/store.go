// Package store is the storage gateway for the highlight collection.
//
// The whole collection lives under one key as a JSON array, most recent
// first. Every write re-reads the current collection, applies its delta and
// persists the whole array back. There is no locking: concurrent writers from
// different processes or requests are last-writer-wins.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"log"

	"github.com/hpungsan/hilite/internal/db"
	"github.com/hpungsan/hilite/internal/highlight"
)

// CollectionKey is the key holding the highlight array.
const CollectionKey = "highlights"

var errNoDatabase = stderrors.New("storage not initialized")

// Gateway reads and writes the highlight collection.
// Faults are logged and never returned: reads degrade to an empty collection
// and writes report false without touching the stored value.
type Gateway struct {
	db *sql.DB
}

// New returns a Gateway backed by database.
func New(database *sql.DB) *Gateway {
	return &Gateway{db: database}
}

// List returns the collection most-recent-first. Never nil.
func (g *Gateway) List(ctx context.Context) []highlight.Highlight {
	hs, err := g.read(ctx)
	if err != nil {
		log.Printf("[store] list: %v", err)
		return []highlight.Highlight{}
	}
	return hs
}

// Get returns the highlight with id, if present.
func (g *Gateway) Get(ctx context.Context, id string) (highlight.Highlight, bool) {
	for _, h := range g.List(ctx) {
		if h.ID == id {
			return h, true
		}
	}
	return highlight.Highlight{}, false
}

// Create prepends h and persists the collection.
func (g *Gateway) Create(ctx context.Context, h highlight.Highlight) bool {
	return g.Modify(ctx, "create", func(hs []highlight.Highlight) ([]highlight.Highlight, bool) {
		out := make([]highlight.Highlight, 0, len(hs)+1)
		out = append(out, h)
		return append(out, hs...), true
	})
}

// Update merges patch into the record matching id. An absent id writes nothing.
func (g *Gateway) Update(ctx context.Context, id string, patch highlight.Patch) bool {
	_, _, ok := g.Patch(ctx, id, patch)
	return ok
}

// Patch merges patch into the record matching id within a single
// read-modify-write cycle and returns the record as written. found is false
// when no record matched and nothing was written; ok is false on a storage
// fault.
func (g *Gateway) Patch(ctx context.Context, id string, patch highlight.Patch) (updated highlight.Highlight, found, ok bool) {
	ok = g.Modify(ctx, "update", func(hs []highlight.Highlight) ([]highlight.Highlight, bool) {
		for i := range hs {
			if hs[i].ID == id {
				hs[i] = patch.Apply(hs[i])
				updated, found = hs[i], true
				return hs, true
			}
		}
		return hs, false
	})
	if !ok {
		return highlight.Highlight{}, false, false
	}
	return updated, found, true
}

// Delete removes the record matching id. An absent id writes nothing.
func (g *Gateway) Delete(ctx context.Context, id string) bool {
	return g.Modify(ctx, "delete", func(hs []highlight.Highlight) ([]highlight.Highlight, bool) {
		for i := range hs {
			if hs[i].ID == id {
				return append(hs[:i], hs[i+1:]...), true
			}
		}
		return hs, false
	})
}

// DeleteWhere removes every record for which match returns true and reports
// how many were removed. Returns ok=false on a storage fault.
func (g *Gateway) DeleteWhere(ctx context.Context, match func(highlight.Highlight) bool) (removed int, ok bool) {
	ok = g.Modify(ctx, "delete", func(hs []highlight.Highlight) ([]highlight.Highlight, bool) {
		kept := hs[:0]
		for _, h := range hs {
			if match(h) {
				removed++
				continue
			}
			kept = append(kept, h)
		}
		return kept, removed > 0
	})
	if !ok {
		removed = 0
	}
	return removed, ok
}

// Clear replaces the collection with an empty one.
func (g *Gateway) Clear(ctx context.Context) bool {
	return g.Replace(ctx, nil)
}

// Replace persists hs as the whole collection without reading first.
func (g *Gateway) Replace(ctx context.Context, hs []highlight.Highlight) bool {
	if err := g.write(ctx, hs); err != nil {
		log.Printf("[store] replace: %v", err)
		return false
	}
	return true
}

// Modify runs one read-modify-write cycle. apply receives the current
// collection and reports whether it changed; an unchanged result writes nothing.
// A failed read aborts the write so a transient fault never persists an
// empty collection over real data.
func (g *Gateway) Modify(ctx context.Context, op string, apply func([]highlight.Highlight) ([]highlight.Highlight, bool)) bool {
	hs, err := g.read(ctx)
	if err != nil {
		log.Printf("[store] %s: read: %v", op, err)
		return false
	}
	next, changed := apply(hs)
	if !changed {
		return true
	}
	if err := g.write(ctx, next); err != nil {
		log.Printf("[store] %s: write: %v", op, err)
		return false
	}
	return true
}

func (g *Gateway) read(ctx context.Context) ([]highlight.Highlight, error) {
	if g == nil || g.db == nil {
		return nil, errNoDatabase
	}
	raw, found, err := db.GetValue(ctx, g.db, CollectionKey)
	if err != nil {
		return nil, err
	}
	if !found || raw == "" {
		return []highlight.Highlight{}, nil
	}
	var hs []highlight.Highlight
	if err := json.Unmarshal([]byte(raw), &hs); err != nil {
		return nil, err
	}
	if hs == nil {
		hs = []highlight.Highlight{}
	}
	return hs, nil
}

func (g *Gateway) write(ctx context.Context, hs []highlight.Highlight) error {
	if g == nil || g.db == nil {
		return errNoDatabase
	}
	if hs == nil {
		hs = []highlight.Highlight{}
	}
	data, err := json.Marshal(hs)
	if err != nil {
		return err
	}
	return db.PutValue(ctx, g.db, CollectionKey, string(data))
}
