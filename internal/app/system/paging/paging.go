// Package paging implements keyset (cursor) pagination for the console's
// list endpoints.
//
// Lists fetch PageSize+1 rows sorted on a case-folded key with an _id
// tiebreak, then call TrimPage to drop the look-ahead row and learn whether
// neighboring pages exist. Cursors are opaque strings carrying the sort key
// and ObjectID of a boundary row; BuildCursors mints them from the first and
// last rows of the trimmed page.
package paging

import (
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is how many rows a paged list shows. Kept as an int because call
// sites do arithmetic on it before casting to int64 for Find().SetLimit().
const PageSize = 50

// LimitPlusOne is the fetch limit for the look-ahead row.
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// Result reports what TrimPage learned about neighboring pages.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage drops the look-ahead row from a fetched slice, in place, and
// reports whether pages exist on either side.
//
// rows must already be in display order (callers paging backwards Reverse
// first). With a before cursor the extra row sits at the front and proves an
// earlier page exists; the page we navigated away from guarantees a next.
// Otherwise the extra row sits at the end, and a previous page exists exactly
// when an after cursor brought us here.
func TrimPage[T any](rows *[]T, before, after string) Result {
	extra := len(*rows) > PageSize

	if before != "" {
		if extra {
			*rows = (*rows)[1:]
		}
		return Result{HasPrev: extra, HasNext: true}
	}

	if extra {
		*rows = (*rows)[:PageSize]
	}
	return Result{HasPrev: after != "", HasNext: extra}
}

// Direction is which way a list is being paged.
type Direction int

const (
	Forward  Direction = iota // ascending sort, window opens above the cursor
	Backward                  // descending sort, window opens below the cursor
)

// KeysetConfig carries the direction, sort order, and decoded cursor for one
// paged query.
type KeysetConfig struct {
	Direction Direction
	SortOrder int // 1 ascending, -1 descending
	Cursor    *wafflemongo.Cursor
}

// ConfigureKeyset picks the paging direction from the request cursors and
// decodes whichever one applies. A before cursor wins over after. A cursor
// that fails to decode is ignored, which lands the caller on the first page
// rather than erroring.
func ConfigureKeyset(before, after string) KeysetConfig {
	cfg := KeysetConfig{Direction: Forward, SortOrder: 1}

	if before != "" {
		cfg.Direction = Backward
		cfg.SortOrder = -1
		if c, ok := wafflemongo.DecodeCursor(before); ok {
			cfg.Cursor = &c
		}
		return cfg
	}

	if after != "" {
		if c, ok := wafflemongo.DecodeCursor(after); ok {
			cfg.Cursor = &c
		}
	}
	return cfg
}

// ApplyToFind sets the sort and look-ahead limit on find options. The _id
// tiebreak keeps the order total when sort keys collide.
func (cfg KeysetConfig) ApplyToFind(find *options.FindOptions, sortField string) {
	find.SetSort(bson.D{
		{Key: sortField, Value: cfg.SortOrder},
		{Key: "_id", Value: cfg.SortOrder},
	}).SetLimit(LimitPlusOne())
}

// KeysetWindow returns the filter clause that opens the query window at the
// cursor, or nil when no cursor is set (first page).
func (cfg KeysetConfig) KeysetWindow(sortField string) bson.M {
	if cfg.Cursor == nil {
		return nil
	}
	op := "gt"
	if cfg.Direction == Backward {
		op = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, op, cfg.Cursor.CI, cfg.Cursor.ID)
}

// Reverse flips rows into display order after a backward fetch, whose
// descending sort returned them newest-first.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// BuildCursors mints the prev and next cursors from the boundary rows of a
// trimmed page. keyFn extracts the sort key, idFn the ObjectID.
func BuildCursors[T any](rows []T, keyFn func(T) string, idFn func(T) primitive.ObjectID) (prev, next string) {
	if len(rows) == 0 {
		return "", ""
	}
	first, last := rows[0], rows[len(rows)-1]
	return wafflemongo.EncodeCursor(keyFn(first), idFn(first)),
		wafflemongo.EncodeCursor(keyFn(last), idFn(last))
}
