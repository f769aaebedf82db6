// Package storage is the document store the chat keeps its state in.
// Collections hold schemaless documents; every document receives an opaque ID
// and a sequence number reflecting insertion order.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/samber/lo"
)

// IDField addresses the document ID inside a Filter.
const IDField = "id"

var ErrNoDocument = fmt.Errorf("no document matches the filter")

// ErrDuplicate is returned when a write would give a unique field a value another document holds.
var ErrDuplicate = fmt.Errorf("value already held by another document")

// Unique declares a field whose value is held by at most one document of a collection.
type Unique struct {
	Collection string
	Field      string
}

// conflictRetries bounds how many times Transact replays fn after losing a write race.
const conflictRetries = 3

type Fields map[string]any

// String returns the string stored under key, or "" when absent or of another type.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Int64 returns the integer stored under key. Numbers come back as float64 from
// both backends, which is exact for millisecond timestamps.
func (f Fields) Int64(key string) int64 {
	switch v := f[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(math.Round(v))
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

type Document struct {
	ID     string
	Seq    uint64
	Fields Fields
}

// Field returns the value a Match compares against.
func (d Document) Field(name string) string {
	if name == IDField {
		return d.ID
	}
	return d.Fields.String(name)
}

type Match struct {
	Field string
	Value string
}

func Eq(field, value string) Match {
	return Match{Field: field, Value: value}
}

// Filter selects the documents satisfying every All match and,
// when Any is not empty, at least one Any match.
type Filter struct {
	All []Match
	Any []Match
}

func Where(matches ...Match) Filter {
	return Filter{All: matches}
}

func AnyOf(matches ...Match) Filter {
	return Filter{Any: matches}
}

func ByID(id string) Filter {
	return Where(Eq(IDField, id))
}

func (f Filter) Matches(d Document) bool {
	for _, m := range f.All {
		if d.Field(m.Field) != m.Value {
			return false
		}
	}
	if len(f.Any) == 0 {
		return true
	}
	return lo.SomeBy(f.Any, func(m Match) bool {
		return d.Field(m.Field) == m.Value
	})
}

// idLookup returns the ID the filter pins, if any.
func (f Filter) idLookup() (string, bool) {
	m, ok := lo.Find(f.All, func(m Match) bool { return m.Field == IDField })
	return m.Value, ok
}

// FindOptions orders results by insertion. Limit <= 0 returns everything.
type FindOptions struct {
	NewestFirst bool
	Limit       int
}

// Operations is the CRUD surface of the store.
// FindOne, UpdateOne and DeleteOne act on the oldest matching document
// and return ErrNoDocument when nothing matches.
type Operations interface {
	Insert(ctx context.Context, collection string, fields Fields) (Document, error)
	FindOne(ctx context.Context, collection string, filter Filter) (Document, error)
	FindMany(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error)
	UpdateOne(ctx context.Context, collection string, filter Filter, patch Fields) error
	DeleteOne(ctx context.Context, collection string, filter Filter) error
}

// Store is an Operations backed by a connection that must be closed.
// Transact runs fn atomically: either every write of fn is applied or none.
// fn may run more than once when a concurrent transaction wins a conflict.
type Store interface {
	Operations
	Transact(ctx context.Context, fn func(ops Operations) error) error
	Ping(ctx context.Context) error
	Close() error
}
