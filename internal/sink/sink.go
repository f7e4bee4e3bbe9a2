// Package sink defines the contract every target store implements and the
// dispatcher that selects one from a caller supplied target name.
//
// Store packages register a Factory from init(); import sink/all to get every
// built-in store.
package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/dbroute/internal/dataset"
)

// Kind names one of the supported families of stores.
type Kind string

const (
	Relational Kind = "relational"
	KeyValue   Kind = "keyvalue"
	Document   Kind = "document"
	Graph      Kind = "graph"
)

// Kinds returns every supported kind in display order.
func Kinds() []Kind {
	return []Kind{Relational, KeyValue, Document, Graph}
}

// Label is the store name used in user facing messages.
func (k Kind) Label() string {
	switch k {
	case Relational:
		return "mysql"
	case KeyValue:
		return "dynamodb"
	case Document:
		return "documentdb"
	case Graph:
		return "neptune"
	default:
		return string(k)
	}
}

var kindAliases = map[string]Kind{
	"relational": Relational,
	"rds":        Relational,
	"mysql":      Relational,
	"postgres":   Relational,
	"postgresql": Relational,
	"sqlite":     Relational,
	"sqlserver":  Relational,
	"mssql":      Relational,
	"keyvalue":   KeyValue,
	"key-value":  KeyValue,
	"dynamodb":   KeyValue,
	"document":   Document,
	"documentdb": Document,
	"mongodb":    Document,
	"mongo":      Document,
	"graph":      Graph,
	"neptune":    Graph,
	"gremlin":    Graph,
}

// ParseKind maps a user supplied target name to a Kind.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", &UnsupportedTargetError{Target: s}
}

// Descriptor selects a store and the table, collection or endpoint name
// the rows are written to.
type Descriptor struct {
	Kind Kind
	Name string
}

// Sink writes a cleaned dataset into one store.
type Sink interface {
	// Kind reports which family of store this sink writes to.
	Kind() Kind

	// Insert writes every row of ds under name. Each call opens and
	// releases its own connection.
	Insert(ctx context.Context, ds *dataset.Dataset, name string) (Result, error)
}

// Labeler is implemented by sinks whose store name depends on their
// configuration, such as the relational sink's driver.
type Labeler interface {
	Label() string
}

// LabelOf names the store s writes to.
func LabelOf(s Sink) string {
	if l, ok := s.(Labeler); ok {
		if label := l.Label(); label != "" {
			return label
		}
	}
	return s.Kind().Label()
}

// RowError records a row that could not be written. Row is 1-based.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result reports the outcome of one Insert call.
type Result struct {
	Inserted int
	Failed   int
	Errors   []RowError
}

// Fail counts row (1-based) as failed with err.
func (r *Result) Fail(row int, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RowError{Row: row, Err: err})
}
