// Package graph defines the query port the crawler uses to talk to a remote
// knowledge graph, the query shapes it issues, and a resilient wrapper around
// any port implementation.
package graph

import (
	"context"
	"errors"
)

// Binding maps a query variable name (without '?') to its lexical value.
type Binding map[string]string

// Cursor is a pull iterator over query results. Callers must Close it.
type Cursor interface {
	Next() bool
	Binding() Binding
	Err() error
	Close() error
}

// Port executes a query against a graph store.
type Port interface {
	Execute(ctx context.Context, query string) (Cursor, error)
}

// PortFunc adapts a function to Port.
type PortFunc func(ctx context.Context, query string) (Cursor, error)

func (f PortFunc) Execute(ctx context.Context, query string) (Cursor, error) {
	return f(ctx, query)
}

// SliceCursor iterates over rows held in memory.
type SliceCursor struct {
	rows   []Binding
	pos    int
	closed bool
}

func NewSliceCursor(rows ...Binding) *SliceCursor {
	return &SliceCursor{rows: rows, pos: -1}
}

func (c *SliceCursor) Next() bool {
	if c.closed || c.pos+1 >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *SliceCursor) Binding() Binding {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil
	}
	return c.rows[c.pos]
}

func (c *SliceCursor) Err() error { return nil }

func (c *SliceCursor) Close() error {
	c.closed = true
	return nil
}

// Consumed reports how many rows Next has yielded.
func (c *SliceCursor) Consumed() int {
	return c.pos + 1
}

// Drain reads every value of variable from cursor and closes it.
func Drain(cursor Cursor, variable string) ([]string, error) {
	defer cursor.Close()
	var values []string
	for cursor.Next() {
		if v, ok := cursor.Binding()[variable]; ok {
			values = append(values, v)
		}
	}
	return values, cursor.Err()
}

// First returns the first value of variable and closes the cursor. ok is false
// when no row binds it.
func First(cursor Cursor, variable string) (value string, ok bool, err error) {
	defer cursor.Close()
	for cursor.Next() {
		if v, bound := cursor.Binding()[variable]; bound {
			return v, true, nil
		}
	}
	return "", false, cursor.Err()
}

// Shape labels a query for metrics and logs.
type Shape string

const (
	ShapePersons     Shape = "persons"
	ShapeNeighbors   Shape = "neighbors"
	ShapeLabel       Shape = "label"
	ShapeExists      Shape = "exists"
	ShapeText        Shape = "text"
	ShapeCountry     Shape = "country"
	ShapeUnspecified Shape = "other"
)

type shapeKey struct{}

// WithShape tags ctx with the shape of the query about to be executed.
func WithShape(ctx context.Context, shape Shape) context.Context {
	return context.WithValue(ctx, shapeKey{}, shape)
}

// ShapeFrom returns the shape tagged on ctx.
func ShapeFrom(ctx context.Context) Shape {
	if shape, ok := ctx.Value(shapeKey{}).(Shape); ok {
		return shape
	}
	return ShapeUnspecified
}

// ErrEmptyQuery is returned for a blank query string.
var ErrEmptyQuery = errors.New("empty query")
