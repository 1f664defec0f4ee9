package sparql

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph"
)

type term struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// cursor walks the results.bindings array of a SPARQL JSON document without
// holding more than one row in memory.
type cursor struct {
	body    io.ReadCloser
	dec     *json.Decoder
	started bool
	inRows  bool
	done    bool
	current graph.Binding
	err     error
}

func newCursor(body io.ReadCloser) *cursor {
	return &cursor{
		body: body,
		dec:  json.NewDecoder(body),
	}
}

func (c *cursor) Next() bool {
	if c.done {
		return false
	}
	if !c.started {
		c.started = true
		if err := c.seekRows(); err != nil {
			return c.fail(err)
		}
		if !c.inRows {
			c.done = true
			return false
		}
	}
	if !c.dec.More() {
		c.done = true
		c.current = nil
		return false
	}
	var row map[string]term
	if err := c.dec.Decode(&row); err != nil {
		return c.fail(fmt.Errorf("decoding sparql row: %w", err))
	}
	c.current = make(graph.Binding, len(row))
	for name, t := range row {
		c.current[name] = t.Value
	}
	return true
}

func (c *cursor) Binding() graph.Binding {
	return c.current
}

func (c *cursor) Err() error {
	return c.err
}

func (c *cursor) Close() error {
	c.done = true
	return c.body.Close()
}

func (c *cursor) fail(err error) bool {
	c.err = err
	c.done = true
	c.current = nil
	return false
}

// seekRows advances the decoder to just inside results.bindings. inRows stays
// false for a document without bindings.
func (c *cursor) seekRows() error {
	if err := c.expectDelim('{'); err != nil {
		return err
	}
	for c.dec.More() {
		key, err := c.key()
		if err != nil {
			return err
		}
		if key != "results" {
			if err := c.skip(); err != nil {
				return err
			}
			continue
		}
		if err := c.expectDelim('{'); err != nil {
			return err
		}
		for c.dec.More() {
			inner, err := c.key()
			if err != nil {
				return err
			}
			if inner == "bindings" {
				if err := c.expectDelim('['); err != nil {
					return err
				}
				c.inRows = true
				return nil
			}
			if err := c.skip(); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func (c *cursor) key() (string, error) {
	tok, err := c.dec.Token()
	if err != nil {
		return "", fmt.Errorf("reading sparql results: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("unexpected token %v in sparql results", tok)
	}
	return key, nil
}

func (c *cursor) expectDelim(want json.Delim) error {
	tok, err := c.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("sparql results truncated: %w", io.ErrUnexpectedEOF)
		}
		return fmt.Errorf("reading sparql results: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q in sparql results, got %v", want, tok)
	}
	return nil
}

func (c *cursor) skip() error {
	var raw json.RawMessage
	if err := c.dec.Decode(&raw); err != nil {
		return fmt.Errorf("skipping sparql field: %w", err)
	}
	return nil
}
