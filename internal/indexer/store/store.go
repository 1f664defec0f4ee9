// Package store reads and writes the per-subject index file: a timestamp line
// followed by one tab-separated line per term listing the URIs it occurs in.
// Files are always rewritten whole.
package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// TimestampLayout is dd/MM/yy HH:mm:ss.
const TimestampLayout = "02/01/06 15:04:05"

const maxLineSize = 16 * 1024 * 1024

// Entry is one term and the URIs of the documents it occurs in.
type Entry struct {
	Term string
	URIs []string
}

// Snapshot is the decoded content of an index file.
type Snapshot struct {
	Updated string
	Entries []Entry
	Skipped int
}

// FormatTimestamp renders t in the index file header format.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a header line in local time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, strings.TrimSpace(s), time.Local)
}

// IsStale reports whether now is at least threshold past lastUpdate. A header
// that cannot be parsed is reported as not stale so that a corrupt file never
// triggers an unbounded series of re-crawls.
func IsStale(lastUpdate string, threshold time.Duration, now time.Time) bool {
	updated, err := ParseTimestamp(lastUpdate)
	if err != nil {
		slog.Default().With("component", "index-store").Warn("unparsable index timestamp, skipping re-crawl",
			"timestamp", lastUpdate,
			"error", err,
		)
		return false
	}
	return now.Sub(updated) >= threshold
}

// Exists reports whether an index file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ReadTimestamp returns the first line of the index file.
func ReadTimestamp(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading index header: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Load decodes the index file at path. Malformed term lines are logged and
// skipped; I/O failures abort the load.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()
	return Decode(f, path)
}

// Decode reads the index file format from r. name is used for logging only.
func Decode(r io.Reader, name string) (*Snapshot, error) {
	logger := slog.Default().With("component", "index-store", "file", name)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	snap := &Snapshot{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			snap.Updated = line
			continue
		}
		entry, err := parseLine(line)
		if err != nil {
			snap.Skipped++
			logger.Warn("skipping malformed index line", "line", lineNo, "error", err)
			continue
		}
		snap.Entries = append(snap.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index file %s: %w", name, err)
	}
	logger.Debug("index file decoded",
		"terms", len(snap.Entries),
		"skipped", snap.Skipped,
	)
	return snap, nil
}

func parseLine(line string) (Entry, error) {
	if !utf8.ValidString(line) {
		return Entry{}, errors.New("invalid utf-8")
	}
	fields := strings.Split(line, "\t")
	term := strings.ToLower(strings.TrimSpace(fields[0]))
	if term == "" {
		return Entry{}, errors.New("empty term")
	}
	uris := make([]string, 0, len(fields)-1)
	for _, field := range fields[1:] {
		if uri := cleanURI(field); uri != "" {
			uris = append(uris, uri)
		}
	}
	if len(uris) == 0 {
		return Entry{}, fmt.Errorf("term %q has no postings", term)
	}
	return Entry{Term: term, URIs: uris}, nil
}

// cleanURI strips the [..] and <..> wrappers that older index files carry.
func cleanURI(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimPrefix(s, "<")
	s = strings.TrimSuffix(s, ">")
	return strings.TrimSpace(s)
}

// Save rewrites the index file at path with now as its header. The file is
// written to a temporary sibling and renamed into place.
func Save(path string, entries []Entry, now time.Time) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating index directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	defer os.Remove(tmpPath)
	defer f.Close()

	if err := Encode(f, entries, now); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing index file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming index file: %w", err)
	}
	return nil
}

// Encode writes the index file format to w. Entries without URIs are omitted.
func Encode(w io.Writer, entries []Entry, now time.Time) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(FormatTimestamp(now) + "\n"); err != nil {
		return fmt.Errorf("writing index header: %w", err)
	}
	for _, entry := range entries {
		if entry.Term == "" || len(entry.URIs) == 0 {
			continue
		}
		line := entry.Term + "\t" + strings.Join(entry.URIs, "\t") + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("writing term %q: %w", entry.Term, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing index file: %w", err)
	}
	return nil
}
