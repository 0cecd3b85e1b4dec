// Package history maintains the append-only log of corpus rollups.
package history

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hpungsan/curate/internal/errors"
)

// Entry is one point-in-time rollup. Field order is the on-disk key order.
type Entry struct {
	Timestamp          int64 `json:"timestamp"`
	Packages           int   `json:"packages"`
	Authors            int   `json:"authors"`
	Contributors       int   `json:"contributors"`
	OnlyContributors   int   `json:"onlyContributors"`
	NoPlatformSelected int   `json:"noPlatformSelected"`
	MacOnly            int   `json:"macOnly"`
	WithWindows        int   `json:"withWindows"`
	WindowsOnly        int   `json:"windowsOnly"`
}

// SameCounts reports whether e and other agree on every field except Timestamp.
func (e Entry) SameCounts(other Entry) bool {
	e.Timestamp, other.Timestamp = 0, 0
	return e == other
}

// Log is the decoded history file. Prior items are kept as compacted raw JSON
// so rewriting never alters them.
type Log struct {
	items []json.RawMessage
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.items)
}

// Last decodes the newest entry. ok is false for an empty log.
func (l *Log) Last() (e Entry, ok bool, err error) {
	if len(l.items) == 0 {
		return Entry{}, false, nil
	}
	if err := json.Unmarshal(l.items[len(l.items)-1], &e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Entries decodes every item, oldest first.
func (l *Log) Entries() ([]Entry, error) {
	out := make([]Entry, len(l.items))
	for i, raw := range l.items {
		if err := json.Unmarshal(raw, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Append adds e unless it matches the newest entry by counts.
// It reports whether e was added.
func (l *Log) Append(e Entry) (bool, error) {
	last, ok, err := l.Last()
	if err != nil {
		return false, err
	}
	if ok && last.SameCounts(e) {
		return false, nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	l.items = append(l.items, raw)
	return true, nil
}

// Encode renders the log as a JSON array with one entry per line.
func (l *Log) Encode() []byte {
	var b bytes.Buffer
	b.WriteString("[\n")
	for i, raw := range l.items {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("  ")
		b.Write(raw)
	}
	b.WriteString("\n]")
	return b.Bytes()
}

// Parse decodes a history file's contents.
func Parse(data []byte) (*Log, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	for i, raw := range items {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		items[i] = buf.Bytes()
	}
	return &Log{items: items}, nil
}

// Load reads the history file at path. The file must exist.
func Load(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewHistoryNotFound(path)
		}
		return nil, errors.NewInternal(fmt.Errorf("read history: %w", err))
	}
	log, err := Parse(data)
	if err != nil {
		return nil, errors.NewMalformedHistory(path, err)
	}
	return log, nil
}

// WriteFunc persists data at path.
type WriteFunc func(path string, data []byte) error

// Record appends e to the history file at path when it differs from the newest
// entry. Nothing is written for a duplicate. write defaults to os.WriteFile.
func Record(path string, e Entry, write WriteFunc) (bool, error) {
	log, err := Load(path)
	if err != nil {
		return false, err
	}

	appended, err := log.Append(e)
	if err != nil {
		return false, errors.NewMalformedHistory(path, err)
	}
	if !appended {
		return false, nil
	}

	if write == nil {
		write = func(p string, d []byte) error { return os.WriteFile(p, d, 0644) }
	}
	if err := write(path, log.Encode()); err != nil {
		return false, errors.NewInternal(fmt.Errorf("write history: %w", err))
	}
	return true, nil
}
