package diag

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	DefaultCapacity = 500
	DefaultTrimTo   = 400
	MaxDataLen      = 1000
)

// Entry is one recorded log line.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Data    string    `json:"data,omitempty"`
}

// Logbook is a bounded in-memory log kept for diagnostic export. When it
// grows past its capacity the oldest entries are dropped down to trimTo.
type Logbook struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	trimTo   int
}

func NewLogbook() *Logbook {
	return &Logbook{capacity: DefaultCapacity, trimTo: DefaultTrimTo}
}

// NewLogbookSize is NewLogbook with explicit bounds.
func NewLogbookSize(capacity, trimTo int) *Logbook {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if trimTo <= 0 || trimTo > capacity {
		trimTo = capacity
	}
	return &Logbook{capacity: capacity, trimTo: trimTo}
}

func (l *Logbook) Add(e Entry) {
	if len(e.Data) > MaxDataLen {
		e.Data = e.Data[:MaxDataLen]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	if len(l.entries) > l.capacity {
		keep := make([]Entry, l.trimTo)
		copy(keep, l.entries[len(l.entries)-l.trimTo:])
		l.entries = keep
	}
}

// Entries returns a copy, oldest first.
func (l *Logbook) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Logbook) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Handler is a slog.Handler that records into a Logbook and optionally
// forwards to another handler.
type Handler struct {
	book  *Logbook
	next  slog.Handler
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewHandler records at level and above. next may be nil.
func NewHandler(book *Logbook, level slog.Leveler, next slog.Handler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{book: book, next: next, level: level}
}

func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	if lvl >= h.level.Level() {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, lvl)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level.Level() {
		data := make(map[string]any)
		for _, a := range h.attrs {
			addAttr(data, "", a)
		}
		r.Attrs(func(a slog.Attr) bool {
			addAttr(data, h.group, a)
			return true
		})
		e := Entry{Time: r.Time, Level: strings.ToLower(r.Level.String()), Message: r.Message}
		if len(data) > 0 {
			if b, err := json.Marshal(data); err == nil {
				e.Data = string(b)
			}
		}
		h.book.Add(e)
	}
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		c.attrs = append(c.attrs, a)
	}
	if h.next != nil {
		c.next = h.next.WithAttrs(attrs)
	}
	return &c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	c := *h
	if c.group != "" {
		c.group += "." + name
	} else {
		c.group = name
	}
	if h.next != nil {
		c.next = h.next.WithGroup(name)
	}
	return &c
}

func addAttr(data map[string]any, group string, a slog.Attr) {
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			data[key] = err.Error()
			return
		}
	}
	data[key] = v.Any()
}
