package headers

import (
	"net/http"
	"sort"
	"strings"
)

// Field is a single header line.
type Field struct {
	Name  string
	Value string
}

// List is an ordered header block. Add appends at the end and Del keeps
// the relative order of the remaining fields, so the result of a
// sequence of mutations is fully deterministic.
type List struct {
	fields []Field
}

// NewList creates a list from fields, in the given order.
func NewList(fields ...Field) *List {
	return &List{fields: append([]Field(nil), fields...)}
}

// ListFromHTTP creates a list from an http.Header. Keys are taken in
// sorted order since maps carry no order of their own.
func ListFromHTTP(h http.Header) *List {
	l := &List{}
	for _, k := range sortedKeys(h) {
		for _, v := range h[k] {
			l.Add(k, v)
		}
	}

	return l
}

func (l *List) Values(name string) []string {
	var values []string
	for _, f := range l.fields {
		if strings.EqualFold(f.Name, name) {
			values = append(values, f.Value)
		}
	}

	return values
}

func (l *List) Add(name, value string) {
	l.fields = append(l.fields, Field{Name: name, Value: value})
}

func (l *List) Del(name string) {
	fields := l.fields[:0]
	for _, f := range l.fields {
		if !strings.EqualFold(f.Name, name) {
			fields = append(fields, f)
		}
	}

	// clear the tail so the dropped strings can be collected
	for i := len(fields); i < len(l.fields); i++ {
		l.fields[i] = Field{}
	}

	l.fields = fields
}

// Fields returns a copy of the fields in order.
func (l *List) Fields() []Field {
	return append([]Field(nil), l.fields...)
}

// Len returns the number of fields.
func (l *List) Len() int { return len(l.fields) }

// HTTP converts the list into an http.Header.
func (l *List) HTTP() http.Header {
	h := make(http.Header, len(l.fields))
	for _, f := range l.fields {
		h.Add(f.Name, f.Value)
	}

	return h
}

func (l *List) String() string {
	var b strings.Builder
	for _, f := range l.fields {
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteString("\r\n")
	}

	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}
