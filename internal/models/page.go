// Package models defines the domain types for logpress.
package models

import (
	"path"
	"strings"
	"time"

	"github.com/starford/logpress/internal/dates"
)

// PropertyKind distinguishes the shapes a property value can take.
type PropertyKind int

const (
	PropertyString PropertyKind = iota
	PropertyList
	PropertyDate
)

// PropertyValue is a single property value. Raw always holds the source text.
type PropertyValue struct {
	Kind PropertyKind `json:"kind"`
	Raw  string       `json:"raw"`
	List []string     `json:"list,omitempty"`
	Date time.Time    `json:"date,omitempty"`
}

// Strings returns the value as a list of strings regardless of its kind.
func (v PropertyValue) Strings() []string {
	if v.Kind == PropertyList {
		return v.List
	}
	if v.Raw == "" {
		return nil
	}
	return []string{v.Raw}
}

// Property is one key/value pair.
type Property struct {
	Key   string        `json:"key"`
	Value PropertyValue `json:"value"`
}

// Properties is an ordered property mapping. Keys are stored lower-cased.
type Properties []Property

// Get returns the value stored under key.
func (p Properties) Get(key string) (PropertyValue, bool) {
	key = strings.ToLower(key)
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return PropertyValue{}, false
}

// Set replaces the value under key in place or appends it.
func (p *Properties) Set(key string, v PropertyValue) {
	key = strings.ToLower(key)
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = v
			return
		}
	}
	*p = append(*p, Property{Key: key, Value: v})
}

// Keys returns the keys in insertion order.
func (p Properties) Keys() []string {
	keys := make([]string, len(p))
	for i, prop := range p {
		keys[i] = prop.Key
	}
	return keys
}

// TaskMarker is the workflow keyword that may open a block.
type TaskMarker string

const (
	TaskNone      TaskMarker = ""
	TaskTodo      TaskMarker = "TODO"
	TaskDoing     TaskMarker = "DOING"
	TaskNow       TaskMarker = "NOW"
	TaskLater     TaskMarker = "LATER"
	TaskWaiting   TaskMarker = "WAITING"
	TaskDone      TaskMarker = "DONE"
	TaskCancelled TaskMarker = "CANCELLED"
)

// TaskMarkers lists every recognised marker.
var TaskMarkers = []TaskMarker{TaskTodo, TaskDoing, TaskNow, TaskLater, TaskWaiting, TaskDone, TaskCancelled}

// ParseTaskMarker reports whether s (case-sensitive) is a task marker.
func ParseTaskMarker(s string) (TaskMarker, bool) {
	for _, m := range TaskMarkers {
		if string(m) == s {
			return m, true
		}
	}
	return TaskNone, false
}

// Priority is the A/B/C block priority.
type Priority string

const (
	PriorityNone Priority = ""
	PriorityA    Priority = "A"
	PriorityB    Priority = "B"
	PriorityC    Priority = "C"
)

// Block is one node of a page outline.
type Block struct {
	Content    string     `json:"content"`
	Depth      int        `json:"depth"`
	Children   []*Block   `json:"children,omitempty"`
	Properties Properties `json:"properties,omitempty"`
	Task       TaskMarker `json:"task,omitempty"`
	Priority   Priority   `json:"priority,omitempty"`
	Scheduled  *time.Time `json:"scheduled,omitempty"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	ID         string     `json:"id,omitempty"`
}

// Walk calls fn for b and every descendant, depth first.
func (b *Block) Walk(fn func(*Block)) {
	fn(b)
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

// Page is a named document in the graph.
type Page struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Aliases    []string   `json:"aliases,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Properties Properties `json:"properties,omitempty"`
	Blocks     []*Block   `json:"blocks,omitempty"`
	Body       string     `json:"-"`
	Text       string     `json:"-"`
	Refs       []string   `json:"refs,omitempty"`
	Journal    bool       `json:"journal,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	Stub       bool       `json:"stub,omitempty"`
	Created    string     `json:"created,omitempty"`
	Modified   string     `json:"modified,omitempty"`
}

// Namespace returns everything before the last "/" of the name.
func (p *Page) Namespace() string {
	if i := strings.LastIndex(p.Name, "/"); i > 0 {
		return p.Name[:i]
	}
	return ""
}

// Target is the link target of the page: its output path without extension.
func (p *Page) Target() string {
	if p.Journal && p.Date != nil {
		return path.Join("journals", p.Date.Format("2006-01-02"))
	}
	return p.Name
}

// OutputPath is where the converted page is written, relative to the output root.
func (p *Page) OutputPath() string {
	return p.Target() + ".md"
}

// Title returns the display title: the title property when set, else the name.
func (p *Page) Title() string {
	if v, ok := p.Properties.Get("title"); ok && v.Raw != "" {
		return v.Raw
	}
	if p.Journal && p.Date != nil {
		return dates.JournalTitle(*p.Date)
	}
	return p.Name
}

// Walk visits every block of the page.
func (p *Page) Walk(fn func(*Block)) {
	for _, b := range p.Blocks {
		b.Walk(fn)
	}
}

// FileMetadata is a lightweight representation returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
