// Package catalog defines the icon catalog data model shared across the
// ingestion pipeline: icons derived from an IcoMoon export, the raw path
// data used for sprite synthesis, and the ephemeral upload wrapper.
package catalog

import "strings"

// DefaultPrefix is the CSS class prefix applied to icons when the
// selection.json preferences do not declare one.
const DefaultPrefix = "icon-"

// DefaultGrid is the IcoMoon grid size (document height) assumed when the
// export does not declare one.
const DefaultGrid = 1024

// Icon is a single catalog entry derived from an upload.
type Icon struct {
	// Name is the primary identifier: the first token of the comma-split
	// source name.
	Name string `json:"name"`
	// Class is the CSS class, prefix + Name.
	Class string `json:"class"`
	// Unicode is the hex codepoint from the export, if any.
	Unicode string `json:"unicode,omitempty"`
	// Tags are the export's tag strings, in source order.
	Tags []string `json:"tags,omitempty"`
	// Aliases are the remaining comma-split name tokens.
	Aliases []string `json:"aliases,omitempty"`
}

// Catalog is an ordered collection of icons. Order is source order.
// A successful ingest replaces the catalog wholesale; duplicate names
// from the source are preserved, never deduplicated.
type Catalog []Icon

// Names returns the icon names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, icon := range c {
		names[i] = icon.Name
	}
	return names
}

// Find returns the first icon whose name or alias matches, or false.
// Primary names win over aliases regardless of catalog order.
func (c Catalog) Find(name string) (Icon, bool) {
	for _, icon := range c {
		if icon.Name == name {
			return icon, true
		}
	}
	for _, icon := range c {
		for _, alias := range icon.Aliases {
			if alias == name {
				return icon, true
			}
		}
	}
	return Icon{}, false
}

// IsEmpty reports whether the catalog has no entries.
func (c Catalog) IsEmpty() bool {
	return len(c) == 0
}

// PathSpec holds the raw vector data for one icon, used only for sprite
// synthesis and discarded afterwards.
type PathSpec struct {
	// Paths are the SVG path-data strings, in source order.
	Paths []string `json:"paths"`
	// Width is the icon's design width.
	Width int `json:"width"`
	// Grid is the document height (viewBox height), default 1024.
	Grid int `json:"grid"`
	// Attrs maps a path index to extra attributes for that path element.
	Attrs map[int]map[string]string `json:"attrs,omitempty"`
}

// UploadedAsset is an ephemeral upload: raw bytes plus the declared
// filename and size. It is never persisted directly.
type UploadedAsset struct {
	Filename string
	Size     int64
	Data     []byte
}

// SplitName splits a comma-separated source name into the primary name
// and its aliases. Tokens are trimmed; empty tokens are dropped.
func SplitName(source string) (name string, aliases []string) {
	for _, token := range strings.Split(source, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if name == "" {
			name = token
			continue
		}
		aliases = append(aliases, token)
	}
	return name, aliases
}
