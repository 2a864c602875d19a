// Package selection parses IcoMoon selection.json manifests into an icon
// catalog and the raw path data used for sprite synthesis.
//
// Only the subset of the manifest the pipeline consumes is decoded:
// preferences.fontPref.prefix, each icon's properties (name, code) and
// icon block (tags, paths, width, attrs), and the document height.
package selection

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spritekiln/spritekiln/core/catalog"
	"github.com/spritekiln/spritekiln/core/errors"
)

// manifest mirrors the consumed subset of selection.json.
type manifest struct {
	Preferences preferences `json:"preferences"`
	Icons       []entry     `json:"icons"`
	Height      float64     `json:"height"`
}

type preferences struct {
	FontPref fontPref `json:"fontPref"`
}

type fontPref struct {
	Prefix string `json:"prefix"`
}

type entry struct {
	Properties properties `json:"properties"`
	Icon       iconBlock  `json:"icon"`
}

type properties struct {
	Name string   `json:"name"`
	Code *float64 `json:"code"`
}

type iconBlock struct {
	Tags  []string                 `json:"tags"`
	Paths []string                 `json:"paths"`
	Width float64                  `json:"width"`
	Attrs []map[string]interface{} `json:"attrs"`
}

func decode(data []byte) (*manifest, error) {
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &errors.FormatError{Format: "selection.json", Message: err.Error(), Err: err}
	}
	return &m, nil
}

// Parse decodes a selection.json manifest into an icon catalog.
// Entries missing properties.name are silently skipped. The catalog keeps
// source order and preserves duplicate names verbatim.
func Parse(data []byte) (catalog.Catalog, error) {
	m, err := decode(data)
	if err != nil {
		return nil, err
	}

	prefix := m.Preferences.FontPref.Prefix
	if prefix == "" {
		prefix = catalog.DefaultPrefix
	}

	var icons catalog.Catalog
	for _, e := range m.Icons {
		if e.Properties.Name == "" {
			continue
		}
		name, aliases := catalog.SplitName(e.Properties.Name)
		if name == "" {
			continue
		}

		icon := catalog.Icon{
			Name:    name,
			Class:   prefix + name,
			Tags:    e.Icon.Tags,
			Aliases: aliases,
		}
		if e.Properties.Code != nil {
			icon.Unicode = strconv.FormatInt(int64(*e.Properties.Code), 16)
		}
		icons = append(icons, icon)
	}
	return icons, nil
}

// ExtractPaths reads the raw vector data for every named icon in the
// manifest, keyed by primary name. Width falls back to the document
// height, which itself defaults to the IcoMoon grid of 1024.
func ExtractPaths(data []byte) (map[string]catalog.PathSpec, error) {
	m, err := decode(data)
	if err != nil {
		return nil, err
	}

	grid := int(m.Height)
	if grid <= 0 {
		grid = catalog.DefaultGrid
	}

	specs := make(map[string]catalog.PathSpec)
	for _, e := range m.Icons {
		if e.Properties.Name == "" {
			continue
		}
		name, _ := catalog.SplitName(e.Properties.Name)
		if name == "" {
			continue
		}

		width := int(e.Icon.Width)
		if width <= 0 {
			width = grid
		}

		spec := catalog.PathSpec{
			Paths: e.Icon.Paths,
			Width: width,
			Grid:  grid,
		}
		if len(e.Icon.Attrs) > 0 {
			spec.Attrs = make(map[int]map[string]string)
			for i, attrs := range e.Icon.Attrs {
				if len(attrs) == 0 {
					continue
				}
				converted := make(map[string]string, len(attrs))
				for k, v := range attrs {
					converted[k] = attrValue(v)
				}
				spec.Attrs[i] = converted
			}
		}
		specs[name] = spec
	}
	return specs, nil
}

// attrValue renders a JSON attribute value as an SVG attribute string.
// IcoMoon emits numbers for opacity-style attributes and strings for the rest.
func attrValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
