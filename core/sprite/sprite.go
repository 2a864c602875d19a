// Package sprite parses existing SVG sprites into an icon catalog and
// synthesizes a canonical sprite document from raw path data.
package sprite

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/spritekiln/spritekiln/core/catalog"
	"github.com/spritekiln/spritekiln/core/encoding"
	"github.com/spritekiln/spritekiln/core/errors"
	"github.com/spritekiln/spritekiln/core/pathdata"
	"github.com/spritekiln/spritekiln/core/sanitize"
)

// ErrMalformedSprite is returned when sprite bytes do not parse as XML.
var ErrMalformedSprite = errors.Wrap(errors.ErrInvalidInput, "malformed sprite")

// Symbol is one <symbol> element of a sprite document.
type Symbol struct {
	ID      string
	ViewBox string
	// Inner is the symbol's inner markup, already escaped for emission.
	Inner string
}

// Document is a sprite: a root <svg> wrapping an ordered list of symbols.
type Document struct {
	Symbols []Symbol
}

// String renders the document as the canonical sprite markup.
// All interpolated values were escaped during construction; the output is
// emitted as-is and is never re-run through the sanitizer.
func (d Document) String() string {
	var buf bytes.Buffer
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" style="display:none;">`)
	for _, sym := range d.Symbols {
		buf.WriteString(`<symbol id="`)
		buf.WriteString(encoding.EscapeXMLAttr(sym.ID))
		buf.WriteString(`" viewBox="`)
		buf.WriteString(encoding.EscapeXMLAttr(sym.ViewBox))
		buf.WriteString(`">`)
		buf.WriteString(sym.Inner)
		buf.WriteString(`</symbol>`)
	}
	buf.WriteString(`</svg>`)
	return buf.String()
}

// Parse decodes an existing sprite into an icon catalog. Every <symbol>
// element with a non-empty id contributes one icon: a leading "icon-"
// prefix is stripped to derive the name, and the viewBox is copied
// verbatim. Sprite-origin icons carry no tags or aliases.
func Parse(data []byte) (catalog.Catalog, error) {
	opts := xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict: true,
			Entity: map[string]string{},
		},
	}
	doc, err := xmlquery.ParseWithOptions(bytes.NewReader(data), opts)
	if err != nil {
		return nil, &errors.FormatError{Format: "XML", Message: err.Error(), Err: ErrMalformedSprite}
	}

	symbols, err := xmlquery.QueryAll(doc, "//symbol")
	if err != nil {
		return nil, &errors.FormatError{Format: "XML", Message: err.Error(), Err: ErrMalformedSprite}
	}

	var icons catalog.Catalog
	for _, sym := range symbols {
		id := sym.SelectAttr("id")
		if id == "" {
			continue
		}
		name := strings.TrimPrefix(id, catalog.DefaultPrefix)
		icons = append(icons, catalog.Icon{
			Name:  name,
			Class: catalog.DefaultPrefix + name,
		})
	}
	return icons, nil
}

// Build synthesizes a sprite document from per-icon path specs, in the
// given catalog order. Names without a spec are skipped; path data is
// validated before inclusion.
func Build(specs map[string]catalog.PathSpec, order []string) (Document, error) {
	var doc Document
	for _, name := range orderedNames(specs, order) {
		spec := specs[name]
		sym, err := buildSymbol(name, spec)
		if err != nil {
			return Document{}, errors.Wrapf(err, "icon %q", name)
		}
		doc.Symbols = append(doc.Symbols, sym)
	}
	return doc, nil
}

// orderedNames resolves the emission order: catalog order first, then any
// spec-only names sorted for determinism.
func orderedNames(specs map[string]catalog.PathSpec, order []string) []string {
	seen := make(map[string]bool, len(specs))
	var names []string
	for _, name := range order {
		if _, ok := specs[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	var rest []string
	for name := range specs {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func buildSymbol(name string, spec catalog.PathSpec) (Symbol, error) {
	grid := spec.Grid
	if grid <= 0 {
		grid = catalog.DefaultGrid
	}
	width := spec.Width
	if width <= 0 {
		width = grid
	}

	var inner bytes.Buffer
	for i, d := range spec.Paths {
		if err := pathdata.Validate(d); err != nil {
			return Symbol{}, err
		}
		inner.WriteString(`<path d="`)
		inner.WriteString(encoding.EscapeXMLAttr(d))
		inner.WriteString(`"`)
		if attrs, ok := spec.Attrs[i]; ok {
			// Manifest attrs are untrusted and the output is never re-run
			// through the sanitizer, so its attribute policy applies here.
			for _, key := range sortedKeys(attrs) {
				if !sanitize.AllowedAttr(key) {
					continue
				}
				value, ok := sanitize.CleanAttrValue(key, attrs[key])
				if !ok {
					continue
				}
				inner.WriteString(` `)
				inner.WriteString(encoding.EscapeXMLAttr(key))
				inner.WriteString(`="`)
				inner.WriteString(encoding.EscapeXMLAttr(value))
				inner.WriteString(`"`)
			}
		}
		inner.WriteString(`/>`)
	}

	return Symbol{
		ID:      catalog.DefaultPrefix + name,
		ViewBox: "0 0 " + strconv.Itoa(width) + " " + strconv.Itoa(grid),
		Inner:   inner.String(),
	}, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
