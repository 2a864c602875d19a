// Package sanitize implements whitelist-based sanitization of untrusted SVG
// documents.
//
// Security Notes:
//   - Documents containing DOCTYPE or ENTITY declarations are rejected by a
//     byte-level scan before any XML parser runs, so no parser ever sees a
//     DTD (CWE-611).
//   - Parsing uses Go's xml.Decoder via xmlquery, which never fetches
//     external entities; internal entity expansion is disabled explicitly
//     with an empty entity map.
//   - Element and attribute filtering is strict-whitelist: script elements,
//     any element carrying an on* event attribute (with its whole subtree),
//     and every tag or attribute not on the fixed safe list are removed.
package sanitize

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/spritekiln/spritekiln/core/encoding"
	"github.com/spritekiln/spritekiln/core/errors"
)

// Sentinel errors returned by Sanitize.
var (
	ErrEmptySvg           = errors.Wrap(errors.ErrInvalidInput, "empty svg")
	ErrDoctypeNotAllowed  = errors.Wrap(errors.ErrSecurity, "doctype declaration not allowed")
	ErrEntityNotAllowed   = errors.Wrap(errors.ErrSecurity, "entity declaration not allowed")
	ErrInvalidSvg         = errors.Wrap(errors.ErrInvalidInput, "invalid svg")
	ErrSanitizationFailed = errors.Wrap(errors.ErrInternal, "sanitization failed")
)

// elementWhitelist is the fixed set of SVG elements allowed to survive
// sanitization. Matching is exact: SVG tag names are case-sensitive, and
// anything else is removed with its subtree.
var elementWhitelist = map[string]struct{}{
	"svg":            {},
	"symbol":         {},
	"defs":           {},
	"g":              {},
	"path":           {},
	"circle":         {},
	"rect":           {},
	"ellipse":        {},
	"line":           {},
	"polyline":       {},
	"polygon":        {},
	"title":          {},
	"desc":           {},
	"use":            {},
	"clipPath":       {},
	"mask":           {},
	"linearGradient": {},
	"radialGradient": {},
	"stop":           {},
	"pattern":        {},
}

// attrWhitelist is the fixed set of attribute names kept on surviving
// elements. Attribute names starting with "data-" are additionally allowed.
var attrWhitelist = map[string]struct{}{
	"id":                  {},
	"class":               {},
	"style":               {},
	"x":                   {},
	"y":                   {},
	"x1":                  {},
	"y1":                  {},
	"x2":                  {},
	"y2":                  {},
	"cx":                  {},
	"cy":                  {},
	"r":                   {},
	"rx":                  {},
	"ry":                  {},
	"d":                   {},
	"points":              {},
	"width":               {},
	"height":              {},
	"viewBox":             {},
	"preserveAspectRatio": {},
	"transform":           {},
	"fill":                {},
	"fill-opacity":        {},
	"fill-rule":           {},
	"stroke":              {},
	"stroke-width":        {},
	"stroke-linecap":      {},
	"stroke-linejoin":     {},
	"stroke-miterlimit":   {},
	"stroke-dasharray":    {},
	"stroke-dashoffset":   {},
	"stroke-opacity":      {},
	"opacity":             {},
	"clip-path":           {},
	"clip-rule":           {},
	"mask":                {},
	"offset":              {},
	"stop-color":          {},
	"stop-opacity":        {},
	"gradientUnits":       {},
	"gradientTransform":   {},
	"spreadMethod":        {},
	"patternUnits":        {},
	"patternContentUnits": {},
	"href":                {},
	"xlink:href":          {},
	"xmlns":               {},
	"xmlns:xlink":         {},
	"version":             {},
	"role":                {},
	"focusable":           {},
	"aria-hidden":         {},
	"aria-label":          {},
	"aria-labelledby":     {},
}

// dangerousStylePatterns are substrings that drop a style attribute outright.
var dangerousStylePatterns = []string{
	"expression(",
	"javascript:",
	"vbscript:",
	"@import",
	"behavior:",
	"-moz-binding",
}

var (
	jsHrefPattern = regexp.MustCompile(`(?i)^\s*javascript:`)
	jsURLPattern  = regexp.MustCompile(`(?i)url\([^)]*javascript:[^)]*\)`)
)

// Sanitize turns untrusted SVG bytes into a sanitized SVG string.
// It is pure and deterministic: sanitizing its own output is a no-op.
func Sanitize(raw []byte) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", &errors.ValidationError{Field: "svg", Message: "empty content", Err: ErrEmptySvg}
	}

	// Reject-fast: no parser ever sees a DTD.
	lower := strings.ToLower(string(raw))
	if strings.Contains(lower, "<!doctype") {
		return "", &errors.SecurityError{Check: "doctype", Message: "DOCTYPE declarations are not allowed", Err: ErrDoctypeNotAllowed}
	}
	if strings.Contains(lower, "<!entity") {
		return "", &errors.SecurityError{Check: "entity", Message: "ENTITY declarations are not allowed", Err: ErrEntityNotAllowed}
	}

	span, ok := extractSvgSpan(string(raw))
	if !ok {
		return "", &errors.FormatError{Format: "SVG", Message: "no <svg> element found", Err: ErrInvalidSvg}
	}

	doc, err := parseXML(span)
	if err != nil {
		return "", &errors.FormatError{Format: "SVG", Message: err.Error(), Err: ErrInvalidSvg}
	}

	stripElements(doc)
	stripAttributes(doc)

	root := firstElement(doc)
	if root == nil {
		return "", &errors.SanitizationError{Stage: "serialize", Message: "no elements survived sanitization", Err: ErrSanitizationFailed}
	}

	var buf bytes.Buffer
	serializeNode(&buf, root)
	out := buf.String()
	if out == "" {
		return "", &errors.SanitizationError{Stage: "serialize", Message: "empty output", Err: ErrSanitizationFailed}
	}
	return out, nil
}

// extractSvgSpan keeps only the text from the first "<svg" occurrence to the
// last "</svg>" occurrence. The scan is greedy across the whole buffer: a
// document with multiple sibling <svg> roots collapses into one span. This
// surprising behavior is intentional and covered by tests; do not narrow it.
func extractSvgSpan(s string) (string, bool) {
	start := strings.Index(s, "<svg")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(s, "</svg>")
	if end < 0 || end < start {
		return "", false
	}
	return s[start : end+len("</svg>")], true
}

// parseXML loads the span with internal entity expansion disabled.
// Go's xml.Decoder never resolves external entities or touches the network.
func parseXML(span string) (*xmlquery.Node, error) {
	opts := xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict: true,
			Entity: map[string]string{},
		},
	}
	return xmlquery.ParseWithOptions(strings.NewReader(span), opts)
}

// stripElements removes offending elements in two passes: collect first,
// then detach. Mutating the live tree while iterating it invalidates the
// sibling walk, so removal never happens during collection.
func stripElements(doc *xmlquery.Node) {
	var doomed []*xmlquery.Node

	var collect func(n *xmlquery.Node)
	collect = func(n *xmlquery.Node) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.ElementNode && condemned(child) {
				doomed = append(doomed, child)
				continue // subtree goes with it, no need to descend
			}
			collect(child)
		}
	}
	collect(doc)

	for _, n := range doomed {
		xmlquery.RemoveFromTree(n)
	}
}

// condemned reports whether an element must be removed with its subtree.
func condemned(n *xmlquery.Node) bool {
	// Script elements, any case.
	if strings.EqualFold(n.Data, "script") {
		return true
	}

	// Any on* event attribute condemns the whole element, not just the
	// attribute: descendants that would individually be legal go with it.
	for _, attr := range n.Attr {
		if len(attr.Name.Local) >= 2 && strings.EqualFold(attr.Name.Local[:2], "on") {
			return true
		}
	}

	_, allowed := elementWhitelist[fullName(n.Prefix, n.Data)]
	return !allowed
}

// stripAttributes applies the attribute whitelist and the href/style special
// rules to every surviving element.
func stripAttributes(doc *xmlquery.Node) {
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.ElementNode {
				filterAttrs(child)
			}
			walk(child)
		}
	}
	walk(doc)
}

func filterAttrs(n *xmlquery.Node) {
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		name := fullName(attr.Name.Space, attr.Name.Local)
		if !AllowedAttr(name) {
			continue
		}
		value, ok := CleanAttrValue(name, attr.Value)
		if !ok {
			continue
		}
		attr.Value = value
		kept = append(kept, attr)
	}
	n.Attr = kept
}

// AllowedAttr reports whether an attribute name survives the whitelist.
// Event-handler names (on*, any case) never survive. Names with a "data-"
// prefix are always allowed.
func AllowedAttr(name string) bool {
	if len(name) >= 2 && strings.EqualFold(name[:2], "on") {
		return false
	}
	if _, ok := attrWhitelist[name]; ok {
		return true
	}
	return strings.HasPrefix(name, "data-")
}

// CleanAttrValue applies the href and style value rules to a whitelisted
// attribute. The second return is false when the whole attribute must drop.
func CleanAttrValue(name, value string) (string, bool) {
	switch name {
	case "href", "xlink:href":
		if jsHrefPattern.MatchString(value) {
			return "", false
		}
	case "style":
		return cleanStyle(value)
	}
	return value, true
}

// cleanStyle vets a style attribute value. A value matching any dangerous
// pattern drops the whole attribute; otherwise url(...javascript:...)
// fragments are excised and the remainder kept.
func cleanStyle(value string) (string, bool) {
	lower := strings.ToLower(value)
	for _, pattern := range dangerousStylePatterns {
		if strings.Contains(lower, pattern) {
			return "", false
		}
	}
	return jsURLPattern.ReplaceAllString(value, ""), true
}

func fullName(space, local string) string {
	if space != "" {
		return space + ":" + local
	}
	return local
}

// firstElement returns the first element child of the document node.
// When the greedy span produced multiple sibling roots, the first one wins.
func firstElement(doc *xmlquery.Node) *xmlquery.Node {
	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child
		}
	}
	return nil
}

// serializeNode emits the sanitized tree as XML. Comments, processing
// instructions, and the XML declaration are dropped; text and CDATA are
// re-escaped so the output re-parses to the same tree.
func serializeNode(w *bytes.Buffer, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.ElementNode:
		w.WriteString("<")
		w.WriteString(fullName(n.Prefix, n.Data))
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(fullName(attr.Name.Space, attr.Name.Local))
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString("\"")
		}

		if n.FirstChild == nil {
			w.WriteString("/>")
			return
		}

		w.WriteString(">")
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			serializeNode(w, child)
		}
		w.WriteString("</")
		w.WriteString(fullName(n.Prefix, n.Data))
		w.WriteString(">")

	case xmlquery.TextNode, xmlquery.CharDataNode:
		w.WriteString(encoding.EscapeXMLText(n.Data))
	}
}
