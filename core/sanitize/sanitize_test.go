package sanitize

import (
	"strings"
	"testing"

	"github.com/spritekiln/spritekiln/core/errors"
)

func TestSanitizeBasicSvg(t *testing.T) {
	input := `<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0L10 10"/></svg>`

	out, err := Sanitize([]byte(input))
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if !strings.Contains(out, `<path d="M0 0L10 10"/>`) {
		t.Errorf("output missing path: %s", out)
	}
	if !strings.HasPrefix(out, "<svg") {
		t.Errorf("output should start with <svg: %s", out)
	}
}

func TestSanitizeEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := Sanitize([]byte(input))
		if !errors.Is(err, ErrEmptySvg) {
			t.Errorf("Sanitize(%q) error = %v, want ErrEmptySvg", input, err)
		}
	}
}

func TestSanitizeRejectsDoctype(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"lowercase", `<!doctype svg><svg></svg>`},
		{"uppercase", `<!DOCTYPE svg><svg></svg>`},
		{"mixed case", `<!DocType svg><svg></svg>`},
		{"doctype after svg", `<svg></svg><!DOCTYPE svg>`},
		{"doctype with entity subset", `<!DOCTYPE svg [<!ENTITY x "boom">]><svg>&x;</svg>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Sanitize([]byte(tt.input))
			if !errors.Is(err, ErrDoctypeNotAllowed) {
				t.Errorf("error = %v, want ErrDoctypeNotAllowed", err)
			}
			if out != "" {
				t.Errorf("rejected input must produce no output, got %q", out)
			}
			var se *errors.SecurityError
			if !errors.As(err, &se) {
				t.Errorf("error should be *SecurityError, got %T", err)
			}
		})
	}
}

func TestSanitizeRejectsEntity(t *testing.T) {
	// A bare ENTITY declaration without DOCTYPE still rejects.
	input := `<!ENTITY x "boom"><svg></svg>`
	out, err := Sanitize([]byte(input))
	if !errors.Is(err, ErrEntityNotAllowed) {
		t.Errorf("error = %v, want ErrEntityNotAllowed", err)
	}
	if out != "" {
		t.Errorf("rejected input must produce no output, got %q", out)
	}
}

func TestSanitizeNoSvgSpan(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain text", "hello"},
		{"html", "<html><body></body></html>"},
		{"open without close", "<svg><path/>"},
		{"close before open", "</svg><svg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sanitize([]byte(tt.input))
			if !errors.Is(err, ErrInvalidSvg) {
				t.Errorf("error = %v, want ErrInvalidSvg", err)
			}
		})
	}
}

func TestSanitizeMalformedXml(t *testing.T) {
	input := `<svg><path d="M0 0"></svg>`
	_, err := Sanitize([]byte(input))
	if !errors.Is(err, ErrInvalidSvg) {
		t.Errorf("error = %v, want ErrInvalidSvg", err)
	}
	var fe *errors.FormatError
	if !errors.As(err, &fe) {
		t.Errorf("error should be *FormatError, got %T", err)
	}
}

func TestSanitizeRemovesScript(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"lowercase", `<svg><script>alert(1)</script><path d="M0 0"/></svg>`},
		{"uppercase", `<svg><SCRIPT>alert(1)</SCRIPT><path d="M0 0"/></svg>`},
		{"nested", `<svg><g><script>alert(1)</script></g></svg>`},
		{"script with attrs", `<svg><script type="text/javascript">alert(1)</script></svg>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Sanitize([]byte(tt.input))
			if err != nil {
				t.Fatalf("Sanitize failed: %v", err)
			}
			if strings.Contains(strings.ToLower(out), "<script") {
				t.Errorf("output contains script: %s", out)
			}
		})
	}
}

func TestSanitizeRemovesEventHandlerElements(t *testing.T) {
	// The element carrying the on* attribute goes away entirely, including
	// descendants that would individually be legal.
	input := `<svg><g onclick="evil()"><path d="M0 0"/><circle r="5"/></g><rect width="1" height="1"/></svg>`

	out, err := Sanitize([]byte(input))
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if strings.Contains(out, "<g") || strings.Contains(out, "<path") || strings.Contains(out, "<circle") {
		t.Errorf("on* element subtree should be gone: %s", out)
	}
	if !strings.Contains(out, "<rect") {
		t.Errorf("sibling rect should survive: %s", out)
	}
}

func TestSanitizeEventHandlerCaseInsensitive(t *testing.T) {
	for _, attr := range []string{"onclick", "onClick", "ONLOAD", "onMouseOver"} {
		input := `<svg><path ` + attr + `="x()" d="M1 1"/></svg>`
		out, err := Sanitize([]byte(input))
		if err != nil {
			t.Fatalf("Sanitize(%s) failed: %v", attr, err)
		}
		if strings.Contains(out, "<path") {
			t.Errorf("path with %s should be removed: %s", attr, out)
		}
	}
}

func TestSanitizeSymbolShellSurvives(t *testing.T) {
	input := `<svg><symbol id="icon-user" viewBox="0 0 24 24"><script>alert(1)</script><path onclick="x()" d="M1 1"/></symbol></svg>`

	out, err := Sanitize([]byte(input))
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if !strings.Contains(out, `<symbol id="icon-user" viewBox="0 0 24 24"`) {
		t.Errorf("symbol shell should survive: %s", out)
	}
	if strings.Contains(strings.ToLower(out), "<script") {
		t.Errorf("script should be removed: %s", out)
	}
	if strings.Contains(out, "<path") {
		t.Errorf("onclick path should be removed: %s", out)
	}
}

func TestSanitizeRemovesNonWhitelistedElements(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		absent  []string
		present []string
	}{
		{
			name:    "foreignObject",
			input:   `<svg><foreignObject><body/></foreignObject><path d="M0 0"/></svg>`,
			absent:  []string{"foreignObject", "body"},
			present: []string{"<path"},
		},
		{
			name:    "iframe",
			input:   `<svg><iframe src="https://evil.example"/><circle r="1"/></svg>`,
			absent:  []string{"iframe"},
			present: []string{"<circle"},
		},
		{
			name:    "animate",
			input:   `<svg><animate attributeName="href"/><rect width="1" height="1"/></svg>`,
			absent:  []string{"animate"},
			present: []string{"<rect"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Sanitize([]byte(tt.input))
			if err != nil {
				t.Fatalf("Sanitize failed: %v", err)
			}
			for _, s := range tt.absent {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q: %s", s, out)
				}
			}
			for _, s := range tt.present {
				if !strings.Contains(out, s) {
					t.Errorf("output should contain %q: %s", s, out)
				}
			}
		})
	}
}

func TestSanitizeAttributeWhitelist(t *testing.T) {
	input := `<svg><path d="M0 0" fill="red" data-name="home" custom="x" srcset="y"/></svg>`

	out, err := Sanitize([]byte(input))
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	for _, want := range []string{`d="M0 0"`, `fill="red"`, `data-name="home"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output should keep %s: %s", want, out)
		}
	}
	for _, drop := range []string{"custom", "srcset"} {
		if strings.Contains(out, drop) {
			t.Errorf("output should drop %s: %s", drop, out)
		}
	}
}

func TestSanitizeHrefJavascript(t *testing.T) {
	tests := []struct {
		name string
		attr string
		keep bool
	}{
		{"javascript scheme", `href="javascript:alert(1)"`, false},
		{"leading whitespace", `href="  javascript:alert(1)"`, false},
		{"mixed case", `href="JaVaScRiPt:alert(1)"`, false},
		{"fragment reference", `href="#icon-home"`, true},
		{"xlink javascript", `xlink:href="javascript:alert(1)"`, false},
		{"xlink fragment", `xlink:href="#icon-home"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `<svg xmlns:xlink="http://www.w3.org/1999/xlink"><use ` + tt.attr + `/></svg>`
			out, err := Sanitize([]byte(input))
			if err != nil {
				t.Fatalf("Sanitize failed: %v", err)
			}
			got := strings.Contains(out, "href=")
			if got != tt.keep {
				t.Errorf("href kept = %v, want %v: %s", got, tt.keep, out)
			}
		})
	}
}

func TestSanitizeStyleDangerousPatterns(t *testing.T) {
	tests := []struct {
		name  string
		style string
	}{
		{"expression", "width:expression(alert(1))"},
		{"javascript url", "background:url(javascript:alert(1))"},
		{"vbscript", "background:vbscript:evil"},
		{"import", "@import 'evil.css'"},
		{"behavior", "behavior:url(evil.htc)"},
		{"moz binding", "-moz-binding:url(evil.xml)"},
		{"uppercase", "width:EXPRESSION(alert(1))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `<svg><rect style="` + tt.style + `" width="1" height="1"/></svg>`
			out, err := Sanitize([]byte(input))
			if err != nil {
				t.Fatalf("Sanitize failed: %v", err)
			}
			if strings.Contains(out, "style=") {
				t.Errorf("dangerous style should drop the whole attribute: %s", out)
			}
			if !strings.Contains(out, "<rect") {
				t.Errorf("rect element itself should survive: %s", out)
			}
		})
	}
}

func TestSanitizeStyleCleanKept(t *testing.T) {
	input := `<svg><rect style="fill:red;stroke:blue" width="1" height="1"/></svg>`
	out, err := Sanitize([]byte(input))
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if !strings.Contains(out, `style="fill:red;stroke:blue"`) {
		t.Errorf("clean style should be kept verbatim: %s", out)
	}
}

func TestSanitizeGreedySpanExtraction(t *testing.T) {
	// Junk before the first <svg and after the last </svg> is discarded.
	input := `garbage prefix<svg><path d="M0 0"/></svg>trailing garbage`
	out, err := Sanitize([]byte(input))
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if strings.Contains(out, "garbage") || strings.Contains(out, "trailing") {
		t.Errorf("junk outside the svg span should be gone: %s", out)
	}
}

func TestSanitizeMultipleRootsCollapse(t *testing.T) {
	// The span runs from the first <svg to the last </svg>, so sibling
	// roots collapse into one span; the first root wins. Known surprise,
	// kept on purpose.
	input := `<svg><path d="M0 0"/></svg><svg><circle r="1"/></svg>`
	out, err := Sanitize([]byte(input))
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if !strings.Contains(out, "<path") {
		t.Errorf("first root content should survive: %s", out)
	}
	if strings.Count(out, "<svg") != 1 {
		t.Errorf("output should have exactly one svg root: %s", out)
	}
}

func TestSanitizeFixedPoint(t *testing.T) {
	inputs := []string{
		`<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0L10 10"/></svg>`,
		`<svg><symbol id="icon-a" viewBox="0 0 16 16"><path d="M1 1"/></symbol></svg>`,
		`<svg><g fill="red"><circle cx="1" cy="2" r="3"/></g><title>a &amp; b</title></svg>`,
		`<svg><defs><linearGradient id="g"><stop offset="0" stop-color="red"/></linearGradient></defs></svg>`,
		`<svg><script>alert(1)</script><rect onclick="x" width="1" height="1"/><path d="M0 0"/></svg>`,
	}

	for _, input := range inputs {
		first, err := Sanitize([]byte(input))
		if err != nil {
			t.Fatalf("first pass failed for %q: %v", input, err)
		}
		second, err := Sanitize([]byte(first))
		if err != nil {
			t.Fatalf("second pass failed for %q: %v", first, err)
		}
		if first != second {
			t.Errorf("sanitize is not a fixed point:\nfirst:  %s\nsecond: %s", first, second)
		}
	}
}

func TestSanitizeNeverEmitsScript(t *testing.T) {
	// Property check over adversarial inputs that parse successfully.
	inputs := []string{
		`<svg><script/></svg>`,
		`<svg><title>&lt;script&gt;alert(1)&lt;/script&gt;</title></svg>`,
		`<svg><desc>script here</desc></svg>`,
		`<svg><g><g><g><script>deep</script></g></g></g></svg>`,
	}

	for _, input := range inputs {
		out, err := Sanitize([]byte(input))
		if err != nil {
			t.Fatalf("Sanitize(%q) failed: %v", input, err)
		}
		if strings.Contains(strings.ToLower(out), "<script") {
			t.Errorf("output contains <script for input %q: %s", input, out)
		}
	}
}

func TestAllowedAttr(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"fill", true},
		{"viewBox", true},
		{"xlink:href", true},
		{"data-custom", true},
		{"onload", false},
		{"ONclick", false},
		{"onmouseover", false},
		{"bogus", false},
	}

	for _, tt := range tests {
		if got := AllowedAttr(tt.name); got != tt.want {
			t.Errorf("AllowedAttr(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCleanAttrValue(t *testing.T) {
	tests := []struct {
		name   string
		attr   string
		value  string
		want   string
		wantOK bool
	}{
		{"plain value untouched", "fill", "#333", "#333", true},
		{"javascript href dropped", "href", "javascript:alert(1)", "", false},
		{"safe href kept", "href", "#icon-home", "#icon-home", true},
		{"dangerous style dropped", "style", "background:url(javascript:alert(1))", "", false},
		{"clean style kept", "style", "fill:red;", "fill:red;", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CleanAttrValue(tt.attr, tt.value)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CleanAttrValue(%q, %q) = %q, %v; want %q, %v",
					tt.attr, tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
