// Package pathdata parses and validates SVG path data strings.
//
// The grammar covers the SVG 1.1 path commands (moveto, lineto, curves,
// arcs, closepath) with comma or whitespace separated numeric arguments.
// Synthesis uses it to reject garbage vector data before it is embedded
// in a generated sprite.
package pathdata

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/spritekiln/spritekiln/core/errors"
)

// Path is a parsed SVG path data string.
type Path struct {
	Commands []*Command `parser:"@@+"`
}

// Command is a single path command with its numeric arguments. Args keeps
// the raw token text: arc commands need it to re-split compact flag syntax,
// where a flag digit is glued to the following number ("018 8" is four
// arguments, not two).
type Command struct {
	Op   string   `parser:"@Op"`
	Args []string `parser:"@Number*"`
}

var pathLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Op", Pattern: `[MmLlHhVvCcSsQqTtAaZz]`},
	{Name: "Number", Pattern: `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`},
	{Name: "Sep", Pattern: `[\s,]+`},
})

var pathParser = participle.MustBuild[Path](
	participle.Lexer(pathLexer),
	participle.Elide("Sep"),
)

// argCounts maps a lowercased command to its per-repetition argument count.
var argCounts = map[string]int{
	"m": 2, "l": 2, "h": 1, "v": 1,
	"c": 6, "s": 4, "q": 4, "t": 2,
	"a": 7, "z": 0,
}

// Parse parses an SVG path data string.
func Parse(d string) (*Path, error) {
	path, err := pathParser.ParseString("", d)
	if err != nil {
		return nil, &errors.FormatError{Format: "path data", Message: err.Error(), Err: err}
	}
	return path, nil
}

// Validate checks that a path data string parses and that every command
// carries a well-formed argument list.
func Validate(d string) error {
	path, err := Parse(d)
	if err != nil {
		return err
	}

	for _, cmd := range path.Commands {
		op := lowerOp(cmd.Op)
		want := argCounts[op]
		if want == 0 {
			if len(cmd.Args) != 0 {
				return errors.NewFormat("path data", "closepath takes no arguments")
			}
			continue
		}
		args := cmd.Args
		if op == "a" {
			expanded, err := expandArcArgs(args)
			if err != nil {
				return err
			}
			args = expanded
		}
		// Commands repeat implicitly: argument count must be a non-zero
		// multiple of the command's arity.
		if len(args) == 0 || len(args)%want != 0 {
			return errors.NewFormat("path data", "command "+cmd.Op+" has malformed arguments")
		}
	}
	return nil
}

// expandArcArgs re-splits arc argument tokens for compact flag syntax.
// The large-arc and sweep flags (positions 3 and 4 of each 7-argument
// repetition) are single digits and need no separator, so the lexer may
// glue a flag to the number that follows it. A glued remainder is pushed
// back and re-examined at its own position.
func expandArcArgs(tokens []string) ([]string, error) {
	out := make([]string, 0, len(tokens))
	pending := append([]string(nil), tokens...)
	for len(pending) > 0 {
		tok := pending[0]
		pending = pending[1:]
		if pos := len(out) % 7; pos == 3 || pos == 4 {
			if tok[0] != '0' && tok[0] != '1' {
				return nil, errors.NewFormat("path data", "arc flag must be 0 or 1")
			}
			out = append(out, tok[:1])
			if rest := tok[1:]; rest != "" {
				pending = append([]string{rest}, pending...)
			}
			continue
		}
		out = append(out, tok)
	}
	return out, nil
}

func lowerOp(op string) string {
	if op >= "A" && op <= "Z" {
		return string(op[0] + ('a' - 'A'))
	}
	return op
}
