package expression

import (
	"regexp"
	"strings"

	"github.com/rdfkit/sparqlengine/sparql"
)

// compileRegex translates a SPARQL pattern plus a flags string
// containing any of {i, s, m, x} ('x' is accepted and ignored, Go's RE2
// engine has no extended/free-spacing mode) into a compiled regexp. The
// teacher's own internal/regex package wraps Go's regexp for its LIKE/
// index support; REGEX() reuses the same library for the same reason:
// it is always present (no compile-time feature flag needed), so the
// "neither POSIX nor PCRE available" branch of spec.md §4.2 never
// triggers in this port.
func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 's', 'm':
			inline.WriteRune(f)
		case 'x':
			// accepted, no Go equivalent; ignored per spec.md §4.2.
		}
	}
	p := pattern
	if inline.Len() > 0 {
		p = "(?" + inline.String() + ")" + pattern
	}
	return regexp.Compile(p)
}

// Regex implements REGEX(text, pattern[, flags]). A compile failure
// logs one warning and yields a TypeError (spec.md §4.2, §7); it never
// aborts the query.
type Regex struct {
	Text, Pattern, Flags Expression
	warned                bool
}

func NewRegex(text, pattern, flags Expression) *Regex {
	return &Regex{Text: text, Pattern: pattern, Flags: flags}
}

func (r *Regex) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	textLit, err := stringLiteral(ctx, row, r.Text)
	if err != nil {
		return nil, err
	}
	patLit, err := stringLiteral(ctx, row, r.Pattern)
	if err != nil {
		return nil, err
	}
	flags := ""
	if r.Flags != nil {
		flagsLit, err := stringLiteral(ctx, row, r.Flags)
		if err != nil {
			return nil, err
		}
		flags = flagsLit.Lexical
	}
	re, err := compileRegex(patLit.Lexical, flags)
	if err != nil {
		if !r.warned {
			r.warned = true
			if ctx.SCtx != nil {
				ctx.SCtx.Logger().WithError(err).Warn("sparql: REGEX pattern failed to compile")
			}
		}
		return nil, sparql.ErrType.New(sparql.ErrRegex.New(err.Error()).Error())
	}
	return boolLiteral(ctx, re.MatchString(textLit.Lexical)), nil
}

func (r *Regex) Children() []Expression {
	if r.Flags == nil {
		return []Expression{r.Text, r.Pattern}
	}
	return []Expression{r.Text, r.Pattern, r.Flags}
}
func (r *Regex) WithChildren(children ...Expression) Expression {
	nr := &Regex{Text: children[0], Pattern: children[1]}
	if len(children) > 2 {
		nr.Flags = children[2]
	}
	return nr
}
func (r *Regex) String() string { return "REGEX(...)" }
func (r *Regex) OpTag() string  { return "Regex" }
