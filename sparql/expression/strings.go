package expression

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rdfkit/sparqlengine/sparql"
)

// stringLiteral extracts a literal's lexical form plus lang/datatype,
// requiring the operand be a literal (URIs are not valid string-function
// operands in SPARQL).
func stringLiteral(ctx *Context, row sparql.Row, e Expression) (sparql.Literal, error) {
	v, err := e.Eval(ctx, row)
	if err != nil {
		return sparql.Literal{}, err
	}
	if v == nil {
		return sparql.Literal{}, sparql.ErrType.New("unbound operand in string function")
	}
	lit, ok := v.(sparql.Literal)
	if !ok {
		return sparql.Literal{}, sparql.ErrType.New("non-literal operand in string function")
	}
	return lit, nil
}

// argsCompatible implements the STRSTARTS/STRENDS/CONTAINS argument
// compatibility rule (spec.md §4.2, §9 open question pinned down): a
// language-tagged arg2 requires an EXACT (case-sensitive) language match
// with arg1; anything else (simple literal or xsd:string arg2)
// is compatible regardless of arg1's language tag.
func argsCompatible(arg1, arg2 sparql.Literal) bool {
	if arg2.Lang != "" {
		return arg1.Lang == arg2.Lang
	}
	return true
}

func codepoints(s string) []rune { return []rune(s) }

// StringFunc implements the STRLEN/SUBSTR/UCASE/LCASE/ENCODE_FOR_URI/
// STRSTARTS/STRENDS/CONTAINS/STRBEFORE/STRAFTER/CONCAT/REPLACE family,
// all Unicode-aware at codepoint granularity (spec.md §4.2). SUBSTR uses
// a 1-based starting index per XPath fn:substring.
type StringFunc struct {
	Name string
	Args []Expression
}

func NewStringFunc(name string, args ...Expression) *StringFunc {
	return &StringFunc{Name: name, Args: args}
}

func (s *StringFunc) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	switch s.Name {
	case "STRLEN":
		lit, err := stringLiteral(ctx, row, s.Args[0])
		if err != nil {
			return nil, err
		}
		return sparql.NewTypedLiteral(fmt.Sprint(len(codepoints(lit.Lexical))), ctx.World.XSD(sparql.XSDInteger)), nil

	case "UCASE", "LCASE":
		lit, err := stringLiteral(ctx, row, s.Args[0])
		if err != nil {
			return nil, err
		}
		out := strings.ToUpper(lit.Lexical)
		if s.Name == "LCASE" {
			out = strings.ToLower(lit.Lexical)
		}
		return withSameTag(lit, out), nil

	case "ENCODE_FOR_URI":
		lit, err := stringLiteral(ctx, row, s.Args[0])
		if err != nil {
			return nil, err
		}
		return sparql.NewLiteral(encodeForURI(lit.Lexical)), nil

	case "STRSTARTS", "STRENDS", "CONTAINS":
		a1, err := stringLiteral(ctx, row, s.Args[0])
		if err != nil {
			return nil, err
		}
		a2, err := stringLiteral(ctx, row, s.Args[1])
		if err != nil {
			return nil, err
		}
		if !argsCompatible(a1, a2) {
			return nil, sparql.ErrType.New("incompatible string-function arguments")
		}
		var result bool
		switch s.Name {
		case "STRSTARTS":
			result = strings.HasPrefix(a1.Lexical, a2.Lexical)
		case "STRENDS":
			result = strings.HasSuffix(a1.Lexical, a2.Lexical)
		case "CONTAINS":
			result = strings.Contains(a1.Lexical, a2.Lexical)
		}
		return boolLiteral(ctx, result), nil

	case "STRBEFORE", "STRAFTER":
		a1, err := stringLiteral(ctx, row, s.Args[0])
		if err != nil {
			return nil, err
		}
		a2, err := stringLiteral(ctx, row, s.Args[1])
		if err != nil {
			return nil, err
		}
		if !argsCompatible(a1, a2) {
			return nil, sparql.ErrType.New("incompatible string-function arguments")
		}
		idx := strings.Index(a1.Lexical, a2.Lexical)
		if idx < 0 {
			return sparql.NewLiteral(""), nil
		}
		if s.Name == "STRBEFORE" {
			return withSameTag(a1, a1.Lexical[:idx]), nil
		}
		return withSameTag(a1, a1.Lexical[idx+len(a2.Lexical):]), nil

	case "CONCAT":
		return s.evalConcat(ctx, row)

	case "REPLACE":
		return s.evalReplace(ctx, row)

	case "SUBSTR":
		return s.evalSubstr(ctx, row)

	default:
		return nil, sparql.ErrFatal.New("unknown string function " + s.Name)
	}
}

// withSameTag builds a new literal carrying out's lexical form but src's
// language/datatype, used by functions that preserve the input's tag.
func withSameTag(src sparql.Literal, out string) sparql.Term {
	switch {
	case src.Lang != "":
		return sparql.NewLangLiteral(out, src.Lang)
	case src.Datatype != "":
		return sparql.NewTypedLiteral(out, src.Datatype)
	default:
		return sparql.NewLiteral(out)
	}
}

func (s *StringFunc) evalConcat(ctx *Context, row sparql.Row) (sparql.Term, error) {
	var lits []sparql.Literal
	for _, a := range s.Args {
		lit, err := stringLiteral(ctx, row, a)
		if err != nil {
			return nil, err
		}
		lits = append(lits, lit)
	}
	var b strings.Builder
	for _, l := range lits {
		b.WriteString(l.Lexical)
	}
	// CONCAT carries the common datatype/language only if all inputs
	// agree, else a plain literal (spec.md §4.2).
	if len(lits) == 0 {
		return sparql.NewLiteral(""), nil
	}
	first := lits[0]
	allSame := true
	for _, l := range lits[1:] {
		if l.Lang != first.Lang || l.Datatype != first.Datatype {
			allSame = false
			break
		}
	}
	if allSame {
		return withSameTag(first, b.String()), nil
	}
	return sparql.NewLiteral(b.String()), nil
}

func (s *StringFunc) evalReplace(ctx *Context, row sparql.Row) (sparql.Term, error) {
	lit, err := stringLiteral(ctx, row, s.Args[0])
	if err != nil {
		return nil, err
	}
	pattern, err := stringLiteral(ctx, row, s.Args[1])
	if err != nil {
		return nil, err
	}
	replacement, err := stringLiteral(ctx, row, s.Args[2])
	if err != nil {
		return nil, err
	}
	flags := ""
	if len(s.Args) > 3 {
		f, err := stringLiteral(ctx, row, s.Args[3])
		if err != nil {
			return nil, err
		}
		flags = f.Lexical
	}
	re, err := compileRegex(pattern.Lexical, flags)
	if err != nil {
		return nil, sparql.ErrType.New(sparql.ErrRegex.New(err.Error()).Error())
	}
	out := re.ReplaceAllString(lit.Lexical, translateReplacement(replacement.Lexical))
	return withSameTag(lit, out), nil
}

// translateReplacement rewrites SPARQL's $1-style backreferences into
// Go regexp's ${1} form.
func translateReplacement(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			j := i + 1
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			b.WriteString("${" + s[i+1:j] + "}")
			i = j - 1
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func (s *StringFunc) evalSubstr(ctx *Context, row sparql.Row) (sparql.Term, error) {
	lit, err := stringLiteral(ctx, row, s.Args[0])
	if err != nil {
		return nil, err
	}
	startT, err := numericOperand(ctx, row, s.Args[1])
	if err != nil {
		return nil, err
	}
	cps := codepoints(lit.Lexical)
	// 1-based starting index per XPath fn:substring.
	start := int(startT.AsFloat64())
	length := len(cps) - start + 1
	if len(s.Args) > 2 {
		lenT, err := numericOperand(ctx, row, s.Args[2])
		if err != nil {
			return nil, err
		}
		length = int(lenT.AsFloat64())
	}
	from := start - 1
	to := from + length
	if from < 0 {
		from = 0
	}
	if to > len(cps) {
		to = len(cps)
	}
	if from > len(cps) || to < from {
		return withSameTag(lit, ""), nil
	}
	return withSameTag(lit, string(cps[from:to])), nil
}

func (s *StringFunc) Children() []Expression { return s.Args }
func (s *StringFunc) WithChildren(children ...Expression) Expression {
	return &StringFunc{Name: s.Name, Args: children}
}
func (s *StringFunc) String() string { return s.Name + "(...)" }
func (s *StringFunc) OpTag() string  { return "StringFunc:" + s.Name }

const uriUnreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.~"

func encodeForURI(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < utf8.RuneSelf && strings.ContainsRune(uriUnreserved, r) {
			b.WriteRune(r)
			continue
		}
		buf := make([]byte, utf8.RuneLen(r))
		utf8.EncodeRune(buf, r)
		for _, c := range buf {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
