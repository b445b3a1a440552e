package results

import (
	"fmt"
	"strings"

	"github.com/rdfkit/sparqlengine/sparql"
)

// WriteXML serializes r as the SPARQL Query Results XML Format
// (spec.md §6): <head> lists the SELECT variable names; a SELECT's
// <results> holds one <result> per row, each row's bound columns
// becoming a <binding name="..."> element whose child reflects the
// term's kind (<uri>, <literal> with optional xml:lang/datatype, or
// <bnode>); ASK emits <boolean>true|false</boolean> instead of
// <results>.
func WriteXML(ctx *sparql.Context, r *QueryResults) (string, error) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>` + "\n")
	b.WriteString(`<sparql xmlns="http://www.w3.org/2005/sparql-results#">` + "\n")

	b.WriteString("  <head>\n")
	for _, v := range r.Vars {
		fmt.Fprintf(&b, "    <variable name=%q/>\n", v.Name)
	}
	b.WriteString("  </head>\n")

	switch r.Kind {
	case KindBoolean:
		fmt.Fprintf(&b, "  <boolean>%t</boolean>\n", r.Boolean)
	case KindRows:
		rows, err := r.DrainRows(ctx)
		if err != nil {
			return "", err
		}
		b.WriteString("  <results>\n")
		for _, row := range rows {
			b.WriteString("    <result>\n")
			for i, v := range r.Vars {
				if i >= len(row.Values) || row.Values[i] == nil {
					continue
				}
				writeBinding(&b, v.Name, row.Values[i])
			}
			b.WriteString("    </result>\n")
		}
		b.WriteString("  </results>\n")
	case KindTriples:
		// CONSTRUCT/DESCRIBE results are not representable in the SPARQL
		// results XML format (it only covers SELECT/ASK per spec.md §6);
		// callers wanting triples serialize via an RDF syntax instead.
		return "", sparql.ErrFatal.New("XML result serialization requires KindRows or KindBoolean")
	}

	b.WriteString("</sparql>\n")
	return b.String(), nil
}

func writeBinding(b *strings.Builder, name string, t sparql.Term) {
	fmt.Fprintf(b, "      <binding name=%q>", name)
	switch v := t.(type) {
	case sparql.URI:
		fmt.Fprintf(b, "<uri>%s</uri>", sparql.EscapeXMLText(string(v)))
	case sparql.BlankNode:
		fmt.Fprintf(b, "<bnode>%s</bnode>", sparql.EscapeXMLText(v.Label))
	case sparql.Literal:
		writeLiteral(b, v)
	default:
		fmt.Fprintf(b, "<uri>%s</uri>", sparql.EscapeXMLText(t.String()))
	}
	b.WriteString("</binding>\n")
}

func writeLiteral(b *strings.Builder, l sparql.Literal) {
	switch {
	case l.Datatype == sparql.RDFXMLLiteral:
		// rdf:XMLLiteral content is emitted verbatim, not escaped: it is
		// already well-formed XML markup per spec.md §6.
		fmt.Fprintf(b, `<literal datatype=%q>%s</literal>`, string(l.Datatype), l.Lexical)
	case l.Lang != "":
		fmt.Fprintf(b, `<literal xml:lang=%q>%s</literal>`, l.Lang, sparql.EscapeXMLText(l.Lexical))
	case l.Datatype != "":
		fmt.Fprintf(b, `<literal datatype=%q>%s</literal>`, string(l.Datatype), sparql.EscapeXMLText(l.Lexical))
	default:
		fmt.Fprintf(b, `<literal>%s</literal>`, sparql.EscapeXMLText(l.Lexical))
	}
}
