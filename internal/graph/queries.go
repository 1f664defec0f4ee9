package graph

import (
	"fmt"
	"strings"
	"unicode"
)

// Result variables bound by the query builders.
const (
	VarResource = "resource"
	VarURI      = "uri"
	VarText     = "text"
	VarCountry  = "c"
	VarProperty = "property"
)

const (
	prefixFOAF = "PREFIX foaf: <http://xmlns.com/foaf/0.1/>\n"
	prefixRDF  = "PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>\n"
	prefixRDFS = "PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>\n"
	prefixOWL  = "PREFIX owl: <http://www.w3.org/2002/07/owl#>\n"
	prefixDBO  = "PREFIX dbo: <http://dbpedia.org/ontology/>\n"
	prefixDC   = "PREFIX dc: <http://purl.org/dc/elements/1.1/>\n"
)

// PersonNeighborsQuery selects every foaf:Person linked to uri in either
// direction.
func PersonNeighborsQuery(uri string) string {
	return prefixFOAF +
		"SELECT DISTINCT ?resource WHERE {\n" +
		"{ " + iri(uri) + " ?p ?resource }\n" +
		"UNION\n" +
		"{ ?resource ?p " + iri(uri) + " }\n" +
		"?resource a foaf:Person .\n" +
		"}"
}

// ResourceNeighborsQuery selects every node in namespace linked to uri in
// either direction.
func ResourceNeighborsQuery(uri, namespace string) string {
	filter := "FILTER(STRSTARTS(STR(?resource), " + literal(namespace) + "))"
	return "SELECT DISTINCT ?resource WHERE {\n" +
		"{ " + iri(uri) + " ?p ?resource " + filter + " }\n" +
		"UNION\n" +
		"{ ?resource ?p " + iri(uri) + " " + filter + " }\n" +
		"}"
}

// LabelLookupQuery selects the resource carrying the English label, or the
// redirect target of a page with that label.
func LabelLookupQuery(label string) string {
	lit := literal(label) + "@en"
	return prefixOWL + prefixRDFS + prefixDBO +
		"SELECT ?uri WHERE {\n" +
		"{ ?uri rdfs:label " + lit + " ; a owl:Thing . }\n" +
		"UNION\n" +
		"{ ?alt rdfs:label " + lit + " ; dbo:wikiPageRedirects ?uri . }\n" +
		"}"
}

// ExistsQuery selects at most one triple mentioning uri as subject or object.
func ExistsQuery(uri string) string {
	return "SELECT ?property WHERE {\n" +
		"{ " + iri(uri) + " ?property ?o }\n" +
		"UNION\n" +
		"{ ?s ?property " + iri(uri) + " }\n" +
		"} LIMIT 1"
}

// AbstractQuery selects the English dbo:abstract of uri.
func AbstractQuery(uri string) string {
	return textQuery(prefixDBO, uri, "dbo:abstract")
}

// CommentQuery selects the English rdfs:comment of uri.
func CommentQuery(uri string) string {
	return textQuery(prefixRDFS, uri, "rdfs:comment")
}

// DescriptionQuery selects the English dc:description of uri.
func DescriptionQuery(uri string) string {
	return textQuery(prefixDC, uri, "dc:description")
}

func textQuery(prefix, uri, predicate string) string {
	return prefix +
		"SELECT ?text WHERE {\n" +
		iri(uri) + " " + predicate + " ?text .\n" +
		`FILTER(LANGMATCHES(LANG(?text), "en"))` + "\n" +
		"} LIMIT 1"
}

// CountryQuery selects a place named name that has not been dissolved.
func CountryQuery(name string) string {
	return prefixDBO + prefixFOAF + prefixRDF +
		"SELECT ?c WHERE {\n" +
		"?c rdf:type dbo:Place ; foaf:name " + literal(name) + "@en .\n" +
		"FILTER NOT EXISTS { ?c dbo:dissolutionYear ?y }\n" +
		"} LIMIT 1"
}

// TextQueries returns the biography text sources of uri in concatenation
// order.
func TextQueries(uri string) []string {
	return []string{AbstractQuery(uri), CommentQuery(uri), DescriptionQuery(uri)}
}

func iri(uri string) string {
	return "<" + strings.NewReplacer("<", "%3C", ">", "%3E", " ", "%20", `"`, "%22").Replace(uri) + ">"
}

// literal quotes s as a SPARQL string using ECHAR escapes, and \uXXXX for any
// other control character.
func literal(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if unicode.IsControl(r) {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
