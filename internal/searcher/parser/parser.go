// Package parser turns a raw keyword query into the keywords to resolve and
// the terms to match.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/tokenizer"
)

type QueryPlan struct {
	// Keywords keep their original case, stop words removed.
	Keywords []string
	// Terms are the lower-cased index terms of Keywords.
	Terms    []string
	RawQuery string
}

func Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		Keywords: make([]string, 0),
		Terms:    make([]string, 0),
		RawQuery: query,
	}
	if strings.TrimSpace(query) == "" {
		return plan
	}
	for _, word := range strings.Fields(tokenizer.RemoveStopWords(query)) {
		tokens := tokenizer.Tokenize(word)
		if len(tokens) == 0 {
			continue
		}
		plan.Keywords = append(plan.Keywords, tokenizer.TrimEdges(word))
		plan.Terms = append(plan.Terms, tokens[0])
	}
	return plan
}

// Empty reports whether the query has nothing left to search for.
func (p *QueryPlan) Empty() bool {
	return len(p.Keywords) == 0
}
