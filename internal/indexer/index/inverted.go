// Package index holds the in-memory document registry and the inverted index
// that maps terms to the documents containing them. Postings are roaring
// bitmaps over registry ids.
package index

import (
	"iter"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Inverted maps a lower-case term to the set of document ids it occurs in.
// A term present in the index always has at least one posting.
type Inverted struct {
	postings map[string]*roaring.Bitmap
}

func NewInverted() *Inverted {
	return &Inverted{
		postings: make(map[string]*roaring.Bitmap),
	}
}

// Add records that term occurs in docID.
func (ix *Inverted) Add(term string, docID uint32) {
	if term == "" {
		return
	}
	bm, ok := ix.postings[term]
	if !ok {
		bm = roaring.New()
		ix.postings[term] = bm
	}
	bm.Add(docID)
}

// Postings returns a copy of the postings for term, or nil if the term is not
// indexed.
func (ix *Inverted) Postings(term string) *roaring.Bitmap {
	bm, ok := ix.postings[term]
	if !ok {
		return nil
	}
	return bm.Clone()
}

// Contains reports whether term is indexed.
func (ix *Inverted) Contains(term string) bool {
	_, ok := ix.postings[term]
	return ok
}

// Terms returns every indexed term in lexical order.
func (ix *Inverted) Terms() []string {
	terms := make([]string, 0, len(ix.postings))
	for term := range ix.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Len returns the number of indexed terms.
func (ix *Inverted) Len() int {
	return len(ix.postings)
}

// Intersect starts from the postings of the first indexed term and keeps only
// the ids shared with every later indexed term. Terms that are not indexed are
// skipped rather than treated as empty sets. The result is nil when no term
// is indexed or the intersection is empty.
func (ix *Inverted) Intersect(terms []string) *roaring.Bitmap {
	var result *roaring.Bitmap
	for _, term := range terms {
		bm, ok := ix.postings[term]
		if !ok {
			continue
		}
		if result == nil {
			result = bm.Clone()
			continue
		}
		result.And(bm)
	}
	if result == nil || result.IsEmpty() {
		return nil
	}
	return result
}

// IDs iterates bm in ascending order.
func IDs(bm *roaring.Bitmap) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		if bm == nil {
			return
		}
		it := bm.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}
