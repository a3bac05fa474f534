package annotation

import (
	"cmp"
	"fmt"
	"slices"
)

// Token is a single morphosyntactic unit of a parsed document.
//
// Start and End are character offsets into the source text. Head is the id
// of the governing token; a sentence root is its own head.
type Token struct {
	ID             int    `json:"id"`
	Start          int    `json:"start"`
	End            int    `json:"end"`
	Tag            string `json:"tag,omitempty"`
	PartOfSpeech   string `json:"pos,omitempty"`
	Lemma          string `json:"lemma,omitempty"`
	DependencyType string `json:"dep,omitempty"`
	Head           int    `json:"head"`
}

// IsRoot reports whether the token governs itself.
func (t Token) IsRoot() bool {
	return t.Head == t.ID
}

// Compare orders tokens by id, start, end, tag, part of speech, lemma,
// dependency type and head. Strings compare byte-wise. The order carries no
// linguistic meaning; it only makes vertex listings deterministic.
func (t Token) Compare(o Token) int {
	return cmp.Or(
		cmp.Compare(t.ID, o.ID),
		cmp.Compare(t.Start, o.Start),
		cmp.Compare(t.End, o.End),
		cmp.Compare(t.Tag, o.Tag),
		cmp.Compare(t.PartOfSpeech, o.PartOfSpeech),
		cmp.Compare(t.Lemma, o.Lemma),
		cmp.Compare(t.DependencyType, o.DependencyType),
		cmp.Compare(t.Head, o.Head),
	)
}

// FineTag parses Tag into the closed part-of-speech vocabulary.
func (t Token) FineTag() (PartOfSpeech, error) {
	return ParsePartOfSpeech(t.Tag)
}

func (t Token) String() string {
	return fmt.Sprintf("#%d[%d:%d]", t.ID, t.Start, t.End)
}

// SortTokens returns a copy of tokens in Compare order. The input is left
// untouched.
func SortTokens(tokens []Token) []Token {
	sorted := slices.Clone(tokens)
	slices.SortStableFunc(sorted, Token.Compare)
	return sorted
}

// EntitySpan is a labeled character range identifying a named entity.
// Label is kept in its wire form so unexpected labels can be reported by the
// materializer instead of failing the decode.
type EntitySpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

func (e EntitySpan) String() string {
	return fmt.Sprintf("%s[%d:%d]", e.Label, e.Start, e.End)
}

// Sentence marks a sentence boundary in character offsets.
type Sentence struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Request is the body sent to the annotation service.
type Request struct {
	Content string `json:"content"`
}

// Payload is the annotation service response for one document.
type Payload struct {
	Tokens    []Token      `json:"tokens"`
	Entities  []EntitySpan `json:"ents"`
	Sentences []Sentence   `json:"sents"`
}

// Features describes the labels the annotation service can produce, keyed
// by label with a human readable explanation.
type Features struct {
	Entities      map[string]string `json:"entities"`
	PartsOfSpeech map[string]string `json:"partsOfSpeech"`
	Dependencies  map[string]string `json:"dependencies"`
}
