package annotation

import (
	"errors"
	"fmt"
)

// ErrUnknownPartOfSpeech is returned when a tag is not part of the
// vocabulary.
var ErrUnknownPartOfSpeech = errors.New("unknown part of speech")

// PartOfSpeech is the closed set of fine-grained tags (Penn Treebank style,
// as emitted by the annotation service in Token.Tag).
type PartOfSpeech int

const (
	PosCurrency PartOfSpeech = iota + 1
	PosClosingQuote
	PosComma
	PosLeftRoundBracket
	PosRightRoundBracket
	PosPeriod
	PosColon
	PosADD
	PosAFX
	PosCC
	PosCD
	PosDT
	PosEX
	PosFW
	PosHYPH
	PosIN
	PosJJ
	PosJJR
	PosJJS
	PosLS
	PosMD
	PosNFP
	PosNN
	PosNNP
	PosNNPS
	PosNNS
	PosPDT
	PosPOS
	PosPRP
	PosPRPPossessive
	PosRB
	PosRBR
	PosRBS
	PosRP
	PosSYM
	PosTO
	PosUH
	PosVB
	PosVBD
	PosVBG
	PosVBN
	PosVBP
	PosVBZ
	PosWDT
	PosWP
	PosWPPossessive
	PosWRB
	PosXX
	PosOpeningQuote
)

var posTable = [...]labelInfo{
	PosCurrency:          {"$", "symbol, currency"},
	PosClosingQuote:      {"''", "closing quotation mark"},
	PosComma:             {",", "punctuation mark, comma"},
	PosLeftRoundBracket:  {"-LRB-", "left round bracket"},
	PosRightRoundBracket: {"-RRB-", "right round bracket"},
	PosPeriod:            {".", "punctuation mark, sentence closer"},
	PosColon:             {":", "punctuation mark, colon or ellipsis"},
	PosADD:               {"ADD", "email"},
	PosAFX:               {"AFX", "affix"},
	PosCC:                {"CC", "conjunction, coordinating"},
	PosCD:                {"CD", "cardinal number"},
	PosDT:                {"DT", "determiner"},
	PosEX:                {"EX", "existential there"},
	PosFW:                {"FW", "foreign word"},
	PosHYPH:              {"HYPH", "punctuation mark, hyphen"},
	PosIN:                {"IN", "conjunction, subordinating or preposition"},
	PosJJ:                {"JJ", "adjective (English), other noun-modifier (Chinese)"},
	PosJJR:               {"JJR", "adjective, comparative"},
	PosJJS:               {"JJS", "adjective, superlative"},
	PosLS:                {"LS", "list item marker"},
	PosMD:                {"MD", "verb, modal auxiliary"},
	PosNFP:               {"NFP", "superfluous punctuation"},
	PosNN:                {"NN", "noun, singular or mass"},
	PosNNP:               {"NNP", "noun, proper singular"},
	PosNNPS:              {"NNPS", "noun, proper plural"},
	PosNNS:               {"NNS", "noun, plural"},
	PosPDT:               {"PDT", "predeterminer"},
	PosPOS:               {"POS", "possessive ending"},
	PosPRP:               {"PRP", "pronoun, personal"},
	PosPRPPossessive:     {"PRP$", "pronoun, possessive"},
	PosRB:                {"RB", "adverb"},
	PosRBR:               {"RBR", "adverb, comparative"},
	PosRBS:               {"RBS", "adverb, superlative"},
	PosRP:                {"RP", "adverb, particle"},
	PosSYM:               {"SYM", "symbol"},
	PosTO:                {"TO", "infinitival \"to\""},
	PosUH:                {"UH", "interjection"},
	PosVB:                {"VB", "verb, base form"},
	PosVBD:               {"VBD", "verb, past tense"},
	PosVBG:               {"VBG", "verb, gerund or present participle"},
	PosVBN:               {"VBN", "verb, past participle"},
	PosVBP:               {"VBP", "verb, non-3rd person singular present"},
	PosVBZ:               {"VBZ", "verb, 3rd person singular present"},
	PosWDT:               {"WDT", "wh-determiner"},
	PosWP:                {"WP", "wh-pronoun, personal"},
	PosWPPossessive:      {"WP$", "wh-pronoun, possessive"},
	PosWRB:               {"WRB", "wh-adverb"},
	PosXX:                {"XX", "unknown"},
	PosOpeningQuote:      {"``", "opening quotation mark"},
}

var posByWire = func() map[string]PartOfSpeech {
	m := make(map[string]PartOfSpeech, len(posTable))
	for i := PosCurrency; i <= PosOpeningQuote; i++ {
		m[posTable[i].wire] = i
	}
	return m
}()

// ParsePartOfSpeech maps a wire tag such as "NNP" or "-LRB-" to the
// vocabulary.
func ParsePartOfSpeech(s string) (PartOfSpeech, error) {
	p, ok := posByWire[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPartOfSpeech, s)
	}
	return p, nil
}

func (p PartOfSpeech) Valid() bool {
	return p >= PosCurrency && p <= PosOpeningQuote
}

func (p PartOfSpeech) String() string {
	if !p.Valid() {
		return fmt.Sprintf("PartOfSpeech(%d)", int(p))
	}
	return posTable[p].wire
}

func (p PartOfSpeech) Explain() string {
	if !p.Valid() {
		return ""
	}
	return posTable[p].explain
}

func (p PartOfSpeech) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPartOfSpeech, int(p))
	}
	return []byte(p.String()), nil
}

func (p *PartOfSpeech) UnmarshalText(text []byte) error {
	parsed, err := ParsePartOfSpeech(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
