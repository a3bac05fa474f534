package annotation

import (
	"fmt"

	"github.com/necronomicon/backend/pkg/common"
)

// EntityLabel is the closed vocabulary of named-entity labels produced by
// the annotation service.
type EntityLabel int

const (
	LabelCardinal EntityLabel = iota + 1
	LabelDate
	LabelEvent
	LabelFacility
	LabelGeopoliticalEntity
	LabelLanguage
	LabelLaw
	LabelLocation
	LabelMoney
	LabelNationality
	LabelOrdinal
	LabelOrganization
	LabelPercent
	LabelPerson
	LabelProduct
	LabelQuantity
	LabelTime
	LabelWorkOfArt
)

type labelInfo struct {
	wire    string
	explain string
}

var labelTable = map[EntityLabel]labelInfo{
	LabelCardinal:           {"CARDINAL", "Numerals that do not fall under another type"},
	LabelDate:               {"DATE", "Absolute or relative dates or periods"},
	LabelEvent:              {"EVENT", "Named hurricanes, battles, wars, sports events, etc."},
	LabelFacility:           {"FAC", "Buildings, airports, highways, bridges, etc."},
	LabelGeopoliticalEntity: {"GPE", "Countries, cities, states"},
	LabelLanguage:           {"LANGUAGE", "Any named language"},
	LabelLaw:                {"LAW", "Named documents made into laws."},
	LabelLocation:           {"LOC", "Non-GPE locations, mountain ranges, bodies of water"},
	LabelMoney:              {"MONEY", "Monetary values, including unit"},
	LabelNationality:        {"NORP", "Nationalities or religious or political groups"},
	LabelOrdinal:            {"ORDINAL", "\"first\", \"second\", etc."},
	LabelOrganization:       {"ORG", "Companies, agencies, institutions, etc."},
	LabelPercent:            {"PERCENT", "Percentage, including \"%\""},
	LabelPerson:             {"PERSON", "People, including fictional"},
	LabelProduct:            {"PRODUCT", "Objects, vehicles, foods, etc. (not services)"},
	LabelQuantity:           {"QUANTITY", "Measurements, as of weight or distance"},
	LabelTime:               {"TIME", "Times smaller than a day"},
	LabelWorkOfArt:          {"WORK_OF_ART", "Titles of books, songs, etc."},
}

var labelByWire = func() map[string]EntityLabel {
	m := make(map[string]EntityLabel, len(labelTable))
	for l, info := range labelTable {
		m[info.wire] = l
	}
	return m
}()

// EntityLabels returns the full vocabulary in declaration order.
func EntityLabels() []EntityLabel {
	out := make([]EntityLabel, 0, len(labelTable))
	for l := LabelCardinal; l <= LabelWorkOfArt; l++ {
		out = append(out, l)
	}
	return out
}

// ParseEntityLabel maps a wire label to the vocabulary. Labels outside the
// vocabulary return an error wrapping common.ErrUnknownLabel.
func ParseEntityLabel(s string) (EntityLabel, error) {
	l, ok := labelByWire[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", common.ErrUnknownLabel, s)
	}
	return l, nil
}

// String returns the wire form, e.g. "PERSON".
func (l EntityLabel) String() string {
	info, ok := labelTable[l]
	if !ok {
		return fmt.Sprintf("EntityLabel(%d)", int(l))
	}
	return info.wire
}

// Explain returns the annotation scheme's description of the label.
func (l EntityLabel) Explain() string {
	return labelTable[l].explain
}

func (l EntityLabel) Valid() bool {
	_, ok := labelTable[l]
	return ok
}

func (l EntityLabel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", common.ErrUnknownLabel, int(l))
	}
	return []byte(l.String()), nil
}

func (l *EntityLabel) UnmarshalText(text []byte) error {
	parsed, err := ParseEntityLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
