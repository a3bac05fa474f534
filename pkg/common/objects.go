package common

import (
	"fmt"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ObjectKind names the concrete type of a materialized entity.
type ObjectKind string

const (
	KindCardinal           ObjectKind = "cardinal"
	KindDate               ObjectKind = "date"
	KindEvent              ObjectKind = "event"
	KindFacility           ObjectKind = "facility"
	KindGeopoliticalEntity ObjectKind = "geopolitical_entity"
	KindLanguage           ObjectKind = "language"
	KindLaw                ObjectKind = "law"
	KindLocation           ObjectKind = "location"
	KindMoney              ObjectKind = "money"
	KindNationality        ObjectKind = "nationality"
	KindOrdinal            ObjectKind = "ordinal"
	KindOrganization       ObjectKind = "organization"
	KindPercent            ObjectKind = "percent"
	KindPerson             ObjectKind = "person"
	KindProduct            ObjectKind = "product"
	KindQuantity           ObjectKind = "quantity"
	KindTime               ObjectKind = "time"
	KindWorkOfArt          ObjectKind = "work_of_art"
)

// Object is implemented by every materialized entity type.
type Object interface {
	Base() *ObjectBase
	Kind() ObjectKind
}

// ObjectBase holds the attributes shared by all entity types.
//
// The local id points back at the index of the entity span the object was
// created from. It is only meaningful inside the run that produced it and is
// never serialized.
type ObjectBase struct {
	ID         string          `json:"id"`
	Created    time.Time       `json:"created"`
	Modified   time.Time       `json:"modified"`
	Archived   bool            `json:"archived"`
	Properties map[string]bool `json:"properties"`

	localID int
}

// NewObjectBase returns a base with a fresh id, both timestamps set to now
// and an empty property map.
func NewObjectBase(localID int) (ObjectBase, error) {
	id, err := gonanoid.New()
	if err != nil {
		return ObjectBase{}, fmt.Errorf("failed to generate ID for entity: %w", err)
	}
	now := time.Now().UTC()
	return ObjectBase{
		ID:         id,
		Created:    now,
		Modified:   now,
		Properties: make(map[string]bool),
		localID:    localID,
	}, nil
}

func (o *ObjectBase) Base() *ObjectBase {
	return o
}

// LocalID returns the index of the originating entity span.
func (o *ObjectBase) LocalID() int {
	return o.localID
}

// Cardinal is a numeral that does not fall under another type.
type Cardinal struct {
	ObjectBase
	Value string `json:"value"`
}

func (*Cardinal) Kind() ObjectKind { return KindCardinal }

// Date is an absolute or relative date or period.
type Date struct {
	ObjectBase
	When string `json:"when"`
}

func (*Date) Kind() ObjectKind { return KindDate }

// Event is a named hurricane, battle, war, sports event and the like.
type Event struct {
	ObjectBase
	Name string `json:"name"`
}

func (*Event) Kind() ObjectKind { return KindEvent }

// Facility is a building, airport, highway, bridge and the like.
type Facility struct {
	ObjectBase
	Name string `json:"name"`
}

func (*Facility) Kind() ObjectKind { return KindFacility }

// GeopoliticalEntity is a country, city or state.
type GeopoliticalEntity struct {
	ObjectBase
	Name string `json:"name"`
}

func (*GeopoliticalEntity) Kind() ObjectKind { return KindGeopoliticalEntity }

// Language is any named language.
type Language struct {
	ObjectBase
	Name string `json:"name"`
}

func (*Language) Kind() ObjectKind { return KindLanguage }

// Law is a named document made into law.
type Law struct {
	ObjectBase
	Name string `json:"name"`
}

func (*Law) Kind() ObjectKind { return KindLaw }

// Location is a non-GPE location such as a mountain range or body of water.
type Location struct {
	ObjectBase
	Name string `json:"name"`
}

func (*Location) Kind() ObjectKind { return KindLocation }

// Money is a monetary value including its unit. Value is decimal text so
// no precision is lost to floating point.
type Money struct {
	ObjectBase
	Value string `json:"value"`
}

func (*Money) Kind() ObjectKind { return KindMoney }

// Nationality is a nationality or a religious or political group (NORP).
type Nationality struct {
	ObjectBase
	Name string `json:"name"`
}

func (*Nationality) Kind() ObjectKind { return KindNationality }

// Ordinal is "first", "second" and so on. Rank is serialized as "kind";
// the Go name differs because Kind is the Object method.
type Ordinal struct {
	ObjectBase
	Rank string `json:"kind"`
}

func (*Ordinal) Kind() ObjectKind { return KindOrdinal }

// Organization is a company, agency, institution and the like.
type Organization struct {
	ObjectBase
	Name string `json:"name"`
}

func (*Organization) Kind() ObjectKind { return KindOrganization }

// Percent is a percentage. String renders it as "N%".
type Percent struct {
	ObjectBase
	Value float64 `json:"value"`
}

func (*Percent) Kind() ObjectKind { return KindPercent }

func (p *Percent) String() string {
	return strconv.FormatFloat(p.Value, 'f', -1, 64) + "%"
}

// Person is a person, including fictional ones.
type Person struct {
	ObjectBase
	Name string `json:"name"`
}

func (*Person) Kind() ObjectKind { return KindPerson }

// Product is an object, vehicle, food and the like, not a service.
type Product struct {
	ObjectBase
	Name string `json:"name"`
}

func (*Product) Kind() ObjectKind { return KindProduct }

// Quantity is a measurement, as of weight or distance.
type Quantity struct {
	ObjectBase
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

func (*Quantity) Kind() ObjectKind { return KindQuantity }

// Time is a time smaller than a day.
type Time struct {
	ObjectBase
	Value string `json:"value"`
}

func (*Time) Kind() ObjectKind { return KindTime }

// WorkOfArt is the title of a book, song and the like.
type WorkOfArt struct {
	ObjectBase
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

func (*WorkOfArt) Kind() ObjectKind { return KindWorkOfArt }
