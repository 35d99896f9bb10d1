// Package ner recognizes named entities (organizations, people, places) in contract text.
package ner

import "context"

// Type is an entity tag.
type Type string

const (
	TypeOrg    Type = "ORG"
	TypePerson Type = "PERSON"
	TypeGPE    Type = "GPE"
	TypeLoc    Type = "LOC"
)

// Valid reports whether t is one of the known tags.
func (t Type) Valid() bool {
	switch t {
	case TypeOrg, TypePerson, TypeGPE, TypeLoc:
		return true
	}
	return false
}

// Entity is a recognized span of text with its tag.
type Entity struct {
	Text string `json:"text"`
	Type Type   `json:"type"`
}

// Recognizer finds entities in text, in order of appearance.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// OfType returns the entities tagged with any of types, preserving order.
func OfType(entities []Entity, types ...Type) []Entity {
	var out []Entity
	for _, e := range entities {
		for _, t := range types {
			if e.Type == t {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
