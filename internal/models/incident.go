package models

import "time"

type IncidentKind string

const (
	// IncidentPartialBracket: the entry is live but a protective leg was rejected.
	IncidentPartialBracket IncidentKind = "partial_bracket"
	// IncidentAmbiguousFill: both protective legs reported FILLED in one pass.
	IncidentAmbiguousFill IncidentKind = "ambiguous_fill"
)

type Incident struct {
	Kind   IncidentKind
	Symbol string
	Detail string
	At     time.Time
}
