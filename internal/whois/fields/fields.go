// Package fields holds the declarative field-extraction data model: per-field
// pattern lists plus the matching policy the engine applies to them. Values
// are plain data; deep-clone helpers keep the config factory free of aliasing.
package fields

import (
	"strings"
)

// PatternKind selects the matching strategy for a single pattern.
type PatternKind string

const (
	// KindRegex matches a compiled regular expression with one capture group.
	KindRegex PatternKind = "regex"
	// KindPrefix matches a case-insensitive line prefix; the captured value is
	// the trimmed remainder of the line.
	KindPrefix PatternKind = "prefix"
)

// Pattern is one extraction pattern inside a FieldSpec.
type Pattern struct {
	Kind PatternKind `json:"kind"`
	Expr string      `json:"expr"`
}

// Regex builds a regex pattern. The expression must contain exactly one
// capture group; the engine rejects it at compile time otherwise.
func Regex(expr string) Pattern {
	return Pattern{Kind: KindRegex, Expr: expr}
}

// Prefix builds a line-prefix pattern.
func Prefix(literal string) Pattern {
	return Pattern{Kind: KindPrefix, Expr: literal}
}

// Key returns the canonical identity of the pattern, used for deduplication
// and for resolved-config fingerprints.
func (p Pattern) Key() string {
	return string(p.Kind) + "\x1f" + p.Expr
}

// Mode decides how many patterns contribute matches for a field.
type Mode string

const (
	// ModeFirst stops at the first pattern that produces a match.
	ModeFirst Mode = "first"
	// ModeAll collects matches from every pattern in document order.
	ModeAll Mode = "all"
)

// ReturnShape decides the cardinality of the extracted value.
type ReturnShape string

const (
	ShapeScalar ReturnShape = "scalar"
	ShapeList   ReturnShape = "list"
)

// FieldSpec describes extraction for one logical output field.
type FieldSpec struct {
	Patterns []Pattern   `json:"patterns"`
	Mode     Mode        `json:"mode"`
	Unique   bool        `json:"unique"`
	Shape    ReturnShape `json:"shape"`
}

// Clone returns a deep copy of the spec.
func (s FieldSpec) Clone() FieldSpec {
	out := s
	out.Patterns = append([]Pattern(nil), s.Patterns...)
	return out
}

// Definitions maps field name to its spec. This is the field definition store
// the config factory owns.
type Definitions map[string]FieldSpec

// Clone returns a deep copy of the definitions map.
func (d Definitions) Clone() Definitions {
	if d == nil {
		return nil
	}
	out := make(Definitions, len(d))
	for name, spec := range d {
		out[name] = spec.Clone()
	}
	return out
}

// FieldOverride is a tagged override operation applied during resolution.
// Patterns, when set, fully replaces the base pattern list; Prepend/Extend are
// additive and keep base patterns in place. Mode, Unique, and Shape override
// the base policy only when non-nil.
type FieldOverride struct {
	Patterns        []Pattern    `json:"patterns,omitempty"`
	PrependPatterns []Pattern    `json:"prepend_patterns,omitempty"`
	ExtendPatterns  []Pattern    `json:"extend_patterns,omitempty"`
	Mode            *Mode        `json:"mode,omitempty"`
	Unique          *bool        `json:"unique,omitempty"`
	Shape           *ReturnShape `json:"shape,omitempty"`
}

// Replaces reports whether the override discards base patterns entirely.
func (o FieldOverride) Replaces() bool {
	return len(o.Patterns) > 0
}

// Clone returns a deep copy of the override.
func (o FieldOverride) Clone() FieldOverride {
	out := o
	out.Patterns = append([]Pattern(nil), o.Patterns...)
	out.PrependPatterns = append([]Pattern(nil), o.PrependPatterns...)
	out.ExtendPatterns = append([]Pattern(nil), o.ExtendPatterns...)
	if o.Mode != nil {
		m := *o.Mode
		out.Mode = &m
	}
	if o.Unique != nil {
		u := *o.Unique
		out.Unique = &u
	}
	if o.Shape != nil {
		sh := *o.Shape
		out.Shape = &sh
	}
	return out
}

// Overrides maps field name to its override for one TLD.
type Overrides map[string]FieldOverride

// Clone returns a deep copy of the override set.
func (o Overrides) Clone() Overrides {
	if o == nil {
		return nil
	}
	out := make(Overrides, len(o))
	for name, ov := range o {
		out[name] = ov.Clone()
	}
	return out
}

// Apply merges the override onto a base spec, producing the resolved spec.
// Ordering: prepended patterns, then the base (or replacement) patterns, then
// extensions. Duplicate patterns are dropped, first occurrence wins.
func (o FieldOverride) Apply(base FieldSpec) FieldSpec {
	resolved := base.Clone()
	core := resolved.Patterns
	if o.Replaces() {
		core = append([]Pattern(nil), o.Patterns...)
	}
	merged := make([]Pattern, 0, len(o.PrependPatterns)+len(core)+len(o.ExtendPatterns))
	seen := make(map[string]struct{})
	for _, group := range [][]Pattern{o.PrependPatterns, core, o.ExtendPatterns} {
		for _, p := range group {
			key := p.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, p)
		}
	}
	resolved.Patterns = merged
	if o.Mode != nil {
		resolved.Mode = *o.Mode
	}
	if o.Unique != nil {
		resolved.Unique = *o.Unique
	}
	if o.Shape != nil {
		resolved.Shape = *o.Shape
	}
	return resolved
}

// ToSpec converts an override with no base into a standalone spec. Fields that
// only exist as overrides (unknown to the base store) resolve through here.
func (o FieldOverride) ToSpec() FieldSpec {
	spec := FieldSpec{Mode: ModeFirst, Shape: ShapeScalar}
	if o.Mode != nil {
		spec.Mode = *o.Mode
	}
	if o.Unique != nil {
		spec.Unique = *o.Unique
	}
	if o.Shape != nil {
		spec.Shape = *o.Shape
	}
	return o.Apply(spec)
}

// NormalizeFieldName lowercases and trims a field name so override keys and
// base keys compare consistently.
func NormalizeFieldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
