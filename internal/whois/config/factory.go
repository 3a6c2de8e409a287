// Package config owns the WHOIS field-definition store and the per-TLD
// override table, and resolves them into flat, TLD-specific definition sets.
// The factory is the single owner of both tables: everything passed in is
// deep-copied on entry and everything handed out is deep-copied on read, so
// callers can never alias factory-internal state.
package config

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"structwhois/internal/whois/fields"
	"structwhois/internal/whois/inference"
	dErrors "structwhois/pkg/domain-errors"
)

// tldLabelRE permits lowercase letters, digits, and interior hyphens per
// label, with dots separating labels of multi-label TLDs such as com.br.
var tldLabelRE = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)

// Factory resolves per-TLD field definitions. Mutating calls (RegisterTLD,
// RegisterBaseField, ExtendBaseField, RemoveTLD) and readers may be invoked
// concurrently; an internal mutex serializes them.
type Factory struct {
	mu        sync.RWMutex
	base      fields.Definitions
	overrides map[string]fields.Overrides
	version   uint64
}

// Option configures a Factory at construction time.
type Option func(*Factory)

// WithBaseFields replaces the builtin base field definitions. The input is
// deep-copied.
func WithBaseFields(defs fields.Definitions) Option {
	return func(f *Factory) {
		f.base = defs.Clone()
	}
}

// WithTLDOverrides replaces the builtin TLD override table. The input is
// deep-copied; TLD keys are normalized.
func WithTLDOverrides(table map[string]fields.Overrides) Option {
	return func(f *Factory) {
		f.overrides = make(map[string]fields.Overrides, len(table))
		for tld, ovs := range table {
			f.overrides[inference.NormalizeTLD(tld)] = ovs.Clone()
		}
	}
}

// New builds a factory seeded with the builtin definitions unless options
// say otherwise.
func New(opts ...Option) *Factory {
	f := &Factory{
		base:      DefaultFieldDefinitions(),
		overrides: DefaultTLDOverrides(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.base == nil {
		f.base = fields.Definitions{}
	}
	if f.overrides == nil {
		f.overrides = map[string]fields.Overrides{}
	}
	return f
}

// Version increases on every mutation. The parser cache uses it to detect
// stale compiled parsers.
func (f *Factory) Version() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

// RegisterTLD stores or merges overrides for a TLD. With replace=true, or for
// fields that have no prior override, the provided override is stored as
// given. Otherwise the provided patterns are appended after the existing
// ones; an explicit Mode or Shape that contradicts a previously registered
// one fails with ErrConfigConflict rather than silently picking a policy.
func (f *Factory) RegisterTLD(tld string, overrides fields.Overrides, replace bool) error {
	normalized, err := normalizeTLDLabel(tld)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	existing := f.overrides[normalized]
	merged := existing.Clone()
	if merged == nil {
		merged = fields.Overrides{}
	}
	for name, ov := range overrides {
		name = fields.NormalizeFieldName(name)
		prior, has := merged[name]
		if replace || !has {
			merged[name] = ov.Clone()
			continue
		}
		next, err := mergeOverride(prior, ov)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeConflict,
				fmt.Sprintf("register tld %q field %q", normalized, name))
		}
		merged[name] = next
	}
	f.overrides[normalized] = merged
	f.version++
	return nil
}

// mergeOverride folds an additive registration onto a prior override. Base
// patterns always remain: replacement patterns of the new override demote to
// extensions, appended after everything already registered.
func mergeOverride(prior, next fields.FieldOverride) (fields.FieldOverride, error) {
	merged := prior.Clone()
	if next.Mode != nil {
		if prior.Mode != nil && *prior.Mode != *next.Mode {
			return fields.FieldOverride{}, ErrConfigConflict
		}
		m := *next.Mode
		merged.Mode = &m
	}
	if next.Shape != nil {
		if prior.Shape != nil && *prior.Shape != *next.Shape {
			return fields.FieldOverride{}, ErrConfigConflict
		}
		sh := *next.Shape
		merged.Shape = &sh
	}
	if next.Unique != nil {
		u := *next.Unique
		merged.Unique = &u
	}
	merged.PrependPatterns = append(merged.PrependPatterns, next.PrependPatterns...)
	merged.ExtendPatterns = append(merged.ExtendPatterns, next.Patterns...)
	merged.ExtendPatterns = append(merged.ExtendPatterns, next.ExtendPatterns...)
	return merged, nil
}

// RemoveTLD drops all overrides for a TLD. Removing an unknown TLD is a no-op.
func (f *Factory) RemoveTLD(tld string) {
	normalized := inference.NormalizeTLD(tld)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.overrides[normalized]; !ok {
		return
	}
	delete(f.overrides, normalized)
	f.version++
}

// Resolve flattens the base definitions with the TLD's overrides. Unknown
// TLDs fall back to the base verbatim; Resolve("") is the default config.
// The result is a fresh copy every call.
func (f *Factory) Resolve(tld string) fields.Definitions {
	f.mu.RLock()
	defer f.mu.RUnlock()

	resolved := f.base.Clone()
	if resolved == nil {
		resolved = fields.Definitions{}
	}
	for name, ov := range f.overrides[inference.NormalizeTLD(tld)] {
		if base, ok := resolved[name]; ok {
			resolved[name] = ov.Apply(base)
		} else {
			// Overrides for fields the base store never heard of create the
			// spec rather than erroring.
			resolved[name] = ov.ToSpec()
		}
	}
	return resolved
}

// RegisterBaseField sets or replaces a shared base field definition.
func (f *Factory) RegisterBaseField(name string, spec fields.FieldSpec) {
	name = fields.NormalizeFieldName(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.base[name] = spec.Clone()
	f.version++
}

// ExtendBaseField appends patterns to an existing base field. Unlike TLD
// overrides, extending a base field that does not exist is an error: base
// mutations affect every TLD and a typo here would silently fork the schema.
func (f *Factory) ExtendBaseField(name string, patterns []fields.Pattern) error {
	name = fields.NormalizeFieldName(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	spec, ok := f.base[name]
	if !ok {
		return dErrors.Wrap(ErrUnknownField, dErrors.CodeNotFound, fmt.Sprintf("extend base field %q", name))
	}
	spec = spec.Clone()
	spec.Patterns = append(spec.Patterns, patterns...)
	f.base[name] = spec
	f.version++
	return nil
}

// BaseFields returns a deep copy of the base definitions.
func (f *Factory) BaseFields() fields.Definitions {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.base.Clone()
}

// BaseField returns a deep copy of one base field spec.
func (f *Factory) BaseField(name string) (fields.FieldSpec, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	spec, ok := f.base[fields.NormalizeFieldName(name)]
	if !ok {
		return fields.FieldSpec{}, false
	}
	return spec.Clone(), true
}

// TLDOverrides returns a deep copy of the override table.
func (f *Factory) TLDOverrides() map[string]fields.Overrides {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]fields.Overrides, len(f.overrides))
	for tld, ovs := range f.overrides {
		out[tld] = ovs.Clone()
	}
	return out
}

// KnownTLDs lists every TLD with registered overrides, sorted.
func (f *Factory) KnownTLDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	tlds := make([]string, 0, len(f.overrides))
	for tld := range f.overrides {
		tlds = append(tlds, tld)
	}
	sort.Strings(tlds)
	return tlds
}

func normalizeTLDLabel(tld string) (string, error) {
	normalized := inference.NormalizeTLD(tld)
	if normalized == "" || !tldLabelRE.MatchString(normalized) {
		return "", dErrors.Wrap(ErrInvalidTLD, dErrors.CodeBadRequest, fmt.Sprintf("tld %q", tld))
	}
	return normalized, nil
}
