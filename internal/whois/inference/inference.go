// Package inference derives domain names and TLD labels from WHOIS payloads
// when the caller supplies neither. It keeps a small registry of the
// domain_name patterns in effect so inference stays consistent with whatever
// configuration the factory currently resolves.
package inference

import (
	"regexp"
	"strings"

	"structwhois/internal/whois/fields"
)

// NormalizeTLD strips surrounding whitespace and a leading dot, lowercasing
// the label. Empty input normalizes to "".
func NormalizeTLD(label string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(label), "."))
}

// SplitDomain breaks a domain into lowercase labels, dropping empty segments
// and surrounding dots.
func SplitDomain(domain string) []string {
	trimmed := strings.ToLower(strings.Trim(strings.TrimSpace(domain), "."))
	if trimmed == "" {
		return nil
	}
	var labels []string
	for _, segment := range strings.Split(trimmed, ".") {
		if segment != "" {
			labels = append(labels, segment)
		}
	}
	return labels
}

// PatternRegistry holds the prefix and regex patterns used to sniff a domain
// name out of raw text. Refresh rebuilds it from a field-definition set plus
// override table, deduplicating patterns that appear in both.
type PatternRegistry struct {
	prefixes []string
	regexes  []*regexp.Regexp
}

// NewPatternRegistry builds a registry seeded from the given definitions.
func NewPatternRegistry(base fields.Definitions, overrides map[string]fields.Overrides) *PatternRegistry {
	r := &PatternRegistry{}
	r.Refresh(base, overrides)
	return r
}

// Refresh rebuilds the registry from every domain_name pattern reachable in
// the base definitions and the override table.
func (r *PatternRegistry) Refresh(base fields.Definitions, overrides map[string]fields.Overrides) {
	seen := make(map[string]struct{})
	var prefixes []string
	var regexes []*regexp.Regexp

	collect := func(patterns []fields.Pattern) {
		for _, p := range patterns {
			if _, dup := seen[p.Key()]; dup {
				continue
			}
			seen[p.Key()] = struct{}{}
			switch p.Kind {
			case fields.KindPrefix:
				prefixes = append(prefixes, p.Expr)
			case fields.KindRegex:
				re, err := regexp.Compile("(?m)" + p.Expr)
				if err != nil {
					continue // inference is best-effort; bad patterns fail at engine compile
				}
				regexes = append(regexes, re)
			}
		}
	}

	if spec, ok := base["domain_name"]; ok {
		collect(spec.Patterns)
	}
	for _, ovs := range overrides {
		ov, ok := ovs["domain_name"]
		if !ok {
			continue
		}
		collect(ov.PrependPatterns)
		collect(ov.Patterns)
		collect(ov.ExtendPatterns)
	}

	r.prefixes = prefixes
	r.regexes = regexes
}

// Prefixes exposes the registered prefix patterns, mainly for tests.
func (r *PatternRegistry) Prefixes() []string {
	return append([]string(nil), r.prefixes...)
}

// Regexes exposes the registered regex patterns, mainly for tests.
func (r *PatternRegistry) Regexes() []*regexp.Regexp {
	return append([]*regexp.Regexp(nil), r.regexes...)
}

// Infer scans the text for a domain name, trying prefixes first, then
// regexes. Captured values lose trailing dots and whitespace. Returns ""
// when nothing matches.
func (r *PatternRegistry) Infer(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, prefix := range r.prefixes {
			if len(trimmed) > len(prefix) && strings.EqualFold(trimmed[:len(prefix)], prefix) {
				if value := cleanDomainValue(trimmed[len(prefix):]); value != "" {
					return value
				}
			}
		}
	}
	for _, re := range r.regexes {
		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		// Prefer the last capture group; fall back to the whole match for
		// patterns without groups.
		value := match[0]
		if len(match) > 1 {
			value = match[len(match)-1]
		}
		if value = cleanDomainValue(value); value != "" {
			return value
		}
	}
	return ""
}

func cleanDomainValue(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), ". ")
}
