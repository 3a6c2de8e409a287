// Package engine compiles resolved field definitions into executable
// matchers and runs them over normalized WHOIS text. Compilation is a pure
// function of the definitions: two identical definition sets compile to
// engines with the same fingerprint, which is what the parser cache keys on.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"structwhois/internal/whois/fields"
	dErrors "structwhois/pkg/domain-errors"
)

// parallelThreshold is the batch size above which ExtractMany fans out to a
// worker per CPU-ish chunk instead of looping inline.
const parallelThreshold = 16

type compiledPattern struct {
	kind   fields.PatternKind
	re     *regexp.Regexp
	prefix string
}

type compiledField struct {
	name     string
	mode     fields.Mode
	unique   bool
	shape    fields.ReturnShape
	patterns []compiledPattern
}

// Engine extracts field values from text according to one resolved
// configuration. Engines are immutable after Compile and safe for concurrent
// use.
type Engine struct {
	fields      []compiledField
	fingerprint uint64
}

// Compile validates and compiles a resolved definition set. Regex patterns
// must contain at least one capture group; malformed patterns fail here so
// preloading surfaces configuration errors at startup.
func Compile(defs fields.Definitions) (*Engine, error) {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	compiled := make([]compiledField, 0, len(names))
	for _, name := range names {
		spec := defs[name]
		cf := compiledField{
			name:   name,
			mode:   spec.Mode,
			unique: spec.Unique,
			shape:  spec.Shape,
		}
		for _, p := range spec.Patterns {
			switch p.Kind {
			case fields.KindRegex:
				re, err := regexp.Compile("(?m)" + p.Expr)
				if err != nil {
					return nil, dErrors.Wrap(err, dErrors.CodeUnprocessable,
						fmt.Sprintf("field %q: compile pattern %q", name, p.Expr))
				}
				if re.NumSubexp() < 1 {
					return nil, dErrors.Newf(dErrors.CodeUnprocessable,
						"field %q: pattern %q has no capture group", name, p.Expr)
				}
				cf.patterns = append(cf.patterns, compiledPattern{kind: fields.KindRegex, re: re})
			case fields.KindPrefix:
				if strings.TrimSpace(p.Expr) == "" {
					return nil, dErrors.Newf(dErrors.CodeUnprocessable,
						"field %q: empty prefix pattern", name)
				}
				cf.patterns = append(cf.patterns, compiledPattern{kind: fields.KindPrefix, prefix: p.Expr})
			default:
				return nil, dErrors.Newf(dErrors.CodeUnprocessable,
					"field %q: unknown pattern kind %q", name, p.Kind)
			}
		}
		compiled = append(compiled, cf)
	}

	return &Engine{fields: compiled, fingerprint: Fingerprint(defs)}, nil
}

// Fingerprint computes a stable structural identity for a definition set:
// field names in canonical order, each with its policy and pattern keys.
// Definition sets that resolve identically hash identically regardless of
// map iteration order.
func Fingerprint(defs fields.Definitions) uint64 {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		spec := defs[name]
		sb.WriteString(name)
		sb.WriteByte('\x1e')
		sb.WriteString(string(spec.Mode))
		sb.WriteByte('\x1e')
		if spec.Unique {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
		sb.WriteByte('\x1e')
		sb.WriteString(string(spec.Shape))
		for _, p := range spec.Patterns {
			sb.WriteByte('\x1e')
			sb.WriteString(p.Key())
		}
		sb.WriteByte('\x1d')
	}
	return xxh3.HashString(sb.String())
}

// Fingerprint returns the identity of the configuration this engine was
// compiled from.
func (e *Engine) Fingerprint() uint64 {
	return e.fingerprint
}

// match is one pattern hit with its byte offset, used to restore document
// order when a field collects across several patterns.
type match struct {
	pos   int
	value string
}

// Extract runs every field against the text and returns field name to
// matched values in document order. Fields with no matches are absent from
// the map; an empty result is "not found", never an error.
func (e *Engine) Extract(text string) map[string][]string {
	lines := indexLines(text)
	out := make(map[string][]string, len(e.fields))
	for _, f := range e.fields {
		values := f.extract(text, lines)
		if len(values) > 0 {
			out[f.name] = values
		}
	}
	return out
}

func (f *compiledField) extract(text string, lines []indexedLine) []string {
	if f.mode == fields.ModeFirst {
		for _, p := range f.patterns {
			if matches := p.findAll(text, lines); len(matches) > 0 {
				return []string{matches[0].value}
			}
		}
		return nil
	}

	var all []match
	for _, p := range f.patterns {
		all = append(all, p.findAll(text, lines)...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].pos < all[j].pos })

	values := make([]string, 0, len(all))
	seen := make(map[string]struct{}, len(all))
	for _, m := range all {
		if f.unique {
			if _, dup := seen[m.value]; dup {
				continue
			}
			seen[m.value] = struct{}{}
		}
		values = append(values, m.value)
	}
	return values
}

func (p compiledPattern) findAll(text string, lines []indexedLine) []match {
	switch p.kind {
	case fields.KindRegex:
		idxs := p.re.FindAllStringSubmatchIndex(text, -1)
		matches := make([]match, 0, len(idxs))
		for _, idx := range idxs {
			value := lastGroup(text, idx)
			if value = strings.TrimSpace(value); value != "" {
				matches = append(matches, match{pos: idx[0], value: value})
			}
		}
		return matches
	case fields.KindPrefix:
		var matches []match
		for _, line := range lines {
			trimmed := strings.TrimSpace(line.text)
			if len(trimmed) <= len(p.prefix) || !strings.EqualFold(trimmed[:len(p.prefix)], p.prefix) {
				continue
			}
			if value := strings.TrimSpace(trimmed[len(p.prefix):]); value != "" {
				matches = append(matches, match{pos: line.offset, value: value})
			}
		}
		return matches
	}
	return nil
}

// lastGroup returns the text of the last participating capture group.
func lastGroup(text string, idx []int) string {
	for i := len(idx) - 2; i >= 2; i -= 2 {
		if idx[i] >= 0 {
			return text[idx[i]:idx[i+1]]
		}
	}
	return text[idx[0]:idx[1]]
}

type indexedLine struct {
	offset int
	text   string
}

func indexLines(text string) []indexedLine {
	var lines []indexedLine
	offset := 0
	for {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			if offset < len(text) {
				lines = append(lines, indexedLine{offset: offset, text: text[offset:]})
			}
			return lines
		}
		lines = append(lines, indexedLine{offset: offset, text: text[offset : offset+nl]})
		offset += nl + 1
	}
}

// ExtractMany extracts every text in order. Batches above the parallel
// threshold fan out across goroutines; results keep input order either way.
func (e *Engine) ExtractMany(ctx context.Context, texts []string) ([]map[string][]string, error) {
	results := make([]map[string][]string, len(texts))
	if len(texts) <= parallelThreshold {
		for i, text := range texts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = e.Extract(text)
		}
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.Extract(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
