// Package parser ties the configuration factory, the extraction engine, and
// the record builder together. It owns the cache of compiled engines: one
// engine per distinct resolved configuration, shared by every TLD that
// resolves to the same effective field set.
package parser

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"structwhois/internal/platform/metrics"
	"structwhois/internal/whois/config"
	"structwhois/internal/whois/engine"
	"structwhois/internal/whois/fields"
	"structwhois/internal/whois/inference"
	"structwhois/internal/whois/normalize"
	"structwhois/internal/whois/records"
)

// batchParallelThreshold is the batch size above which ParseMany fans out.
const batchParallelThreshold = 8

var tracer = otel.Tracer("structwhois/parser")

// ParseOptions steers a single parse.
type ParseOptions struct {
	// TLD pins the configuration explicitly; takes precedence over Domain.
	TLD string
	// Domain is matched against known TLDs by longest suffix.
	Domain string
	// Lowercase folds every extracted value to lower case.
	Lowercase bool
}

// Result pairs one batch item's record with its error. Exactly one is set.
type Result struct {
	Record *records.WhoisRecord
	Err    error
}

// WhoisParser compiles and caches extraction engines keyed by the content
// fingerprint of the resolved configuration. Safe for concurrent use.
type WhoisParser struct {
	factory    *config.Factory
	registry   *inference.PatternRegistry
	logger     *slog.Logger
	metrics    *metrics.Metrics
	dateParser records.DateParser

	mu      sync.RWMutex
	engines map[uint64]*engine.Engine
	byTLD   map[string]uint64
	version uint64
}

// Option configures a WhoisParser.
type Option func(*settings)

type settings struct {
	factory    *config.Factory
	preload    []string
	extra      map[string]fields.Overrides
	logger     *slog.Logger
	metrics    *metrics.Metrics
	dateParser records.DateParser
}

// WithFactory supplies a pre-built configuration factory.
func WithFactory(factory *config.Factory) Option {
	return func(s *settings) {
		s.factory = factory
	}
}

// WithPreloadTLDs compiles engines for the given TLDs during New, surfacing
// configuration errors at startup instead of on first request.
func WithPreloadTLDs(tlds ...string) Option {
	return func(s *settings) {
		s.preload = append(s.preload, tlds...)
	}
}

// WithExtraTLDOverrides registers additional per-TLD overrides on top of the
// built-in table before any engine is compiled.
func WithExtraTLDOverrides(table map[string]fields.Overrides) Option {
	return func(s *settings) {
		if s.extra == nil {
			s.extra = map[string]fields.Overrides{}
		}
		for tld, ov := range table {
			s.extra[tld] = ov
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithDateParser swaps the coercion applied to date fields during record
// construction.
func WithDateParser(parser records.DateParser) Option {
	return func(s *settings) {
		s.dateParser = parser
	}
}

// New constructs a WhoisParser and eagerly compiles the default engine.
func New(opts ...Option) (*WhoisParser, error) {
	s := settings{dateParser: records.ParseDateTime}
	for _, opt := range opts {
		opt(&s)
	}
	if s.factory == nil {
		s.factory = config.New()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for tld, ov := range s.extra {
		if err := s.factory.RegisterTLD(tld, ov, false); err != nil {
			return nil, err
		}
	}

	p := &WhoisParser{
		factory:    s.factory,
		registry:   inference.NewPatternRegistry(s.factory.BaseFields(), s.factory.TLDOverrides()),
		logger:     s.logger,
		metrics:    s.metrics,
		dateParser: s.dateParser,
		engines:    map[uint64]*engine.Engine{},
		byTLD:      map[string]uint64{},
		version:    s.factory.Version(),
	}

	if _, err := p.ParserFor(""); err != nil {
		return nil, err
	}
	for _, tld := range s.preload {
		if _, err := p.ParserFor(tld); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ParserFor returns the compiled engine for a TLD, compiling on first use.
// The empty string selects the default configuration.
func (p *WhoisParser) ParserFor(tld string) (*engine.Engine, error) {
	tld = inference.NormalizeTLD(tld)

	p.mu.RLock()
	stale := p.version != p.factory.Version()
	if !stale {
		if fp, ok := p.byTLD[tld]; ok {
			eng := p.engines[fp]
			p.mu.RUnlock()
			p.cacheHit()
			return eng, nil
		}
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushStaleLocked()

	if fp, ok := p.byTLD[tld]; ok {
		p.cacheHit()
		return p.engines[fp], nil
	}
	p.cacheMiss()

	defs := p.factory.Resolve(tld)
	fp := engine.Fingerprint(defs)
	if eng, ok := p.engines[fp]; ok {
		p.byTLD[tld] = fp
		return eng, nil
	}
	eng, err := engine.Compile(defs)
	if err != nil {
		return nil, err
	}
	p.engines[fp] = eng
	p.byTLD[tld] = fp
	if p.metrics != nil {
		p.metrics.CompiledParsers.Set(float64(len(p.engines)))
	}
	return eng, nil
}

// flushStaleLocked drops every cached engine when the factory configuration
// moved past the cached version. Callers hold the write lock.
func (p *WhoisParser) flushStaleLocked() {
	current := p.factory.Version()
	if p.version == current {
		return
	}
	p.engines = map[uint64]*engine.Engine{}
	p.byTLD = map[string]uint64{}
	p.version = current
	p.registry.Refresh(p.factory.BaseFields(), p.factory.TLDOverrides())
	if p.metrics != nil {
		p.metrics.CompiledParsers.Set(0)
	}
}

// RegisterTLD adds or merges overrides for a TLD at runtime and invalidates
// every cached engine. With preload the new configuration compiles now.
func (p *WhoisParser) RegisterTLD(tld string, overrides fields.Overrides, replace, preload bool) error {
	if err := p.factory.RegisterTLD(tld, overrides, replace); err != nil {
		return err
	}
	p.mu.Lock()
	p.flushStaleLocked()
	p.mu.Unlock()
	if preload {
		if _, err := p.ParserFor(tld); err != nil {
			return err
		}
	}
	return nil
}

// RemoveTLD drops a TLD's overrides; it falls back to the default config.
func (p *WhoisParser) RemoveTLD(tld string) {
	p.factory.RemoveTLD(tld)
	p.mu.Lock()
	p.flushStaleLocked()
	p.mu.Unlock()
}

// RefreshDefaultParser drops every cached engine and recompiles the default.
func (p *WhoisParser) RefreshDefaultParser() error {
	p.mu.Lock()
	p.engines = map[uint64]*engine.Engine{}
	p.byTLD = map[string]uint64{}
	p.version = p.factory.Version()
	p.registry.Refresh(p.factory.BaseFields(), p.factory.TLDOverrides())
	if p.metrics != nil {
		p.metrics.CompiledParsers.Set(0)
	}
	p.mu.Unlock()
	_, err := p.ParserFor("")
	return err
}

// SupportedTLDs lists the TLDs with registered overrides, sorted.
func (p *WhoisParser) SupportedTLDs() []string {
	return p.factory.KnownTLDs()
}

// SelectTLD picks the configuration key for a parse: an explicit TLD wins,
// then the longest known-TLD suffix of the domain, then the domain's last
// label. Empty input selects the default configuration.
func (p *WhoisParser) SelectTLD(explicit, domain string) string {
	if explicit != "" {
		return inference.NormalizeTLD(explicit)
	}
	domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return ""
	}
	known := p.factory.KnownTLDs()
	sort.Slice(known, func(i, j int) bool { return len(known[i]) > len(known[j]) })
	for _, tld := range known {
		if domain == tld || strings.HasSuffix(domain, "."+tld) {
			return tld
		}
	}
	labels := inference.SplitDomain(domain)
	if len(labels) == 0 {
		return ""
	}
	return labels[len(labels)-1]
}

// Parse normalizes a raw response and extracts its fields. Rate-limited
// payloads short-circuit to an empty field map; the record builder flags
// them from the raw text.
func (p *WhoisParser) Parse(ctx context.Context, raw string, opts ParseOptions) (map[string][]string, error) {
	parsed, _, err := p.parse(ctx, raw, opts)
	return parsed, err
}

func (p *WhoisParser) parse(ctx context.Context, raw string, opts ParseOptions) (map[string][]string, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if normalize.IsRateLimited(raw) {
		if p.metrics != nil {
			p.metrics.RateLimitedTexts.Inc()
		}
		return map[string][]string{}, "", nil
	}

	normalized, err := normalize.Normalize(raw)
	if err != nil {
		if errors.Is(err, normalize.ErrEmptyRecord) && p.metrics != nil {
			p.metrics.EmptyRecords.Inc()
		}
		return nil, "", err
	}

	domain := opts.Domain
	if opts.TLD == "" && domain == "" {
		domain = p.registry.Infer(normalized)
	}
	tld := p.SelectTLD(opts.TLD, domain)

	eng, err := p.ParserFor(tld)
	if err != nil {
		return nil, tld, err
	}
	return eng.Extract(normalized), tld, nil
}

// ParseRecord runs the full pipeline: normalize, extract, and build the
// structured record with best-effort date coercion.
func (p *WhoisParser) ParseRecord(ctx context.Context, raw string, opts ParseOptions) (*records.WhoisRecord, error) {
	ctx, span := tracer.Start(ctx, "whois.ParseRecord")
	defer span.End()

	start := time.Now()
	parsed, tld, err := p.parse(ctx, raw, opts)
	if err != nil {
		p.observe("error", start)
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("whois.tld", tld))

	buildOpts := []records.BuildOption{records.WithDateParser(p.dateParser)}
	if opts.Lowercase {
		buildOpts = append(buildOpts, records.WithLowercase())
	}
	record, err := records.Build(raw, parsed, buildOpts...)
	if err != nil {
		p.observe("error", start)
		span.RecordError(err)
		return nil, err
	}

	if failures := record.CoercionFailures(); len(failures) > 0 {
		if p.metrics != nil {
			p.metrics.CoercionFailures.Add(float64(len(failures)))
		}
		for field, value := range failures {
			p.logger.WarnContext(ctx, "date coercion failed",
				"field", field, "value", value, "tld", tld)
		}
	}

	outcome := "ok"
	if record.IsRateLimited {
		outcome = "rate_limited"
	}
	p.observe(outcome, start)
	span.SetAttributes(
		attribute.Bool("whois.rate_limited", record.IsRateLimited),
		attribute.String("whois.domain", record.Domain),
	)
	return record, nil
}

// ParseMany parses a batch, preserving input order. Each item fails on its
// own; one malformed response never poisons the rest.
func (p *WhoisParser) ParseMany(ctx context.Context, raws []string, opts ParseOptions) []Result {
	ctx, span := tracer.Start(ctx, "whois.ParseMany",
		trace.WithAttributes(attribute.Int("whois.batch_size", len(raws))))
	defer span.End()

	results := make([]Result, len(raws))
	if len(raws) <= batchParallelThreshold {
		for i, raw := range raws {
			record, err := p.ParseRecord(ctx, raw, opts)
			results[i] = Result{Record: record, Err: err}
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelThreshold)
	for i, raw := range raws {
		g.Go(func() error {
			record, err := p.ParseRecord(gctx, raw, opts)
			results[i] = Result{Record: record, Err: err}
			return nil
		})
	}
	// Workers never return errors; Wait only orders the writes.
	_ = g.Wait()
	return results
}

// ParseChunks splits a batch into fixed-size chunks and parses them in
// sequence, bounding the memory held by any one fan-out.
func (p *WhoisParser) ParseChunks(ctx context.Context, raws []string, chunkSize int, opts ParseOptions) []Result {
	if chunkSize <= 0 {
		chunkSize = batchParallelThreshold
	}
	results := make([]Result, 0, len(raws))
	for start := 0; start < len(raws); start += chunkSize {
		end := start + chunkSize
		if end > len(raws) {
			end = len(raws)
		}
		results = append(results, p.ParseMany(ctx, raws[start:end], opts)...)
	}
	return results
}

func (p *WhoisParser) cacheHit() {
	if p.metrics != nil {
		p.metrics.CacheHits.Inc()
	}
}

func (p *WhoisParser) cacheMiss() {
	if p.metrics != nil {
		p.metrics.CacheMisses.Inc()
	}
}

func (p *WhoisParser) observe(outcome string, start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveParse(outcome, time.Since(start).Seconds())
	}
}
