// Package records builds immutable WhoisRecord snapshots out of the field
// map the extraction engine produces. The builder validates field names,
// deduplicates repeating values, and coerces date fields best-effort.
package records

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"structwhois/internal/whois/normalize"
	dErrors "structwhois/pkg/domain-errors"
)

// payloadFields is the closed set of field names a parsed payload may carry.
// Unknown names indicate a configuration drift between the field definitions
// and this record model and fail the build, mirroring a strict schema.
var payloadFields = map[string]bool{
	"domain_name": true, "registrar": true, "registrar_id": true,
	"registrar_url": true, "creation_date": true, "updated_date": true,
	"expiration_date": true, "name_servers": true, "status": true,
	"registrant_name": true, "registrant_organization": true,
	"registrant_email": true, "registrant_telephone": true,
	"admin_name": true, "admin_organization": true,
	"admin_email": true, "admin_telephone": true,
	"tech_name": true, "tech_organization": true,
	"tech_email": true, "tech_telephone": true,
	"dnssec": true, "abuse_email": true, "abuse_telephone": true,
}

// Contact is one of the registrant/admin/tech contact blocks.
type Contact struct {
	Name         string `json:"name,omitempty"`
	Organization string `json:"organization,omitempty"`
	Email        string `json:"email,omitempty"`
	Telephone    string `json:"telephone,omitempty"`
}

// Abuse is the registrar's abuse contact.
type Abuse struct {
	Email     string `json:"email,omitempty"`
	Telephone string `json:"telephone,omitempty"`
}

// Date holds either a coerced timestamp or the raw string a registry emitted
// when no layout matched. Exactly one of the two is meaningful.
type Date struct {
	Parsed time.Time
	Raw    string
}

// IsZero reports whether the date carries no value at all.
func (d Date) IsZero() bool {
	return d.Parsed.IsZero() && d.Raw == ""
}

// Coerced reports whether the date parsed into a timestamp.
func (d Date) Coerced() bool {
	return !d.Parsed.IsZero()
}

// String renders the coerced timestamp as RFC 3339, or the raw fallback.
func (d Date) String() string {
	if d.Coerced() {
		return d.Parsed.Format(time.RFC3339)
	}
	return d.Raw
}

// MarshalJSON emits the RFC 3339 form, the raw fallback, or null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// WhoisRecord is the immutable output of one parse. Once built it is never
// mutated and may be shared across goroutines without synchronization.
type WhoisRecord struct {
	RawText string `json:"raw_text,omitempty"`

	Domain       string `json:"domain,omitempty"`
	Registrar    string `json:"registrar,omitempty"`
	RegistrarID  string `json:"registrar_id,omitempty"`
	RegistrarURL string `json:"registrar_url,omitempty"`
	DNSSEC       string `json:"dnssec,omitempty"`

	Statuses    []string `json:"statuses"`
	NameServers []string `json:"name_servers"`

	Registrant Contact `json:"registrant"`
	Admin      Contact `json:"admin"`
	Tech       Contact `json:"tech"`
	Abuse      Abuse   `json:"abuse"`

	RegisteredAt Date `json:"registered_at"`
	UpdatedAt    Date `json:"updated_at"`
	ExpiresAt    Date `json:"expires_at"`

	IsRateLimited bool `json:"is_rate_limited"`

	coercionFailures map[string]string
}

// CoercionFailures maps date field name to the raw string that resisted
// coercion, for diagnostics. Empty when every date parsed (or none existed).
func (r *WhoisRecord) CoercionFailures() map[string]string {
	out := make(map[string]string, len(r.coercionFailures))
	for k, v := range r.coercionFailures {
		out[k] = v
	}
	return out
}

// ToMap converts the record into plain types suitable for serialization.
func (r *WhoisRecord) ToMap(includeRawText bool) map[string]any {
	out := map[string]any{
		"domain":          r.Domain,
		"registrar":       r.Registrar,
		"registrar_id":    r.RegistrarID,
		"registrar_url":   r.RegistrarURL,
		"dnssec":          r.DNSSEC,
		"statuses":        append([]string(nil), r.Statuses...),
		"name_servers":    append([]string(nil), r.NameServers...),
		"registrant":      contactMap(r.Registrant),
		"admin":           contactMap(r.Admin),
		"tech":            contactMap(r.Tech),
		"abuse":           map[string]any{"email": r.Abuse.Email, "telephone": r.Abuse.Telephone},
		"registered_at":   dateValue(r.RegisteredAt),
		"updated_at":      dateValue(r.UpdatedAt),
		"expires_at":      dateValue(r.ExpiresAt),
		"is_rate_limited": r.IsRateLimited,
	}
	if includeRawText {
		out["raw_text"] = r.RawText
	}
	return out
}

func contactMap(c Contact) map[string]any {
	return map[string]any{
		"name":         c.Name,
		"organization": c.Organization,
		"email":        c.Email,
		"telephone":    c.Telephone,
	}
}

func dateValue(d Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

// BuildOption configures record construction.
type BuildOption func(*buildConfig)

type buildConfig struct {
	lowercase  bool
	dateParser DateParser
}

// WithLowercase lowercases every extracted string value.
func WithLowercase() BuildOption {
	return func(c *buildConfig) {
		c.lowercase = true
	}
}

// WithDateParser swaps the date coercion applied to recognized date fields.
// Passing nil disables coercion; raw strings are kept as-is.
func WithDateParser(parser DateParser) BuildOption {
	return func(c *buildConfig) {
		c.dateParser = parser
	}
}

// Build validates a parsed field map and assembles the record. Date coercion
// is best-effort: a value no layout accepts stays the raw string and the
// failure is retrievable through CoercionFailures; Build itself never fails
// on dates.
func Build(rawText string, parsed map[string][]string, opts ...BuildOption) (*WhoisRecord, error) {
	cfg := buildConfig{dateParser: ParseDateTime}
	for _, opt := range opts {
		opt(&cfg)
	}

	for name := range parsed {
		if !payloadFields[name] {
			return nil, dErrors.Wrap(
				fmt.Errorf("field %q not in record schema", name),
				dErrors.CodeUnprocessable, "invalid whois payload")
		}
	}

	record := &WhoisRecord{
		RawText:          rawText,
		Domain:           cfg.scalar(parsed, "domain_name"),
		Registrar:        cfg.scalar(parsed, "registrar"),
		RegistrarID:      cfg.scalar(parsed, "registrar_id"),
		RegistrarURL:     cfg.scalar(parsed, "registrar_url"),
		DNSSEC:           cfg.scalar(parsed, "dnssec"),
		Statuses:         cfg.list(parsed, "status"),
		NameServers:      cfg.list(parsed, "name_servers"),
		IsRateLimited:    normalize.IsRateLimited(rawText),
		coercionFailures: map[string]string{},
	}
	record.Registrant = Contact{
		Name:         cfg.scalar(parsed, "registrant_name"),
		Organization: cfg.scalar(parsed, "registrant_organization"),
		Email:        cfg.scalar(parsed, "registrant_email"),
		Telephone:    cfg.scalar(parsed, "registrant_telephone"),
	}
	record.Admin = Contact{
		Name:         cfg.scalar(parsed, "admin_name"),
		Organization: cfg.scalar(parsed, "admin_organization"),
		Email:        cfg.scalar(parsed, "admin_email"),
		Telephone:    cfg.scalar(parsed, "admin_telephone"),
	}
	record.Tech = Contact{
		Name:         cfg.scalar(parsed, "tech_name"),
		Organization: cfg.scalar(parsed, "tech_organization"),
		Email:        cfg.scalar(parsed, "tech_email"),
		Telephone:    cfg.scalar(parsed, "tech_telephone"),
	}
	record.Abuse = Abuse{
		Email:     cfg.scalar(parsed, "abuse_email"),
		Telephone: cfg.scalar(parsed, "abuse_telephone"),
	}
	record.RegisteredAt = cfg.date(parsed, "creation_date", record.coercionFailures)
	record.UpdatedAt = cfg.date(parsed, "updated_date", record.coercionFailures)
	record.ExpiresAt = cfg.date(parsed, "expiration_date", record.coercionFailures)

	if record.Statuses == nil {
		record.Statuses = []string{}
	}
	if record.NameServers == nil {
		record.NameServers = []string{}
	}
	return record, nil
}

func (c *buildConfig) scalar(parsed map[string][]string, field string) string {
	values := parsed[field]
	if len(values) == 0 {
		return ""
	}
	return c.transform(values[0])
}

// list filters empty entries and deduplicates case-insensitively, keeping
// the first occurrence's casing (post-transform).
func (c *buildConfig) list(parsed map[string][]string, field string) []string {
	values := parsed[field]
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		transformed := c.transform(value)
		key := strings.ToLower(transformed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, transformed)
	}
	return out
}

func (c *buildConfig) date(parsed map[string][]string, field string, failures map[string]string) Date {
	raw := c.scalar(parsed, field)
	if raw == "" {
		return Date{}
	}
	if c.dateParser == nil {
		return Date{Raw: raw}
	}
	parsedTime, err := c.dateParser(raw)
	if err != nil {
		failures[field] = raw
		return Date{Raw: raw}
	}
	return Date{Parsed: parsedTime}
}

func (c *buildConfig) transform(value string) string {
	value = strings.TrimSpace(value)
	if c.lowercase {
		return strings.ToLower(value)
	}
	return value
}
