package records

import (
	"regexp"
	"strings"
	"time"

	dErrors "structwhois/pkg/domain-errors"
)

// DateParser coerces a raw WHOIS timestamp string. Implementations may fail;
// the record builder treats failure as "keep the raw string".
type DateParser func(string) (time.Time, error)

// ErrUnparsableDate reports a timestamp no known layout accepts.
var ErrUnparsableDate = dErrors.New(dErrors.CodeUnprocessable, "unrecognized date format")

var (
	innerSpaceRE    = regexp.MustCompile(`\s+`)
	trailingParenRE = regexp.MustCompile(`\s*\(([^)]+)\)\s*$`)
)

// dateLayouts is ordered roughly by frequency across registries: ISO-8601
// variants first, then the ccTLD-specific layouts.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.0Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"20060102 15:04:05",
	"20060102",
	"02-01-2006 15:04:05",
	"02-01-2006",
	"2.1.2006 15:04:05",
	"02.01.2006 15:04:05",
	"02.01.2006",
	"01.02.2006 15:04:05",
	"2006.01.02 15:04:05",
	"2006.01.02",
	"2006. 01. 02.",
	"2006. 01. 02",
	"02-Jan-2006 15:04:05 MST",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006",
	"2006-Jan-02",
	"02/01/2006",
	"Mon Jan 2 15:04:05 2006",
	"Mon Jan 02 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// tzAbbrevOffsets covers the abbreviations registries actually emit in
// trailing parens; anything else passes through unzoned.
var tzAbbrevOffsets = map[string]string{
	"JST": "+09:00",
	"KST": "+09:00",
	"UTC": "+00:00",
	"GMT": "+00:00",
}

// ParseDateTime is the default date coercion: it strips a trailing
// parenthesized timezone, collapses whitespace, walks the layout ladder, and
// re-applies the timezone when it recognizes it.
func ParseDateTime(value string) (time.Time, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return time.Time{}, dErrors.Wrap(ErrUnparsableDate, dErrors.CodeUnprocessable, "empty value")
	}

	cleaned, tz := splitTrailingTimezone(cleaned)
	cleaned = innerSpaceRE.ReplaceAllString(cleaned, " ")
	// Korean registry dates keep a trailing period: "2007. 03. 02." — the
	// layout ladder handles that variant directly.

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, cleaned)
		if err != nil {
			continue
		}
		return applyTimezone(parsed, tz), nil
	}
	// Ordinal day suffixes ("11th Jun 2014") defeat time.Parse; retry bare.
	if stripped := stripOrdinalSuffix(cleaned); stripped != cleaned {
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, stripped); err == nil {
				return applyTimezone(parsed, tz), nil
			}
		}
	}
	return time.Time{}, dErrors.Wrap(ErrUnparsableDate, dErrors.CodeUnprocessable, value)
}

func splitTrailingTimezone(value string) (string, string) {
	match := trailingParenRE.FindStringSubmatch(value)
	if match == nil {
		return value, ""
	}
	return strings.TrimSpace(trailingParenRE.ReplaceAllString(value, "")), match[1]
}

func applyTimezone(value time.Time, tz string) time.Time {
	if tz == "" {
		return value
	}
	offset := tz
	if !strings.HasPrefix(tz, "+") && !strings.HasPrefix(tz, "-") {
		mapped, ok := tzAbbrevOffsets[strings.ToUpper(tz)]
		if !ok {
			return value
		}
		offset = mapped
	}
	if !strings.Contains(offset, ":") && len(offset) == 5 {
		offset = offset[:3] + ":" + offset[3:]
	}
	loc, err := time.Parse("-07:00", offset)
	if err != nil {
		return value
	}
	return time.Date(value.Year(), value.Month(), value.Day(),
		value.Hour(), value.Minute(), value.Second(), value.Nanosecond(), loc.Location())
}

var ordinalSuffixRE = regexp.MustCompile(`(\d{1,2})(st|nd|rd|th)\b`)

func stripOrdinalSuffix(value string) string {
	return ordinalSuffixRE.ReplaceAllString(value, "$1")
}
