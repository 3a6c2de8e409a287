// Package normalize prepares raw WHOIS payloads for extraction. Chained
// referral responses are cut down to the last (authoritative) block, wrapped
// header lines are collapsed, and AFNIC-style handle blocks are rewritten
// into the flat contact lines the base field definitions understand.
package normalize

import (
	"strings"

	dErrors "structwhois/pkg/domain-errors"
)

// serverMarker starts a line that introduces one server's response inside a
// concatenated multi-server payload.
const serverMarker = "#"

// ErrEmptyRecord distinguishes "the last response block is empty" from "the
// extraction ran and matched nothing". Callers must not treat it as a record
// with all fields absent.
var ErrEmptyRecord = dErrors.New(dErrors.CodeUnprocessable, "no content after last server marker")

// rateLimitBanners are full-payload responses registries emit instead of a
// record when the client queries too fast.
var rateLimitBanners = map[string]struct{}{
	"WHOIS LIMIT EXCEEDED - SEE WWW.PIR.ORG/WHOIS FOR DETAILS":           {},
	"Your access is too fast,please try again later.":                    {},
	"Your connection limit exceeded.":                                    {},
	"Number of allowed queries exceeded.":                                {},
	"WHOIS LIMIT EXCEEDED":                                               {},
	"Requests of this client are not permitted.":                         {},
	"Too many connection attempts. Please try again in a few seconds.":   {},
	"We are unable to process your request at this time.":                {},
	"HTTP/1.1 400 Bad Request":                                           {},
	"Closing connections because of Timeout":                             {},
	"Access to whois service at whois.isoc.org.il was **DENIED**":        {},
	"IP Address Has Reached Rate Limit":                                  {},
}

// IsRateLimited reports whether the payload is a known rate-limit banner.
func IsRateLimited(raw string) bool {
	_, ok := rateLimitBanners[strings.TrimSpace(raw)]
	return ok
}

// LatestBlock returns the text strictly after the last server marker line.
// A payload with no marker, or whose only marker is a leading banner with no
// response text before it, passes through unchanged apart from blank-line
// trimming. A marker with nothing after it yields ErrEmptyRecord.
func LatestBlock(raw string) (string, error) {
	lines := strings.Split(normalizeNewlines(raw), "\n")
	sliced, err := sliceLatestSection(lines)
	if err != nil {
		return "", err
	}
	return finalize(sliced), nil
}

// Normalize runs the full pipeline: latest-block slicing, wrapped-header
// collapsing, last-record slicing for registries that list several matches,
// and AFNIC contact injection. Non-empty output always ends in a newline.
func Normalize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	lines := strings.Split(normalizeNewlines(raw), "\n")

	sliced, err := sliceLatestSection(lines)
	if err != nil {
		return "", err
	}
	collapsed := collapseWrappedFields(sliced)
	collapsed = sliceFromLastDomain(collapsed)
	collapsed = injectAFNICContacts(collapsed)

	return finalize(collapsed), nil
}

func normalizeNewlines(raw string) string {
	return strings.ReplaceAll(raw, "\r\n", "\n")
}

// sliceLatestSection keeps the lines after the last marker. The marker only
// counts when some response text precedes it: a bare leading banner is part
// of the single response, not a separator.
func sliceLatestSection(lines []string) ([]string, error) {
	last := -1
	for i, line := range lines {
		if !strings.HasPrefix(line, serverMarker) {
			continue
		}
		if hasContentBefore(lines, i) {
			last = i
		}
	}
	if last < 0 {
		return lines, nil
	}
	rest := lines[last+1:]
	if !hasContent(rest) {
		return nil, dErrors.Wrap(ErrEmptyRecord, dErrors.CodeUnprocessable, "latest block")
	}
	return rest, nil
}

func hasContentBefore(lines []string, idx int) bool {
	for _, line := range lines[:idx] {
		if strings.TrimSpace(line) != "" && !strings.HasPrefix(line, serverMarker) {
			return true
		}
	}
	return false
}

func hasContent(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}

// collapseWrappedFields merges "Header:" lines whose value wrapped onto the
// following line, a layout several registries (Nominet among them) use.
func collapseWrappedFields(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimRight(line, " \t")
		if strings.HasSuffix(trimmed, ":") && i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next != "" && !strings.HasSuffix(next, ":") {
				out = append(out, strings.TrimSpace(trimmed)+" "+next)
				i++
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

// sliceFromLastDomain drops everything before the final "Domain Name:" line.
// Registries that match several records list summaries first and the full
// record last.
func sliceFromLastDomain(lines []string) []string {
	last := -1
	for i, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, "domain name:") {
			last = i
		}
	}
	if last <= 0 {
		return lines
	}
	return lines[last:]
}

// afnicRoles maps AFNIC handle references onto the contact prefixes the base
// definitions extract.
var afnicRoles = []struct {
	key  string
	role string
}{
	{"holder-c", "Registrant"},
	{"admin-c", "Admin"},
	{"tech-c", "Tech"},
}

// injectAFNICContacts rewrites AFNIC nic-hdl blocks into flat contact lines
// appended after the record, so .fr responses resolve with the base contact
// patterns instead of a bespoke extraction path.
func injectAFNICContacts(lines []string) []string {
	handles := extractAFNICHandles(lines)
	if len(handles) == 0 {
		return lines
	}
	blocks := extractAFNICContactBlocks(lines)
	if len(blocks) == 0 {
		return lines
	}

	out := append([]string(nil), lines...)
	for _, rm := range afnicRoles {
		handle, ok := handles[rm.key]
		if !ok {
			continue
		}
		attrs, ok := blocks[handle]
		if !ok {
			continue
		}
		out = append(out, buildAFNICContactLines(rm.role, attrs)...)
	}
	return out
}

func extractAFNICHandles(lines []string) map[string]string {
	handles := make(map[string]string)
	for _, line := range lines {
		for _, rm := range afnicRoles {
			prefix := rm.key + ":"
			if strings.HasPrefix(strings.ToLower(line), prefix) {
				if value := strings.TrimSpace(line[len(prefix):]); value != "" {
					if _, taken := handles[rm.key]; !taken {
						handles[rm.key] = value
					}
				}
			}
		}
	}
	return handles
}

func extractAFNICContactBlocks(lines []string) map[string]map[string]string {
	blocks := make(map[string]map[string]string)
	var current map[string]string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			current = nil
			continue
		}
		key, value, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "nic-hdl" && value != "" {
			current = make(map[string]string)
			blocks[value] = current
			continue
		}
		if current != nil && value != "" {
			current[key] = value
		}
	}
	return blocks
}

func buildAFNICContactLines(role string, attrs map[string]string) []string {
	contact := attrs["contact"]
	if contact == "" {
		return nil
	}
	var lines []string
	if strings.EqualFold(attrs["type"], "ORGANIZATION") {
		lines = append(lines, role+" Organization: "+contact)
	} else {
		lines = append(lines, role+" Name: "+contact)
	}
	if email := attrs["e-mail"]; email != "" {
		lines = append(lines, role+" Email: "+email)
	}
	if phone := attrs["phone"]; phone != "" {
		lines = append(lines, role+" Phone: "+phone)
	}
	return lines
}

// finalize trims leading/trailing blank lines and guarantees a trailing
// newline on non-empty output so line-anchored patterns match the last line.
func finalize(lines []string) string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n") + "\n"
}
