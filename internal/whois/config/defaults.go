package config

import (
	"structwhois/internal/whois/fields"
)

// DefaultTLDs lists the TLDs whose overrides ship builtin and which the
// parser preloads by default, so misconfigured patterns fail at startup
// rather than on the first parse.
func DefaultTLDs() []string {
	return []string{"br", "cn", "com.br", "de", "fi", "fr", "hk", "it", "jp", "kr", "pl", "ru", "uk"}
}

// DefaultFieldDefinitions returns the builtin base field-definition store.
// Pattern coverage follows the field naming used by ICANN-style registry
// responses, with regex fallbacks for the ccTLD formats that deviate.
func DefaultFieldDefinitions() fields.Definitions {
	return fields.Definitions{
		"domain_name": scalar(
			fields.Prefix("Domain Name:"),
			fields.Regex(`(?i)^domain(?:\.+)?:\s*(.+?)\s*$`),
		),
		"registrar": scalar(
			fields.Prefix("Registrar:"),
			fields.Prefix("Sponsoring Registrar:"),
			fields.Prefix("Registrar Name:"),
			fields.Regex(`(?i)^registrar(?:-name|\.+)?:\s*(.+?)\s*$`),
		),
		"registrar_id": scalar(
			fields.Prefix("Registrar IANA ID:"),
			fields.Prefix("Sponsoring Registrar IANA ID:"),
		),
		"registrar_url": scalar(
			fields.Prefix("Registrar URL:"),
			fields.Regex(`(?i)^registrar url(?: \(registration services\))?:\s*(\S+)\s*$`),
		),
		"creation_date": scalar(
			fields.Prefix("Creation Date:"),
			fields.Prefix("Created On:"),
			fields.Prefix("Registered On:"),
			fields.Prefix("Registration Time:"),
			fields.Prefix("Registered on:"),
			fields.Regex(`(?i)^created(?:\.+)?:\s*(.+?)\s*$`),
			fields.Regex(`(?i)^registered:\s*(.+?)\s*$`),
			fields.Regex(`(?i)^registration date:\s*(.+?)\s*$`),
		),
		"updated_date": scalar(
			fields.Prefix("Updated Date:"),
			fields.Prefix("Last Updated On:"),
			fields.Prefix("Last updated:"),
			fields.Regex(`(?i)^(?:last[- ])?modified(?:\.+)?:\s*(.+?)\s*$`),
			fields.Regex(`(?i)^changed:\s*(.+?)\s*$`),
		),
		"expiration_date": scalar(
			fields.Prefix("Registry Expiry Date:"),
			fields.Prefix("Expiration Date:"),
			fields.Prefix("Expiry Date:"),
			fields.Prefix("Expiry date:"),
			fields.Prefix("Expiration Time:"),
			fields.Prefix("Expires On:"),
			fields.Regex(`(?i)^expires?(?:\.+)?:\s*(.+?)\s*$`),
			fields.Regex(`(?i)^paid-till:\s*(.+?)\s*$`),
			fields.Regex(`(?i)^renewal date:\s*(.+?)\s*$`),
		),
		"name_servers": list(
			fields.Prefix("Name Server:"),
			fields.Regex(`(?i)^nserver(?:\.+)?:\s*(\S+)`),
			fields.Regex(`(?i)^name server:\s*(\S+)`),
			fields.Regex(`(?i)^dns:\s*(\S+)`),
		),
		"status": list(
			fields.Prefix("Domain Status:"),
			fields.Prefix("Status:"),
			fields.Regex(`(?i)^state:\s*(.+?)\s*$`),
			fields.Regex(`(?i)^domain status:\s*(.+?)\s*$`),
		),
		"registrant_name":         scalar(fields.Prefix("Registrant Name:")),
		"registrant_organization": scalar(fields.Prefix("Registrant Organization:"), fields.Prefix("Registrant Organisation:")),
		"registrant_email":        scalar(fields.Prefix("Registrant Email:")),
		"registrant_telephone":    scalar(fields.Prefix("Registrant Phone:")),
		"admin_name":              scalar(fields.Prefix("Admin Name:")),
		"admin_organization":      scalar(fields.Prefix("Admin Organization:")),
		"admin_email":             scalar(fields.Prefix("Admin Email:")),
		"admin_telephone":         scalar(fields.Prefix("Admin Phone:")),
		"tech_name":               scalar(fields.Prefix("Tech Name:")),
		"tech_organization":       scalar(fields.Prefix("Tech Organization:")),
		"tech_email":              scalar(fields.Prefix("Tech Email:")),
		"tech_telephone":          scalar(fields.Prefix("Tech Phone:")),
		"dnssec":                  scalar(fields.Prefix("DNSSEC:")),
		"abuse_email":             scalar(fields.Prefix("Registrar Abuse Contact Email:")),
		"abuse_telephone":         scalar(fields.Prefix("Registrar Abuse Contact Phone:")),
	}
}

// DefaultTLDOverrides returns the builtin TLD override table covering the
// ccTLD registry formats that diverge from the ICANN key/value layout.
func DefaultTLDOverrides() map[string]fields.Overrides {
	brazil := fields.Overrides{
		"registrant_organization": extend(fields.Regex(`(?i)^owner:\s*(.+?)\s*$`)),
		"registrant_name":         extend(fields.Regex(`(?i)^responsible:\s*(.+?)\s*$`)),
		"registrant_email":        extend(fields.Regex(`(?i)^e-mail:\s*(\S+)\s*$`)),
	}
	return map[string]fields.Overrides{
		"br":     brazil,
		"com.br": brazil,
		"jp": fields.Overrides{
			"domain_name":     extend(fields.Regex(`(?i)^\[(?:domain name|ドメイン名)\]\s*(.+?)\s*$`)),
			"creation_date":   extend(fields.Regex(`(?i)^\[(?:created on|登録年月日)\]\s*(.+?)\s*$`)),
			"expiration_date": extend(fields.Regex(`(?i)^\[(?:expires on|有効期限)\]\s*(.+?)\s*$`)),
			"updated_date":    extend(fields.Regex(`(?i)^\[(?:last updated|最終更新)\]\s*(.+?)\s*$`)),
			"status":          extend(fields.Regex(`(?i)^\[(?:status|state|状態)\]\s*(.+?)\s*$`)),
			"name_servers":    extend(fields.Regex(`(?i)^\[name server\]\s*(\S+)`)),
			"registrant_name": extend(fields.Regex(`(?i)^\[(?:registrant|登録者名)\]\s*(.+?)\s*$`)),
		},
		"kr": fields.Overrides{
			"domain_name":     extend(fields.Regex(`(?i)^(?:domain name|도메인이름)\s*:\s*(.+?)\s*$`)),
			"creation_date":   extend(fields.Regex(`(?i)^(?:registered date|등록일)\s*:\s*(.+?)\s*$`)),
			"expiration_date": extend(fields.Regex(`(?i)^(?:expiration date|사용 종료일)\s*:\s*(.+?)\s*$`)),
			"updated_date":    extend(fields.Regex(`(?i)^(?:last updated date|최근 정보 변경일)\s*:\s*(.+?)\s*$`)),
			"name_servers":    extend(fields.Regex(`(?i)^\s*(?:host name|호스트이름)\s*:\s*(\S+)`)),
			"registrant_name": extend(fields.Regex(`(?i)^(?:registrant|등록인)\s*:\s*(.+?)\s*$`)),
		},
		"uk": fields.Overrides{
			// Nominet indents values under section headers. The normalizer
			// collapses the first value onto the header line, so the server
			// list needs both forms: "Name servers: ns1..." for the collapsed
			// first entry and the indented pattern for the rest.
			"name_servers": extend(
				fields.Regex(`(?i)^name servers:\s*(\S+)`),
				fields.Regex(`(?i)^\s{4,}([a-z0-9-]+(?:\.[a-z0-9-]+)+)\s*$`),
			),
			"status": extend(fields.Regex(`(?i)^\s*registration status:\s*(.+?)\s*$`)),
		},
		"ru": fields.Overrides{
			"expiration_date":         extend(fields.Regex(`(?i)^free-date:\s*(.+?)\s*$`)),
			"registrant_organization": extend(fields.Regex(`(?i)^org:\s*(.+?)\s*$`)),
		},
		"fr": fields.Overrides{
			"status": extend(fields.Regex(`(?i)^eligstatus:\s*(.+?)\s*$`)),
		},
		"de": fields.Overrides{
			// DENIC exposes no registrar or dates; status is the only signal.
			"status": extend(fields.Regex(`(?i)^status:\s*(.+?)\s*$`)),
		},
		"fi": fields.Overrides{
			"registrar": extend(fields.Regex(`(?i)^registrar\.+:\s*(.+?)\s*$`)),
		},
		"pl": fields.Overrides{
			"updated_date": extend(fields.Regex(`(?i)^last modified:\s*(.+?)\s*$`)),
		},
		"it": fields.Overrides{
			"expiration_date": extend(fields.Regex(`(?i)^expire date:\s*(.+?)\s*$`)),
			"updated_date":    extend(fields.Regex(`(?i)^last update:\s*(.+?)\s*$`)),
		},
		"hk": fields.Overrides{
			"creation_date": extend(fields.Regex(`(?i)^domain name commencement date:\s*(.+?)\s*$`)),
		},
		"cn": fields.Overrides{
			"registrant_name": extend(fields.Regex(`(?i)^registrant:\s*(.+?)\s*$`)),
		},
	}
}

func scalar(patterns ...fields.Pattern) fields.FieldSpec {
	return fields.FieldSpec{Patterns: patterns, Mode: fields.ModeFirst, Shape: fields.ShapeScalar}
}

func list(patterns ...fields.Pattern) fields.FieldSpec {
	return fields.FieldSpec{Patterns: patterns, Mode: fields.ModeAll, Unique: true, Shape: fields.ShapeList}
}

func extend(patterns ...fields.Pattern) fields.FieldOverride {
	return fields.FieldOverride{ExtendPatterns: patterns}
}
