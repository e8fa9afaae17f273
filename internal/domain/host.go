package domain

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidHost is returned for an empty or unrecognizable host id.
var ErrInvalidHost = errors.New("invalid host")

// HostPattern matches machine identifiers such as z2r8p4.
var HostPattern = regexp.MustCompile(`z\d+r\d+p\d+`)

var zonePattern = regexp.MustCompile(`^(z\d+)r\d+p\d+$`)

// NormalizeHost lower-cases and trims a host identifier.
func NormalizeHost(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// ExtractHost finds the first host identifier in free text.
func ExtractHost(text string) (string, bool) {
	m := HostPattern.FindString(strings.ToLower(text))
	return m, m != ""
}

// Zone returns the zone prefix of a host ("z2" for "z2r8p4"), or "" when
// the identifier is not in zone-row-position form.
func Zone(host string) string {
	m := zonePattern.FindStringSubmatch(NormalizeHost(host))
	if m == nil {
		return ""
	}
	return m[1]
}
