package clip

import (
	"mime"
	"strings"
)

const (
	// MimeText is the media type of plain text payloads.
	MimeText = "text/plain"
	// MimeBinary is used when a payload carries no media type.
	MimeBinary = "application/octet-stream"
)

// CanonicalMime reduces a media type to its lower-cased essence
// ("type/subtype"), dropping parameters such as charset. An empty value
// becomes MimeBinary; a value that does not parse is only trimmed and
// lower-cased so that the daemon still receives what the caller supplied.
func CanonicalMime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return MimeBinary
	}
	mt, _, err := mime.ParseMediaType(s)
	if err != nil {
		return strings.ToLower(s)
	}
	return mt
}
