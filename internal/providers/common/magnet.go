package common

import (
	"net/url"
	"strings"
)

// NormalizeInfoHash lowercases and strips the urn prefix from an
// info-hash, returning "" when the remainder is not a plausible
// 40-char hex or 32-char base32 hash.
func NormalizeInfoHash(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.TrimPrefix(value, "urn:btih:")
	switch len(value) {
	case 40:
		for _, r := range value {
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
				return ""
			}
		}
	case 32:
		for _, r := range value {
			if (r < 'a' || r > 'z') && (r < '2' || r > '7') {
				return ""
			}
		}
	default:
		return ""
	}
	return value
}

// BuildMagnet assembles a magnet URI from a normalized info-hash, a
// display name and tracker announce URLs. Returns "" for an invalid hash.
func BuildMagnet(infoHash, name string, trackers []string) string {
	hash := NormalizeInfoHash(infoHash)
	if hash == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("magnet:?xt=urn:btih:")
	builder.WriteString(hash)
	if display := strings.TrimSpace(name); display != "" {
		builder.WriteString("&dn=")
		builder.WriteString(url.QueryEscape(display))
	}
	for _, tracker := range trackers {
		announce := strings.TrimSpace(tracker)
		if announce == "" {
			continue
		}
		builder.WriteString("&tr=")
		builder.WriteString(url.QueryEscape(announce))
	}
	return builder.String()
}
