package common

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// CleanHTMLText strips markup and entities from provider-supplied titles
// and collapses runs of whitespace.
func CleanHTMLText(raw string) string {
	value := strings.TrimSpace(raw)
	value = html.UnescapeString(value)
	value = tagPattern.ReplaceAllString(value, " ")
	value = strings.Join(strings.Fields(value), " ")
	return value
}

// ParseHumanSize converts a human readable size ("1.5 GB", "700 MB") to
// bytes. Bare numbers are taken as bytes. Unparseable input yields 0.
func ParseHumanSize(raw string) int64 {
	value := strings.TrimSpace(strings.ToUpper(raw))
	if value == "" {
		return 0
	}

	unit := ""
	number := value
	for _, suffix := range []string{"TB", "GB", "MB", "KB", "B"} {
		if strings.HasSuffix(number, suffix) {
			unit = suffix
			number = strings.TrimSpace(strings.TrimSuffix(number, suffix))
			break
		}
	}
	if unit == "" {
		if parsed, err := strconv.ParseInt(number, 10, 64); err == nil && parsed > 0 {
			return parsed
		}
		return 0
	}

	parsed, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", "."), 64)
	if err != nil || parsed < 0 {
		return 0
	}

	multiplier := float64(1)
	switch unit {
	case "KB":
		multiplier = 1024
	case "MB":
		multiplier = 1024 * 1024
	case "GB":
		multiplier = 1024 * 1024 * 1024
	case "TB":
		multiplier = 1024 * 1024 * 1024 * 1024
	}
	return int64(parsed * multiplier)
}

var qualityPattern = regexp.MustCompile(`(?i)\b(2160p|1440p|1080p|720p|480p|4k)\b`)

// DetectQuality picks the video quality marker out of a release name,
// normalized to lowercase. Returns "" when no marker is present.
func DetectQuality(name string) string {
	match := qualityPattern.FindString(name)
	if match == "" {
		return ""
	}
	quality := strings.ToLower(match)
	if quality == "4k" {
		quality = "2160p"
	}
	return quality
}
