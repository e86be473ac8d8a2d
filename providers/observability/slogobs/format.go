package slogobs

import (
	"os"
	"strings"
)

// Format represents the output format for logs.
type Format string

const (
	// FormatCompact is one line per record with JSON-encoded attributes.
	FormatCompact Format = "compact"
	// FormatPretty puts every attribute on its own indented line.
	FormatPretty Format = "pretty"
	// FormatJSON emits one JSON object per record.
	FormatJSON Format = "json"
)

// ParseFormat maps s to a Format, falling back to FormatCompact.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pretty":
		return FormatPretty
	case "json":
		return FormatJSON
	default:
		return FormatCompact
	}
}

// GetFormatFromEnv reads FINCHAT_LOG_FORMAT, then LOG_FORMAT.
func GetFormatFromEnv() Format {
	if format := os.Getenv("FINCHAT_LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	return FormatCompact
}

func (f Format) String() string {
	return string(f)
}
