package logwriter

import "strings"

// Severity represents the importance of a log entry, ordered from least
// to most important.
type Severity int8

// Severity levels accepted by the writer.
const (
	// SeverityVerbose is the lowest level. Verbose entries are accepted by
	// every logging method but are intentionally never persisted; see the
	// package documentation.
	SeverityVerbose Severity = iota

	// SeverityDebug is for detailed diagnostic information.
	SeverityDebug

	// SeverityInfo is for general informational messages.
	SeverityInfo

	// SeverityWarn is for potentially harmful situations.
	SeverityWarn

	// SeverityError is the highest level, for failure conditions.
	SeverityError
)

// severityNames holds the canonical name of each severity, indexed by value.
var severityNames = [...]string{
	SeverityVerbose: "Verbose",
	SeverityDebug:   "Debug",
	SeverityInfo:    "Info",
	SeverityWarn:    "Warn",
	SeverityError:   "Error",
}

// severityColumns holds each severity name left-padded to the fixed column
// width used in rendered entries, so the hot path never reformats them.
var severityColumns = [...]string{
	SeverityVerbose: "Verbose",
	SeverityDebug:   "  Debug",
	SeverityInfo:    "   Info",
	SeverityWarn:    "   Warn",
	SeverityError:   "  Error",
}

// String returns the canonical name of the severity.
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "Unknown"
	}
	return severityNames[s]
}

// column returns the severity name left-padded to the rendered column width.
func (s Severity) column() string {
	if s < 0 || int(s) >= len(severityColumns) {
		return "Unknown"
	}
	return severityColumns[s]
}

// ParseSeverity converts a string to a Severity. Matching is
// case-insensitive and "warning" is accepted as an alias for Warn.
// Unrecognized strings fall back to Info.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "verbose":
		return SeverityVerbose
	case "debug":
		return SeverityDebug
	case "info":
		return SeverityInfo
	case "warn", "warning":
		return SeverityWarn
	case "error":
		return SeverityError
	default:
		return SeverityInfo
	}
}
