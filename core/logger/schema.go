package logger

import "strings"

// Level names written to the "level" field.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Closed vocabularies for the "status" and "outcome" fields.
var (
	statusValues  = set("ok", "fail", "skip", "retry", "rate_limited", "cancelled")
	outcomeValues = set("ok", "fail", "cancelled", "rate_limited")
)

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return strings.ToUpper(level)
}

// normalizeStatus lowercases status and reports whether it is a known value.
func normalizeStatus(status string) (string, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	_, ok := statusValues[status]
	return status, ok
}

// normalizeOutcome lowercases outcome; unknown values are rejected.
func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	_, ok := outcomeValues[outcome]
	return outcome, ok
}

// defaultKeyOrder puts the fields an operator scans first at the front of
// each line. Remaining keys follow alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "handler",
	"cb_key", "state", "field", "outcome",
	"duration_ms", "messages", "kb",
	"filters", "results", "limit", "listing_id",
	"mode", "listen", "public_url",
	"driver", "db", "collection", "exchange", "routing_key",
	"sessions", "evicted",
	"err", "err_code", "cause", "attempts",
}
