package logger

import "strings"

// statusWords maps accepted spellings onto the status vocabulary shared by
// turn, store and delivery logs. Unknown values are logged lowercased.
var statusWords = map[string]string{
	"ok":           "ok",
	"success":      "ok",
	"fail":         "fail",
	"failed":       "fail",
	"error":        "fail",
	"skip":         "skip",
	"skipped":      "skip",
	"retry":        "retry",
	"rate_limited": "rate_limited",
	"cancelled":    "cancelled",
	"canceled":     "cancelled",
	"reset":        "reset",
	"expired":      "expired",
	"desynced":     "desynced",
	"fatal":        "fatal",
}

func levelName(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case "":
		return "INFO"
	case "WARNING":
		return "WARN"
	default:
		return l
	}
}

func statusName(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if mapped, ok := statusWords[status]; ok {
		return mapped
	}
	return status
}

// defaultKeyOrder puts correlation first, then conversation and shop
// identifiers, then transport details and errors.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "handler",
	"state", "next_state", "payload", "reason", "cb_key",
	"product_id", "item_id", "qty", "email", "count",
	"operation", "op", "duration_ms",
	"backend", "key", "mode", "listen", "public_url",
	"method", "path", "http_code", "db", "host", "port",
	"action", "endpoint", "attempt", "attempts", "wait_ms", "queue_wait_ms",
	"err", "err_code", "cause", "retryable", "rate_limited",
}
