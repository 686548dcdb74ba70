package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces masked values in log output.
const RedactedValue = "[REDACTED]"

// Keys whose values are credentials. Linkdrop tokens are bearer secrets: a
// leaked token lets anyone redeem it.
var sensitiveKeys = map[string]struct{}{
	"token":         {},
	"linkdrop":      {},
	"secret":        {},
	"hmac_secret":   {},
	"authorization": {},
	"password":      {},
}

// Keys MaskField never masks.
var allowlist = map[string]struct{}{
	"service":   {},
	"env":       {},
	"message":   {},
	"severity":  {},
	"timestamp": {},
	"error":     {},
	"reason":    {},
	"op":        {},
	"kind":      {},
	"account":   {},
	"referrer":  {},
	"sale_id":   {},
	"token_fp":  {},
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// IsSensitive reports whether values logged under key are always masked.
func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[normalizeKey(key)]
	return ok
}

// IsAllowlisted reports whether key may be logged verbatim through MaskField.
func IsAllowlisted(key string) bool {
	_, ok := allowlist[normalizeKey(key)]
	return ok
}

// MaskValue masks non-empty values.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField masks value unless key is allowlisted.
func MaskField(key, value string) slog.Attr {
	if IsAllowlisted(key) && !IsSensitive(key) {
		return slog.String(key, value)
	}
	return slog.String(key, MaskValue(value))
}

// redactAttr is applied by the handler to every attribute, so a token logged
// by accident through slog.String still never reaches the sink.
func redactAttr(attr slog.Attr) slog.Attr {
	if !IsSensitive(attr.Key) {
		return attr
	}
	if attr.Value.Kind() == slog.KindString {
		return slog.String(attr.Key, MaskValue(attr.Value.String()))
	}
	return slog.String(attr.Key, RedactedValue)
}
