// Package env reads the few process settings consulted before config.Load,
// such as log formatting.
package env

import (
	"os"
	"strconv"
	"strings"
)

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Bool accepts strconv.ParseBool spellings plus yes/no and on/off.
func Bool(key string, fallback bool) bool {
	v := strings.ToLower(Get(key, ""))
	switch v {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return fallback
}
