package validators

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
)

// ParseQueryBool reads an optional boolean flag. Absent yields defaultVal.
func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	value, present, err := ParseOptionalQueryBool(r, key)
	if err != nil || !present {
		return defaultVal, err
	}
	return value, nil
}

// ParseOptionalQueryBool distinguishes an absent flag from an explicit true or false.
func ParseOptionalQueryBool(r *http.Request, key string) (value bool, present bool, err error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, false, nil
	}
	value, err = strconv.ParseBool(raw)
	if err != nil {
		return false, true, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return value, true, nil
}

// ParseIDParam reads a positive integer chi URL parameter.
func ParseIDParam(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "missing path parameter").WithDetails(map[string]any{"field": key})
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

// ParseSearchQuery returns the raw value of key for substring matching. Whitespace is
// significant and is kept; the value is capped at maxLen bytes on a rune boundary.
func ParseSearchQuery(r *http.Request, key string, maxLen int) string {
	return truncate(r.URL.Query().Get(key), maxLen)
}

func SanitizeString(input string, maxLen int) string {
	return truncate(strings.TrimSpace(input), maxLen)
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
