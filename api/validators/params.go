package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/pkg/calendar"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
)

func fieldError(field, message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{field: message})
}

// ParseUUIDParam reads a chi URL parameter as a UUID.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, key)))
	if err != nil {
		return uuid.Nil, fieldError(key, "must be a uuid")
	}
	return id, nil
}

// ParseOptionalDate parses an optional YYYY-MM-DD field. Empty input yields nil.
func ParseOptionalDate(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := calendar.ParseDate(*raw)
	if err != nil {
		return nil, fieldError(field, "must be a YYYY-MM-DD date")
	}
	return &t, nil
}

// ParseQueryInt reads an integer query parameter bounded to [lo, hi],
// falling back to def when the parameter is absent.
func ParseQueryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw, present := r.URL.Query()[key]
	if !present || strings.TrimSpace(raw[0]) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
	if err != nil {
		return 0, fieldError(key, "must be an integer")
	}
	if n < lo || n > hi {
		return 0, fieldError(key, "must be between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi))
	}
	return n, nil
}

// SanitizeString collapses whitespace runs, drops control characters and
// truncates to maxLen runes. A non-positive maxLen disables truncation.
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	space := false
	n := 0
	for _, r := range strings.TrimSpace(input) {
		if maxLen > 0 && n == maxLen {
			break
		}
		switch {
		case unicode.IsSpace(r):
			if space {
				continue
			}
			space = true
			r = ' '
		case unicode.IsControl(r):
			continue
		default:
			space = false
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}
