package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrNotReadOnly = errors.New("only a single read-only SELECT statement is allowed")

var (
	commentPattern   = regexp.MustCompile(`(?s)--[^\n]*|/\*.*?\*/`)
	stringPattern    = regexp.MustCompile(`'(?:[^']|'')*'`)
	forbiddenPattern = regexp.MustCompile(`(?i)\b(insert|update|delete|merge|drop|alter|create|truncate|grant|revoke|copy|call|do|vacuum|attach|detach|install|load|pragma|set|export|import)\b`)
)

// ValidateReadOnly rejects anything other than one SELECT (or WITH ... SELECT)
// statement. String literals are ignored so that values such as 'Delete St'
// do not trip the keyword check.
func ValidateReadOnly(sqlText string) error {
	stripped := commentPattern.ReplaceAllString(sqlText, " ")
	stripped = stringPattern.ReplaceAllString(stripped, "''")
	stripped = StripTrailingSemicolons(stripped)
	if stripped == "" {
		return fmt.Errorf("%w: empty statement", ErrNotReadOnly)
	}
	if strings.Contains(stripped, ";") {
		return fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
	}
	lower := strings.ToLower(stripped)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return ErrNotReadOnly
	}
	if keyword := forbiddenPattern.FindString(stripped); keyword != "" {
		return fmt.Errorf("%w: %s is not permitted", ErrNotReadOnly, strings.ToUpper(keyword))
	}
	return nil
}

func StripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}

// WrapLimit caps sqlText at limit+1 rows so callers can tell a truncated
// result from one that fit exactly.
func WrapLimit(sqlText string, limit int) string {
	sqlText = StripTrailingSemicolons(sqlText)
	if limit <= 0 {
		return sqlText
	}
	return fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, limit+1)
}

// NormalizeValues turns driver byte slices into strings so they encode as
// JSON text rather than base64.
func NormalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
