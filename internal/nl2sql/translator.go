package nl2sql

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var ErrNoSelect = errors.New("no SELECT statement found in model output")

type Request struct {
	NaturalLanguage string `json:"natural_language"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}

var selectPattern = regexp.MustCompile(`(?is)SELECT.*?;`)

// ExtractSelect returns the first "SELECT ... ;" statement in raw, ignoring
// any prose or markdown fencing around it.
func ExtractSelect(raw string) (string, error) {
	match := selectPattern.FindString(stripMarkdownSQL(raw))
	if match == "" {
		return "", ErrNoSelect
	}
	return strings.TrimSpace(match), nil
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
