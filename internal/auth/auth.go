package auth

import (
	"context"
	"fmt"
	"strings"
)

// Identity is the caller a key resolves to. Principal is only used for logs.
type Identity struct {
	Principal string
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

type StaticAPIKeyValidator struct {
	keys map[string]Identity
}

// NewStaticAPIKeyValidator parses "key:principal[,key:principal]". A bare
// "key" entry gets the principal "default".
func NewStaticAPIKeyValidator(raw string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[string]Identity{}}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return validator, nil
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, principal, found := strings.Cut(entry, ":")
		key = strings.TrimSpace(key)
		principal = strings.TrimSpace(principal)
		if !found {
			principal = "default"
		}
		if key == "" || principal == "" {
			return nil, fmt.Errorf("invalid static key entry %q: expected key:principal", entry)
		}
		if _, exists := validator.keys[key]; exists {
			return nil, fmt.Errorf("invalid static key entry %q: duplicate key", entry)
		}
		validator.keys[key] = Identity{Principal: principal}
	}

	return validator, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[apiKey]
	return identity, ok
}

func (v *StaticAPIKeyValidator) Len() int {
	return len(v.keys)
}
