package client

import "context"

// Credentials supplies the API key attached to each request. Implementations
// resolve it at call time so the key never has to be part of the binary.
type Credentials interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticCredential is a key handed over at runtime (flag or environment).
type StaticCredential string

func (c StaticCredential) APIKey(context.Context) (string, error) {
	return string(c), nil
}

// CredentialFunc adapts a function, for example one fetching a short-lived
// token from a backend, to Credentials.
type CredentialFunc func(ctx context.Context) (string, error)

func (f CredentialFunc) APIKey(ctx context.Context) (string, error) {
	return f(ctx)
}
