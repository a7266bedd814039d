// Package token resolves the operator bearer token used for Dentago API calls.
package token

import (
	"context"
	"errors"
	"strings"
)

// Storage keys. CanonicalKey is the only key this package writes; the legacy
// names are read for migration from older dashboard builds.
const (
	CanonicalKey = "dentago_access_token"
	LegacyKey    = "accessToken"
)

// ErrNoCredential reports that no token is available. It is an expected
// state, not a failure of the storage itself.
var ErrNoCredential = errors.New("token: no credential")

// Source yields the current bearer token or ErrNoCredential.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Static always returns the same token. An empty value means absent.
type Static string

func (s Static) Token(context.Context) (string, error) {
	if v := strings.TrimSpace(string(s)); v != "" {
		return v, nil
	}
	return "", ErrNoCredential
}

// Chain returns the first token any source yields. Sources reporting
// ErrNoCredential are skipped; any other error stops the chain.
type Chain []Source

func (c Chain) Token(ctx context.Context) (string, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		tok, err := src.Token(ctx)
		if err == nil {
			return tok, nil
		}
		if !errors.Is(err, ErrNoCredential) {
			return "", err
		}
	}
	return "", ErrNoCredential
}

type contextKey struct{}

// WithToken attaches a token to ctx for ContextSource.
func WithToken(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, contextKey{}, strings.TrimSpace(tok))
}

// FromContext returns the token attached by WithToken, if any.
func FromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(contextKey{}).(string)
	return tok, ok && tok != ""
}

// ContextSource reads the token attached to the request context.
type ContextSource struct{}

func (ContextSource) Token(ctx context.Context) (string, error) {
	if tok, ok := FromContext(ctx); ok {
		return tok, nil
	}
	return "", ErrNoCredential
}
