// Package storage provides the flat key-value string medium that the learner
// state is persisted in. It plays the role browser local storage plays for a
// single-page client: string keys, string values, last write wins.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store closed")

// Store is a flat key-value string store. Implementations must be safe for
// concurrent use but provide no cross-key atomicity.
type Store interface {
	// Get returns the value and true, or "" and false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

type scoped struct {
	inner  Store
	prefix string
}

// Scoped namespaces every key of inner under scope. It is how one backend
// holds many independent client storages.
func Scoped(inner Store, scope string) Store {
	return &scoped{inner: inner, prefix: strings.TrimSpace(scope) + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

func (s *scoped) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close is a no-op; the owner of the inner store closes it.
func (s *scoped) Close() error {
	return nil
}
