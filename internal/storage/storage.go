// Package storage defines the key-value contract carts are persisted through.
package storage

import "context"

// KV is a string key-value store. Get returns an error satisfying
// apperrors.IsNotFound when the key is absent.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Namespaced prefixes every key before delegating, so several browser
// profiles can share one backend without their guest slots colliding.
type Namespaced struct {
	kv     KV
	prefix string
}

// NewNamespaced wraps kv so that every key is stored as prefix+key.
func NewNamespaced(kv KV, prefix string) *Namespaced {
	return &Namespaced{kv: kv, prefix: prefix}
}

func (n *Namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.kv.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key, value string) error {
	return n.kv.Set(ctx, n.prefix+key, value)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.kv.Delete(ctx, n.prefix+key)
}
