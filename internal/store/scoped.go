// internal/store/scoped.go
//
// Key namespacing. Each player's stats and settings live under their
// own prefix in the shared KV, so one backend serves every identity.

package store

import "context"

type scopedKV struct {
	base   KV
	prefix string
}

// Scoped returns a KV view whose keys are transparently prefixed with
// "<prefix>/". Two views with different prefixes over the same base
// never see each other's data.
func Scoped(base KV, prefix string) KV {
	return &scopedKV{base: base, prefix: prefix}
}

func (s *scopedKV) Get(ctx context.Context, key string) (string, bool, error) {
	return s.base.Get(ctx, s.prefix+"/"+key)
}

func (s *scopedKV) Set(ctx context.Context, key, value string) error {
	return s.base.Set(ctx, s.prefix+"/"+key, value)
}
