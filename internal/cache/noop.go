package cache

import (
	"context"
	"time"
)

var _ Cache = (*NoOpCache)(nil)

// NoOpCache never stores anything, so every Get is a miss. It stands in
// when CACHE_PROVIDER=none or Redis cannot be reached at startup.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache { return &NoOpCache{} }

func (*NoOpCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (*NoOpCache) Set(context.Context, string, any, time.Duration) error { return nil }
func (*NoOpCache) Flush(context.Context) error { return nil }
func (*NoOpCache) Close() error { return nil }
