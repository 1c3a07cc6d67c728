package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNoCache = errors.New("cache disabled")

// Nop is used when no cache endpoint is configured: every read misses and
// Incr fails so order numbering falls back to the database.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool) { return "", false }
func (Nop) Set(context.Context, string, string, time.Duration) {}
func (Nop) Del(context.Context, ...string) {}
func (Nop) DelPrefix(context.Context, string) {}
func (Nop) Keys(context.Context, string) []string { return nil }
func (Nop) Incr(context.Context, string) (int64, error) { return 0, ErrNoCache }
func (Nop) Expire(context.Context, string, time.Duration) {}
