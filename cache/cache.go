// Package cache is the advisory cache-aside layer. Nothing here is a source
// of truth: reads that fail behave like misses and writes that fail are
// logged and dropped.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is the capability set the services rely on.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Del(ctx context.Context, keys ...string)
	DelPrefix(ctx context.Context, prefix string)
	Keys(ctx context.Context, pattern string) []string
	// Incr is the one operation whose failure is reported, because the
	// caller needs a fallback rather than a silent zero.
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration)
}

// GetJSON decodes a cached JSON value into dst. Undecodable entries are
// deleted and reported as misses.
func GetJSON(ctx context.Context, c Cache, key string, dst any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		c.Del(ctx, key)
		return false
	}
	return true
}

func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.Set(ctx, key, string(raw), ttl)
}

// Key prefixes and TTLs shared by writers and readers.
const (
	PrefixUser       = "user:"
	PrefixProduct    = "product:"
	PrefixProducts   = "products:"
	PrefixCategories = "categories:"
	PrefixCounter    = "order_counter:"

	UserTTL         = time.Hour
	ProductTTL      = time.Hour
	ProductListTTL  = 5 * time.Minute
	FeaturedTTL     = 30 * time.Minute
	CategoriesTTL   = time.Hour
	OrderCounterTTL = 48 * time.Hour
)

func UserByTelegramKey(telegramID int64) string {
	return fmt.Sprintf("%stelegram:%d", PrefixUser, telegramID)
}

func UserByIDKey(id int64) string {
	return fmt.Sprintf("%sid:%d", PrefixUser, id)
}

func ProductKey(id int64) string {
	return fmt.Sprintf("%s%d", PrefixProduct, id)
}

func OrderCounterKey(day string) string {
	return PrefixCounter + day
}
