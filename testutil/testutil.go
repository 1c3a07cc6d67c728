// Package testutil provides store and cache fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront/cache"
	"storefront/database"
	"storefront/models"
	"storefront/repository"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory sqlite database private to the test.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storefront_test_%d?mode=memory&cache=shared&_foreign_keys=1", dbSeq.Add(1))
	db, err := sqlx.Open("sqlite3", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// NewCache returns a Redis cache backed by miniredis together with the
// server, so tests can inspect keys or stop it to simulate an outage.
func NewCache(t testing.TB) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := cache.NewRedisFromClient(redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}))
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func CreateUser(t testing.TB, db *sqlx.DB, telegramID int64, firstName string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		TelegramID:   telegramID,
		FirstName:    firstName,
		IsActive:     true,
		Preferences:  models.Preferences{Notifications: true},
		LastActiveAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repository.InsertUser(context.Background(), db, u))
	return u
}

func CreateCategory(t testing.TB, db *sqlx.DB, name, slug string) *models.Category {
	t.Helper()
	now := time.Now().UTC()
	c := &models.Category{Name: name, Slug: slug, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repository.InsertCategory(context.Background(), db, c))
	return c
}

// CreateProduct stores an active, stock tracked product priced at price.
func CreateProduct(t testing.TB, db *sqlx.DB, categoryID int64, name, price string, stock int) *models.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &models.Product{
		Name:       name,
		Slug:       fmt.Sprintf("product-%d", dbSeq.Add(1)),
		Price:      decimal.RequireFromString(price),
		Currency:   "USD",
		CategoryID: categoryID,
		Images:     models.StringList{},
		Tags:       models.StringList{},
		Stock:      stock,
		TrackStock: true,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repository.InsertProduct(context.Background(), db, p))
	return p
}

func ProductStock(t testing.TB, db *sqlx.DB, id int64) int {
	t.Helper()
	p, err := repository.FindProductByID(context.Background(), db, id)
	require.NoError(t, err)
	return p.Stock
}

// Address is a complete shipping address.
func Address() models.Address {
	return models.Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Address1:   "12 Analytical St",
		City:       "London",
		PostalCode: "N1 9GU",
		Country:    "GB",
		Phone:      "+441234567890",
	}
}
