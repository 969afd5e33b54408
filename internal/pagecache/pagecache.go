// Package pagecache keeps fetched catalog pages on disk so parse stages can
// be re-run without hitting the site again.
package pagecache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"net/url"
	"time"

	"catalog-backend/internal/components/assert"
	"catalog-backend/internal/components/chrono"
	"catalog-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
)

const (
	report_cache_key   = "pagecache.key"
	report_cache_read  = "pagecache.read"
	report_cache_write = "pagecache.write"
)

type webpage struct {
	Contents  string
	ExpiresAt int64
}

// Cache is a badger backed page cache keyed by normalized url.
type Cache struct {
	db   *badger.DB
	ttl  time.Duration
	time chrono.TimeAPI
	tel  telemetry.API
}

// Open opens (or creates) the cache in dir.
func Open(dir string, ttl time.Duration, clock chrono.TimeAPI, tel telemetry.API) (Cache, error) {
	assert.NotEmptyStr(dir)
	assert.NotNil(clock)
	assert.NotNil(tel)

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return Cache{}, err
	}
	return New(db, ttl, clock, tel), nil
}

// OpenInMemory is Open without touching the filesystem.
func OpenInMemory(ttl time.Duration, clock chrono.TimeAPI, tel telemetry.API) (Cache, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return Cache{}, err
	}
	return New(db, ttl, clock, tel), nil
}

func New(db *badger.DB, ttl time.Duration, clock chrono.TimeAPI, tel telemetry.API) Cache {
	return Cache{
		db:   db,
		ttl:  ttl,
		time: clock,
		tel:  telemetry.NewScopedAPI("pagecache", tel),
	}
}

func (c Cache) Close() error {
	return c.db.Close()
}

func key(link string) (string, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	return purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	), nil
}

// Get returns the cached page when present and not expired, expired pages
// are deleted.
func (c Cache) Get(_ context.Context, link string) (string, bool) {
	k, err := key(link)
	if err != nil {
		c.tel.ReportWarning(report_cache_key, err, link)
		return "", false
	}

	var cached webpage
	err = c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(k))
		if err != nil {
			return err
		}
		return item.Value(func(serialized []byte) error {
			return gob.NewDecoder(bytes.NewReader(serialized)).Decode(&cached)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false
	}
	if err != nil {
		c.tel.ReportBroken(report_cache_read, err, k)
		return "", false
	}

	if c.time.Now().Unix() >= cached.ExpiresAt {
		err = c.db.Update(func(tx *badger.Txn) error {
			return tx.Delete([]byte(k))
		})
		if err != nil {
			c.tel.ReportBroken(report_cache_write, err, k)
		}
		return "", false
	}

	return cached.Contents, true
}

func (c Cache) Set(_ context.Context, link, contents string) {
	k, err := key(link)
	if err != nil {
		c.tel.ReportWarning(report_cache_key, err, link)
		return
	}

	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(webpage{
		Contents:  contents,
		ExpiresAt: c.time.Now().Add(c.ttl).Unix(),
	})
	if err != nil {
		c.tel.ReportBroken(report_cache_write, err, k)
		return
	}

	err = c.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(k), serialized.Bytes())
	})
	if err != nil {
		c.tel.ReportBroken(report_cache_write, err, k)
	}
}
